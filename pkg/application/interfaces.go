package application

import (
	"context"
	"reflect"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ar3/our-gruuv-sub016/pkg/eventbus"
)

// Application is the registry the modules wire themselves into.
type Application interface {
	DB() *pgxpool.Pool
	EventPublisher() eventbus.EventBus
	Controllers() []Controller
	Middleware() []mux.MiddlewareFunc
	Migrations() MigrationManager

	RegisterControllers(controllers ...Controller)
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	RegisterServices(services ...interface{})
	Service(service interface{}) interface{}
	Services() map[reflect.Type]interface{}
}

// Controller mounts a set of routes onto the root router.
type Controller interface {
	Key() string
	Register(r *mux.Router)
}

// Module is a self-contained feature slice that registers its services,
// controllers and schema against the application.
type Module interface {
	Name() string
	Register(app Application) error
}

type SeedFunc func(ctx context.Context, app Application) error

type Seeder interface {
	Register(seedFuncs ...SeedFunc)
	Seed(ctx context.Context, app Application) error
}

// MigrationManager collects embedded schema files from modules and applies
// them in registration order.
type MigrationManager interface {
	RegisterSchema(name string, ddl string)
	Run(ctx context.Context) error
}
