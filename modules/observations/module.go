package observations

import (
	_ "embed"

	"github.com/ar3/our-gruuv-sub016/modules/observations/infrastructure/persistence"
	"github.com/ar3/our-gruuv-sub016/modules/observations/services"
	"github.com/ar3/our-gruuv-sub016/pkg/application"
	"github.com/ar3/our-gruuv-sub016/pkg/outbox"
)

//go:embed infrastructure/persistence/schema/observations-schema.sql
var migrationSchema string

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema("observations", migrationSchema)
	app.RegisterServices(
		services.NewObservationService(
			persistence.NewObservationRepository(),
			persistence.NewMomentRepository(),
			outbox.NewPublisher(),
		),
	)
	return nil
}

func (m *Module) Name() string {
	return "observations"
}
