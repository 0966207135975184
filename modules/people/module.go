package people

import (
	_ "embed"

	"github.com/ar3/our-gruuv-sub016/modules/people/infrastructure/persistence"
	"github.com/ar3/our-gruuv-sub016/modules/people/services"
	"github.com/ar3/our-gruuv-sub016/pkg/application"
)

//go:embed infrastructure/persistence/schema/people-schema.sql
var migrationSchema string

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema("people", migrationSchema)
	app.RegisterServices(
		services.NewTeammateService(persistence.NewTeammateRepository(), app.EventPublisher()),
	)
	return nil
}

func (m *Module) Name() string {
	return "people"
}
