package modules

import (
	"github.com/ar3/our-gruuv-sub016/modules/economy"
	"github.com/ar3/our-gruuv-sub016/modules/observations"
	"github.com/ar3/our-gruuv-sub016/modules/people"
	"github.com/ar3/our-gruuv-sub016/pkg/application"
)

// BuiltInModules is the default load order. The economy module subscribes
// to observation events, so observations registers first.
var BuiltInModules = []application.Module{
	people.NewModule(),
	observations.NewModule(),
	economy.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
