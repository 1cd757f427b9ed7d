package modules

import (
	"github.com/iota-uz/orgmatrix/modules/orgchart"
	"github.com/iota-uz/orgmatrix/pkg/application"
	"github.com/iota-uz/orgmatrix/pkg/configuration"
)

// BuiltInModules lists the modules every entry point loads.
func BuiltInModules(conf *configuration.Configuration) []application.Module {
	return []application.Module{
		orgchart.NewModule(orgchart.OptionsFromConfig(conf.OrgChart)),
	}
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
