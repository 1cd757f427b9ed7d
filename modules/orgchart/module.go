package orgchart

import (
	"fmt"

	"github.com/iota-uz/orgmatrix/modules/orgchart/domain/catalog"
	"github.com/iota-uz/orgmatrix/modules/orgchart/domain/rules"
	"github.com/iota-uz/orgmatrix/modules/orgchart/infrastructure/memstore"
	"github.com/iota-uz/orgmatrix/modules/orgchart/infrastructure/persistence"
	"github.com/iota-uz/orgmatrix/modules/orgchart/presentation/controllers"
	"github.com/iota-uz/orgmatrix/modules/orgchart/services"
	"github.com/iota-uz/orgmatrix/pkg/application"
	"github.com/iota-uz/orgmatrix/pkg/configuration"
)

type ModuleOptions struct {
	// Store is configuration.StorePostgres or configuration.StoreMemory.
	Store       string
	RulesFile   string
	CatalogFile string
	Services    services.Options
	// Memory, when set, backs the memory store instead of a fresh one.
	Memory *memstore.Store
}

// OptionsFromConfig maps ORGCHART_* settings onto module options.
func OptionsFromConfig(conf configuration.OrgChartOptions) *ModuleOptions {
	return &ModuleOptions{
		Store:       conf.Store,
		RulesFile:   conf.RulesFile,
		CatalogFile: conf.CatalogFile,
		Services: services.Options{
			AllowRelationSelfLoops: conf.AllowRelationSelfLoops,
		},
	}
}

func NewModule(opts *ModuleOptions) application.Module {
	if opts == nil {
		opts = &ModuleOptions{Store: configuration.StorePostgres}
	}
	return &Module{options: opts}
}

type Module struct {
	options *ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(persistence.SchemaFS())

	repo, tx, err := m.store()
	if err != nil {
		return err
	}
	r := rules.Default()
	if m.options.RulesFile != "" {
		if r, err = rules.Load(m.options.RulesFile); err != nil {
			return fmt.Errorf("orgchart: %w", err)
		}
	}
	c := catalog.Default()
	if m.options.CatalogFile != "" {
		if c, err = catalog.Load(m.options.CatalogFile); err != nil {
			return fmt.Errorf("orgchart: %w", err)
		}
	}

	app.RegisterServices(
		services.NewStructureService(repo, tx, m.options.Services),
		services.NewMatrixService(repo, tx),
		services.NewProjectionService(repo, tx, r, c, m.options.Services),
		services.NewDeletionGuard(repo, tx),
	)

	app.RegisterControllers(
		controllers.NewOrgChartAPIController(app),
	)
	return nil
}

func (m *Module) store() (services.Repository, services.Transactor, error) {
	switch m.options.Store {
	case configuration.StoreMemory:
		store := m.options.Memory
		if store == nil {
			store = memstore.New()
		}
		return store, store, nil
	case configuration.StorePostgres, "":
		return persistence.NewRepository(), persistence.Transactor{}, nil
	}
	return nil, nil, fmt.Errorf("orgchart: unknown store %q", m.options.Store)
}

func (m *Module) Name() string {
	return "orgchart"
}
