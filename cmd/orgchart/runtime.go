package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/iota-uz/orgmatrix/modules"
	"github.com/iota-uz/orgmatrix/modules/orgchart/services"
	"github.com/iota-uz/orgmatrix/pkg/application"
	"github.com/iota-uz/orgmatrix/pkg/composables"
	"github.com/iota-uz/orgmatrix/pkg/configuration"
)

// runtime is a loaded application plus a context that carries its pool and logger.
type runtime struct {
	ctx   context.Context
	app   application.Application
	close func()
}

func openRuntime(ctx context.Context) (*runtime, error) {
	conf := configuration.Use()
	logger := conf.Logger()

	var pool *pgxpool.Pool
	if conf.OrgChart.Store == configuration.StorePostgres {
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		var err error
		pool, err = pgxpool.New(dialCtx, conf.Database.PoolConnectionString())
		if err != nil {
			return nil, withCode(exitDB, errors.Wrap(err, "connect"))
		}
		if err := pool.Ping(dialCtx); err != nil {
			pool.Close()
			return nil, withCode(exitDB, errors.Wrap(err, "ping"))
		}
		ctx = composables.WithPool(ctx, pool)
	}

	app := application.New(&application.ApplicationOptions{Pool: pool, Logger: logger})
	if err := modules.Load(app, modules.BuiltInModules(conf)...); err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, withCode(exitUsage, errors.Wrap(err, "load modules"))
	}

	ctx = composables.WithLogger(ctx, logger.WithField("component", "orgchart-cli"))
	return &runtime{
		ctx: ctx,
		app: app,
		close: func() {
			if pool != nil {
				pool.Close()
			}
			conf.Unload()
		},
	}, nil
}

func (r *runtime) structure() *services.StructureService {
	return r.app.Service(services.StructureService{}).(*services.StructureService)
}

func (r *runtime) projection() *services.ProjectionService {
	return r.app.Service(services.ProjectionService{}).(*services.ProjectionService)
}
