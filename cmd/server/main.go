package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iota-uz/orgmatrix/internal/server"
	"github.com/iota-uz/orgmatrix/modules"
	"github.com/iota-uz/orgmatrix/pkg/application"
	"github.com/iota-uz/orgmatrix/pkg/configuration"
	"github.com/iota-uz/orgmatrix/pkg/logging"
	"github.com/iota-uz/orgmatrix/pkg/metrics"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	if conf.OpenTelemetry.Enabled {
		tracingCleanup := logging.SetupTracing(
			context.Background(),
			conf.OpenTelemetry.ServiceName,
			conf.OpenTelemetry.TempoURL,
		)
		defer tracingCleanup()
		logger.Info("OpenTelemetry tracing enabled, exporting to " + conf.OpenTelemetry.TempoURL)
	}

	var pool *pgxpool.Pool
	if conf.OrgChart.Store == configuration.StorePostgres {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		var err error
		pool, err = pgxpool.New(ctx, conf.Database.PoolConnectionString())
		cancel()
		if err != nil {
			panic(err)
		}
		defer pool.Close()
	} else {
		logger.Warn("ORGCHART_STORE=memory: data lives in process memory only")
	}

	app := application.New(&application.ApplicationOptions{
		Pool:   pool,
		Logger: logger,
	})
	if err := modules.Load(app, modules.BuiltInModules(conf)...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}
	if conf.OrgChart.AutoMigrate && pool != nil {
		if err := app.Migrations().Up(context.Background()); err != nil {
			log.Fatalf("failed to apply migrations: %v", err)
		}
	}
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	serverInstance, err := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
		Pool:          pool,
	})
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := serverInstance.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("graceful shutdown failed")
		}
	}()

	log.Printf("Listening on: %s\n", conf.Origin)
	if err := serverInstance.Start(conf.SocketAddress); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
