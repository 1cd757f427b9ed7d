package main

import (
	"context"
	"database/sql"
	"io/fs"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/iota-uz/orgmatrix/modules/orgchart/infrastructure/persistence"
	"github.com/iota-uz/orgmatrix/pkg/application"
	"github.com/iota-uz/orgmatrix/pkg/configuration"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect the org-chart schema",
	}
	cmd.AddCommand(
		migrateSubcommand("up", "Apply every pending migration", func(ctx context.Context, db *sql.DB) error {
			conf := configuration.Use()
			return application.ApplySchemas(ctx, db, []fs.FS{persistence.SchemaFS()}, conf.Logger())
		}),
		migrateSubcommand("down", "Roll back the latest migration", func(ctx context.Context, db *sql.DB) error {
			return application.RollbackSchema(ctx, db, persistence.SchemaFS())
		}),
		migrateSubcommand("status", "Print applied and pending migrations", func(ctx context.Context, db *sql.DB) error {
			return application.SchemaStatus(ctx, db, persistence.SchemaFS())
		}),
	)
	return cmd
}

func migrateSubcommand(use, short string, run func(ctx context.Context, db *sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf := configuration.Use()
			defer conf.Unload()

			db, err := sql.Open("postgres", conf.Database.ConnectionString())
			if err != nil {
				return withCode(exitDB, errors.Wrap(err, "open database"))
			}
			defer func() { _ = db.Close() }()
			if err := db.PingContext(cmd.Context()); err != nil {
				return withCode(exitDB, errors.Wrap(err, "ping database"))
			}
			if err := run(cmd.Context(), db); err != nil {
				return withCode(exitDBWrite, err)
			}
			return nil
		},
	}
}
