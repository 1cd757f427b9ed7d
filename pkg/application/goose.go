package application

import (
	"context"
	"database/sql"
	"io/fs"
	"sync"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// ApplySchemas runs every pending goose migration found at the root of each schema FS.
func ApplySchemas(ctx context.Context, db *sql.DB, schemas []fs.FS, logger *logrus.Logger) error {
	return withGoose(func() error {
		for _, fsys := range schemas {
			goose.SetBaseFS(fsys)
			if err := goose.UpContext(ctx, db, ".", goose.WithAllowMissing()); err != nil {
				return errors.Wrap(err, "apply migrations")
			}
		}
		if logger != nil {
			logger.WithField("schemas", len(schemas)).Info("migrations applied")
		}
		return nil
	})
}

// RollbackSchema rolls back the most recent migration of the given schema.
func RollbackSchema(ctx context.Context, db *sql.DB, schema fs.FS) error {
	return withGoose(func() error {
		goose.SetBaseFS(schema)
		return errors.Wrap(goose.DownContext(ctx, db, "."), "rollback migration")
	})
}

func SchemaStatus(ctx context.Context, db *sql.DB, schema fs.FS) error {
	return withGoose(func() error {
		goose.SetBaseFS(schema)
		return errors.Wrap(goose.StatusContext(ctx, db, "."), "migration status")
	})
}

func withGoose(fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return fn()
}
