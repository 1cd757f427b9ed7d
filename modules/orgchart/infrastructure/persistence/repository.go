package persistence

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	gerrors "github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/orgmatrix/modules/orgchart/services"
	"github.com/iota-uz/orgmatrix/pkg/composables"
)

//go:embed schema/*.sql
var schemaFiles embed.FS

// SchemaFS exposes the goose migrations at the FS root.
func SchemaFS() fs.FS {
	sub, err := fs.Sub(schemaFiles, "schema")
	if err != nil {
		panic(err)
	}
	return sub
}

// Repository is the PostgreSQL entity store. Every call runs on the transaction
// stored in ctx, or on the pool when there is none.
type Repository struct{}

var _ services.Repository = (*Repository)(nil)

func NewRepository() *Repository {
	return &Repository{}
}

// Transactor opens transactions on the pool stored in ctx.
type Transactor struct{}

var _ services.Transactor = Transactor{}

func (Transactor) InTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return composables.InTx(ctx, fn)
}

// InReadTx runs fn in a read-only REPEATABLE READ transaction, so every statement
// sees the snapshot taken by the first one.
func (Transactor) InReadTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return composables.InTxWith(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

var tables = map[services.EntityKind]string{
	services.KindOrganization:         "organizations",
	services.KindDivision:             "divisions",
	services.KindSection:              "sections",
	services.KindPosition:             "positions",
	services.KindStaff:                "staff",
	services.KindFunction:             "functions",
	services.KindStaffPosition:        "staff_positions",
	services.KindFunctionalAssignment: "functional_assignments",
	services.KindFunctionalRelation:   "functional_relations",
}

func (r *Repository) LockRow(ctx context.Context, kind services.EntityKind, id int64) error {
	table, ok := tables[kind]
	if !ok {
		return fmt.Errorf("lock row: unknown entity kind %q", kind)
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	var locked int64
	err = tx.QueryRow(ctx, `SELECT id FROM `+table+` WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	return wrap(err, "lock %s %d", kind, id)
}

// LockHierarchy takes a transaction-scoped advisory lock on the parent links of kind
// within scopeID.
func (r *Repository) LockHierarchy(ctx context.Context, kind services.EntityKind, scopeID int64) error {
	table, ok := tables[kind]
	if !ok {
		return fmt.Errorf("lock hierarchy: unknown entity kind %q", kind)
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, $2))`, table, scopeID)
	return wrap(err, "lock %s hierarchy %d", kind, scopeID)
}

// wrap converts pgx.ErrNoRows into services.ErrRecordNotFound and annotates
// everything else.
func wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return services.ErrRecordNotFound
	}
	return gerrors.Wrap(err, fmt.Sprintf(format, args...))
}

func list[T any](ctx context.Context, op, query string, scan pgx.RowToFunc[T], args ...any) ([]T, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap(err, "%s", op)
	}
	out, err := pgx.CollectRows(rows, scan)
	if err != nil {
		return nil, wrap(err, "%s", op)
	}
	return out, nil
}

func one[T any](ctx context.Context, op, query string, scan pgx.RowToFunc[T], args ...any) (T, error) {
	var zero T
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return zero, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return zero, wrap(err, "%s", op)
	}
	out, err := pgx.CollectExactlyOneRow(rows, scan)
	if err != nil {
		return zero, wrap(err, "%s", op)
	}
	return out, nil
}

func exists(ctx context.Context, op, query string, args ...any) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	var found bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(`+query+`)`, args...).Scan(&found); err != nil {
		return false, wrap(err, "%s", op)
	}
	return found, nil
}

func execAffected(ctx context.Context, op, query string, args ...any) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, wrap(err, "%s", op)
	}
	return tag.RowsAffected(), nil
}

func deleteByID(ctx context.Context, kind services.EntityKind, id int64) error {
	n, err := execAffected(ctx, "delete "+string(kind), `DELETE FROM `+tables[kind]+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return services.ErrRecordNotFound
	}
	return nil
}

// where accumulates AND-ed predicates with positional arguments.
type where struct {
	clauses []string
	args    []any
}

// add appends a predicate; every %d in clause is replaced by the new argument's position.
func (w *where) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, strings.ReplaceAll(clause, "%d", fmt.Sprint(len(w.args))))
}

func (w *where) addOpt(clause string, arg *int64) {
	if arg != nil {
		w.add(clause, *arg)
	}
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}
