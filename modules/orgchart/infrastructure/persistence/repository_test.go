package persistence_test

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgmatrix/modules/orgchart/infrastructure/persistence"
	"github.com/iota-uz/orgmatrix/modules/orgchart/services"
	"github.com/iota-uz/orgmatrix/pkg/application"
	"github.com/iota-uz/orgmatrix/pkg/composables"
	"github.com/iota-uz/orgmatrix/pkg/configuration"
)

// testContext connects with the DB_* settings, applies the schema and empties every
// table. The test is skipped when no server answers.
func testContext(t *testing.T) context.Context {
	t.Helper()
	conf, err := configuration.Load()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.ConnectionString())
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(pool.Close)

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	require.NoError(t, application.ApplySchemas(context.Background(), db, []fs.FS{persistence.SchemaFS()}, nil))

	_, err = pool.Exec(context.Background(), `TRUNCATE functional_relations, functional_assignments, staff_positions,
		functions, staff, positions, sections, divisions, organizations RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return composables.WithPool(context.Background(), pool)
}

func TestRepository_StructureAndEdges(t *testing.T) {
	ctx := testContext(t)
	repo := persistence.NewRepository()
	tx := persistence.Transactor{}
	structure := services.NewStructureService(repo, tx, services.Options{})
	matrix := services.NewMatrixService(repo, tx)
	guard := services.NewDeletionGuard(repo, tx)

	org, err := structure.CreateOrganization(ctx, services.Organization{Name: "Фотоматрица", Code: "PM", IsActive: true})
	require.NoError(t, err)
	require.Positive(t, org.ID)
	require.False(t, org.CreatedAt.IsZero())

	div, err := structure.CreateDivision(ctx, services.Division{Name: "Производство", Code: "PROD", OrganizationID: org.ID, IsActive: true})
	require.NoError(t, err)
	require.Equal(t, services.DivisionTypeDepartment, div.Type)

	sec, err := structure.CreateSection(ctx, services.Section{Name: "Печать", Code: "PRINT", DivisionID: div.ID, IsActive: true})
	require.NoError(t, err)

	head, err := structure.CreatePosition(ctx, services.Position{Name: "Начальник", Code: "HEAD", DivisionID: &div.ID, IsActive: true})
	require.NoError(t, err)
	printer, err := structure.CreatePosition(ctx, services.Position{Name: "Печатник", Code: "PRN", SectionID: &sec.ID, IsActive: true})
	require.NoError(t, err)
	require.NotNil(t, printer.DivisionID)
	require.Equal(t, div.ID, *printer.DivisionID)

	staff, err := structure.CreateStaff(ctx, services.Staff{FirstName: "Иван", LastName: "Иванов", MiddleName: "Петрович", IsActive: true})
	require.NoError(t, err)
	_, err = structure.CreateStaffPosition(ctx, services.StaffPosition{StaffID: staff.ID, PositionID: printer.ID, IsPrimary: true})
	require.NoError(t, err)

	fn, err := structure.CreateFunction(ctx, services.Function{Name: "Печать заказов", Code: "FUN_01", SectionID: sec.ID, IsActive: true})
	require.NoError(t, err)
	_, err = structure.CreateFunctionalAssignment(ctx, services.FunctionalAssignment{PositionID: printer.ID, FunctionID: fn.ID, Percentage: 80})
	require.NoError(t, err)
	_, err = structure.CreateFunctionalRelation(ctx, services.FunctionalRelation{SourceID: head.ID, TargetID: printer.ID, Weight: 1})
	require.NoError(t, err)

	holders, err := repo.ListStaffAssignments(ctx, services.StaffPositionFilter{PositionID: &printer.ID})
	require.NoError(t, err)
	require.Len(t, holders, 1)
	require.Equal(t, "Иванов Иван Петрович", holders[0].StaffName)
	require.Equal(t, "Печатник", holders[0].PositionName)

	relations, err := matrix.RelationsForPosition(ctx, printer.ID)
	require.NoError(t, err)
	require.Len(t, relations, 1)
	require.Equal(t, services.DirectionIncoming, relations[0].Direction)
	require.Equal(t, "Начальник", relations[0].CounterpartName)

	under, err := matrix.FunctionsUnderDivision(ctx, div.ID, false)
	require.NoError(t, err)
	require.Len(t, under, 1)
	require.Equal(t, "FUN_01", under[0].FunctionCode)
	require.Equal(t, 80, under[0].Percentage)

	err = guard.DeletePosition(ctx, printer.ID)
	require.True(t, services.IsKind(err, services.ErrKindConflict), "got %v", err)

	err = guard.DeleteDivision(ctx, 999)
	require.True(t, services.IsKind(err, services.ErrKindNotFound), "got %v", err)
}

func TestRepository_OverlappingPrimaryRejectedByConstraint(t *testing.T) {
	ctx := testContext(t)
	repo := persistence.NewRepository()

	org := services.Organization{Name: "A", Code: "A", IsActive: true}
	require.NoError(t, repo.InsertOrganization(ctx, &org))
	staff := services.Staff{FirstName: "A", LastName: "B", IsActive: true}
	require.NoError(t, repo.InsertStaff(ctx, &staff))
	p1 := services.Position{Name: "P1", Code: "P1", IsActive: true}
	require.NoError(t, repo.InsertPosition(ctx, &p1))
	p2 := services.Position{Name: "P2", Code: "P2", IsActive: true}
	require.NoError(t, repo.InsertPosition(ctx, &p2))

	require.NoError(t, repo.InsertStaffPosition(ctx, &services.StaffPosition{StaffID: staff.ID, PositionID: p1.ID, IsPrimary: true}))

	// The repository bypasses the service check, so the exclusion constraint fires.
	err := repo.InsertStaffPosition(ctx, &services.StaffPosition{StaffID: staff.ID, PositionID: p2.ID, IsPrimary: true})
	require.Error(t, err)

	exists, err := repo.PositionCodeExists(ctx, nil, "P1", 0)
	require.NoError(t, err)
	require.True(t, exists)

	require.ErrorIs(t, repo.DeleteFunctionalRelation(ctx, 12345), services.ErrRecordNotFound)
	require.ErrorIs(t, repo.LockRow(ctx, services.KindPosition, 12345), services.ErrRecordNotFound)
}

func TestTransactor_ReadTxKeepsOneSnapshot(t *testing.T) {
	ctx := testContext(t)
	repo := persistence.NewRepository()
	tx := persistence.Transactor{}

	first := services.Organization{Name: "First", Code: "FST", IsActive: true}
	require.NoError(t, repo.InsertOrganization(ctx, &first))

	err := tx.InReadTx(ctx, func(txCtx context.Context) error {
		before, err := repo.ListOrganizations(txCtx)
		require.NoError(t, err)
		require.Len(t, before, 1)

		// Committed on another connection while the read transaction is open.
		late := services.Organization{Name: "Late", Code: "LATE", IsActive: true}
		require.NoError(t, repo.InsertOrganization(ctx, &late))

		after, err := repo.ListOrganizations(txCtx)
		require.NoError(t, err)
		require.Len(t, after, 1)

		return repo.InsertOrganization(txCtx, &services.Organization{Name: "Write", Code: "WRT", IsActive: true})
	})
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	require.Equal(t, "25006", pgErr.Code) // read_only_sql_transaction

	all, err := repo.ListOrganizations(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestRepository_LockHierarchyBlocksSameScope(t *testing.T) {
	ctx := testContext(t)
	repo := persistence.NewRepository()
	tx := persistence.Transactor{}

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- tx.InTx(ctx, func(txCtx context.Context) error {
			if err := repo.LockHierarchy(txCtx, services.KindDivision, 7); err != nil {
				return err
			}
			close(held)
			<-release
			return nil
		})
	}()
	select {
	case <-held:
	case err := <-done:
		require.FailNow(t, "lock holder finished early", "%v", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	err := tx.InTx(waitCtx, func(txCtx context.Context) error {
		return repo.LockHierarchy(txCtx, services.KindDivision, 7)
	})
	require.Error(t, err)

	require.NoError(t, tx.InTx(ctx, func(txCtx context.Context) error {
		return repo.LockHierarchy(txCtx, services.KindDivision, 8)
	}))

	close(release)
	require.NoError(t, <-done)
	require.NoError(t, tx.InTx(ctx, func(txCtx context.Context) error {
		return repo.LockHierarchy(txCtx, services.KindDivision, 7)
	}))
}
