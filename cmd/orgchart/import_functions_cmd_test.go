package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/orgmatrix/modules/orgchart/infrastructure/memstore"
	"github.com/iota-uz/orgmatrix/modules/orgchart/services"
)

type fixture struct {
	ctx       context.Context
	structure *services.StructureService
	sales     services.Section
	printing  services.Section
	prod      services.Division
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	s := services.NewStructureService(store, store, services.Options{})
	ctx := context.Background()

	org, err := s.CreateOrganization(ctx, services.Organization{Name: "Фотоматрица", Code: "PM", IsActive: true})
	require.NoError(t, err)
	commerce, err := s.CreateDivision(ctx, services.Division{Name: "Коммерческий департамент", Code: "COM", OrganizationID: org.ID, IsActive: true})
	require.NoError(t, err)
	prod, err := s.CreateDivision(ctx, services.Division{Name: "Производство", Code: "PROD", OrganizationID: org.ID, IsActive: true})
	require.NoError(t, err)
	sales, err := s.CreateSection(ctx, services.Section{Name: "Отдел продаж", Code: "SALES", DivisionID: commerce.ID, IsActive: true})
	require.NoError(t, err)
	printing, err := s.CreateSection(ctx, services.Section{Name: "Печать", Code: "PRINT", DivisionID: prod.ID, IsActive: true})
	require.NoError(t, err)
	_, err = s.CreateFunction(ctx, services.Function{Name: "Продажи продуктов и услуг", Code: "FUN_07", SectionID: sales.ID, IsActive: true})
	require.NoError(t, err)

	return &fixture{ctx: ctx, structure: s, sales: sales, printing: printing, prod: prod}
}

func workbook(t *testing.T, rows ...[]any) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	for i := range rows {
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", ref, &rows[i]))
	}
	return f
}

func TestDetectColumns(t *testing.T) {
	t.Parallel()

	cols := detectColumns([]string{"№", " Наименование ", "ОТДЕЛ", "Департамент", "Комментарий"})
	require.Equal(t, map[column]int{colName: 1, colSection: 2, colDivision: 3, colDescription: 4}, cols)

	cols = detectColumns([]string{"Title", "Section"})
	require.Equal(t, 0, cols[colName])
	require.Equal(t, 1, cols[colSection])
	_, ok := cols[colDivision]
	require.False(t, ok)
}

func TestNextCodeAfter(t *testing.T) {
	t.Parallel()

	require.Equal(t, 1, nextCodeAfter(nil))
	require.Equal(t, 13, nextCodeAfter([]services.Function{
		{Code: "FUN_03"}, {Code: "fun_12"}, {Code: "FUN_X"}, {Code: "HR_99"},
	}))
}

func TestImportFunctions(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)

	f := workbook(t,
		[]any{"Название", "Отдел", "Департамент", "Описание"},
		[]any{"Печать заказов", "печать", "", "Цифровая и офсетная"},
		[]any{"Работа с дилерами", "продаж", "Коммерческий", ""},
		[]any{"Приемка тиража", "", "Производство", ""},
		[]any{"Продажи продуктов и услуг", "Отдел продаж", "", ""},
		[]any{"Аудит", "Бухгалтерия", "", ""},
		[]any{"", "Печать", "", ""},
	)

	dry, err := importFunctions(fx.ctx, fx.structure, f, importOptions{dryRun: true})
	require.NoError(t, err)
	require.Len(t, dry.Created, 3)
	all, err := fx.structure.ListFunctions(fx.ctx, services.FunctionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)

	report, err := importFunctions(fx.ctx, fx.structure, f, importOptions{})
	require.NoError(t, err)
	require.Equal(t, "Sheet1", report.Sheet)
	require.Equal(t, []importedFunction{
		{Row: 2, Name: "Печать заказов", Code: "FUN_08", SectionID: fx.printing.ID},
		{Row: 3, Name: "Работа с дилерами", Code: "FUN_09", SectionID: fx.sales.ID},
		{Row: 4, Name: "Приемка тиража", Code: "FUN_10", SectionID: fx.printing.ID},
	}, report.Created)
	require.Equal(t, []skippedRow{
		{Row: 5, Name: "Продажи продуктов и услуг", Reason: "function already exists"},
		{Row: 6, Name: "Аудит", Reason: "section not resolved"},
	}, report.Skipped)

	created, err := fx.structure.GetFunction(fx.ctx, 2)
	require.NoError(t, err)
	require.Equal(t, "Цифровая и офсетная", created.Description)

	again, err := importFunctions(fx.ctx, fx.structure, f, importOptions{})
	require.NoError(t, err)
	require.Empty(t, again.Created)
	require.Len(t, again.Skipped, 5)
}

func TestImportFunctions_RejectsUnknownHeader(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)

	_, err := importFunctions(fx.ctx, fx.structure, workbook(t, []any{"Что-то", "Отдел"}), importOptions{})
	require.Error(t, err)
	require.Equal(t, exitValidation, exitCode(err))

	_, err = importFunctions(fx.ctx, fx.structure, workbook(t, []any{"Название", "Сотрудник"}), importOptions{})
	require.Error(t, err)
	require.Equal(t, exitValidation, exitCode(err))
}

func TestExportPositions(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	s := fx.structure

	pos, err := s.CreatePosition(fx.ctx, services.Position{Name: "Печатник", Code: "PRN", SectionID: &fx.printing.ID, IsActive: true})
	require.NoError(t, err)
	vacant, err := s.CreatePosition(fx.ctx, services.Position{Name: "Технолог", Code: "TECH", DivisionID: &fx.prod.ID, IsActive: true})
	require.NoError(t, err)
	staff, err := s.CreateStaff(fx.ctx, services.Staff{FirstName: "Иван", LastName: "Иванов", IsActive: true})
	require.NoError(t, err)
	_, err = s.CreateStaffPosition(fx.ctx, services.StaffPosition{StaffID: staff.ID, PositionID: pos.ID, IsPrimary: true})
	require.NoError(t, err)
	fn, err := s.CreateFunction(fx.ctx, services.Function{Name: "Печать заказов", Code: "FUN_08", SectionID: fx.printing.ID, IsActive: true})
	require.NoError(t, err)
	_, err = s.CreateFunctionalAssignment(fx.ctx, services.FunctionalAssignment{PositionID: pos.ID, FunctionID: fn.ID, Percentage: 100})
	require.NoError(t, err)

	f, err := exportPositions(fx.ctx, s, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	rows, err := f.GetRows(positionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, []string{"ID", "Код", "Должность", "Департамент", "Отдел", "Сотрудник", "Функции"}, rows[0])
	require.Equal(t, []string{"1", "PRN", "Печатник", "Производство", "Печать", "Иванов Иван", "Печать заказов"}, rows[1])
	require.Equal(t, vacant.Code, rows[2][1])
	require.Equal(t, "Производство", rows[2][3])
}
