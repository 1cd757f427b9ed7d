package main

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/orgmatrix/modules/orgchart/services"
)

const positionsSheet = "Positions"

var positionHeader = []any{"ID", "Код", "Должность", "Департамент", "Отдел", "Сотрудник", "Функции"}

func newExportPositionsCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "export-positions",
		Short: "Write every position with its placement, occupant and functions to a spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			f, err := exportPositions(rt.ctx, rt.structure(), time.Now().UTC())
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			if err := f.SaveAs(file); err != nil {
				return withCode(exitIO, errors.Wrap(err, "save spreadsheet"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Spreadsheet (.xlsx) to write (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func exportPositions(ctx context.Context, structure *services.StructureService, now time.Time) (*excelize.File, error) {
	positions, err := structure.ListPositions(ctx, services.PositionFilter{})
	if err != nil {
		return nil, withCode(exitDB, err)
	}
	divisions, err := structure.ListDivisions(ctx, services.DivisionFilter{})
	if err != nil {
		return nil, withCode(exitDB, err)
	}
	sections, err := structure.ListSections(ctx, services.SectionFilter{})
	if err != nil {
		return nil, withCode(exitDB, err)
	}
	holders, err := structure.ListStaffAssignments(ctx, services.StaffPositionFilter{})
	if err != nil {
		return nil, withCode(exitDB, err)
	}
	assigned, err := structure.ListAssignedFunctions(ctx, services.AssignmentFilter{})
	if err != nil {
		return nil, withCode(exitDB, err)
	}

	divisionNames := make(map[int64]string, len(divisions))
	for _, d := range divisions {
		divisionNames[d.ID] = d.Name
	}
	sectionNames := make(map[int64]string, len(sections))
	for _, s := range sections {
		sectionNames[s.ID] = s.Name
	}
	occupants := services.PickOccupants(holders, now)
	functions := make(map[int64][]string)
	for _, a := range assigned {
		functions[a.PositionID] = append(functions[a.PositionID], a.FunctionName)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), positionsSheet); err != nil {
		return nil, withCode(exitIO, err)
	}
	if err := f.SetSheetRow(positionsSheet, "A1", &positionHeader); err != nil {
		return nil, withCode(exitIO, err)
	}
	for i, p := range positions {
		row := []any{p.ID, p.Code, p.Name, "", "", "", strings.Join(functions[p.ID], "; ")}
		if p.DivisionID != nil {
			row[3] = divisionNames[*p.DivisionID]
		}
		if p.SectionID != nil {
			row[4] = sectionNames[*p.SectionID]
		}
		if occ, ok := occupants[p.ID]; ok {
			row[5] = occ.StaffName
		}
		ref, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, withCode(exitIO, err)
		}
		if err := f.SetSheetRow(positionsSheet, ref, &row); err != nil {
			return nil, withCode(exitIO, err)
		}
	}
	return f, nil
}
