package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/orgmatrix/modules/orgchart/services"
)

const functionCodePrefix = "FUN_"

type importOptions struct {
	file   string
	sheet  string
	dryRun bool
}

type importedFunction struct {
	Row       int    `json:"row"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	SectionID int64  `json:"section_id"`
}

type skippedRow struct {
	Row    int    `json:"row"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type importReport struct {
	Sheet   string             `json:"sheet"`
	DryRun  bool               `json:"dry_run"`
	Created []importedFunction `json:"created"`
	Skipped []skippedRow       `json:"skipped"`
}

func newImportFunctionsCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import-functions",
		Short: "Create functions from a spreadsheet (name, section, division, description columns)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := excelize.OpenFile(opts.file)
			if err != nil {
				return withCode(exitIO, errors.Wrap(err, "open spreadsheet"))
			}
			defer func() { _ = f.Close() }()

			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			report, err := importFunctions(rt.ctx, rt.structure(), f, opts)
			if err != nil {
				return err
			}
			return writeJSONLine(report)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "Spreadsheet (.xlsx) to read (required)")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "Sheet name (default: first sheet)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Resolve rows and report without writing")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func importFunctions(ctx context.Context, structure *services.StructureService, f *excelize.File, opts importOptions) (importReport, error) {
	sheet := opts.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	report := importReport{Sheet: sheet, DryRun: opts.dryRun, Created: []importedFunction{}, Skipped: []skippedRow{}}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return report, withCode(exitIO, errors.Wrapf(err, "read sheet %q", sheet))
	}
	if len(rows) == 0 {
		return report, withCode(exitValidation, fmt.Errorf("sheet %q is empty", sheet))
	}
	cols := detectColumns(rows[0])
	if _, ok := cols[colName]; !ok {
		return report, withCode(exitValidation, errors.New("no function name column found in header"))
	}
	_, hasSection := cols[colSection]
	_, hasDivision := cols[colDivision]
	if !hasSection && !hasDivision {
		return report, withCode(exitValidation, errors.New("header needs a section or division column"))
	}

	sections, err := structure.ListSections(ctx, services.SectionFilter{})
	if err != nil {
		return report, withCode(exitDB, err)
	}
	divisions, err := structure.ListDivisions(ctx, services.DivisionFilter{})
	if err != nil {
		return report, withCode(exitDB, err)
	}
	existing, err := structure.ListFunctions(ctx, services.FunctionFilter{})
	if err != nil {
		return report, withCode(exitDB, err)
	}

	taken := make(map[string]bool, len(existing))
	for _, fn := range existing {
		taken[fold(fn.Name)] = true
	}
	next := nextCodeAfter(existing)

	for i, row := range rows[1:] {
		line := i + 2
		name := cell(row, cols, colName)
		if name == "" {
			continue
		}
		if taken[fold(name)] {
			report.Skipped = append(report.Skipped, skippedRow{Row: line, Name: name, Reason: "function already exists"})
			continue
		}
		sec, ok := resolveSection(sections, divisions, cell(row, cols, colSection), cell(row, cols, colDivision))
		if !ok {
			report.Skipped = append(report.Skipped, skippedRow{Row: line, Name: name, Reason: "section not resolved"})
			continue
		}

		code := fmt.Sprintf("%s%02d", functionCodePrefix, next)
		if !opts.dryRun {
			_, err := structure.CreateFunction(ctx, services.Function{
				Name:        name,
				Code:        code,
				Description: cell(row, cols, colDescription),
				SectionID:   sec.ID,
				IsActive:    true,
			})
			if err != nil {
				report.Skipped = append(report.Skipped, skippedRow{Row: line, Name: name, Reason: err.Error()})
				continue
			}
		}
		next++
		taken[fold(name)] = true
		report.Created = append(report.Created, importedFunction{Row: line, Name: name, Code: code, SectionID: sec.ID})
	}
	return report, nil
}

// nextCodeAfter returns one past the highest numeric FUN_ suffix in use.
func nextCodeAfter(functions []services.Function) int {
	highest := 0
	for _, fn := range functions {
		suffix, ok := strings.CutPrefix(strings.ToUpper(fn.Code), functionCodePrefix)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(suffix); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}

// resolveSection matches the section by name, restricted to the named division when
// that division is found. With only a division it takes the division's first section.
func resolveSection(sections []services.Section, divisions []services.Division, sectionName, divisionName string) (services.Section, bool) {
	candidates := sections
	if div, ok := matchByName(divisions, divisionName, func(d services.Division) string { return d.Name }); ok {
		candidates = make([]services.Section, 0, len(sections))
		for _, s := range sections {
			if s.DivisionID == div.ID {
				candidates = append(candidates, s)
			}
		}
		if sectionName == "" && len(candidates) > 0 {
			return candidates[0], true
		}
	}
	return matchByName(candidates, sectionName, func(s services.Section) string { return s.Name })
}
