package persistence

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/orgmatrix/modules/orgchart/services"
)

const (
	staffPositionColumns = `id, staff_id, position_id, is_primary, start_date, end_date, created_at`
	assignmentColumns    = `id, position_id, function_id, percentage, is_primary, start_date, end_date, created_at`
	relationColumns      = `id, source_id, target_id, relation_type, weight, description, created_at`
)

func scanStaffPosition(row pgx.CollectableRow) (services.StaffPosition, error) {
	var sp services.StaffPosition
	err := row.Scan(&sp.ID, &sp.StaffID, &sp.PositionID, &sp.IsPrimary, &sp.StartDate, &sp.EndDate, &sp.CreatedAt)
	return sp, err
}

func scanAssignment(row pgx.CollectableRow) (services.FunctionalAssignment, error) {
	var fa services.FunctionalAssignment
	err := row.Scan(&fa.ID, &fa.PositionID, &fa.FunctionID, &fa.Percentage, &fa.IsPrimary, &fa.StartDate, &fa.EndDate, &fa.CreatedAt)
	return fa, err
}

func scanRelation(row pgx.CollectableRow) (services.FunctionalRelation, error) {
	var fr services.FunctionalRelation
	err := row.Scan(&fr.ID, &fr.SourceID, &fr.TargetID, &fr.RelationType, &fr.Weight, &fr.Description, &fr.CreatedAt)
	return fr, err
}

func (r *Repository) ListStaffAssignments(ctx context.Context, filter services.StaffPositionFilter) ([]services.StaffAssignment, error) {
	var w where
	w.addOpt("sp.staff_id = $%d", filter.StaffID)
	w.addOpt("sp.position_id = $%d", filter.PositionID)
	return list(ctx, "list staff assignments", `
SELECT sp.id, sp.staff_id, sp.position_id, sp.is_primary, sp.start_date, sp.end_date, sp.created_at,
       concat_ws(' ', s.last_name, s.first_name, NULLIF(s.middle_name, '')), p.name
FROM staff_positions sp
JOIN staff s ON s.id = sp.staff_id
JOIN positions p ON p.id = sp.position_id`+w.String()+`
ORDER BY sp.id`,
		func(row pgx.CollectableRow) (services.StaffAssignment, error) {
			var a services.StaffAssignment
			err := row.Scan(&a.ID, &a.StaffID, &a.PositionID, &a.IsPrimary, &a.StartDate, &a.EndDate, &a.CreatedAt,
				&a.StaffName, &a.PositionName)
			return a, err
		}, w.args...)
}

func (r *Repository) GetStaffPosition(ctx context.Context, id int64) (services.StaffPosition, error) {
	return one(ctx, "get staff position", `SELECT `+staffPositionColumns+` FROM staff_positions WHERE id = $1`, scanStaffPosition, id)
}

func (r *Repository) StaffPositionExists(ctx context.Context, staffID, positionID, excludeID int64) (bool, error) {
	return exists(ctx, "staff position exists",
		`SELECT 1 FROM staff_positions WHERE staff_id = $1 AND position_id = $2 AND id <> $3`, staffID, positionID, excludeID)
}

func (r *Repository) InsertStaffPosition(ctx context.Context, sp *services.StaffPosition) error {
	return stamp(ctx, "insert staff position", `
INSERT INTO staff_positions (staff_id, position_id, is_primary, start_date, end_date)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at`,
		[]any{&sp.ID, &sp.CreatedAt},
		sp.StaffID, sp.PositionID, sp.IsPrimary, sp.StartDate, sp.EndDate)
}

func (r *Repository) UpdateStaffPosition(ctx context.Context, sp *services.StaffPosition) error {
	return stamp(ctx, "update staff position", `
UPDATE staff_positions
SET staff_id = $2, position_id = $3, is_primary = $4, start_date = $5, end_date = $6
WHERE id = $1
RETURNING id, created_at`,
		[]any{&sp.ID, &sp.CreatedAt},
		sp.ID, sp.StaffID, sp.PositionID, sp.IsPrimary, sp.StartDate, sp.EndDate)
}

func (r *Repository) DeleteStaffPosition(ctx context.Context, id int64) error {
	return deleteByID(ctx, services.KindStaffPosition, id)
}

func (r *Repository) DeleteStaffPositionsByPosition(ctx context.Context, positionID int64) (int64, error) {
	return execAffected(ctx, "delete staff positions by position", `DELETE FROM staff_positions WHERE position_id = $1`, positionID)
}

func (r *Repository) ListAssignedFunctions(ctx context.Context, filter services.AssignmentFilter) ([]services.AssignedFunction, error) {
	var w where
	w.addOpt("fa.position_id = $%d", filter.PositionID)
	w.addOpt("fa.function_id = $%d", filter.FunctionID)
	return list(ctx, "list assigned functions", `
SELECT fa.id, fa.position_id, fa.function_id, fa.percentage, fa.is_primary, fa.start_date, fa.end_date, fa.created_at,
       f.name, f.code, p.name
FROM functional_assignments fa
JOIN functions f ON f.id = fa.function_id
JOIN positions p ON p.id = fa.position_id`+w.String()+`
ORDER BY fa.id`,
		func(row pgx.CollectableRow) (services.AssignedFunction, error) {
			var a services.AssignedFunction
			err := row.Scan(&a.ID, &a.PositionID, &a.FunctionID, &a.Percentage, &a.IsPrimary, &a.StartDate, &a.EndDate, &a.CreatedAt,
				&a.FunctionName, &a.FunctionCode, &a.PositionName)
			return a, err
		}, w.args...)
}

func (r *Repository) GetFunctionalAssignment(ctx context.Context, id int64) (services.FunctionalAssignment, error) {
	return one(ctx, "get functional assignment", `SELECT `+assignmentColumns+` FROM functional_assignments WHERE id = $1`, scanAssignment, id)
}

func (r *Repository) FunctionalAssignmentExists(ctx context.Context, positionID, functionID, excludeID int64) (bool, error) {
	return exists(ctx, "functional assignment exists",
		`SELECT 1 FROM functional_assignments WHERE position_id = $1 AND function_id = $2 AND id <> $3`, positionID, functionID, excludeID)
}

func (r *Repository) InsertFunctionalAssignment(ctx context.Context, fa *services.FunctionalAssignment) error {
	return stamp(ctx, "insert functional assignment", `
INSERT INTO functional_assignments (position_id, function_id, percentage, is_primary, start_date, end_date)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at`,
		[]any{&fa.ID, &fa.CreatedAt},
		fa.PositionID, fa.FunctionID, fa.Percentage, fa.IsPrimary, fa.StartDate, fa.EndDate)
}

func (r *Repository) UpdateFunctionalAssignment(ctx context.Context, fa *services.FunctionalAssignment) error {
	return stamp(ctx, "update functional assignment", `
UPDATE functional_assignments
SET position_id = $2, function_id = $3, percentage = $4, is_primary = $5, start_date = $6, end_date = $7
WHERE id = $1
RETURNING id, created_at`,
		[]any{&fa.ID, &fa.CreatedAt},
		fa.ID, fa.PositionID, fa.FunctionID, fa.Percentage, fa.IsPrimary, fa.StartDate, fa.EndDate)
}

func (r *Repository) DeleteFunctionalAssignment(ctx context.Context, id int64) error {
	return deleteByID(ctx, services.KindFunctionalAssignment, id)
}

func (r *Repository) DeleteFunctionalAssignmentsByPosition(ctx context.Context, positionID int64) (int64, error) {
	return execAffected(ctx, "delete functional assignments by position",
		`DELETE FROM functional_assignments WHERE position_id = $1`, positionID)
}

func (r *Repository) ListRelationEdges(ctx context.Context, filter services.RelationFilter) ([]services.RelationEdge, error) {
	var w where
	w.addOpt("(fr.source_id = $%d OR fr.target_id = $%d)", filter.PositionID)
	w.addOpt("fr.source_id = $%d", filter.SourceID)
	w.addOpt("fr.target_id = $%d", filter.TargetID)
	return list(ctx, "list relation edges", `
SELECT fr.id, fr.source_id, fr.target_id, fr.relation_type, fr.weight, fr.description, fr.created_at,
       src.name, tgt.name
FROM functional_relations fr
JOIN positions src ON src.id = fr.source_id
JOIN positions tgt ON tgt.id = fr.target_id`+w.String()+`
ORDER BY fr.id`,
		func(row pgx.CollectableRow) (services.RelationEdge, error) {
			var e services.RelationEdge
			err := row.Scan(&e.ID, &e.SourceID, &e.TargetID, &e.RelationType, &e.Weight, &e.Description, &e.CreatedAt,
				&e.SourceName, &e.TargetName)
			return e, err
		}, w.args...)
}

func (r *Repository) GetFunctionalRelation(ctx context.Context, id int64) (services.FunctionalRelation, error) {
	return one(ctx, "get functional relation", `SELECT `+relationColumns+` FROM functional_relations WHERE id = $1`, scanRelation, id)
}

func (r *Repository) InsertFunctionalRelation(ctx context.Context, fr *services.FunctionalRelation) error {
	return stamp(ctx, "insert functional relation", `
INSERT INTO functional_relations (source_id, target_id, relation_type, weight, description)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at`,
		[]any{&fr.ID, &fr.CreatedAt},
		fr.SourceID, fr.TargetID, fr.RelationType, fr.Weight, fr.Description)
}

func (r *Repository) UpdateFunctionalRelation(ctx context.Context, fr *services.FunctionalRelation) error {
	return stamp(ctx, "update functional relation", `
UPDATE functional_relations
SET source_id = $2, target_id = $3, relation_type = $4, weight = $5, description = $6
WHERE id = $1
RETURNING id, created_at`,
		[]any{&fr.ID, &fr.CreatedAt},
		fr.ID, fr.SourceID, fr.TargetID, fr.RelationType, fr.Weight, fr.Description)
}

func (r *Repository) DeleteFunctionalRelation(ctx context.Context, id int64) error {
	return deleteByID(ctx, services.KindFunctionalRelation, id)
}

func (r *Repository) DeleteFunctionalRelationsByPosition(ctx context.Context, positionID int64) (int64, error) {
	return execAffected(ctx, "delete functional relations by position",
		`DELETE FROM functional_relations WHERE source_id = $1 OR target_id = $1`, positionID)
}

func (r *Repository) ListFunctionsByDivisions(ctx context.Context, divisionIDs []int64) ([]services.DivisionFunction, error) {
	return list(ctx, "list functions by divisions", `
SELECT p.division_id, p.id, p.name, f.id, f.name, f.code, fa.percentage
FROM positions p
JOIN functional_assignments fa ON fa.position_id = p.id
JOIN functions f ON f.id = fa.function_id
WHERE p.division_id = ANY($1)
ORDER BY fa.id`,
		func(row pgx.CollectableRow) (services.DivisionFunction, error) {
			var df services.DivisionFunction
			err := row.Scan(&df.DivisionID, &df.PositionID, &df.PositionName, &df.FunctionID, &df.FunctionName, &df.FunctionCode, &df.Percentage)
			return df, err
		}, divisionIDs)
}
