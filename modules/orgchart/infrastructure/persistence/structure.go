package persistence

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/orgmatrix/modules/orgchart/services"
	"github.com/iota-uz/orgmatrix/pkg/composables"
)

const (
	organizationColumns = `id, name, code, description, org_type, parent_id, is_active, created_at, updated_at`
	divisionColumns     = `id, name, code, description, organization_id, parent_id, type, is_active, created_at, updated_at`
	sectionColumns      = `id, name, code, description, division_id, is_active, created_at, updated_at`
	positionColumns     = `id, name, code, description, attribute, division_id, section_id, is_active, created_at, updated_at`
	staffColumns        = `id, first_name, last_name, middle_name, email, phone, hire_date, organization_id, is_active, created_at, updated_at`
	functionColumns     = `id, name, code, description, section_id, is_active, created_at, updated_at`
)

func scanOrganization(row pgx.CollectableRow) (services.Organization, error) {
	var o services.Organization
	err := row.Scan(&o.ID, &o.Name, &o.Code, &o.Description, &o.OrgType, &o.ParentID, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func scanDivision(row pgx.CollectableRow) (services.Division, error) {
	var d services.Division
	err := row.Scan(&d.ID, &d.Name, &d.Code, &d.Description, &d.OrganizationID, &d.ParentID, &d.Type, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func scanSection(row pgx.CollectableRow) (services.Section, error) {
	var s services.Section
	err := row.Scan(&s.ID, &s.Name, &s.Code, &s.Description, &s.DivisionID, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func scanPosition(row pgx.CollectableRow) (services.Position, error) {
	var p services.Position
	err := row.Scan(&p.ID, &p.Name, &p.Code, &p.Description, &p.Attribute, &p.DivisionID, &p.SectionID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func scanStaff(row pgx.CollectableRow) (services.Staff, error) {
	var s services.Staff
	err := row.Scan(&s.ID, &s.FirstName, &s.LastName, &s.MiddleName, &s.Email, &s.Phone, &s.HireDate, &s.OrganizationID, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func scanFunction(row pgx.CollectableRow) (services.Function, error) {
	var f services.Function
	err := row.Scan(&f.ID, &f.Name, &f.Code, &f.Description, &f.SectionID, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

// stamp runs an INSERT or UPDATE ... RETURNING and scans into dst.
func stamp(ctx context.Context, op, query string, dst []any, args ...any) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	return wrap(tx.QueryRow(ctx, query, args...).Scan(dst...), "%s", op)
}

func (r *Repository) ListOrganizations(ctx context.Context) ([]services.Organization, error) {
	return list(ctx, "list organizations", `SELECT `+organizationColumns+` FROM organizations ORDER BY id`, scanOrganization)
}

func (r *Repository) GetOrganization(ctx context.Context, id int64) (services.Organization, error) {
	return one(ctx, "get organization", `SELECT `+organizationColumns+` FROM organizations WHERE id = $1`, scanOrganization, id)
}

func (r *Repository) OrganizationCodeExists(ctx context.Context, code string, excludeID int64) (bool, error) {
	return exists(ctx, "organization code exists", `SELECT 1 FROM organizations WHERE code = $1 AND id <> $2`, code, excludeID)
}

func (r *Repository) InsertOrganization(ctx context.Context, o *services.Organization) error {
	return stamp(ctx, "insert organization", `
INSERT INTO organizations (name, code, description, org_type, parent_id, is_active)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at, updated_at`,
		[]any{&o.ID, &o.CreatedAt, &o.UpdatedAt},
		o.Name, o.Code, o.Description, o.OrgType, o.ParentID, o.IsActive)
}

func (r *Repository) UpdateOrganization(ctx context.Context, o *services.Organization) error {
	return stamp(ctx, "update organization", `
UPDATE organizations
SET name = $2, code = $3, description = $4, org_type = $5, parent_id = $6, is_active = $7, updated_at = now()
WHERE id = $1
RETURNING id, created_at, updated_at`,
		[]any{&o.ID, &o.CreatedAt, &o.UpdatedAt},
		o.ID, o.Name, o.Code, o.Description, o.OrgType, o.ParentID, o.IsActive)
}

func (r *Repository) DeleteOrganization(ctx context.Context, id int64) error {
	return deleteByID(ctx, services.KindOrganization, id)
}

func (r *Repository) ListDivisions(ctx context.Context, filter services.DivisionFilter) ([]services.Division, error) {
	var w where
	w.addOpt("organization_id = $%d", filter.OrganizationID)
	w.addOpt("parent_id = $%d", filter.ParentID)
	return list(ctx, "list divisions", `SELECT `+divisionColumns+` FROM divisions`+w.String()+` ORDER BY id`, scanDivision, w.args...)
}

func (r *Repository) GetDivision(ctx context.Context, id int64) (services.Division, error) {
	return one(ctx, "get division", `SELECT `+divisionColumns+` FROM divisions WHERE id = $1`, scanDivision, id)
}

func (r *Repository) DivisionCodeExists(ctx context.Context, organizationID int64, code string, excludeID int64) (bool, error) {
	return exists(ctx, "division code exists",
		`SELECT 1 FROM divisions WHERE organization_id = $1 AND code = $2 AND id <> $3`, organizationID, code, excludeID)
}

func (r *Repository) InsertDivision(ctx context.Context, d *services.Division) error {
	return stamp(ctx, "insert division", `
INSERT INTO divisions (name, code, description, organization_id, parent_id, type, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at, updated_at`,
		[]any{&d.ID, &d.CreatedAt, &d.UpdatedAt},
		d.Name, d.Code, d.Description, d.OrganizationID, d.ParentID, string(d.Type), d.IsActive)
}

func (r *Repository) UpdateDivision(ctx context.Context, d *services.Division) error {
	return stamp(ctx, "update division", `
UPDATE divisions
SET name = $2, code = $3, description = $4, organization_id = $5, parent_id = $6, type = $7, is_active = $8, updated_at = now()
WHERE id = $1
RETURNING id, created_at, updated_at`,
		[]any{&d.ID, &d.CreatedAt, &d.UpdatedAt},
		d.ID, d.Name, d.Code, d.Description, d.OrganizationID, d.ParentID, string(d.Type), d.IsActive)
}

func (r *Repository) DeleteDivision(ctx context.Context, id int64) error {
	return deleteByID(ctx, services.KindDivision, id)
}

func (r *Repository) ListSections(ctx context.Context, filter services.SectionFilter) ([]services.Section, error) {
	var w where
	w.addOpt("division_id = $%d", filter.DivisionID)
	return list(ctx, "list sections", `SELECT `+sectionColumns+` FROM sections`+w.String()+` ORDER BY id`, scanSection, w.args...)
}

func (r *Repository) GetSection(ctx context.Context, id int64) (services.Section, error) {
	return one(ctx, "get section", `SELECT `+sectionColumns+` FROM sections WHERE id = $1`, scanSection, id)
}

func (r *Repository) SectionCodeExists(ctx context.Context, divisionID int64, code string, excludeID int64) (bool, error) {
	return exists(ctx, "section code exists",
		`SELECT 1 FROM sections WHERE division_id = $1 AND code = $2 AND id <> $3`, divisionID, code, excludeID)
}

func (r *Repository) InsertSection(ctx context.Context, s *services.Section) error {
	return stamp(ctx, "insert section", `
INSERT INTO sections (name, code, description, division_id, is_active)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at, updated_at`,
		[]any{&s.ID, &s.CreatedAt, &s.UpdatedAt},
		s.Name, s.Code, s.Description, s.DivisionID, s.IsActive)
}

func (r *Repository) UpdateSection(ctx context.Context, s *services.Section) error {
	return stamp(ctx, "update section", `
UPDATE sections
SET name = $2, code = $3, description = $4, division_id = $5, is_active = $6, updated_at = now()
WHERE id = $1
RETURNING id, created_at, updated_at`,
		[]any{&s.ID, &s.CreatedAt, &s.UpdatedAt},
		s.ID, s.Name, s.Code, s.Description, s.DivisionID, s.IsActive)
}

func (r *Repository) DeleteSection(ctx context.Context, id int64) error {
	return deleteByID(ctx, services.KindSection, id)
}

func (r *Repository) ListPositions(ctx context.Context, filter services.PositionFilter) ([]services.Position, error) {
	var w where
	w.addOpt("division_id = $%d", filter.DivisionID)
	w.addOpt("section_id = $%d", filter.SectionID)
	return list(ctx, "list positions", `SELECT `+positionColumns+` FROM positions`+w.String()+` ORDER BY id`, scanPosition, w.args...)
}

func (r *Repository) GetPosition(ctx context.Context, id int64) (services.Position, error) {
	return one(ctx, "get position", `SELECT `+positionColumns+` FROM positions WHERE id = $1`, scanPosition, id)
}

func (r *Repository) PositionCodeExists(ctx context.Context, divisionID *int64, code string, excludeID int64) (bool, error) {
	return exists(ctx, "position code exists",
		`SELECT 1 FROM positions WHERE division_id IS NOT DISTINCT FROM $1 AND code = $2 AND id <> $3`, divisionID, code, excludeID)
}

func (r *Repository) InsertPosition(ctx context.Context, p *services.Position) error {
	return stamp(ctx, "insert position", `
INSERT INTO positions (name, code, description, attribute, division_id, section_id, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at, updated_at`,
		[]any{&p.ID, &p.CreatedAt, &p.UpdatedAt},
		p.Name, p.Code, p.Description, p.Attribute, p.DivisionID, p.SectionID, p.IsActive)
}

func (r *Repository) UpdatePosition(ctx context.Context, p *services.Position) error {
	return stamp(ctx, "update position", `
UPDATE positions
SET name = $2, code = $3, description = $4, attribute = $5, division_id = $6, section_id = $7, is_active = $8, updated_at = now()
WHERE id = $1
RETURNING id, created_at, updated_at`,
		[]any{&p.ID, &p.CreatedAt, &p.UpdatedAt},
		p.ID, p.Name, p.Code, p.Description, p.Attribute, p.DivisionID, p.SectionID, p.IsActive)
}

func (r *Repository) DeletePosition(ctx context.Context, id int64) error {
	return deleteByID(ctx, services.KindPosition, id)
}

func (r *Repository) ListStaff(ctx context.Context, filter services.StaffFilter) ([]services.Staff, error) {
	var w where
	w.addOpt("organization_id = $%d", filter.OrganizationID)
	return list(ctx, "list staff", `SELECT `+staffColumns+` FROM staff`+w.String()+` ORDER BY id`, scanStaff, w.args...)
}

func (r *Repository) GetStaff(ctx context.Context, id int64) (services.Staff, error) {
	return one(ctx, "get staff", `SELECT `+staffColumns+` FROM staff WHERE id = $1`, scanStaff, id)
}

func (r *Repository) InsertStaff(ctx context.Context, s *services.Staff) error {
	return stamp(ctx, "insert staff", `
INSERT INTO staff (first_name, last_name, middle_name, email, phone, hire_date, organization_id, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_at, updated_at`,
		[]any{&s.ID, &s.CreatedAt, &s.UpdatedAt},
		s.FirstName, s.LastName, s.MiddleName, s.Email, s.Phone, s.HireDate, s.OrganizationID, s.IsActive)
}

func (r *Repository) UpdateStaff(ctx context.Context, s *services.Staff) error {
	return stamp(ctx, "update staff", `
UPDATE staff
SET first_name = $2, last_name = $3, middle_name = $4, email = $5, phone = $6, hire_date = $7,
    organization_id = $8, is_active = $9, updated_at = now()
WHERE id = $1
RETURNING id, created_at, updated_at`,
		[]any{&s.ID, &s.CreatedAt, &s.UpdatedAt},
		s.ID, s.FirstName, s.LastName, s.MiddleName, s.Email, s.Phone, s.HireDate, s.OrganizationID, s.IsActive)
}

func (r *Repository) DeleteStaff(ctx context.Context, id int64) error {
	return deleteByID(ctx, services.KindStaff, id)
}

func (r *Repository) ListFunctions(ctx context.Context, filter services.FunctionFilter) ([]services.Function, error) {
	var w where
	w.addOpt("section_id = $%d", filter.SectionID)
	return list(ctx, "list functions", `SELECT `+functionColumns+` FROM functions`+w.String()+` ORDER BY id`, scanFunction, w.args...)
}

func (r *Repository) GetFunction(ctx context.Context, id int64) (services.Function, error) {
	return one(ctx, "get function", `SELECT `+functionColumns+` FROM functions WHERE id = $1`, scanFunction, id)
}

func (r *Repository) FunctionCodeExists(ctx context.Context, code string, excludeID int64) (bool, error) {
	return exists(ctx, "function code exists", `SELECT 1 FROM functions WHERE code = $1 AND id <> $2`, code, excludeID)
}

func (r *Repository) InsertFunction(ctx context.Context, f *services.Function) error {
	return stamp(ctx, "insert function", `
INSERT INTO functions (name, code, description, section_id, is_active)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at, updated_at`,
		[]any{&f.ID, &f.CreatedAt, &f.UpdatedAt},
		f.Name, f.Code, f.Description, f.SectionID, f.IsActive)
}

func (r *Repository) UpdateFunction(ctx context.Context, f *services.Function) error {
	return stamp(ctx, "update function", `
UPDATE functions
SET name = $2, code = $3, description = $4, section_id = $5, is_active = $6, updated_at = now()
WHERE id = $1
RETURNING id, created_at, updated_at`,
		[]any{&f.ID, &f.CreatedAt, &f.UpdatedAt},
		f.ID, f.Name, f.Code, f.Description, f.SectionID, f.IsActive)
}

func (r *Repository) DeleteFunction(ctx context.Context, id int64) error {
	return deleteByID(ctx, services.KindFunction, id)
}
