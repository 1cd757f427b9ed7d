package memstore

import (
	"context"

	"github.com/iota-uz/orgmatrix/modules/orgchart/services"
)

func (s *Store) ListOrganizations(ctx context.Context) ([]services.Organization, error) {
	return listRows(ctx, s, organizations, nil)
}

func (s *Store) GetOrganization(ctx context.Context, id int64) (services.Organization, error) {
	return getRow(ctx, s, organizations, id)
}

func (s *Store) OrganizationCodeExists(ctx context.Context, code string, excludeID int64) (bool, error) {
	return anyRow(ctx, s, organizations, func(o services.Organization) bool {
		return o.Code == code && o.ID != excludeID
	})
}

func (s *Store) InsertOrganization(ctx context.Context, org *services.Organization) error {
	now := s.now()
	org.ID = 0
	return putRow(ctx, s, organizations, services.KindOrganization, &org.ID, func(*state) services.Organization {
		org.CreatedAt, org.UpdatedAt = now, now
		return *org
	})
}

func (s *Store) UpdateOrganization(ctx context.Context, org *services.Organization) error {
	if org.ID == 0 {
		return services.ErrRecordNotFound
	}
	now := s.now()
	return putRow(ctx, s, organizations, services.KindOrganization, &org.ID, func(st *state) services.Organization {
		org.CreatedAt, org.UpdatedAt = st.organizations[org.ID].CreatedAt, now
		return *org
	})
}

func (s *Store) DeleteOrganization(ctx context.Context, id int64) error {
	return deleteRow(ctx, s, organizations, id)
}

func (s *Store) ListDivisions(ctx context.Context, filter services.DivisionFilter) ([]services.Division, error) {
	return listRows(ctx, s, divisions, func(d services.Division) bool {
		return matchesID(filter.OrganizationID, d.OrganizationID) && matches(filter.ParentID, d.ParentID)
	})
}

func (s *Store) GetDivision(ctx context.Context, id int64) (services.Division, error) {
	return getRow(ctx, s, divisions, id)
}

func (s *Store) DivisionCodeExists(ctx context.Context, organizationID int64, code string, excludeID int64) (bool, error) {
	return anyRow(ctx, s, divisions, func(d services.Division) bool {
		return d.OrganizationID == organizationID && d.Code == code && d.ID != excludeID
	})
}

func (s *Store) InsertDivision(ctx context.Context, div *services.Division) error {
	now := s.now()
	div.ID = 0
	return putRow(ctx, s, divisions, services.KindDivision, &div.ID, func(*state) services.Division {
		div.CreatedAt, div.UpdatedAt = now, now
		return *div
	})
}

func (s *Store) UpdateDivision(ctx context.Context, div *services.Division) error {
	if div.ID == 0 {
		return services.ErrRecordNotFound
	}
	now := s.now()
	return putRow(ctx, s, divisions, services.KindDivision, &div.ID, func(st *state) services.Division {
		div.CreatedAt, div.UpdatedAt = st.divisions[div.ID].CreatedAt, now
		return *div
	})
}

func (s *Store) DeleteDivision(ctx context.Context, id int64) error {
	return deleteRow(ctx, s, divisions, id)
}

func (s *Store) ListSections(ctx context.Context, filter services.SectionFilter) ([]services.Section, error) {
	return listRows(ctx, s, sections, func(sec services.Section) bool {
		return matchesID(filter.DivisionID, sec.DivisionID)
	})
}

func (s *Store) GetSection(ctx context.Context, id int64) (services.Section, error) {
	return getRow(ctx, s, sections, id)
}

func (s *Store) SectionCodeExists(ctx context.Context, divisionID int64, code string, excludeID int64) (bool, error) {
	return anyRow(ctx, s, sections, func(sec services.Section) bool {
		return sec.DivisionID == divisionID && sec.Code == code && sec.ID != excludeID
	})
}

func (s *Store) InsertSection(ctx context.Context, sec *services.Section) error {
	now := s.now()
	sec.ID = 0
	return putRow(ctx, s, sections, services.KindSection, &sec.ID, func(*state) services.Section {
		sec.CreatedAt, sec.UpdatedAt = now, now
		return *sec
	})
}

func (s *Store) UpdateSection(ctx context.Context, sec *services.Section) error {
	if sec.ID == 0 {
		return services.ErrRecordNotFound
	}
	now := s.now()
	return putRow(ctx, s, sections, services.KindSection, &sec.ID, func(st *state) services.Section {
		sec.CreatedAt, sec.UpdatedAt = st.sections[sec.ID].CreatedAt, now
		return *sec
	})
}

func (s *Store) DeleteSection(ctx context.Context, id int64) error {
	return deleteRow(ctx, s, sections, id)
}

func (s *Store) ListPositions(ctx context.Context, filter services.PositionFilter) ([]services.Position, error) {
	return listRows(ctx, s, positions, func(p services.Position) bool {
		return matches(filter.DivisionID, p.DivisionID) && matches(filter.SectionID, p.SectionID)
	})
}

func (s *Store) GetPosition(ctx context.Context, id int64) (services.Position, error) {
	return getRow(ctx, s, positions, id)
}

func (s *Store) PositionCodeExists(ctx context.Context, divisionID *int64, code string, excludeID int64) (bool, error) {
	return anyRow(ctx, s, positions, func(p services.Position) bool {
		sameScope := sameDivision(divisionID, p.DivisionID)
		return sameScope && p.Code == code && p.ID != excludeID
	})
}

func (s *Store) InsertPosition(ctx context.Context, pos *services.Position) error {
	now := s.now()
	pos.ID = 0
	return putRow(ctx, s, positions, services.KindPosition, &pos.ID, func(*state) services.Position {
		pos.CreatedAt, pos.UpdatedAt = now, now
		return *pos
	})
}

func (s *Store) UpdatePosition(ctx context.Context, pos *services.Position) error {
	if pos.ID == 0 {
		return services.ErrRecordNotFound
	}
	now := s.now()
	return putRow(ctx, s, positions, services.KindPosition, &pos.ID, func(st *state) services.Position {
		pos.CreatedAt, pos.UpdatedAt = st.positions[pos.ID].CreatedAt, now
		return *pos
	})
}

func (s *Store) DeletePosition(ctx context.Context, id int64) error {
	return deleteRow(ctx, s, positions, id)
}

func (s *Store) ListStaff(ctx context.Context, filter services.StaffFilter) ([]services.Staff, error) {
	return listRows(ctx, s, staffRows, func(st services.Staff) bool {
		return matches(filter.OrganizationID, st.OrganizationID)
	})
}

func (s *Store) GetStaff(ctx context.Context, id int64) (services.Staff, error) {
	return getRow(ctx, s, staffRows, id)
}

func (s *Store) InsertStaff(ctx context.Context, staff *services.Staff) error {
	now := s.now()
	staff.ID = 0
	return putRow(ctx, s, staffRows, services.KindStaff, &staff.ID, func(*state) services.Staff {
		staff.CreatedAt, staff.UpdatedAt = now, now
		return *staff
	})
}

func (s *Store) UpdateStaff(ctx context.Context, staff *services.Staff) error {
	if staff.ID == 0 {
		return services.ErrRecordNotFound
	}
	now := s.now()
	return putRow(ctx, s, staffRows, services.KindStaff, &staff.ID, func(st *state) services.Staff {
		staff.CreatedAt, staff.UpdatedAt = st.staff[staff.ID].CreatedAt, now
		return *staff
	})
}

func (s *Store) DeleteStaff(ctx context.Context, id int64) error {
	return deleteRow(ctx, s, staffRows, id)
}

func (s *Store) ListFunctions(ctx context.Context, filter services.FunctionFilter) ([]services.Function, error) {
	return listRows(ctx, s, functions, func(fn services.Function) bool {
		return matchesID(filter.SectionID, fn.SectionID)
	})
}

func (s *Store) GetFunction(ctx context.Context, id int64) (services.Function, error) {
	return getRow(ctx, s, functions, id)
}

func (s *Store) FunctionCodeExists(ctx context.Context, code string, excludeID int64) (bool, error) {
	return anyRow(ctx, s, functions, func(fn services.Function) bool {
		return fn.Code == code && fn.ID != excludeID
	})
}

func (s *Store) InsertFunction(ctx context.Context, fn *services.Function) error {
	now := s.now()
	fn.ID = 0
	return putRow(ctx, s, functions, services.KindFunction, &fn.ID, func(*state) services.Function {
		fn.CreatedAt, fn.UpdatedAt = now, now
		return *fn
	})
}

func (s *Store) UpdateFunction(ctx context.Context, fn *services.Function) error {
	if fn.ID == 0 {
		return services.ErrRecordNotFound
	}
	now := s.now()
	return putRow(ctx, s, functions, services.KindFunction, &fn.ID, func(st *state) services.Function {
		fn.CreatedAt, fn.UpdatedAt = st.functions[fn.ID].CreatedAt, now
		return *fn
	})
}

func (s *Store) DeleteFunction(ctx context.Context, id int64) error {
	return deleteRow(ctx, s, functions, id)
}

func sameDivision(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
