package memstore

import (
	"context"
	"slices"

	"github.com/iota-uz/orgmatrix/modules/orgchart/services"
)

func (s *Store) ListStaffAssignments(ctx context.Context, filter services.StaffPositionFilter) ([]services.StaffAssignment, error) {
	out := []services.StaffAssignment{}
	err := s.read(ctx, func(st *state) error {
		for _, sp := range sortedValues(st.staffPositions, func(sp services.StaffPosition) bool {
			return matchesID(filter.StaffID, sp.StaffID) && matchesID(filter.PositionID, sp.PositionID)
		}) {
			out = append(out, services.StaffAssignment{
				StaffPosition: sp,
				StaffName:     st.staff[sp.StaffID].FullName(),
				PositionName:  st.positions[sp.PositionID].Name,
			})
		}
		return nil
	})
	return out, err
}

func (s *Store) GetStaffPosition(ctx context.Context, id int64) (services.StaffPosition, error) {
	return getRow(ctx, s, staffPositions, id)
}

func (s *Store) StaffPositionExists(ctx context.Context, staffID, positionID, excludeID int64) (bool, error) {
	return anyRow(ctx, s, staffPositions, func(sp services.StaffPosition) bool {
		return sp.StaffID == staffID && sp.PositionID == positionID && sp.ID != excludeID
	})
}

func (s *Store) InsertStaffPosition(ctx context.Context, sp *services.StaffPosition) error {
	now := s.now()
	sp.ID = 0
	return putRow(ctx, s, staffPositions, services.KindStaffPosition, &sp.ID, func(*state) services.StaffPosition {
		sp.CreatedAt = now
		return *sp
	})
}

func (s *Store) UpdateStaffPosition(ctx context.Context, sp *services.StaffPosition) error {
	if sp.ID == 0 {
		return services.ErrRecordNotFound
	}
	return putRow(ctx, s, staffPositions, services.KindStaffPosition, &sp.ID, func(st *state) services.StaffPosition {
		sp.CreatedAt = st.staffPositions[sp.ID].CreatedAt
		return *sp
	})
}

func (s *Store) DeleteStaffPosition(ctx context.Context, id int64) error {
	return deleteRow(ctx, s, staffPositions, id)
}

func (s *Store) DeleteStaffPositionsByPosition(ctx context.Context, positionID int64) (int64, error) {
	return deleteWhere(ctx, s, staffPositions, func(sp services.StaffPosition) bool { return sp.PositionID == positionID })
}

func (s *Store) ListAssignedFunctions(ctx context.Context, filter services.AssignmentFilter) ([]services.AssignedFunction, error) {
	out := []services.AssignedFunction{}
	err := s.read(ctx, func(st *state) error {
		for _, fa := range sortedValues(st.assignments, func(fa services.FunctionalAssignment) bool {
			return matchesID(filter.PositionID, fa.PositionID) && matchesID(filter.FunctionID, fa.FunctionID)
		}) {
			fn := st.functions[fa.FunctionID]
			out = append(out, services.AssignedFunction{
				FunctionalAssignment: fa,
				FunctionName:         fn.Name,
				FunctionCode:         fn.Code,
				PositionName:         st.positions[fa.PositionID].Name,
			})
		}
		return nil
	})
	return out, err
}

func (s *Store) GetFunctionalAssignment(ctx context.Context, id int64) (services.FunctionalAssignment, error) {
	return getRow(ctx, s, assignments, id)
}

func (s *Store) FunctionalAssignmentExists(ctx context.Context, positionID, functionID, excludeID int64) (bool, error) {
	return anyRow(ctx, s, assignments, func(fa services.FunctionalAssignment) bool {
		return fa.PositionID == positionID && fa.FunctionID == functionID && fa.ID != excludeID
	})
}

func (s *Store) InsertFunctionalAssignment(ctx context.Context, fa *services.FunctionalAssignment) error {
	now := s.now()
	fa.ID = 0
	return putRow(ctx, s, assignments, services.KindFunctionalAssignment, &fa.ID, func(*state) services.FunctionalAssignment {
		fa.CreatedAt = now
		return *fa
	})
}

func (s *Store) UpdateFunctionalAssignment(ctx context.Context, fa *services.FunctionalAssignment) error {
	if fa.ID == 0 {
		return services.ErrRecordNotFound
	}
	return putRow(ctx, s, assignments, services.KindFunctionalAssignment, &fa.ID, func(st *state) services.FunctionalAssignment {
		fa.CreatedAt = st.assignments[fa.ID].CreatedAt
		return *fa
	})
}

func (s *Store) DeleteFunctionalAssignment(ctx context.Context, id int64) error {
	return deleteRow(ctx, s, assignments, id)
}

func (s *Store) DeleteFunctionalAssignmentsByPosition(ctx context.Context, positionID int64) (int64, error) {
	return deleteWhere(ctx, s, assignments, func(fa services.FunctionalAssignment) bool { return fa.PositionID == positionID })
}

func (s *Store) ListRelationEdges(ctx context.Context, filter services.RelationFilter) ([]services.RelationEdge, error) {
	out := []services.RelationEdge{}
	err := s.read(ctx, func(st *state) error {
		for _, fr := range sortedValues(st.relations, func(fr services.FunctionalRelation) bool {
			if filter.PositionID != nil && fr.SourceID != *filter.PositionID && fr.TargetID != *filter.PositionID {
				return false
			}
			return matchesID(filter.SourceID, fr.SourceID) && matchesID(filter.TargetID, fr.TargetID)
		}) {
			out = append(out, services.RelationEdge{
				FunctionalRelation: fr,
				SourceName:         st.positions[fr.SourceID].Name,
				TargetName:         st.positions[fr.TargetID].Name,
			})
		}
		return nil
	})
	return out, err
}

func (s *Store) GetFunctionalRelation(ctx context.Context, id int64) (services.FunctionalRelation, error) {
	return getRow(ctx, s, relations, id)
}

func (s *Store) InsertFunctionalRelation(ctx context.Context, fr *services.FunctionalRelation) error {
	now := s.now()
	fr.ID = 0
	return putRow(ctx, s, relations, services.KindFunctionalRelation, &fr.ID, func(*state) services.FunctionalRelation {
		fr.CreatedAt = now
		return *fr
	})
}

func (s *Store) UpdateFunctionalRelation(ctx context.Context, fr *services.FunctionalRelation) error {
	if fr.ID == 0 {
		return services.ErrRecordNotFound
	}
	return putRow(ctx, s, relations, services.KindFunctionalRelation, &fr.ID, func(st *state) services.FunctionalRelation {
		fr.CreatedAt = st.relations[fr.ID].CreatedAt
		return *fr
	})
}

func (s *Store) DeleteFunctionalRelation(ctx context.Context, id int64) error {
	return deleteRow(ctx, s, relations, id)
}

func (s *Store) DeleteFunctionalRelationsByPosition(ctx context.Context, positionID int64) (int64, error) {
	return deleteWhere(ctx, s, relations, func(fr services.FunctionalRelation) bool {
		return fr.SourceID == positionID || fr.TargetID == positionID
	})
}

func (s *Store) ListFunctionsByDivisions(ctx context.Context, divisionIDs []int64) ([]services.DivisionFunction, error) {
	out := []services.DivisionFunction{}
	err := s.read(ctx, func(st *state) error {
		for _, fa := range sortedValues(st.assignments, nil) {
			pos, ok := st.positions[fa.PositionID]
			if !ok || pos.DivisionID == nil || !slices.Contains(divisionIDs, *pos.DivisionID) {
				continue
			}
			fn := st.functions[fa.FunctionID]
			out = append(out, services.DivisionFunction{
				DivisionID:   *pos.DivisionID,
				PositionID:   pos.ID,
				PositionName: pos.Name,
				FunctionID:   fn.ID,
				FunctionName: fn.Name,
				FunctionCode: fn.Code,
				Percentage:   fa.Percentage,
			})
		}
		return nil
	})
	return out, err
}
