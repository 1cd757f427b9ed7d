package services

import (
	"context"
	"fmt"
	"math"
	"strings"
)

func invalidPeriod() error {
	return errInvalid("ORGCHART_INVALID_PERIOD", "end_date must not be before start_date")
}

func (s *StructureService) requirePositionAndStaff(ctx context.Context, staffID, positionID int64) error {
	if _, err := s.repo.GetStaff(ctx, staffID); err != nil {
		return notFoundAs(err, KindStaff, staffID)
	}
	if _, err := s.repo.GetPosition(ctx, positionID); err != nil {
		return notFoundAs(err, KindPosition, positionID)
	}
	return nil
}

func (s *StructureService) ListStaffAssignments(ctx context.Context, filter StaffPositionFilter) ([]StaffAssignment, error) {
	rows, err := s.repo.ListStaffAssignments(ctx, filter)
	return rows, s.reject(ctx, "staff_position.list", err)
}

func (s *StructureService) GetStaffPosition(ctx context.Context, id int64) (StaffPosition, error) {
	sp, err := s.repo.GetStaffPosition(ctx, id)
	if err != nil {
		return StaffPosition{}, s.reject(ctx, "staff_position.get", notFoundAs(err, KindStaffPosition, id))
	}
	return sp, nil
}

func (s *StructureService) CreateStaffPosition(ctx context.Context, in StaffPosition) (StaffPosition, error) {
	if !in.Period.valid() {
		return StaffPosition{}, s.reject(ctx, "staff_position.create", invalidPeriod())
	}
	out, err := inTx(ctx, s.tx, func(txCtx context.Context) (StaffPosition, error) {
		if err := s.checkStaffPositionWrite(txCtx, 0, in); err != nil {
			return StaffPosition{}, err
		}
		if err := s.repo.InsertStaffPosition(txCtx, &in); err != nil {
			return StaffPosition{}, err
		}
		return in, nil
	})
	return out, s.reject(ctx, "staff_position.create", err)
}

func (s *StructureService) UpdateStaffPosition(ctx context.Context, id int64, in StaffPosition) (StaffPosition, error) {
	if !in.Period.valid() {
		return StaffPosition{}, s.reject(ctx, "staff_position.update", invalidPeriod())
	}
	out, err := inTx(ctx, s.tx, func(txCtx context.Context) (StaffPosition, error) {
		current, err := s.repo.GetStaffPosition(txCtx, id)
		if err != nil {
			return StaffPosition{}, notFoundAs(err, KindStaffPosition, id)
		}
		if err := s.checkStaffPositionWrite(txCtx, id, in); err != nil {
			return StaffPosition{}, err
		}
		in.ID = id
		in.CreatedAt = current.CreatedAt
		if err := s.repo.UpdateStaffPosition(txCtx, &in); err != nil {
			return StaffPosition{}, err
		}
		return in, nil
	})
	return out, s.reject(ctx, "staff_position.update", err)
}

func (s *StructureService) checkStaffPositionWrite(ctx context.Context, id int64, in StaffPosition) error {
	if err := s.requirePositionAndStaff(ctx, in.StaffID, in.PositionID); err != nil {
		return err
	}
	exists, err := s.repo.StaffPositionExists(ctx, in.StaffID, in.PositionID, id)
	if err != nil {
		return err
	}
	if exists {
		return errConflict(KindStaffPosition, id, "ORGCHART_DUPLICATE_EDGE",
			fmt.Sprintf("staff %d already holds position %d", in.StaffID, in.PositionID))
	}
	if !in.IsPrimary {
		return nil
	}

	staffID := in.StaffID
	held, err := s.repo.ListStaffAssignments(ctx, StaffPositionFilter{StaffID: &staffID})
	if err != nil {
		return err
	}
	for _, other := range held {
		if other.ID == id || !other.IsPrimary {
			continue
		}
		if other.Period.Overlaps(in.Period) {
			recordWriteConflict("overlap")
			return errConflict(KindStaffPosition, id, "ORGCHART_PRIMARY_CONFLICT", fmt.Sprintf(
				"staff %d already has primary position %d (%s) in an overlapping period", in.StaffID, other.PositionID, other.PositionName))
		}
	}
	return nil
}

func (s *StructureService) DeleteStaffPosition(ctx context.Context, id int64) error {
	err := s.tx.InTx(ctx, func(txCtx context.Context) error {
		return notFoundAs(s.repo.DeleteStaffPosition(txCtx, id), KindStaffPosition, id)
	})
	return s.reject(ctx, "staff_position.delete", err)
}

func (s *StructureService) ListAssignedFunctions(ctx context.Context, filter AssignmentFilter) ([]AssignedFunction, error) {
	rows, err := s.repo.ListAssignedFunctions(ctx, filter)
	return rows, s.reject(ctx, "functional_assignment.list", err)
}

func (s *StructureService) GetFunctionalAssignment(ctx context.Context, id int64) (FunctionalAssignment, error) {
	fa, err := s.repo.GetFunctionalAssignment(ctx, id)
	if err != nil {
		return FunctionalAssignment{}, s.reject(ctx, "functional_assignment.get", notFoundAs(err, KindFunctionalAssignment, id))
	}
	return fa, nil
}

func validateAssignment(in FunctionalAssignment) error {
	if in.Percentage < 0 || in.Percentage > 100 {
		return errInvalid("ORGCHART_INVALID_PERCENTAGE", "percentage must be between 0 and 100")
	}
	if !in.Period.valid() {
		return invalidPeriod()
	}
	return nil
}

func (s *StructureService) CreateFunctionalAssignment(ctx context.Context, in FunctionalAssignment) (FunctionalAssignment, error) {
	if err := validateAssignment(in); err != nil {
		return FunctionalAssignment{}, s.reject(ctx, "functional_assignment.create", err)
	}
	out, err := inTx(ctx, s.tx, func(txCtx context.Context) (FunctionalAssignment, error) {
		if err := s.checkAssignmentWrite(txCtx, 0, in); err != nil {
			return FunctionalAssignment{}, err
		}
		if err := s.repo.InsertFunctionalAssignment(txCtx, &in); err != nil {
			return FunctionalAssignment{}, err
		}
		return in, nil
	})
	return out, s.reject(ctx, "functional_assignment.create", err)
}

func (s *StructureService) UpdateFunctionalAssignment(ctx context.Context, id int64, in FunctionalAssignment) (FunctionalAssignment, error) {
	if err := validateAssignment(in); err != nil {
		return FunctionalAssignment{}, s.reject(ctx, "functional_assignment.update", err)
	}
	out, err := inTx(ctx, s.tx, func(txCtx context.Context) (FunctionalAssignment, error) {
		current, err := s.repo.GetFunctionalAssignment(txCtx, id)
		if err != nil {
			return FunctionalAssignment{}, notFoundAs(err, KindFunctionalAssignment, id)
		}
		if err := s.checkAssignmentWrite(txCtx, id, in); err != nil {
			return FunctionalAssignment{}, err
		}
		in.ID = id
		in.CreatedAt = current.CreatedAt
		if err := s.repo.UpdateFunctionalAssignment(txCtx, &in); err != nil {
			return FunctionalAssignment{}, err
		}
		return in, nil
	})
	return out, s.reject(ctx, "functional_assignment.update", err)
}

func (s *StructureService) checkAssignmentWrite(ctx context.Context, id int64, in FunctionalAssignment) error {
	if _, err := s.repo.GetPosition(ctx, in.PositionID); err != nil {
		return notFoundAs(err, KindPosition, in.PositionID)
	}
	if _, err := s.repo.GetFunction(ctx, in.FunctionID); err != nil {
		return notFoundAs(err, KindFunction, in.FunctionID)
	}
	exists, err := s.repo.FunctionalAssignmentExists(ctx, in.PositionID, in.FunctionID, id)
	if err != nil {
		return err
	}
	if exists {
		return errConflict(KindFunctionalAssignment, id, "ORGCHART_DUPLICATE_EDGE",
			fmt.Sprintf("function %d is already assigned to position %d", in.FunctionID, in.PositionID))
	}
	return nil
}

func (s *StructureService) DeleteFunctionalAssignment(ctx context.Context, id int64) error {
	err := s.tx.InTx(ctx, func(txCtx context.Context) error {
		return notFoundAs(s.repo.DeleteFunctionalAssignment(txCtx, id), KindFunctionalAssignment, id)
	})
	return s.reject(ctx, "functional_assignment.delete", err)
}

func (s *StructureService) ListRelationEdges(ctx context.Context, filter RelationFilter) ([]RelationEdge, error) {
	rows, err := s.repo.ListRelationEdges(ctx, filter)
	return rows, s.reject(ctx, "functional_relation.list", err)
}

func (s *StructureService) GetFunctionalRelation(ctx context.Context, id int64) (FunctionalRelation, error) {
	fr, err := s.repo.GetFunctionalRelation(ctx, id)
	if err != nil {
		return FunctionalRelation{}, s.reject(ctx, "functional_relation.get", notFoundAs(err, KindFunctionalRelation, id))
	}
	return fr, nil
}

func (s *StructureService) normalizeRelation(in *FunctionalRelation) error {
	in.RelationType = strings.TrimSpace(in.RelationType)
	if in.RelationType == "" {
		in.RelationType = DefaultRelationType
	}
	if in.Weight < 0 || math.IsNaN(in.Weight) || math.IsInf(in.Weight, 0) {
		return errInvalid("ORGCHART_INVALID_WEIGHT", "weight must be a non-negative number")
	}
	if in.SourceID == in.TargetID && !s.opts.AllowRelationSelfLoops {
		return errInvalid("ORGCHART_RELATION_SELF_LOOP", "a functional relation cannot connect a position to itself")
	}
	return nil
}

func (s *StructureService) CreateFunctionalRelation(ctx context.Context, in FunctionalRelation) (FunctionalRelation, error) {
	if err := s.normalizeRelation(&in); err != nil {
		return FunctionalRelation{}, s.reject(ctx, "functional_relation.create", err)
	}
	out, err := inTx(ctx, s.tx, func(txCtx context.Context) (FunctionalRelation, error) {
		if err := s.checkRelationEndpoints(txCtx, in); err != nil {
			return FunctionalRelation{}, err
		}
		if err := s.repo.InsertFunctionalRelation(txCtx, &in); err != nil {
			return FunctionalRelation{}, err
		}
		return in, nil
	})
	return out, s.reject(ctx, "functional_relation.create", err)
}

func (s *StructureService) UpdateFunctionalRelation(ctx context.Context, id int64, in FunctionalRelation) (FunctionalRelation, error) {
	if err := s.normalizeRelation(&in); err != nil {
		return FunctionalRelation{}, s.reject(ctx, "functional_relation.update", err)
	}
	out, err := inTx(ctx, s.tx, func(txCtx context.Context) (FunctionalRelation, error) {
		current, err := s.repo.GetFunctionalRelation(txCtx, id)
		if err != nil {
			return FunctionalRelation{}, notFoundAs(err, KindFunctionalRelation, id)
		}
		if err := s.checkRelationEndpoints(txCtx, in); err != nil {
			return FunctionalRelation{}, err
		}
		in.ID = id
		in.CreatedAt = current.CreatedAt
		if err := s.repo.UpdateFunctionalRelation(txCtx, &in); err != nil {
			return FunctionalRelation{}, err
		}
		return in, nil
	})
	return out, s.reject(ctx, "functional_relation.update", err)
}

func (s *StructureService) checkRelationEndpoints(ctx context.Context, in FunctionalRelation) error {
	for _, id := range []int64{in.SourceID, in.TargetID} {
		if _, err := s.repo.GetPosition(ctx, id); err != nil {
			return notFoundAs(err, KindPosition, id)
		}
	}
	return nil
}

func (s *StructureService) DeleteFunctionalRelation(ctx context.Context, id int64) error {
	err := s.tx.InTx(ctx, func(txCtx context.Context) error {
		return notFoundAs(s.repo.DeleteFunctionalRelation(txCtx, id), KindFunctionalRelation, id)
	})
	return s.reject(ctx, "functional_relation.delete", err)
}
