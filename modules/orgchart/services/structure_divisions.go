package services

import (
	"context"
	"fmt"

	"github.com/iota-uz/orgmatrix/modules/orgchart/domain/hierarchy"
)

func (s *StructureService) ListDivisions(ctx context.Context, filter DivisionFilter) ([]Division, error) {
	divs, err := s.repo.ListDivisions(ctx, filter)
	return divs, s.reject(ctx, "division.list", err)
}

func (s *StructureService) GetDivision(ctx context.Context, id int64) (Division, error) {
	div, err := s.repo.GetDivision(ctx, id)
	if err != nil {
		return Division{}, s.reject(ctx, "division.get", notFoundAs(err, KindDivision, id))
	}
	return div, nil
}

func normalizeDivision(in *Division) error {
	if err := requireNameCode(KindDivision, &in.Name, &in.Code); err != nil {
		return err
	}
	if in.Type == "" {
		in.Type = DivisionTypeDepartment
	}
	if !in.Type.Valid() {
		return errInvalid("ORGCHART_INVALID_BODY", fmt.Sprintf("division type %q is not DEPARTMENT or DIVISION", in.Type))
	}
	return requireID(KindOrganization, in.OrganizationID)
}

func (s *StructureService) CreateDivision(ctx context.Context, in Division) (Division, error) {
	if err := normalizeDivision(&in); err != nil {
		return Division{}, s.reject(ctx, "division.create", err)
	}
	out, err := inTx(ctx, s.tx, func(txCtx context.Context) (Division, error) {
		if err := s.checkDivisionWrite(txCtx, 0, in); err != nil {
			return Division{}, err
		}
		if err := s.repo.InsertDivision(txCtx, &in); err != nil {
			return Division{}, err
		}
		return in, nil
	})
	return out, s.reject(ctx, "division.create", err)
}

func (s *StructureService) UpdateDivision(ctx context.Context, id int64, in Division) (Division, error) {
	if err := normalizeDivision(&in); err != nil {
		return Division{}, s.reject(ctx, "division.update", err)
	}
	out, err := inTx(ctx, s.tx, func(txCtx context.Context) (Division, error) {
		current, err := s.repo.GetDivision(txCtx, id)
		if err != nil {
			return Division{}, notFoundAs(err, KindDivision, id)
		}
		if current.OrganizationID != in.OrganizationID {
			parentID := id
			children, err := s.repo.ListDivisions(txCtx, DivisionFilter{ParentID: &parentID})
			if err != nil {
				return Division{}, err
			}
			if len(children) > 0 {
				return Division{}, errScopeMismatch(KindDivision, id,
					fmt.Sprintf("division %d has %d child division(s) and cannot move to organization %d", id, len(children), in.OrganizationID))
			}
		}
		if err := s.checkDivisionWrite(txCtx, id, in); err != nil {
			return Division{}, err
		}
		in.ID = id
		in.CreatedAt = current.CreatedAt
		if err := s.repo.UpdateDivision(txCtx, &in); err != nil {
			return Division{}, err
		}
		return in, nil
	})
	return out, s.reject(ctx, "division.update", err)
}

// checkDivisionWrite verifies organization, code scope, parent scope and parent chain.
func (s *StructureService) checkDivisionWrite(ctx context.Context, id int64, in Division) error {
	if _, err := s.repo.GetOrganization(ctx, in.OrganizationID); err != nil {
		return notFoundAs(err, KindOrganization, in.OrganizationID)
	}
	exists, err := s.repo.DivisionCodeExists(ctx, in.OrganizationID, in.Code, id)
	if err != nil {
		return err
	}
	if exists {
		return errCodeConflict(KindDivision, in.Code)
	}
	if in.ParentID == nil {
		return nil
	}

	parentID := *in.ParentID
	if id != 0 && parentID == id {
		return errCycle(KindDivision, id, parentID)
	}
	parent, err := s.repo.GetDivision(ctx, parentID)
	if err != nil {
		return notFoundAs(err, KindDivision, parentID)
	}
	if parent.OrganizationID != in.OrganizationID {
		return errScopeMismatch(KindDivision, id, fmt.Sprintf(
			"parent division %d belongs to organization %d, not %d", parentID, parent.OrganizationID, in.OrganizationID))
	}
	if id == 0 {
		return nil
	}

	if err := s.repo.LockHierarchy(ctx, KindDivision, in.OrganizationID); err != nil {
		return err
	}
	orgID := in.OrganizationID
	siblings, err := s.repo.ListDivisions(ctx, DivisionFilter{OrganizationID: &orgID})
	if err != nil {
		return err
	}
	parents := make(map[int64]int64, len(siblings))
	for _, d := range siblings {
		if d.ParentID != nil {
			parents[d.ID] = *d.ParentID
		}
	}
	parentOf := func(k int64) (int64, bool) {
		p, ok := parents[k]
		return p, ok
	}
	if hierarchy.IsAncestor(parentOf, id, parentID) {
		return errCycle(KindDivision, id, parentID)
	}
	return nil
}
