package services

import (
	"context"

	"github.com/iota-uz/orgmatrix/modules/orgchart/domain/hierarchy"
)

func (s *StructureService) ListOrganizations(ctx context.Context) ([]Organization, error) {
	orgs, err := s.repo.ListOrganizations(ctx)
	return orgs, s.reject(ctx, "organization.list", err)
}

func (s *StructureService) GetOrganization(ctx context.Context, id int64) (Organization, error) {
	org, err := s.repo.GetOrganization(ctx, id)
	if err != nil {
		return Organization{}, s.reject(ctx, "organization.get", notFoundAs(err, KindOrganization, id))
	}
	return org, nil
}

func (s *StructureService) CreateOrganization(ctx context.Context, in Organization) (Organization, error) {
	if err := requireNameCode(KindOrganization, &in.Name, &in.Code); err != nil {
		return Organization{}, s.reject(ctx, "organization.create", err)
	}
	out, err := inTx(ctx, s.tx, func(txCtx context.Context) (Organization, error) {
		if err := s.checkOrganizationWrite(txCtx, 0, in); err != nil {
			return Organization{}, err
		}
		if err := s.repo.InsertOrganization(txCtx, &in); err != nil {
			return Organization{}, err
		}
		return in, nil
	})
	return out, s.reject(ctx, "organization.create", err)
}

func (s *StructureService) UpdateOrganization(ctx context.Context, id int64, in Organization) (Organization, error) {
	if err := requireNameCode(KindOrganization, &in.Name, &in.Code); err != nil {
		return Organization{}, s.reject(ctx, "organization.update", err)
	}
	out, err := inTx(ctx, s.tx, func(txCtx context.Context) (Organization, error) {
		current, err := s.repo.GetOrganization(txCtx, id)
		if err != nil {
			return Organization{}, notFoundAs(err, KindOrganization, id)
		}
		if err := s.checkOrganizationWrite(txCtx, id, in); err != nil {
			return Organization{}, err
		}
		in.ID = id
		in.CreatedAt = current.CreatedAt
		if err := s.repo.UpdateOrganization(txCtx, &in); err != nil {
			return Organization{}, err
		}
		return in, nil
	})
	return out, s.reject(ctx, "organization.update", err)
}

func (s *StructureService) checkOrganizationWrite(ctx context.Context, id int64, in Organization) error {
	exists, err := s.repo.OrganizationCodeExists(ctx, in.Code, id)
	if err != nil {
		return err
	}
	if exists {
		return errCodeConflict(KindOrganization, in.Code)
	}
	if in.ParentID == nil {
		return nil
	}

	parentID := *in.ParentID
	if id != 0 && parentID == id {
		return errCycle(KindOrganization, id, parentID)
	}
	if _, err := s.repo.GetOrganization(ctx, parentID); err != nil {
		return notFoundAs(err, KindOrganization, parentID)
	}
	if id == 0 {
		return nil
	}

	if err := s.repo.LockHierarchy(ctx, KindOrganization, 0); err != nil {
		return err
	}
	orgs, err := s.repo.ListOrganizations(ctx)
	if err != nil {
		return err
	}
	parents := make(map[int64]int64, len(orgs))
	for _, o := range orgs {
		if o.ParentID != nil {
			parents[o.ID] = *o.ParentID
		}
	}
	parentOf := func(k int64) (int64, bool) {
		p, ok := parents[k]
		return p, ok
	}
	if hierarchy.IsAncestor(parentOf, id, parentID) {
		return errCycle(KindOrganization, id, parentID)
	}
	return nil
}
