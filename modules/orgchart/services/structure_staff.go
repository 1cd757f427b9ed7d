package services

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
)

var staffValidator = validator.New()

func (s *StructureService) ListStaff(ctx context.Context, filter StaffFilter) ([]Staff, error) {
	staff, err := s.repo.ListStaff(ctx, filter)
	return staff, s.reject(ctx, "staff.list", err)
}

func (s *StructureService) GetStaff(ctx context.Context, id int64) (Staff, error) {
	st, err := s.repo.GetStaff(ctx, id)
	if err != nil {
		return Staff{}, s.reject(ctx, "staff.get", notFoundAs(err, KindStaff, id))
	}
	return st, nil
}

func normalizeStaff(in *Staff) error {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.MiddleName = strings.TrimSpace(in.MiddleName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.FirstName == "" || in.LastName == "" {
		return errInvalid("ORGCHART_INVALID_BODY", "staff first and last name are required")
	}
	if in.Email != "" {
		if err := staffValidator.Var(in.Email, "email"); err != nil {
			return errInvalid("ORGCHART_INVALID_BODY", "staff email is not a valid address")
		}
	}
	return nil
}

func (s *StructureService) CreateStaff(ctx context.Context, in Staff) (Staff, error) {
	if err := normalizeStaff(&in); err != nil {
		return Staff{}, s.reject(ctx, "staff.create", err)
	}
	out, err := inTx(ctx, s.tx, func(txCtx context.Context) (Staff, error) {
		if err := s.checkStaffOrganization(txCtx, in); err != nil {
			return Staff{}, err
		}
		if err := s.repo.InsertStaff(txCtx, &in); err != nil {
			return Staff{}, err
		}
		return in, nil
	})
	return out, s.reject(ctx, "staff.create", err)
}

func (s *StructureService) UpdateStaff(ctx context.Context, id int64, in Staff) (Staff, error) {
	if err := normalizeStaff(&in); err != nil {
		return Staff{}, s.reject(ctx, "staff.update", err)
	}
	out, err := inTx(ctx, s.tx, func(txCtx context.Context) (Staff, error) {
		current, err := s.repo.GetStaff(txCtx, id)
		if err != nil {
			return Staff{}, notFoundAs(err, KindStaff, id)
		}
		if err := s.checkStaffOrganization(txCtx, in); err != nil {
			return Staff{}, err
		}
		in.ID = id
		in.CreatedAt = current.CreatedAt
		if err := s.repo.UpdateStaff(txCtx, &in); err != nil {
			return Staff{}, err
		}
		return in, nil
	})
	return out, s.reject(ctx, "staff.update", err)
}

func (s *StructureService) checkStaffOrganization(ctx context.Context, in Staff) error {
	if in.OrganizationID == nil {
		return nil
	}
	if _, err := s.repo.GetOrganization(ctx, *in.OrganizationID); err != nil {
		return notFoundAs(err, KindOrganization, *in.OrganizationID)
	}
	return nil
}
