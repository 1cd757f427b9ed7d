package services

import (
	"context"
	"fmt"
)

func (s *StructureService) ListSections(ctx context.Context, filter SectionFilter) ([]Section, error) {
	secs, err := s.repo.ListSections(ctx, filter)
	return secs, s.reject(ctx, "section.list", err)
}

func (s *StructureService) GetSection(ctx context.Context, id int64) (Section, error) {
	sec, err := s.repo.GetSection(ctx, id)
	if err != nil {
		return Section{}, s.reject(ctx, "section.get", notFoundAs(err, KindSection, id))
	}
	return sec, nil
}

func (s *StructureService) CreateSection(ctx context.Context, in Section) (Section, error) {
	if err := s.normalizeSection(&in); err != nil {
		return Section{}, s.reject(ctx, "section.create", err)
	}
	out, err := inTx(ctx, s.tx, func(txCtx context.Context) (Section, error) {
		if err := s.checkSectionWrite(txCtx, 0, in); err != nil {
			return Section{}, err
		}
		if err := s.repo.InsertSection(txCtx, &in); err != nil {
			return Section{}, err
		}
		return in, nil
	})
	return out, s.reject(ctx, "section.create", err)
}

func (s *StructureService) UpdateSection(ctx context.Context, id int64, in Section) (Section, error) {
	if err := s.normalizeSection(&in); err != nil {
		return Section{}, s.reject(ctx, "section.update", err)
	}
	out, err := inTx(ctx, s.tx, func(txCtx context.Context) (Section, error) {
		current, err := s.repo.GetSection(txCtx, id)
		if err != nil {
			return Section{}, notFoundAs(err, KindSection, id)
		}
		if current.DivisionID != in.DivisionID {
			sectionID := id
			placed, err := s.repo.ListPositions(txCtx, PositionFilter{SectionID: &sectionID})
			if err != nil {
				return Section{}, err
			}
			if len(placed) > 0 {
				return Section{}, errScopeMismatch(KindSection, id,
					fmt.Sprintf("section %d has %d position(s) and cannot move to division %d", id, len(placed), in.DivisionID))
			}
		}
		if err := s.checkSectionWrite(txCtx, id, in); err != nil {
			return Section{}, err
		}
		in.ID = id
		in.CreatedAt = current.CreatedAt
		if err := s.repo.UpdateSection(txCtx, &in); err != nil {
			return Section{}, err
		}
		return in, nil
	})
	return out, s.reject(ctx, "section.update", err)
}

func (s *StructureService) normalizeSection(in *Section) error {
	if err := requireNameCode(KindSection, &in.Name, &in.Code); err != nil {
		return err
	}
	return requireID(KindDivision, in.DivisionID)
}

func (s *StructureService) checkSectionWrite(ctx context.Context, id int64, in Section) error {
	if _, err := s.repo.GetDivision(ctx, in.DivisionID); err != nil {
		return notFoundAs(err, KindDivision, in.DivisionID)
	}
	exists, err := s.repo.SectionCodeExists(ctx, in.DivisionID, in.Code, id)
	if err != nil {
		return err
	}
	if exists {
		return errCodeConflict(KindSection, in.Code)
	}
	return nil
}
