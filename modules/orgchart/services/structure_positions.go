package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

func (s *StructureService) ListPositions(ctx context.Context, filter PositionFilter) ([]Position, error) {
	positions, err := s.repo.ListPositions(ctx, filter)
	return positions, s.reject(ctx, "position.list", err)
}

func (s *StructureService) GetPosition(ctx context.Context, id int64) (Position, error) {
	pos, err := s.repo.GetPosition(ctx, id)
	if err != nil {
		return Position{}, s.reject(ctx, "position.get", notFoundAs(err, KindPosition, id))
	}
	return pos, nil
}

func (s *StructureService) CreatePosition(ctx context.Context, in Position) (Position, error) {
	if err := requireNameCode(KindPosition, &in.Name, &in.Code); err != nil {
		return Position{}, s.reject(ctx, "position.create", err)
	}
	in.Attribute = strings.TrimSpace(in.Attribute)
	out, err := inTx(ctx, s.tx, func(txCtx context.Context) (Position, error) {
		if err := s.checkPositionWrite(txCtx, 0, &in); err != nil {
			return Position{}, err
		}
		if err := s.repo.InsertPosition(txCtx, &in); err != nil {
			return Position{}, err
		}
		return in, nil
	})
	return out, s.reject(ctx, "position.create", err)
}

func (s *StructureService) UpdatePosition(ctx context.Context, id int64, in Position) (Position, error) {
	if err := requireNameCode(KindPosition, &in.Name, &in.Code); err != nil {
		return Position{}, s.reject(ctx, "position.update", err)
	}
	in.Attribute = strings.TrimSpace(in.Attribute)
	out, err := inTx(ctx, s.tx, func(txCtx context.Context) (Position, error) {
		current, err := s.repo.GetPosition(txCtx, id)
		if err != nil {
			return Position{}, notFoundAs(err, KindPosition, id)
		}
		if err := s.checkPositionWrite(txCtx, id, &in); err != nil {
			return Position{}, err
		}
		in.ID = id
		in.CreatedAt = current.CreatedAt
		if err := s.repo.UpdatePosition(txCtx, &in); err != nil {
			return Position{}, err
		}
		return in, nil
	})
	return out, s.reject(ctx, "position.update", err)
}

// checkPositionWrite resolves placement: a section implies its division, and an
// explicit division must agree with the section's.
func (s *StructureService) checkPositionWrite(ctx context.Context, id int64, in *Position) error {
	if in.SectionID != nil {
		sec, err := s.repo.GetSection(ctx, *in.SectionID)
		if err != nil {
			return notFoundAs(err, KindSection, *in.SectionID)
		}
		if in.DivisionID == nil {
			divID := sec.DivisionID
			in.DivisionID = &divID
		} else if *in.DivisionID != sec.DivisionID {
			return errScopeMismatch(KindPosition, id, fmt.Sprintf(
				"section %d belongs to division %d, not %d", sec.ID, sec.DivisionID, *in.DivisionID))
		}
	}
	if in.DivisionID != nil {
		if _, err := s.repo.GetDivision(ctx, *in.DivisionID); err != nil {
			return notFoundAs(err, KindDivision, *in.DivisionID)
		}
	}
	exists, err := s.repo.PositionCodeExists(ctx, in.DivisionID, in.Code, id)
	if err != nil {
		return err
	}
	if exists {
		return errCodeConflict(KindPosition, in.Code)
	}
	return nil
}

type PositionMatch struct {
	Position Position `json:"position"`
	Distance int      `json:"distance"`
}

// SearchPositions ranks positions whose name or code fuzzily contains query.
func (s *StructureService) SearchPositions(ctx context.Context, query string, limit int) ([]PositionMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, s.reject(ctx, "position.search", errInvalid("ORGCHART_INVALID_QUERY", "search query is required"))
	}
	positions, err := s.repo.ListPositions(ctx, PositionFilter{})
	if err != nil {
		return nil, s.reject(ctx, "position.search", err)
	}

	best := make(map[int]int, len(positions))
	consider := func(targets []string) {
		for _, rank := range fuzzy.RankFindNormalizedFold(query, targets) {
			if d, ok := best[rank.OriginalIndex]; !ok || rank.Distance < d {
				best[rank.OriginalIndex] = rank.Distance
			}
		}
	}
	names := make([]string, len(positions))
	codes := make([]string, len(positions))
	for i, p := range positions {
		names[i] = p.Name
		codes[i] = p.Code
	}
	consider(names)
	consider(codes)

	matches := make([]PositionMatch, 0, len(best))
	for idx, dist := range best {
		matches = append(matches, PositionMatch{Position: positions[idx], Distance: dist})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Position.ID < matches[j].Position.ID
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
