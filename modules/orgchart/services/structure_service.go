package services

import (
	"context"
	"errors"
	"strings"
	"time"
)

type Options struct {
	// Now is the clock used to decide which staff positions are active.
	Now func() time.Time
	// AllowRelationSelfLoops permits functional relations whose source equals target.
	AllowRelationSelfLoops bool
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now().UTC()
}

// StructureService performs validated writes and plain reads on every entity.
type StructureService struct {
	repo Repository
	tx   Transactor
	opts Options
}

func NewStructureService(repo Repository, tx Transactor, opts Options) *StructureService {
	return &StructureService{repo: repo, tx: tx, opts: opts}
}

func (s *StructureService) reject(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	mapped := mapStoreError(err)
	maybeLogRejected(ctx, op, mapped)
	return mapped
}

func notFoundAs(err error, kind EntityKind, id int64) error {
	if errors.Is(err, ErrRecordNotFound) {
		return errNotFound(kind, id)
	}
	return err
}

func requireNameCode(kind EntityKind, name, code *string) error {
	*name = strings.TrimSpace(*name)
	*code = strings.TrimSpace(*code)
	if *name == "" {
		return errInvalid("ORGCHART_INVALID_BODY", string(kind)+" name is required")
	}
	if *code == "" {
		return errInvalid("ORGCHART_INVALID_BODY", string(kind)+" code is required")
	}
	return nil
}

func requireID(kind EntityKind, id int64) error {
	if id <= 0 {
		return errInvalid("ORGCHART_INVALID_ID", string(kind)+" id must be positive")
	}
	return nil
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
