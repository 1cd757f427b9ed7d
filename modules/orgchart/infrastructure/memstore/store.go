// Package memstore keeps the org graph in process memory. Transactions are
// serialized and roll back by restoring the state captured when they began.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/iota-uz/orgmatrix/modules/orgchart/services"
)

type state struct {
	seq map[services.EntityKind]int64

	organizations  map[int64]services.Organization
	divisions      map[int64]services.Division
	sections       map[int64]services.Section
	positions      map[int64]services.Position
	staff          map[int64]services.Staff
	functions      map[int64]services.Function
	staffPositions map[int64]services.StaffPosition
	assignments    map[int64]services.FunctionalAssignment
	relations      map[int64]services.FunctionalRelation
}

func newState() state {
	return state{
		seq:            make(map[services.EntityKind]int64),
		organizations:  make(map[int64]services.Organization),
		divisions:      make(map[int64]services.Division),
		sections:       make(map[int64]services.Section),
		positions:      make(map[int64]services.Position),
		staff:          make(map[int64]services.Staff),
		functions:      make(map[int64]services.Function),
		staffPositions: make(map[int64]services.StaffPosition),
		assignments:    make(map[int64]services.FunctionalAssignment),
		relations:      make(map[int64]services.FunctionalRelation),
	}
}

// clone copies every table. Rows are values and are replaced whole on update, so
// a shallow copy per map is enough.
func (s state) clone() state {
	return state{
		seq:            maps.Clone(s.seq),
		organizations:  maps.Clone(s.organizations),
		divisions:      maps.Clone(s.divisions),
		sections:       maps.Clone(s.sections),
		positions:      maps.Clone(s.positions),
		staff:          maps.Clone(s.staff),
		functions:      maps.Clone(s.functions),
		staffPositions: maps.Clone(s.staffPositions),
		assignments:    maps.Clone(s.assignments),
		relations:      maps.Clone(s.relations),
	}
}

func (s *state) nextID(kind services.EntityKind) int64 {
	s.seq[kind]++
	return s.seq[kind]
}

type txKey struct{}

// Store implements services.Repository and services.Transactor.
type Store struct {
	mu    sync.Mutex
	state state
	now   func() time.Time
}

var (
	_ services.Repository = (*Store)(nil)
	_ services.Transactor = (*Store)(nil)
)

func New() *Store {
	return &Store{state: newState(), now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the clock used for created_at and updated_at.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// InTx runs fn while holding the store. Nested calls join the outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// InReadTx is InTx; the store lock already gives fn a single snapshot.
func (s *Store) InReadTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return s.InTx(ctx, fn)
}

func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if s.inTx(ctx) {
		return fn(&s.state)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.state)
}

// write runs fn in its own transaction unless ctx already carries one.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	return s.InTx(ctx, func(context.Context) error { return fn(&s.state) })
}

func (s *Store) LockRow(ctx context.Context, kind services.EntityKind, id int64) error {
	return s.read(ctx, func(st *state) error {
		if !st.exists(kind, id) {
			return services.ErrRecordNotFound
		}
		return nil
	})
}

// LockHierarchy is a no-op: transactions are already serialized.
func (s *Store) LockHierarchy(context.Context, services.EntityKind, int64) error {
	return nil
}

func (s *state) exists(kind services.EntityKind, id int64) bool {
	var ok bool
	switch kind {
	case services.KindOrganization:
		_, ok = s.organizations[id]
	case services.KindDivision:
		_, ok = s.divisions[id]
	case services.KindSection:
		_, ok = s.sections[id]
	case services.KindPosition:
		_, ok = s.positions[id]
	case services.KindStaff:
		_, ok = s.staff[id]
	case services.KindFunction:
		_, ok = s.functions[id]
	case services.KindStaffPosition:
		_, ok = s.staffPositions[id]
	case services.KindFunctionalAssignment:
		_, ok = s.assignments[id]
	case services.KindFunctionalRelation:
		_, ok = s.relations[id]
	}
	return ok
}

func sortedValues[T any](m map[int64]T, keep func(T) bool) []T {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if v := m[id]; keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func matches(filter *int64, value *int64) bool {
	if filter == nil {
		return true
	}
	return value != nil && *value == *filter
}

func matchesID(filter *int64, value int64) bool {
	return filter == nil || *filter == value
}
