package memstore

import (
	"context"

	"github.com/iota-uz/orgmatrix/modules/orgchart/services"
)

type table[T any] func(st *state) map[int64]T

func listRows[T any](ctx context.Context, s *Store, t table[T], keep func(T) bool) ([]T, error) {
	var out []T
	err := s.read(ctx, func(st *state) error {
		out = sortedValues(t(st), keep)
		return nil
	})
	return out, err
}

func getRow[T any](ctx context.Context, s *Store, t table[T], id int64) (T, error) {
	var out T
	err := s.read(ctx, func(st *state) error {
		row, ok := t(st)[id]
		if !ok {
			return services.ErrRecordNotFound
		}
		out = row
		return nil
	})
	return out, err
}

func anyRow[T any](ctx context.Context, s *Store, t table[T], match func(T) bool) (bool, error) {
	found := false
	err := s.read(ctx, func(st *state) error {
		for _, row := range t(st) {
			if match(row) {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func putRow[T any](ctx context.Context, s *Store, t table[T], kind services.EntityKind, id *int64, build func(st *state) T) error {
	return s.write(ctx, func(st *state) error {
		if *id == 0 {
			*id = st.nextID(kind)
		} else if _, ok := t(st)[*id]; !ok {
			return services.ErrRecordNotFound
		}
		t(st)[*id] = build(st)
		return nil
	})
}

func deleteRow[T any](ctx context.Context, s *Store, t table[T], id int64) error {
	return s.write(ctx, func(st *state) error {
		rows := t(st)
		if _, ok := rows[id]; !ok {
			return services.ErrRecordNotFound
		}
		delete(rows, id)
		return nil
	})
}

func deleteWhere[T any](ctx context.Context, s *Store, t table[T], match func(T) bool) (int64, error) {
	var n int64
	err := s.write(ctx, func(st *state) error {
		rows := t(st)
		for id, row := range rows {
			if match(row) {
				delete(rows, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

var (
	organizations  table[services.Organization]         = func(st *state) map[int64]services.Organization { return st.organizations }
	divisions      table[services.Division]             = func(st *state) map[int64]services.Division { return st.divisions }
	sections       table[services.Section]              = func(st *state) map[int64]services.Section { return st.sections }
	positions      table[services.Position]             = func(st *state) map[int64]services.Position { return st.positions }
	staffRows      table[services.Staff]                = func(st *state) map[int64]services.Staff { return st.staff }
	functions      table[services.Function]             = func(st *state) map[int64]services.Function { return st.functions }
	staffPositions table[services.StaffPosition]        = func(st *state) map[int64]services.StaffPosition { return st.staffPositions }
	assignments    table[services.FunctionalAssignment] = func(st *state) map[int64]services.FunctionalAssignment { return st.assignments }
	relations      table[services.FunctionalRelation]   = func(st *state) map[int64]services.FunctionalRelation { return st.relations }
)
