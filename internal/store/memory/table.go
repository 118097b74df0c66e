package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"tradefolio/internal/model"
	"tradefolio/internal/store"
)

var errReadOnly = errors.New("write attempted in read-only snapshot")

type metaSetter[T any] interface {
	*T
	SetMeta(model.Meta)
}

// uniqueKey returns the key a live row must not share with another live row.
// An empty key exempts the row.
type uniqueKey[T any] func(T) string

type table[T model.Entity, P metaSetter[T]] struct {
	seq      int64
	rows     map[int64]T
	unique   []uniqueKey[T]
	now      func() time.Time
	readOnly bool
}

var _ store.Table[model.Wallet] = (*table[model.Wallet, *model.Wallet])(nil)

func newTable[T model.Entity, P metaSetter[T]](now func() time.Time, unique ...uniqueKey[T]) *table[T, P] {
	return &table[T, P]{rows: make(map[int64]T), unique: unique, now: now}
}

func (t *table[T, P]) clone() *table[T, P] {
	out := &table[T, P]{seq: t.seq, rows: make(map[int64]T, len(t.rows)), unique: t.unique, now: t.now}
	for id, v := range t.rows {
		out.rows[id] = v
	}
	return out
}

func (t *table[T, P]) view() *table[T, P] {
	v := *t
	v.readOnly = true
	return &v
}

func (t *table[T, P]) Get(ctx context.Context, id int64) (T, error) {
	v, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, store.ErrNotFound
	}
	return v, nil
}

func (t *table[T, P]) List(ctx context.Context, f store.Filter) ([]T, error) {
	conds := f.Predicate()
	out := make([]T, 0)
	for _, v := range t.rows {
		if matchAll(v, conds) {
			out = append(out, v)
		}
	}
	sortRows(out, f.OrderBy, f.Desc)
	return page(out, f.Limit, f.Offset), nil
}

func (t *table[T, P]) Insert(ctx context.Context, v T) (T, error) {
	if t.readOnly {
		var zero T
		return zero, errReadOnly
	}
	if err := t.checkUnique(v, 0); err != nil {
		var zero T
		return zero, err
	}
	t.seq++
	now := t.now()
	P(&v).SetMeta(model.Meta{ID: t.seq, CreatedAt: now, UpdatedAt: now})
	t.rows[t.seq] = v
	return v, nil
}

func (t *table[T, P]) Update(ctx context.Context, v T) (T, error) {
	if t.readOnly {
		var zero T
		return zero, errReadOnly
	}
	meta := v.Metadata()
	prev, ok := t.rows[meta.ID]
	if !ok {
		var zero T
		return zero, store.ErrNotFound
	}
	if err := t.checkUnique(v, meta.ID); err != nil {
		var zero T
		return zero, err
	}
	pm := prev.Metadata()
	P(&v).SetMeta(model.Meta{ID: pm.ID, CreatedAt: pm.CreatedAt, UpdatedAt: t.now(), DeletedAt: meta.DeletedAt})
	t.rows[meta.ID] = v
	return v, nil
}

func (t *table[T, P]) MarkDeleted(ctx context.Context, id int64, at time.Time) error {
	if t.readOnly {
		return errReadOnly
	}
	v, ok := t.rows[id]
	if !ok || !v.IsLive() {
		return store.ErrNotFound
	}
	m := v.Metadata()
	m.DeletedAt = &at
	m.UpdatedAt = at
	P(&v).SetMeta(m)
	t.rows[id] = v
	return nil
}

func (t *table[T, P]) checkUnique(v T, self int64) error {
	if !v.IsLive() {
		return nil
	}
	for _, key := range t.unique {
		k := key(v)
		if k == "" {
			continue
		}
		for id, other := range t.rows {
			if id == self || !other.IsLive() {
				continue
			}
			if key(other) == k {
				return store.ErrDuplicate
			}
		}
	}
	return nil
}

func sortRows[T model.Entity](rows []T, field string, desc bool) {
	if field == "" {
		field = "id"
	}
	sort.SliceStable(rows, func(i, j int) bool {
		c := compare(rows[i].Field(field), rows[j].Field(field))
		if c == 0 {
			c = compare(rows[i].Metadata().ID, rows[j].Metadata().ID)
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func page[T any](rows []T, limit, offset int) []T {
	if offset > len(rows) {
		return []T{}
	}
	if offset > 0 {
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
