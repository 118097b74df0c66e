package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tradefolio/internal/model"
	"tradefolio/internal/store"

	"github.com/jackc/pgx/v5"
)

const metaColumns = "id, created_at, updated_at, deleted_at"

// tableSpec describes how one entity maps onto its table. values must follow
// the order of columns; scan reads metaColumns followed by columns.
type tableSpec[T model.Entity] struct {
	name    string
	columns []string
	values  func(T) []any
	scan    func(row pgx.Row) (T, error)
}

func (s *tableSpec[T]) selectList() string {
	return metaColumns + ", " + strings.Join(s.columns, ", ")
}

func (s *tableSpec[T]) known(field string) bool {
	switch field {
	case "id", "created_at", "updated_at", "deleted_at":
		return true
	}
	for _, c := range s.columns {
		if c == field {
			return true
		}
	}
	return false
}

type table[T model.Entity] struct {
	q    pgx.Tx
	spec *tableSpec[T]
}

func (t *table[T]) Get(ctx context.Context, id int64) (T, error) {
	sql := "select " + t.spec.selectList() + " from " + t.spec.name + " where id = $1"
	v, err := t.spec.scan(t.q.QueryRow(ctx, sql, id))
	if err != nil {
		var zero T
		return zero, mapErr(err)
	}
	return v, nil
}

func (t *table[T]) List(ctx context.Context, f store.Filter) ([]T, error) {
	where, args, err := t.where(f.Predicate())
	if err != nil {
		return nil, err
	}
	order := "id"
	if f.OrderBy != "" {
		if !t.spec.known(f.OrderBy) {
			return nil, fmt.Errorf("%s: unknown sort column %q", t.spec.name, f.OrderBy)
		}
		order = f.OrderBy
	}
	dir := "asc"
	if f.Desc {
		dir = "desc"
	}
	var sb strings.Builder
	sb.WriteString("select " + t.spec.selectList() + " from " + t.spec.name)
	if where != "" {
		sb.WriteString(" where " + where)
	}
	fmt.Fprintf(&sb, " order by %s %s, id %s", order, dir, dir)
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&sb, " limit $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		fmt.Fprintf(&sb, " offset $%d", len(args))
	}
	rows, err := t.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	out := make([]T, 0)
	for rows.Next() {
		v, err := t.spec.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, mapErr(rows.Err())
}

func (t *table[T]) where(conds []store.Cond) (string, []any, error) {
	parts := make([]string, 0, len(conds))
	var args []any
	for _, c := range conds {
		if !t.spec.known(c.Field) {
			return "", nil, fmt.Errorf("%s: unknown filter column %q", t.spec.name, c.Field)
		}
		switch c.Op {
		case store.OpIsNull, store.OpNotNull:
			parts = append(parts, c.Field+" "+string(c.Op))
		case store.OpEq, store.OpNotEq, store.OpLte:
			args = append(args, c.Value)
			parts = append(parts, fmt.Sprintf("%s %s $%d", c.Field, c.Op, len(args)))
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", c.Op)
		}
	}
	return strings.Join(parts, " and "), args, nil
}

func (t *table[T]) Insert(ctx context.Context, v T) (T, error) {
	cols := t.spec.columns
	marks := make([]string, len(cols))
	for i := range cols {
		marks[i] = fmt.Sprintf("$%d", i+1)
	}
	sql := fmt.Sprintf("insert into %s (%s) values (%s) returning %s",
		t.spec.name, strings.Join(cols, ", "), strings.Join(marks, ", "), t.spec.selectList())
	out, err := t.spec.scan(t.q.QueryRow(ctx, sql, t.spec.values(v)...))
	if err != nil {
		var zero T
		return zero, mapErr(err)
	}
	return out, nil
}

func (t *table[T]) Update(ctx context.Context, v T) (T, error) {
	cols := t.spec.columns
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", c, i+1)
	}
	args := append(t.spec.values(v), v.Metadata().ID)
	sql := fmt.Sprintf("update %s set %s, updated_at = now() where id = $%d returning %s",
		t.spec.name, strings.Join(sets, ", "), len(args), t.spec.selectList())
	out, err := t.spec.scan(t.q.QueryRow(ctx, sql, args...))
	if err != nil {
		var zero T
		return zero, mapErr(err)
	}
	return out, nil
}

func (t *table[T]) MarkDeleted(ctx context.Context, id int64, at time.Time) error {
	tag, err := t.q.Exec(ctx, "update "+t.spec.name+" set deleted_at = $2, updated_at = $2 where id = $1 and deleted_at is null", id, at)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
