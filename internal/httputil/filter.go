package httputil

import (
	"net/http"
	"strconv"
	"strings"

	"tradefolio/internal/apperr"
	"tradefolio/internal/store"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

type FieldType int

const (
	FieldString FieldType = iota
	FieldInt
	FieldBool
)

// FilterField maps a query parameter onto a column.
type FilterField struct {
	Column string
	Type   FieldType
}

// FilterSpec lists the query parameters a listing accepts. Sortable maps
// sort keys onto columns. Presence maps boolean parameters onto nullable
// columns: true keeps rows where the column is set, false where it is null.
type FilterSpec struct {
	Fields   map[string]FilterField
	Presence map[string]string
	Sortable map[string]string
}

// ParseFilter builds the store filter for a listing request:
// equality and presence filters, ?sort=field or ?sort=-field, ?limit= and ?offset=.
func ParseFilter(r *http.Request, spec FilterSpec) (store.Filter, error) {
	q := r.URL.Query()
	f := store.Filter{Limit: DefaultLimit}
	for name, field := range spec.Fields {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := parseValue(raw, field.Type)
		if err != nil {
			return f, apperr.Validationf(name, "invalid value %q", raw)
		}
		f = f.And(store.Eq(field.Column, v))
	}
	for name, col := range spec.Presence {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		set, err := strconv.ParseBool(raw)
		if err != nil {
			return f, apperr.Validationf(name, "invalid value %q", raw)
		}
		if set {
			f = f.And(store.NotNull(col))
		} else {
			f = f.And(store.IsNull(col))
		}
	}
	if raw := q.Get("sort"); raw != "" {
		key := strings.TrimPrefix(raw, "-")
		col, ok := spec.Sortable[key]
		if !ok {
			return f, apperr.Validationf("sort", "cannot sort by %q", key)
		}
		f.OrderBy = col
		f.Desc = strings.HasPrefix(raw, "-")
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return f, apperr.Validationf("limit", "invalid limit %q", raw)
		}
		f.Limit = min(n, MaxLimit)
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return f, apperr.Validationf("offset", "invalid offset %q", raw)
		}
		f.Offset = n
	}
	return f, nil
}

func parseValue(raw string, t FieldType) (any, error) {
	switch t {
	case FieldInt:
		return strconv.ParseInt(raw, 10, 64)
	case FieldBool:
		return strconv.ParseBool(raw)
	}
	return raw, nil
}
