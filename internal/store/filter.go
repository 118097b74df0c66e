package store

type Op string

const (
	OpEq      Op = "="
	OpNotEq   Op = "<>"
	OpIsNull  Op = "is null"
	OpNotNull Op = "is not null"
	OpLte     Op = "<="
)

// Cond is one column predicate. Field is the column name.
type Cond struct {
	Field string
	Op    Op
	Value any
}

func Eq(field string, value any) Cond {
	return Cond{Field: field, Op: OpEq, Value: value}
}

func IsNull(field string) Cond {
	return Cond{Field: field, Op: OpIsNull}
}

func NotNull(field string) Cond {
	return Cond{Field: field, Op: OpNotNull}
}

func Lte(field string, value any) Cond {
	return Cond{Field: field, Op: OpLte, Value: value}
}

// Filter is the store-level predicate/sort/limit triple.
type Filter struct {
	Where          []Cond
	OrderBy        string
	Desc           bool
	Limit          int
	Offset         int
	IncludeDeleted bool
}

func Where(conds ...Cond) Filter {
	return Filter{Where: conds}
}

// And returns a copy of f with extra conditions.
func (f Filter) And(conds ...Cond) Filter {
	out := f
	out.Where = make([]Cond, 0, len(f.Where)+len(conds))
	out.Where = append(out.Where, f.Where...)
	out.Where = append(out.Where, conds...)
	return out
}

// Live is the liveness combinator: the deleted_at predicate every listing carries.
func Live() Cond {
	return IsNull("deleted_at")
}

// Predicate is the full condition list an adapter must apply for f.
func (f Filter) Predicate() []Cond {
	if f.IncludeDeleted {
		return f.Where
	}
	return f.And(Live()).Where
}
