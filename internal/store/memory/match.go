package memory

import (
	"fmt"
	"strconv"
	"time"

	"tradefolio/internal/model"
	"tradefolio/internal/store"

	"github.com/shopspring/decimal"
)

func matchAll(v model.Entity, conds []store.Cond) bool {
	for _, c := range conds {
		if !match(v.Field(c.Field), c) {
			return false
		}
	}
	return true
}

func match(got any, c store.Cond) bool {
	got = deref(got)
	switch c.Op {
	case store.OpIsNull:
		return got == nil
	case store.OpNotNull:
		return got != nil
	case store.OpEq:
		return got != nil && compare(got, c.Value) == 0
	case store.OpNotEq:
		return got == nil || compare(got, c.Value) != 0
	case store.OpLte:
		return got != nil && compare(got, c.Value) <= 0
	}
	return false
}

func deref(v any) any {
	switch x := v.(type) {
	case *int64:
		if x == nil {
			return nil
		}
		return *x
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	case *decimal.Decimal:
		if x == nil {
			return nil
		}
		return *x
	}
	return v
}

// compare orders two column values; nil sorts first.
func compare(a, b any) int {
	a, b = deref(a), deref(b)
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch x := a.(type) {
	case int64:
		if y, ok := asInt(b); ok {
			return cmpInt(x, y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case decimal.Decimal:
		if y, ok := b.(decimal.Decimal); ok {
			return x.Cmp(y)
		}
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}

func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
