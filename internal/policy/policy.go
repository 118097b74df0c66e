// Package policy holds the ownership, visibility and soft-delete rules every
// entity service applies on top of the store.
package policy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tradefolio/internal/apperr"
	"tradefolio/internal/model"
	"tradefolio/internal/store"
	"tradefolio/internal/types"
)

// Actor is the authenticated caller a command runs on behalf of.
type Actor struct {
	UserID int64
	Role   types.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == types.RoleAdmin
}

// Label is the human name of a kind, as used in error messages.
func Label(k model.Kind) string {
	return strings.ReplaceAll(string(k), "_", " ")
}

// Visible reports whether a may see e: e is live, and either global or owned by a.
func Visible(e model.Entity, a Actor) bool {
	if !e.IsLive() {
		return false
	}
	switch {
	case e.Kind().Scoped():
		return e.OwnerID() == a.UserID
	case e.Kind() == model.KindUser:
		return e.OwnerID() == a.UserID || a.IsAdmin()
	}
	return true
}

// CanModify checks write rights on a row a can already see. Shared reference
// data is admin-only; groups may be changed by their creator.
func CanModify(e model.Entity, a Actor) error {
	switch e.Kind() {
	case model.KindAsset, model.KindExternalEntity:
		if !a.IsAdmin() {
			return apperr.Forbidden("only an admin may change " + Label(e.Kind()) + " records")
		}
	case model.KindGroup:
		if e.OwnerID() != a.UserID && !a.IsAdmin() {
			return apperr.Forbidden("only the creator of a group may change it")
		}
	}
	return nil
}

// FromStore translates a store failure into the domain taxonomy.
func FromStore(what string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound(what)
	case errors.Is(err, store.ErrDuplicate):
		return apperr.Conflict(what + " already exists")
	case errors.Is(err, store.ErrSerialization):
		return apperr.Conflict("concurrent update on " + what + ", retry")
	}
	return apperr.Infra(what, err)
}

func kindOf[T model.Entity]() model.Kind {
	var zero T
	return zero.Kind()
}

// Fetch resolves id for a. Absent, deleted and foreign-owned rows all come
// back as NotFound.
func Fetch[T model.Entity](ctx context.Context, t store.Table[T], id int64, a Actor) (T, error) {
	var zero T
	what := Label(kindOf[T]())
	v, err := t.Get(ctx, id)
	if err != nil {
		return zero, FromStore(what, err)
	}
	if !Visible(v, a) {
		return zero, apperr.NotFound(what)
	}
	return v, nil
}

// FetchForUpdate is Fetch followed by CanModify.
func FetchForUpdate[T model.Entity](ctx context.Context, t store.Table[T], id int64, a Actor) (T, error) {
	v, err := Fetch(ctx, t, id, a)
	if err != nil {
		return v, err
	}
	if err := CanModify(v, a); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Scope narrows f to what a may list. Listings of user-owned kinds only
// ever return a's rows, and deleted rows are never included.
func Scope[T model.Entity](f store.Filter, a Actor) store.Filter {
	f.IncludeDeleted = false
	switch k := kindOf[T](); {
	case k.Scoped():
		return f.And(store.Eq("user_id", a.UserID))
	case k == model.KindUser && !a.IsAdmin():
		return f.And(store.Eq("id", a.UserID))
	}
	return f
}

// List runs a scoped listing.
func List[T model.Entity](ctx context.Context, t store.Table[T], f store.Filter, a Actor) ([]T, error) {
	rows, err := t.List(ctx, Scope[T](f, a))
	if err != nil {
		return nil, FromStore(Label(kindOf[T]()), err)
	}
	return rows, nil
}

// EnsureUniqueName fails with Conflict when another live row of the same
// user already carries name. selfID excludes the row being renamed.
func EnsureUniqueName[T model.Entity](ctx context.Context, t store.Table[T], userID int64, name string, selfID int64) error {
	what := Label(kindOf[T]())
	rows, err := t.List(ctx, store.Where(store.Eq("user_id", userID), store.Eq("name", name)))
	if err != nil {
		return FromStore(what, err)
	}
	for _, r := range rows {
		if r.Metadata().ID != selfID {
			return apperr.Conflict(fmt.Sprintf("%s name %q already in use", what, name))
		}
	}
	return nil
}

// SoftDelete stamps deletedAt on a row a may modify. A row that is already
// gone, or that loses the race to a concurrent delete, reports NotFound.
func SoftDelete[T model.Entity](ctx context.Context, t store.Table[T], id int64, a Actor, now time.Time) (T, error) {
	var zero T
	what := Label(kindOf[T]())
	if _, err := FetchForUpdate(ctx, t, id, a); err != nil {
		return zero, err
	}
	if err := t.MarkDeleted(ctx, id, now); err != nil {
		return zero, FromStore(what, err)
	}
	v, err := t.Get(ctx, id)
	if err != nil {
		return zero, FromStore(what, err)
	}
	return v, nil
}
