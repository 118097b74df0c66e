// Package refcheck validates the foreign references of a command payload
// before the command writes anything.
package refcheck

import (
	"context"
	"errors"

	"tradefolio/internal/apperr"
	"tradefolio/internal/model"
	"tradefolio/internal/policy"
	"tradefolio/internal/store"
	"tradefolio/internal/types"
)

// Rule is an extra condition on the resolved target. It returns a non-empty
// reason when the target is unacceptable.
type Rule func(target model.Entity) string

// Ref is one foreign key of a payload. Field is the payload's JSON name.
type Ref struct {
	Field string
	Kind  model.Kind
	ID    *int64
	Rules []Rule
}

// To is a required reference.
func To(field string, kind model.Kind, id int64) Ref {
	return Ref{Field: field, Kind: kind, ID: &id}
}

// Opt is a nullable reference; a nil id is not checked.
func Opt(field string, kind model.Kind, id *int64) Ref {
	return Ref{Field: field, Kind: kind, ID: id}
}

// Where attaches rules to r.
func (r Ref) Where(rules ...Rule) Ref {
	r.Rules = append(append([]Rule(nil), r.Rules...), rules...)
	return r
}

// Check resolves every reference and returns a ReferenceError naming the
// first one that is absent, deleted, owned by someone else, or rejected by
// one of its rules.
func Check(ctx context.Context, tx store.Tx, actor policy.Actor, refs ...Ref) error {
	for _, r := range refs {
		if r.ID == nil {
			continue
		}
		if err := check(ctx, tx, actor, r); err != nil {
			return err
		}
	}
	return nil
}

func check(ctx context.Context, tx store.Tx, actor policy.Actor, r Ref) error {
	what := policy.Label(r.Kind)
	target, err := store.Lookup(ctx, tx, r.Kind, *r.ID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.Reference(r.Field, what+" does not exist")
	}
	if err != nil {
		return policy.FromStore(what, err)
	}
	if !target.IsLive() {
		return apperr.Reference(r.Field, what+" is deleted")
	}
	if r.Kind.Scoped() && target.OwnerID() != actor.UserID {
		return apperr.Reference(r.Field, what+" does not exist")
	}
	for _, rule := range r.Rules {
		if reason := rule(target); reason != "" {
			return apperr.Reference(r.Field, reason)
		}
	}
	return nil
}

// GroupOf requires a Group of the given purpose.
func GroupOf(gt types.GroupType) Rule {
	return func(target model.Entity) string {
		g, ok := target.(model.Group)
		if !ok || g.Type != gt {
			return "group must be of type " + string(gt)
		}
		return ""
	}
}

// TopLevel requires a Transaction that is not itself a partial or a fee.
func TopLevel(target model.Entity) string {
	t, ok := target.(model.Transaction)
	if !ok {
		return "not a transaction"
	}
	if t.IsChild() {
		return "transaction is itself a partial or fee"
	}
	return ""
}
