// Package ledger records value movements as transactions and derives wallet
// balances from them.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"tradefolio/internal/apperr"
	"tradefolio/internal/events"
	"tradefolio/internal/model"
	"tradefolio/internal/policy"
	"tradefolio/internal/refcheck"
	"tradefolio/internal/store"
	"tradefolio/internal/types"

	"github.com/shopspring/decimal"
)

type Service struct {
	store  store.Store
	bus    events.Publisher
	logger *slog.Logger
	now    func() time.Time
}

func NewService(st store.Store, bus events.Publisher, logger *slog.Logger) *Service {
	if bus == nil {
		bus = events.Discard{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, bus: bus, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

type TransactionInput struct {
	Type         types.TransactionType   `json:"type"`
	Status       types.TransactionStatus `json:"status"`
	Date         *time.Time              `json:"date"`
	FromWalletID *int64                  `json:"fromWalletId"`
	FromAssetID  *int64                  `json:"fromAssetId"`
	FromValue    *decimal.Decimal        `json:"fromValue"`
	ToWalletID   int64                   `json:"toWalletId"`
	ToAssetID    int64                   `json:"toAssetId"`
	ToValue      decimal.Decimal         `json:"toValue"`
	Price        *decimal.Decimal        `json:"price"`
	Quantity     *decimal.Decimal        `json:"quantity"`
	PartialOfID  *int64                  `json:"partialOfId"`
	FeeOfID      *int64                  `json:"feeOfId"`
	TradeOrderID *int64                  `json:"tradeOrderId"`
	PositionID   *int64                  `json:"positionId"`
	Descr        string                  `json:"descr"`
}

type TransactionPatch struct {
	Type         *types.TransactionType          `json:"type"`
	Status       *types.TransactionStatus        `json:"status"`
	Date         *time.Time                      `json:"date"`
	FromWalletID types.Nullable[int64]           `json:"fromWalletId"`
	FromAssetID  types.Nullable[int64]           `json:"fromAssetId"`
	FromValue    types.Nullable[decimal.Decimal] `json:"fromValue"`
	ToWalletID   *int64                          `json:"toWalletId"`
	ToAssetID    *int64                          `json:"toAssetId"`
	ToValue      *decimal.Decimal                `json:"toValue"`
	Price        types.Nullable[decimal.Decimal] `json:"price"`
	Quantity     types.Nullable[decimal.Decimal] `json:"quantity"`
	PartialOfID  types.Nullable[int64]           `json:"partialOfId"`
	FeeOfID      types.Nullable[int64]           `json:"feeOfId"`
	TradeOrderID types.Nullable[int64]           `json:"tradeOrderId"`
	PositionID   types.Nullable[int64]           `json:"positionId"`
	Descr        *string                         `json:"descr"`
}

func (s *Service) publish(actor policy.Actor, typ string, data any) {
	s.logger.Debug("publish", "event", typ, "user_id", actor.UserID)
	s.bus.Publish(events.Event{Type: typ, UserID: actor.UserID, At: s.now(), Data: data})
}

func positive(field string, v *decimal.Decimal) error {
	if v != nil && !v.IsPositive() {
		return apperr.Validation(field, "must be greater than zero")
	}
	return nil
}

// Validate checks the rules a transaction must satisfy on its own.
func Validate(t model.Transaction) error {
	if !t.Type.Valid() {
		return apperr.Validationf("type", "unknown transaction type %q", t.Type)
	}
	if !t.Status.Valid() {
		return apperr.Validationf("status", "unknown transaction status %q", t.Status)
	}
	if t.Date.IsZero() {
		return apperr.Validation("date", "is required")
	}
	if t.ToWalletID <= 0 {
		return apperr.Validation("toWalletId", "is required")
	}
	if t.ToAssetID <= 0 {
		return apperr.Validation("toAssetId", "is required")
	}
	if !t.ToValue.IsPositive() {
		return apperr.Validation("toValue", "must be greater than zero")
	}
	for _, c := range []struct {
		field string
		v     *decimal.Decimal
	}{{"fromValue", t.FromValue}, {"price", t.Price}, {"quantity", t.Quantity}} {
		if err := positive(c.field, c.v); err != nil {
			return err
		}
	}
	set := 0
	for _, present := range []bool{t.FromWalletID != nil, t.FromAssetID != nil, t.FromValue != nil} {
		if present {
			set++
		}
	}
	if set != 0 && set != 3 {
		return apperr.Validation("fromWalletId", "fromWalletId, fromAssetId and fromValue must be given together")
	}
	if t.PartialOfID != nil && t.FeeOfID != nil {
		return apperr.Validation("feeOfId", "a transaction is either a partial or a fee, not both")
	}
	return nil
}

// settledOrder requires the linked trade order to be filled.
func settledOrder(target model.Entity) string {
	o, ok := target.(model.TradeOrder)
	if !ok || o.Status != types.TradeOrderStatusFilled {
		return "trade order must be filled before it is settled"
	}
	return ""
}

func parentRef(field string, id *int64) refcheck.Ref {
	return refcheck.Opt(field, model.KindTransaction, id).Where(refcheck.TopLevel)
}

// refs lists every reference of t. With prev set, only references that
// differ from prev are returned, so unrelated edits of a transaction whose
// counterpart was later deleted still go through.
func refs(t model.Transaction, prev *model.Transaction) []refcheck.Ref {
	all := []struct {
		ref     refcheck.Ref
		changed bool
	}{
		{refcheck.Opt("fromWalletId", model.KindWallet, t.FromWalletID), prev == nil || !sameID(t.FromWalletID, prev.FromWalletID)},
		{refcheck.Opt("fromAssetId", model.KindAsset, t.FromAssetID), prev == nil || !sameID(t.FromAssetID, prev.FromAssetID)},
		{refcheck.To("toWalletId", model.KindWallet, t.ToWalletID), prev == nil || t.ToWalletID != prev.ToWalletID},
		{refcheck.To("toAssetId", model.KindAsset, t.ToAssetID), prev == nil || t.ToAssetID != prev.ToAssetID},
		{parentRef("partialOfId", t.PartialOfID), prev == nil || !sameID(t.PartialOfID, prev.PartialOfID)},
		{parentRef("feeOfId", t.FeeOfID), prev == nil || !sameID(t.FeeOfID, prev.FeeOfID)},
		{refcheck.Opt("tradeOrderId", model.KindTradeOrder, t.TradeOrderID).Where(settledOrder), prev == nil || !sameID(t.TradeOrderID, prev.TradeOrderID)},
		{refcheck.Opt("positionId", model.KindPosition, t.PositionID), prev == nil || !sameID(t.PositionID, prev.PositionID)},
	}
	out := make([]refcheck.Ref, 0, len(all))
	for _, r := range all {
		if r.changed {
			out = append(out, r.ref)
		}
	}
	return out
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *Service) Create(ctx context.Context, actor policy.Actor, in TransactionInput) (model.Transaction, error) {
	t := model.Transaction{
		UserID:       actor.UserID,
		Type:         in.Type,
		Status:       in.Status,
		FromWalletID: in.FromWalletID,
		FromAssetID:  in.FromAssetID,
		FromValue:    in.FromValue,
		ToWalletID:   in.ToWalletID,
		ToAssetID:    in.ToAssetID,
		ToValue:      in.ToValue,
		Price:        in.Price,
		Quantity:     in.Quantity,
		PartialOfID:  in.PartialOfID,
		FeeOfID:      in.FeeOfID,
		TradeOrderID: in.TradeOrderID,
		PositionID:   in.PositionID,
		Descr:        in.Descr,
	}
	if t.Status == "" {
		t.Status = types.TransactionStatusDone
	}
	t.Date = s.now()
	if in.Date != nil {
		t.Date = in.Date.UTC()
	}
	if err := Validate(t); err != nil {
		return model.Transaction{}, err
	}
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := refcheck.Check(ctx, tx, actor, refs(t, nil)...); err != nil {
			return err
		}
		var err error
		t, err = tx.Transactions().Insert(ctx, t)
		return policy.FromStore("transaction", err)
	})
	if err != nil {
		return model.Transaction{}, err
	}
	s.publish(actor, "transaction.created", t)
	return t, nil
}

func (s *Service) Get(ctx context.Context, actor policy.Actor, id int64) (model.Transaction, error) {
	var t model.Transaction
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		t, err = policy.Fetch(ctx, tx.Transactions(), id, actor)
		return err
	})
	return t, err
}

func (s *Service) List(ctx context.Context, actor policy.Actor, f store.Filter) ([]model.Transaction, error) {
	var out []model.Transaction
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = policy.List(ctx, tx.Transactions(), f, actor)
		return err
	})
	return out, err
}

func applyPatch(t *model.Transaction, p TransactionPatch) {
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Date != nil {
		t.Date = p.Date.UTC()
	}
	p.FromWalletID.Apply(&t.FromWalletID)
	p.FromAssetID.Apply(&t.FromAssetID)
	p.FromValue.Apply(&t.FromValue)
	if p.ToWalletID != nil {
		t.ToWalletID = *p.ToWalletID
	}
	if p.ToAssetID != nil {
		t.ToAssetID = *p.ToAssetID
	}
	if p.ToValue != nil {
		t.ToValue = *p.ToValue
	}
	p.Price.Apply(&t.Price)
	p.Quantity.Apply(&t.Quantity)
	p.PartialOfID.Apply(&t.PartialOfID)
	p.FeeOfID.Apply(&t.FeeOfID)
	p.TradeOrderID.Apply(&t.TradeOrderID)
	p.PositionID.Apply(&t.PositionID)
	if p.Descr != nil {
		t.Descr = *p.Descr
	}
}

func (s *Service) Update(ctx context.Context, actor policy.Actor, id int64, p TransactionPatch) (model.Transaction, error) {
	var t model.Transaction
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		prev, err := policy.FetchForUpdate(ctx, tx.Transactions(), id, actor)
		if err != nil {
			return err
		}
		t = prev
		applyPatch(&t, p)
		if err := Validate(t); err != nil {
			return err
		}
		if sameID(t.PartialOfID, &t.ID) || sameID(t.FeeOfID, &t.ID) {
			return apperr.Reference(childField(t), "a transaction cannot reference itself")
		}
		if t.IsChild() && !prev.IsChild() {
			kids, err := children(ctx, tx, actor, t.ID)
			if err != nil {
				return err
			}
			if len(kids.Partials)+len(kids.Fees) > 0 {
				return apperr.Reference(childField(t), "transaction has partials or fees of its own")
			}
		}
		if err := refcheck.Check(ctx, tx, actor, refs(t, &prev)...); err != nil {
			return err
		}
		t, err = tx.Transactions().Update(ctx, t)
		return policy.FromStore("transaction", err)
	})
	if err != nil {
		return model.Transaction{}, err
	}
	s.publish(actor, "transaction.updated", t)
	return t, nil
}

func childField(t model.Transaction) string {
	if t.FeeOfID != nil {
		return "feeOfId"
	}
	return "partialOfId"
}

// SoftDelete does not cascade: partials and fees of t stay live and keep
// pointing at it.
func (s *Service) SoftDelete(ctx context.Context, actor policy.Actor, id int64) error {
	var t model.Transaction
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		t, err = policy.SoftDelete(ctx, tx.Transactions(), id, actor, s.now())
		return err
	})
	if err != nil {
		return err
	}
	s.publish(actor, "transaction.deleted", t)
	return nil
}

// Children is the derived reverse side of partialOfId and feeOfId.
type Children struct {
	Partials []model.Transaction `json:"partials"`
	Fees     []model.Transaction `json:"fees"`
}

func children(ctx context.Context, tx store.Tx, actor policy.Actor, id int64) (Children, error) {
	var c Children
	var err error
	byDate := store.Filter{OrderBy: "date"}
	if c.Partials, err = policy.List(ctx, tx.Transactions(), byDate.And(store.Eq("partial_of_id", id)), actor); err != nil {
		return c, err
	}
	if c.Fees, err = policy.List(ctx, tx.Transactions(), byDate.And(store.Eq("fee_of_id", id)), actor); err != nil {
		return c, err
	}
	return c, nil
}

// Children lists the live partials and fees of transaction id. The parent
// itself must be visible.
func (s *Service) Children(ctx context.Context, actor policy.Actor, id int64) (Children, error) {
	var c Children
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := policy.Fetch(ctx, tx.Transactions(), id, actor); err != nil {
			return err
		}
		var err error
		c, err = children(ctx, tx, actor, id)
		return err
	})
	return c, err
}
