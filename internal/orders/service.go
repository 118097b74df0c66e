// Package orders manages trade orders: intents to exchange one asset for
// another that move through OPND into one of FILL, CANC or EXPR.
package orders

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

type TradeOrderInput struct {
	PositionID     *int64                 `json:"positionId"`
	Action         types.TradeOrderAction `json:"action"`
	FromWalletID   int64                  `json:"fromWalletId"`
	FromAssetID    int64                  `json:"fromAssetId"`
	FromValue      decimal.Decimal        `json:"fromValue"`
	ToWalletID     int64                  `json:"toWalletId"`
	ToAssetID      int64                  `json:"toAssetId"`
	ToValue        decimal.Decimal        `json:"toValue"`
	Price          *decimal.Decimal       `json:"price"`
	OpenDate       *time.Time             `json:"openDate"`
	ExpirationDate *time.Time             `json:"expirationDate"`
	Descr          string                 `json:"descr"`
}

// TradeOrderPatch carries no status or fill/cancel dates; those move only
// through Transition.
type TradeOrderPatch struct {
	PositionID     types.Nullable[int64]           `json:"positionId"`
	Action         *types.TradeOrderAction         `json:"action"`
	FromWalletID   *int64                          `json:"fromWalletId"`
	FromAssetID    *int64                          `json:"fromAssetId"`
	FromValue      *decimal.Decimal                `json:"fromValue"`
	ToWalletID     *int64                          `json:"toWalletId"`
	ToAssetID      *int64                          `json:"toAssetId"`
	ToValue        *decimal.Decimal                `json:"toValue"`
	Price          types.Nullable[decimal.Decimal] `json:"price"`
	ExpirationDate types.Nullable[time.Time]       `json:"expirationDate"`
	Descr          *string                         `json:"descr"`
}

func (s *Service) publish(userID int64, typ string, data any) {
	s.logger.Debug("publish", "event", typ, "user_id", userID)
	s.bus.Publish(events.Event{Type: typ, UserID: userID, At: s.now(), Data: data})
}

func validate(o model.TradeOrder) error {
	if !o.Action.Valid() {
		return apperr.Validationf("action", "unknown trade order action %q", o.Action)
	}
	if o.FromWalletID <= 0 {
		return apperr.Validation("fromWalletId", "is required")
	}
	if o.FromAssetID <= 0 {
		return apperr.Validation("fromAssetId", "is required")
	}
	if o.ToWalletID <= 0 {
		return apperr.Validation("toWalletId", "is required")
	}
	if o.ToAssetID <= 0 {
		return apperr.Validation("toAssetId", "is required")
	}
	if !o.FromValue.IsPositive() {
		return apperr.Validation("fromValue", "must be greater than zero")
	}
	if !o.ToValue.IsPositive() {
		return apperr.Validation("toValue", "must be greater than zero")
	}
	if o.Price != nil && !o.Price.IsPositive() {
		return apperr.Validation("price", "must be greater than zero")
	}
	if o.ExpirationDate != nil && o.ExpirationDate.Before(o.OpenDate) {
		return apperr.Validation("expirationDate", "must not be before openDate")
	}
	return nil
}

func positionRef(id *int64) refcheck.Ref {
	return refcheck.Opt("positionId", model.KindPosition, id)
}

func (s *Service) Create(ctx context.Context, actor policy.Actor, in TradeOrderInput) (model.TradeOrder, error) {
	o := model.TradeOrder{
		UserID:         actor.UserID,
		PositionID:     in.PositionID,
		Action:         in.Action,
		Status:         types.TradeOrderStatusOpen,
		FromWalletID:   in.FromWalletID,
		FromAssetID:    in.FromAssetID,
		FromValue:      in.FromValue,
		ToWalletID:     in.ToWalletID,
		ToAssetID:      in.ToAssetID,
		ToValue:        in.ToValue,
		Price:          in.Price,
		OpenDate:       s.now(),
		ExpirationDate: utc(in.ExpirationDate),
		Descr:          in.Descr,
	}
	if in.OpenDate != nil {
		o.OpenDate = in.OpenDate.UTC()
	}
	if err := validate(o); err != nil {
		return model.TradeOrder{}, err
	}
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := refcheck.Check(ctx, tx, actor,
			refcheck.To("fromWalletId", model.KindWallet, o.FromWalletID),
			refcheck.To("fromAssetId", model.KindAsset, o.FromAssetID),
			refcheck.To("toWalletId", model.KindWallet, o.ToWalletID),
			refcheck.To("toAssetId", model.KindAsset, o.ToAssetID),
			positionRef(o.PositionID),
		); err != nil {
			return err
		}
		var err error
		o, err = tx.TradeOrders().Insert(ctx, o)
		return policy.FromStore("trade order", err)
	})
	if err != nil {
		return model.TradeOrder{}, err
	}
	s.publish(actor.UserID, "trade_order.created", o)
	return o, nil
}

func (s *Service) Get(ctx context.Context, actor policy.Actor, id int64) (model.TradeOrder, error) {
	var o model.TradeOrder
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		o, err = policy.Fetch(ctx, tx.TradeOrders(), id, actor)
		return err
	})
	return o, err
}

func (s *Service) List(ctx context.Context, actor policy.Actor, f store.Filter) ([]model.TradeOrder, error) {
	var out []model.TradeOrder
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = policy.List(ctx, tx.TradeOrders(), f, actor)
		return err
	})
	return out, err
}

func (s *Service) Update(ctx context.Context, actor policy.Actor, id int64, patch TradeOrderPatch) (model.TradeOrder, error) {
	var o model.TradeOrder
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if o, err = policy.FetchForUpdate(ctx, tx.TradeOrders(), id, actor); err != nil {
			return err
		}
		if o.Status != types.TradeOrderStatusOpen && patch.locksTerms(o) {
			return apperr.Conflict("trade order is " + string(o.Status) + "; only descr and positionId can change")
		}
		refs := patch.apply(&o)
		if err := validate(o); err != nil {
			return err
		}
		if err := refcheck.Check(ctx, tx, actor, refs...); err != nil {
			return err
		}
		o, err = tx.TradeOrders().Update(ctx, o)
		return policy.FromStore("trade order", err)
	})
	if err != nil {
		return model.TradeOrder{}, err
	}
	s.publish(actor.UserID, "trade_order.updated", o)
	return o, nil
}

// locksTerms reports whether p changes any term of o other than its
// description or position.
func (p TradeOrderPatch) locksTerms(o model.TradeOrder) bool {
	switch {
	case p.Action != nil && *p.Action != o.Action,
		p.FromWalletID != nil && *p.FromWalletID != o.FromWalletID,
		p.FromAssetID != nil && *p.FromAssetID != o.FromAssetID,
		p.FromValue != nil && !p.FromValue.Equal(o.FromValue),
		p.ToWalletID != nil && *p.ToWalletID != o.ToWalletID,
		p.ToAssetID != nil && *p.ToAssetID != o.ToAssetID,
		p.ToValue != nil && !p.ToValue.Equal(o.ToValue),
		p.Price.Set && !sameDecimal(p.Price.Value, o.Price),
		p.ExpirationDate.Set && !sameTime(p.ExpirationDate.Value, o.ExpirationDate):
		return true
	}
	return false
}

// apply writes p into o and returns the references whose target changed.
func (p TradeOrderPatch) apply(o *model.TradeOrder) []refcheck.Ref {
	var refs []refcheck.Ref
	if p.Action != nil {
		o.Action = *p.Action
	}
	if p.FromWalletID != nil && *p.FromWalletID != o.FromWalletID {
		o.FromWalletID = *p.FromWalletID
		refs = append(refs, refcheck.To("fromWalletId", model.KindWallet, o.FromWalletID))
	}
	if p.FromAssetID != nil && *p.FromAssetID != o.FromAssetID {
		o.FromAssetID = *p.FromAssetID
		refs = append(refs, refcheck.To("fromAssetId", model.KindAsset, o.FromAssetID))
	}
	if p.FromValue != nil {
		o.FromValue = *p.FromValue
	}
	if p.ToWalletID != nil && *p.ToWalletID != o.ToWalletID {
		o.ToWalletID = *p.ToWalletID
		refs = append(refs, refcheck.To("toWalletId", model.KindWallet, o.ToWalletID))
	}
	if p.ToAssetID != nil && *p.ToAssetID != o.ToAssetID {
		o.ToAssetID = *p.ToAssetID
		refs = append(refs, refcheck.To("toAssetId", model.KindAsset, o.ToAssetID))
	}
	if p.ToValue != nil {
		o.ToValue = *p.ToValue
	}
	p.Price.Apply(&o.Price)
	if p.ExpirationDate.Apply(&o.ExpirationDate) {
		o.ExpirationDate = utc(o.ExpirationDate)
	}
	prevPosition := o.PositionID
	if p.PositionID.Apply(&o.PositionID) && !sameID(prevPosition, o.PositionID) {
		refs = append(refs, positionRef(o.PositionID))
	}
	if p.Descr != nil {
		o.Descr = *p.Descr
	}
	return refs
}

// Transition moves an open order to FILL, CANC or EXPR and stamps the
// matching date.
func (s *Service) Transition(ctx context.Context, actor policy.Actor, id int64, in TransitionInput) (model.TradeOrder, error) {
	var o model.TradeOrder
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		cur, err := policy.FetchForUpdate(ctx, tx.TradeOrders(), id, actor)
		if err != nil {
			return err
		}
		if o, err = Advance(cur, in, s.now()); err != nil {
			return err
		}
		o, err = tx.TradeOrders().Update(ctx, o)
		return policy.FromStore("trade order", err)
	})
	if err != nil {
		return model.TradeOrder{}, err
	}
	s.publish(actor.UserID, "trade_order.transitioned", o)
	return o, nil
}

func (s *Service) SoftDelete(ctx context.Context, actor policy.Actor, id int64) error {
	var o model.TradeOrder
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		o, err = policy.SoftDelete(ctx, tx.TradeOrders(), id, actor, s.now())
		return err
	})
	if err != nil {
		return err
	}
	s.publish(actor.UserID, "trade_order.deleted", o)
	return nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameDecimal(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
