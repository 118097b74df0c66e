package orders

import (
	"context"
	"time"

	"tradefolio/internal/model"
	"tradefolio/internal/policy"
	"tradefolio/internal/store"
	"tradefolio/internal/types"
)

// ExpireDue moves every live open order whose expiration date is at or
// before now to EXPR, across all users, in one transaction.
func (s *Service) ExpireDue(ctx context.Context, now time.Time) ([]model.TradeOrder, error) {
	var expired []model.TradeOrder
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		expired = expired[:0]
		due, err := tx.TradeOrders().List(ctx, store.Where(
			store.Eq("status", string(types.TradeOrderStatusOpen)),
			store.Lte("expiration_date", now),
		))
		if err != nil {
			return policy.FromStore("trade order", err)
		}
		for _, o := range due {
			next, err := Advance(o, TransitionInput{Status: types.TradeOrderStatusExpired}, now)
			if err != nil {
				return err
			}
			if next, err = tx.TradeOrders().Update(ctx, next); err != nil {
				return policy.FromStore("trade order", err)
			}
			expired = append(expired, next)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, o := range expired {
		s.publish(o.UserID, "trade_order.transitioned", o)
	}
	return expired, nil
}

// RunExpiryWorker sweeps due orders every interval until ctx is done.
func (s *Service) RunExpiryWorker(ctx context.Context, interval time.Duration) {
	log := s.logger.With("component", "order-expiry")
	run := func() {
		expired, err := s.ExpireDue(ctx, s.now())
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("sweep failed", "error", err)
			return
		}
		if len(expired) > 0 {
			log.Info("expired trade orders", "count", len(expired))
		}
	}

	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
