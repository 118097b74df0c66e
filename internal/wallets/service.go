// Package wallets manages value containers and serves their balances.
package wallets

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"tradefolio/internal/apperr"
	"tradefolio/internal/events"
	"tradefolio/internal/ledger"
	"tradefolio/internal/model"
	"tradefolio/internal/policy"
	"tradefolio/internal/refcheck"
	"tradefolio/internal/store"
	"tradefolio/internal/types"
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

type WalletInput struct {
	Name             string `json:"name"`
	Descr            string `json:"descr"`
	ExternalEntityID *int64 `json:"externalEntityId"`
	IsArchived       bool   `json:"isArchived"`
}

type WalletPatch struct {
	Name             *string               `json:"name"`
	Descr            *string               `json:"descr"`
	ExternalEntityID types.Nullable[int64] `json:"externalEntityId"`
	IsArchived       *bool                 `json:"isArchived"`
}

func validate(w model.Wallet) error {
	if w.Name == "" {
		return apperr.Validation("name", "is required")
	}
	return nil
}

func (s *Service) publish(actor policy.Actor, typ string, data any) {
	s.logger.Debug("publish", "event", typ, "user_id", actor.UserID)
	s.bus.Publish(events.Event{Type: typ, UserID: actor.UserID, At: s.now(), Data: data})
}

func (s *Service) Create(ctx context.Context, actor policy.Actor, in WalletInput) (model.Wallet, error) {
	w := model.Wallet{
		UserID:           actor.UserID,
		Name:             strings.TrimSpace(in.Name),
		Descr:            in.Descr,
		ExternalEntityID: in.ExternalEntityID,
		IsArchived:       in.IsArchived,
	}
	if err := validate(w); err != nil {
		return model.Wallet{}, err
	}
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := refcheck.Check(ctx, tx, actor,
			refcheck.Opt("externalEntityId", model.KindExternalEntity, w.ExternalEntityID)); err != nil {
			return err
		}
		var err error
		w, err = tx.Wallets().Insert(ctx, w)
		return policy.FromStore("wallet", err)
	})
	if err != nil {
		return model.Wallet{}, err
	}
	s.publish(actor, "wallet.created", w)
	return w, nil
}

func (s *Service) Get(ctx context.Context, actor policy.Actor, id int64) (model.Wallet, error) {
	var w model.Wallet
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		w, err = policy.Fetch(ctx, tx.Wallets(), id, actor)
		return err
	})
	return w, err
}

func (s *Service) List(ctx context.Context, actor policy.Actor, f store.Filter) ([]model.Wallet, error) {
	var out []model.Wallet
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = policy.List(ctx, tx.Wallets(), f, actor)
		return err
	})
	return out, err
}

func (s *Service) Update(ctx context.Context, actor policy.Actor, id int64, p WalletPatch) (model.Wallet, error) {
	var w model.Wallet
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if w, err = policy.FetchForUpdate(ctx, tx.Wallets(), id, actor); err != nil {
			return err
		}
		if p.Name != nil {
			w.Name = strings.TrimSpace(*p.Name)
		}
		if p.Descr != nil {
			w.Descr = *p.Descr
		}
		if p.IsArchived != nil {
			w.IsArchived = *p.IsArchived
		}
		if p.ExternalEntityID.Apply(&w.ExternalEntityID) {
			if err := refcheck.Check(ctx, tx, actor,
				refcheck.Opt("externalEntityId", model.KindExternalEntity, w.ExternalEntityID)); err != nil {
				return err
			}
		}
		if err := validate(w); err != nil {
			return err
		}
		w, err = tx.Wallets().Update(ctx, w)
		return policy.FromStore("wallet", err)
	})
	if err != nil {
		return model.Wallet{}, err
	}
	s.publish(actor, "wallet.updated", w)
	return w, nil
}

func (s *Service) SoftDelete(ctx context.Context, actor policy.Actor, id int64) error {
	var w model.Wallet
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		w, err = policy.SoftDelete(ctx, tx.Wallets(), id, actor, s.now())
		return err
	})
	if err != nil {
		return err
	}
	s.publish(actor, "wallet.deleted", w)
	return nil
}

// Balance derives the wallet's holding of one asset from a single snapshot.
// A deleted or foreign wallet is NotFound; the asset only has to exist.
func (s *Service) Balance(ctx context.Context, actor policy.Actor, walletID, assetID int64) (ledger.Balance, error) {
	var b ledger.Balance
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := policy.Fetch(ctx, tx.Wallets(), walletID, actor); err != nil {
			return err
		}
		if _, err := tx.Assets().Get(ctx, assetID); err != nil {
			return policy.FromStore("asset", err)
		}
		var err error
		b, err = ledger.Compute(ctx, tx, walletID, assetID)
		return err
	})
	return b, err
}

// Balances derives one balance per asset the wallet has moved.
func (s *Service) Balances(ctx context.Context, actor policy.Actor, walletID int64) ([]ledger.Balance, error) {
	var out []ledger.Balance
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := policy.Fetch(ctx, tx.Wallets(), walletID, actor); err != nil {
			return err
		}
		var err error
		out, err = ledger.ComputeAll(ctx, tx, walletID)
		return err
	})
	return out, err
}
