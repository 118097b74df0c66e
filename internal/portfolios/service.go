// Package portfolios manages portfolios and strategies: named, archivable
// containers whose names are unique per user among live rows.
package portfolios

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"tradefolio/internal/apperr"
	"tradefolio/internal/events"
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

// Input is the create payload shared by portfolios and strategies.
type Input struct {
	Name       string `json:"name"`
	Descr      string `json:"descr"`
	IsArchived bool   `json:"isArchived"`
	GroupID    *int64 `json:"groupId"`
}

type Patch struct {
	Name       *string               `json:"name"`
	Descr      *string               `json:"descr"`
	IsArchived *bool                 `json:"isArchived"`
	GroupID    types.Nullable[int64] `json:"groupId"`
}

func (s *Service) publish(actor policy.Actor, typ string, data any) {
	s.logger.Debug("publish", "event", typ, "user_id", actor.UserID)
	s.bus.Publish(events.Event{Type: typ, UserID: actor.UserID, At: s.now(), Data: data})
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation("name", "is required")
	}
	return name, nil
}

func groupRef(id *int64, gt types.GroupType) refcheck.Ref {
	return refcheck.Opt("groupId", model.KindGroup, id).Where(refcheck.GroupOf(gt))
}

func (s *Service) CreatePortfolio(ctx context.Context, actor policy.Actor, in Input) (model.Portfolio, error) {
	name, err := validName(in.Name)
	if err != nil {
		return model.Portfolio{}, err
	}
	p := model.Portfolio{UserID: actor.UserID, Name: name, Descr: in.Descr, IsArchived: in.IsArchived, GroupID: in.GroupID}
	err = s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := refcheck.Check(ctx, tx, actor, groupRef(p.GroupID, types.GroupTypePortfolio)); err != nil {
			return err
		}
		if err := policy.EnsureUniqueName(ctx, tx.Portfolios(), actor.UserID, p.Name, 0); err != nil {
			return err
		}
		var err error
		p, err = tx.Portfolios().Insert(ctx, p)
		return policy.FromStore("portfolio", err)
	})
	if err != nil {
		return model.Portfolio{}, err
	}
	s.publish(actor, "portfolio.created", p)
	return p, nil
}

func (s *Service) GetPortfolio(ctx context.Context, actor policy.Actor, id int64) (model.Portfolio, error) {
	var p model.Portfolio
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		p, err = policy.Fetch(ctx, tx.Portfolios(), id, actor)
		return err
	})
	return p, err
}

func (s *Service) ListPortfolios(ctx context.Context, actor policy.Actor, f store.Filter) ([]model.Portfolio, error) {
	var out []model.Portfolio
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = policy.List(ctx, tx.Portfolios(), f, actor)
		return err
	})
	return out, err
}

func (s *Service) UpdatePortfolio(ctx context.Context, actor policy.Actor, id int64, patch Patch) (model.Portfolio, error) {
	var p model.Portfolio
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if p, err = policy.FetchForUpdate(ctx, tx.Portfolios(), id, actor); err != nil {
			return err
		}
		if patch.Name != nil {
			if p.Name, err = validName(*patch.Name); err != nil {
				return err
			}
			if err := policy.EnsureUniqueName(ctx, tx.Portfolios(), actor.UserID, p.Name, p.ID); err != nil {
				return err
			}
		}
		if patch.Descr != nil {
			p.Descr = *patch.Descr
		}
		if patch.IsArchived != nil {
			p.IsArchived = *patch.IsArchived
		}
		if patch.GroupID.Apply(&p.GroupID) {
			if err := refcheck.Check(ctx, tx, actor, groupRef(p.GroupID, types.GroupTypePortfolio)); err != nil {
				return err
			}
		}
		p, err = tx.Portfolios().Update(ctx, p)
		return policy.FromStore("portfolio", err)
	})
	if err != nil {
		return model.Portfolio{}, err
	}
	s.publish(actor, "portfolio.updated", p)
	return p, nil
}

// DeletePortfolio leaves the portfolio's positions live and fetchable.
func (s *Service) DeletePortfolio(ctx context.Context, actor policy.Actor, id int64) error {
	var p model.Portfolio
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		p, err = policy.SoftDelete(ctx, tx.Portfolios(), id, actor, s.now())
		return err
	})
	if err != nil {
		return err
	}
	s.publish(actor, "portfolio.deleted", p)
	return nil
}

func (s *Service) CreateStrategy(ctx context.Context, actor policy.Actor, in Input) (model.Strategy, error) {
	name, err := validName(in.Name)
	if err != nil {
		return model.Strategy{}, err
	}
	st := model.Strategy{UserID: actor.UserID, Name: name, Descr: in.Descr, IsArchived: in.IsArchived, GroupID: in.GroupID}
	err = s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := refcheck.Check(ctx, tx, actor, groupRef(st.GroupID, types.GroupTypeStrategy)); err != nil {
			return err
		}
		if err := policy.EnsureUniqueName(ctx, tx.Strategies(), actor.UserID, st.Name, 0); err != nil {
			return err
		}
		var err error
		st, err = tx.Strategies().Insert(ctx, st)
		return policy.FromStore("strategy", err)
	})
	if err != nil {
		return model.Strategy{}, err
	}
	s.publish(actor, "strategy.created", st)
	return st, nil
}

func (s *Service) GetStrategy(ctx context.Context, actor policy.Actor, id int64) (model.Strategy, error) {
	var st model.Strategy
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		st, err = policy.Fetch(ctx, tx.Strategies(), id, actor)
		return err
	})
	return st, err
}

func (s *Service) ListStrategies(ctx context.Context, actor policy.Actor, f store.Filter) ([]model.Strategy, error) {
	var out []model.Strategy
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = policy.List(ctx, tx.Strategies(), f, actor)
		return err
	})
	return out, err
}

func (s *Service) UpdateStrategy(ctx context.Context, actor policy.Actor, id int64, patch Patch) (model.Strategy, error) {
	var st model.Strategy
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if st, err = policy.FetchForUpdate(ctx, tx.Strategies(), id, actor); err != nil {
			return err
		}
		if patch.Name != nil {
			if st.Name, err = validName(*patch.Name); err != nil {
				return err
			}
			if err := policy.EnsureUniqueName(ctx, tx.Strategies(), actor.UserID, st.Name, st.ID); err != nil {
				return err
			}
		}
		if patch.Descr != nil {
			st.Descr = *patch.Descr
		}
		if patch.IsArchived != nil {
			st.IsArchived = *patch.IsArchived
		}
		if patch.GroupID.Apply(&st.GroupID) {
			if err := refcheck.Check(ctx, tx, actor, groupRef(st.GroupID, types.GroupTypeStrategy)); err != nil {
				return err
			}
		}
		st, err = tx.Strategies().Update(ctx, st)
		return policy.FromStore("strategy", err)
	})
	if err != nil {
		return model.Strategy{}, err
	}
	s.publish(actor, "strategy.updated", st)
	return st, nil
}

func (s *Service) DeleteStrategy(ctx context.Context, actor policy.Actor, id int64) error {
	var st model.Strategy
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		st, err = policy.SoftDelete(ctx, tx.Strategies(), id, actor, s.now())
		return err
	})
	if err != nil {
		return err
	}
	s.publish(actor, "strategy.deleted", st)
	return nil
}
