// Package positions manages directional exposures and their links to
// portfolios, strategies and groups.
package positions

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

type PositionInput struct {
	Type        types.PositionType `json:"type"`
	Descr       string             `json:"descr"`
	GroupID     *int64             `json:"groupId"`
	PortfolioID *int64             `json:"portfolioId"`
	StrategyID  *int64             `json:"strategyId"`
}

type PositionPatch struct {
	Type        *types.PositionType   `json:"type"`
	Descr       *string               `json:"descr"`
	GroupID     types.Nullable[int64] `json:"groupId"`
	PortfolioID types.Nullable[int64] `json:"portfolioId"`
	StrategyID  types.Nullable[int64] `json:"strategyId"`
}

func (s *Service) publish(actor policy.Actor, typ string, data any) {
	s.logger.Debug("publish", "event", typ, "user_id", actor.UserID)
	s.bus.Publish(events.Event{Type: typ, UserID: actor.UserID, At: s.now(), Data: data})
}

func validate(p model.Position) error {
	if !p.Type.Valid() {
		return apperr.Validationf("type", "unknown position type %q", p.Type)
	}
	return nil
}

func groupRef(id *int64) refcheck.Ref {
	return refcheck.Opt("groupId", model.KindGroup, id).Where(refcheck.GroupOf(types.GroupTypePosition))
}

func (s *Service) Create(ctx context.Context, actor policy.Actor, in PositionInput) (model.Position, error) {
	p := model.Position{
		UserID:      actor.UserID,
		Type:        in.Type,
		Descr:       in.Descr,
		GroupID:     in.GroupID,
		PortfolioID: in.PortfolioID,
		StrategyID:  in.StrategyID,
	}
	if err := validate(p); err != nil {
		return model.Position{}, err
	}
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := refcheck.Check(ctx, tx, actor,
			groupRef(p.GroupID),
			refcheck.Opt("portfolioId", model.KindPortfolio, p.PortfolioID),
			refcheck.Opt("strategyId", model.KindStrategy, p.StrategyID),
		); err != nil {
			return err
		}
		var err error
		p, err = tx.Positions().Insert(ctx, p)
		return policy.FromStore("position", err)
	})
	if err != nil {
		return model.Position{}, err
	}
	s.publish(actor, "position.created", p)
	return p, nil
}

func (s *Service) Get(ctx context.Context, actor policy.Actor, id int64) (model.Position, error) {
	var p model.Position
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		p, err = policy.Fetch(ctx, tx.Positions(), id, actor)
		return err
	})
	return p, err
}

func (s *Service) List(ctx context.Context, actor policy.Actor, f store.Filter) ([]model.Position, error) {
	var out []model.Position
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = policy.List(ctx, tx.Positions(), f, actor)
		return err
	})
	return out, err
}

func (s *Service) Update(ctx context.Context, actor policy.Actor, id int64, patch PositionPatch) (model.Position, error) {
	var p model.Position
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if p, err = policy.FetchForUpdate(ctx, tx.Positions(), id, actor); err != nil {
			return err
		}
		if patch.Type != nil {
			p.Type = *patch.Type
		}
		if patch.Descr != nil {
			p.Descr = *patch.Descr
		}
		if err := validate(p); err != nil {
			return err
		}
		var refs []refcheck.Ref
		if patch.GroupID.Apply(&p.GroupID) {
			refs = append(refs, groupRef(p.GroupID))
		}
		if patch.PortfolioID.Apply(&p.PortfolioID) {
			refs = append(refs, refcheck.Opt("portfolioId", model.KindPortfolio, p.PortfolioID))
		}
		if patch.StrategyID.Apply(&p.StrategyID) {
			refs = append(refs, refcheck.Opt("strategyId", model.KindStrategy, p.StrategyID))
		}
		if err := refcheck.Check(ctx, tx, actor, refs...); err != nil {
			return err
		}
		p, err = tx.Positions().Update(ctx, p)
		return policy.FromStore("position", err)
	})
	if err != nil {
		return model.Position{}, err
	}
	s.publish(actor, "position.updated", p)
	return p, nil
}

func (s *Service) SoftDelete(ctx context.Context, actor policy.Actor, id int64) error {
	var p model.Position
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		p, err = policy.SoftDelete(ctx, tx.Positions(), id, actor, s.now())
		return err
	})
	if err != nil {
		return err
	}
	s.publish(actor, "position.deleted", p)
	return nil
}
