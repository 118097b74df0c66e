// Package refdata manages the shared reference data: assets, external
// entities and groups.
package refdata

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"tradefolio/internal/apperr"
	"tradefolio/internal/events"
	"tradefolio/internal/model"
	"tradefolio/internal/policy"
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

func (s *Service) publish(actor policy.Actor, typ string, data any) {
	s.bus.Publish(events.Event{Type: typ, UserID: actor.UserID, At: s.now(), Data: data})
	s.logger.Debug("reference data changed", "event", typ, "user_id", actor.UserID)
}

type AssetInput struct {
	Ticker string          `json:"ticker"`
	Name   string          `json:"name"`
	Type   types.AssetType `json:"type"`
}

type AssetPatch struct {
	Ticker *string          `json:"ticker"`
	Name   *string          `json:"name"`
	Type   *types.AssetType `json:"type"`
}

func validateAsset(a model.Asset) error {
	if a.Ticker == "" {
		return apperr.Validation("ticker", "is required")
	}
	if !a.Type.Valid() {
		return apperr.Validationf("type", "unknown asset type %q", a.Type)
	}
	return nil
}

// ensureTicker rejects a ticker held by another live asset.
func ensureTicker(ctx context.Context, tx store.Tx, ticker string, selfID int64) error {
	rows, err := tx.Assets().List(ctx, store.Where(store.Eq("ticker", ticker)))
	if err != nil {
		return policy.FromStore("asset", err)
	}
	for _, r := range rows {
		if r.ID != selfID {
			return apperr.Conflict("ticker " + ticker + " already in use")
		}
	}
	return nil
}

func (s *Service) CreateAsset(ctx context.Context, actor policy.Actor, in AssetInput) (model.Asset, error) {
	a := model.Asset{Ticker: strings.TrimSpace(in.Ticker), Name: strings.TrimSpace(in.Name), Type: in.Type}
	if err := validateAsset(a); err != nil {
		return model.Asset{}, err
	}
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := ensureTicker(ctx, tx, a.Ticker, 0); err != nil {
			return err
		}
		var err error
		a, err = tx.Assets().Insert(ctx, a)
		return policy.FromStore("asset", err)
	})
	if err != nil {
		return model.Asset{}, err
	}
	s.publish(actor, "asset.created", a)
	return a, nil
}

func (s *Service) GetAsset(ctx context.Context, actor policy.Actor, id int64) (model.Asset, error) {
	var a model.Asset
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		a, err = policy.Fetch(ctx, tx.Assets(), id, actor)
		return err
	})
	return a, err
}

func (s *Service) ListAssets(ctx context.Context, actor policy.Actor, f store.Filter) ([]model.Asset, error) {
	var out []model.Asset
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = policy.List(ctx, tx.Assets(), f, actor)
		return err
	})
	return out, err
}

func (s *Service) UpdateAsset(ctx context.Context, actor policy.Actor, id int64, p AssetPatch) (model.Asset, error) {
	var a model.Asset
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if a, err = policy.FetchForUpdate(ctx, tx.Assets(), id, actor); err != nil {
			return err
		}
		if p.Ticker != nil {
			a.Ticker = strings.TrimSpace(*p.Ticker)
		}
		if p.Name != nil {
			a.Name = strings.TrimSpace(*p.Name)
		}
		if p.Type != nil {
			a.Type = *p.Type
		}
		if err := validateAsset(a); err != nil {
			return err
		}
		if err := ensureTicker(ctx, tx, a.Ticker, a.ID); err != nil {
			return err
		}
		a, err = tx.Assets().Update(ctx, a)
		return policy.FromStore("asset", err)
	})
	if err != nil {
		return model.Asset{}, err
	}
	s.publish(actor, "asset.updated", a)
	return a, nil
}

func (s *Service) DeleteAsset(ctx context.Context, actor policy.Actor, id int64) error {
	var a model.Asset
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		a, err = policy.SoftDelete(ctx, tx.Assets(), id, actor, s.now())
		return err
	})
	if err != nil {
		return err
	}
	s.publish(actor, "asset.deleted", a)
	return nil
}

type ExternalEntityInput struct {
	TrademarkName string                   `json:"trademarkName"`
	Type          types.ExternalEntityType `json:"type"`
	URL           string                   `json:"url"`
}

type ExternalEntityPatch struct {
	TrademarkName *string                   `json:"trademarkName"`
	Type          *types.ExternalEntityType `json:"type"`
	URL           *string                   `json:"url"`
}

func validateExternalEntity(e model.ExternalEntity) error {
	if e.TrademarkName == "" {
		return apperr.Validation("trademarkName", "is required")
	}
	if !e.Type.Valid() {
		return apperr.Validationf("type", "unknown external entity type %q", e.Type)
	}
	if e.URL != "" {
		u, err := url.Parse(e.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return apperr.Validation("url", "must be an absolute URL")
		}
	}
	return nil
}

func ensureTrademark(ctx context.Context, tx store.Tx, name string, selfID int64) error {
	rows, err := tx.ExternalEntities().List(ctx, store.Where(store.Eq("trademark_name", name)))
	if err != nil {
		return policy.FromStore("external entity", err)
	}
	for _, r := range rows {
		if r.ID != selfID {
			return apperr.Conflict("trademark name " + name + " already in use")
		}
	}
	return nil
}

func (s *Service) CreateExternalEntity(ctx context.Context, actor policy.Actor, in ExternalEntityInput) (model.ExternalEntity, error) {
	e := model.ExternalEntity{TrademarkName: strings.TrimSpace(in.TrademarkName), Type: in.Type, URL: strings.TrimSpace(in.URL)}
	if err := validateExternalEntity(e); err != nil {
		return model.ExternalEntity{}, err
	}
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := ensureTrademark(ctx, tx, e.TrademarkName, 0); err != nil {
			return err
		}
		var err error
		e, err = tx.ExternalEntities().Insert(ctx, e)
		return policy.FromStore("external entity", err)
	})
	if err != nil {
		return model.ExternalEntity{}, err
	}
	s.publish(actor, "external_entity.created", e)
	return e, nil
}

func (s *Service) GetExternalEntity(ctx context.Context, actor policy.Actor, id int64) (model.ExternalEntity, error) {
	var e model.ExternalEntity
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		e, err = policy.Fetch(ctx, tx.ExternalEntities(), id, actor)
		return err
	})
	return e, err
}

func (s *Service) ListExternalEntities(ctx context.Context, actor policy.Actor, f store.Filter) ([]model.ExternalEntity, error) {
	var out []model.ExternalEntity
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = policy.List(ctx, tx.ExternalEntities(), f, actor)
		return err
	})
	return out, err
}

func (s *Service) UpdateExternalEntity(ctx context.Context, actor policy.Actor, id int64, p ExternalEntityPatch) (model.ExternalEntity, error) {
	var e model.ExternalEntity
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if e, err = policy.FetchForUpdate(ctx, tx.ExternalEntities(), id, actor); err != nil {
			return err
		}
		if p.TrademarkName != nil {
			e.TrademarkName = strings.TrimSpace(*p.TrademarkName)
		}
		if p.Type != nil {
			e.Type = *p.Type
		}
		if p.URL != nil {
			e.URL = strings.TrimSpace(*p.URL)
		}
		if err := validateExternalEntity(e); err != nil {
			return err
		}
		if err := ensureTrademark(ctx, tx, e.TrademarkName, e.ID); err != nil {
			return err
		}
		e, err = tx.ExternalEntities().Update(ctx, e)
		return policy.FromStore("external entity", err)
	})
	if err != nil {
		return model.ExternalEntity{}, err
	}
	s.publish(actor, "external_entity.updated", e)
	return e, nil
}

func (s *Service) DeleteExternalEntity(ctx context.Context, actor policy.Actor, id int64) error {
	var e model.ExternalEntity
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		e, err = policy.SoftDelete(ctx, tx.ExternalEntities(), id, actor, s.now())
		return err
	})
	if err != nil {
		return err
	}
	s.publish(actor, "external_entity.deleted", e)
	return nil
}

type GroupInput struct {
	Name  string          `json:"name"`
	Descr string          `json:"descr"`
	Type  types.GroupType `json:"type"`
}

type GroupPatch struct {
	Name  *string `json:"name"`
	Descr *string `json:"descr"`
}

func validateGroup(g model.Group) error {
	if g.Name == "" {
		return apperr.Validation("name", "is required")
	}
	if !g.Type.Valid() {
		return apperr.Validationf("type", "unknown group type %q", g.Type)
	}
	return nil
}

func (s *Service) CreateGroup(ctx context.Context, actor policy.Actor, in GroupInput) (model.Group, error) {
	g := model.Group{UserID: actor.UserID, Name: strings.TrimSpace(in.Name), Descr: in.Descr, Type: in.Type}
	if err := validateGroup(g); err != nil {
		return model.Group{}, err
	}
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		g, err = tx.Groups().Insert(ctx, g)
		return policy.FromStore("group", err)
	})
	if err != nil {
		return model.Group{}, err
	}
	s.publish(actor, "group.created", g)
	return g, nil
}

func (s *Service) GetGroup(ctx context.Context, actor policy.Actor, id int64) (model.Group, error) {
	var g model.Group
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		g, err = policy.Fetch(ctx, tx.Groups(), id, actor)
		return err
	})
	return g, err
}

func (s *Service) ListGroups(ctx context.Context, actor policy.Actor, f store.Filter) ([]model.Group, error) {
	var out []model.Group
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = policy.List(ctx, tx.Groups(), f, actor)
		return err
	})
	return out, err
}

// UpdateGroup leaves the type alone: members were checked against it.
func (s *Service) UpdateGroup(ctx context.Context, actor policy.Actor, id int64, p GroupPatch) (model.Group, error) {
	var g model.Group
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if g, err = policy.FetchForUpdate(ctx, tx.Groups(), id, actor); err != nil {
			return err
		}
		if p.Name != nil {
			g.Name = strings.TrimSpace(*p.Name)
		}
		if p.Descr != nil {
			g.Descr = *p.Descr
		}
		if err := validateGroup(g); err != nil {
			return err
		}
		g, err = tx.Groups().Update(ctx, g)
		return policy.FromStore("group", err)
	})
	if err != nil {
		return model.Group{}, err
	}
	s.publish(actor, "group.updated", g)
	return g, nil
}

func (s *Service) DeleteGroup(ctx context.Context, actor policy.Actor, id int64) error {
	var g model.Group
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		g, err = policy.SoftDelete(ctx, tx.Groups(), id, actor, s.now())
		return err
	})
	if err != nil {
		return err
	}
	s.publish(actor, "group.deleted", g)
	return nil
}
