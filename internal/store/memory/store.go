// Package memory is an in-process store.Store. Each Atomic call works on a
// private copy of the dataset that replaces the shared one only on success.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"tradefolio/internal/model"
	"tradefolio/internal/store"
	"tradefolio/internal/types"

	"github.com/shopspring/decimal"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu   sync.RWMutex
	data *dataset
}

type dataset struct {
	users            *table[model.User, *model.User]
	assets           *table[model.Asset, *model.Asset]
	externalEntities *table[model.ExternalEntity, *model.ExternalEntity]
	groups           *table[model.Group, *model.Group]
	wallets          *table[model.Wallet, *model.Wallet]
	portfolios       *table[model.Portfolio, *model.Portfolio]
	strategies       *table[model.Strategy, *model.Strategy]
	positions        *table[model.Position, *model.Position]
	tradeOrders      *table[model.TradeOrder, *model.TradeOrder]
	transactions     *table[model.Transaction, *model.Transaction]
}

// New returns an empty store. now stamps created/updated times; nil means time.Now.
func New(now func() time.Time) *Store {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Store{data: &dataset{
		users: newTable[model.User, *model.User](now, func(u model.User) string {
			return strings.ToLower(u.Email)
		}),
		assets: newTable[model.Asset, *model.Asset](now, func(a model.Asset) string {
			return a.Ticker
		}),
		externalEntities: newTable[model.ExternalEntity, *model.ExternalEntity](now, func(e model.ExternalEntity) string {
			return e.TrademarkName
		}),
		groups:  newTable[model.Group, *model.Group](now),
		wallets: newTable[model.Wallet, *model.Wallet](now),
		portfolios: newTable[model.Portfolio, *model.Portfolio](now, func(p model.Portfolio) string {
			return ownedName(p.UserID, p.Name)
		}),
		strategies: newTable[model.Strategy, *model.Strategy](now, func(s model.Strategy) string {
			return ownedName(s.UserID, s.Name)
		}),
		positions:    newTable[model.Position, *model.Position](now),
		tradeOrders:  newTable[model.TradeOrder, *model.TradeOrder](now),
		transactions: newTable[model.Transaction, *model.Transaction](now),
	}}
}

func ownedName(userID int64, name string) string {
	return fmt.Sprintf("%d|%s", userID, name)
}

func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.data.clone()
	if err := fn(ctx, &tx{d: work}); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *Store) Snapshot(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, &tx{d: s.data.view()})
}

func (d *dataset) clone() *dataset {
	return &dataset{
		users:            d.users.clone(),
		assets:           d.assets.clone(),
		externalEntities: d.externalEntities.clone(),
		groups:           d.groups.clone(),
		wallets:          d.wallets.clone(),
		portfolios:       d.portfolios.clone(),
		strategies:       d.strategies.clone(),
		positions:        d.positions.clone(),
		tradeOrders:      d.tradeOrders.clone(),
		transactions:     d.transactions.clone(),
	}
}

func (d *dataset) view() *dataset {
	return &dataset{
		users:            d.users.view(),
		assets:           d.assets.view(),
		externalEntities: d.externalEntities.view(),
		groups:           d.groups.view(),
		wallets:          d.wallets.view(),
		portfolios:       d.portfolios.view(),
		strategies:       d.strategies.view(),
		positions:        d.positions.view(),
		tradeOrders:      d.tradeOrders.view(),
		transactions:     d.transactions.view(),
	}
}

type tx struct {
	d *dataset
}

func (t *tx) Users() store.Table[model.User] { return t.d.users }
func (t *tx) Assets() store.Table[model.Asset] { return t.d.assets }
func (t *tx) ExternalEntities() store.Table[model.ExternalEntity] { return t.d.externalEntities }
func (t *tx) Groups() store.Table[model.Group] { return t.d.groups }
func (t *tx) Wallets() store.Table[model.Wallet] { return t.d.wallets }
func (t *tx) Portfolios() store.Table[model.Portfolio] { return t.d.portfolios }
func (t *tx) Strategies() store.Table[model.Strategy] { return t.d.strategies }
func (t *tx) Positions() store.Table[model.Position] { return t.d.positions }
func (t *tx) TradeOrders() store.Table[model.TradeOrder] { return t.d.tradeOrders }
func (t *tx) Transactions() store.Table[model.Transaction] { return t.d.transactions }

func (t *tx) Flows(ctx context.Context, walletID, assetID int64) (store.Flows, error) {
	f := store.Flows{In: decimal.Zero, Out: decimal.Zero}
	for _, tr := range t.d.transactions.rows {
		if !tr.IsLive() || tr.Status != types.TransactionStatusDone {
			continue
		}
		if tr.ToWalletID == walletID && tr.ToAssetID == assetID {
			f.In = f.In.Add(tr.ToValue)
		}
		if tr.FromWalletID != nil && *tr.FromWalletID == walletID &&
			tr.FromAssetID != nil && *tr.FromAssetID == assetID && tr.FromValue != nil {
			f.Out = f.Out.Add(*tr.FromValue)
		}
	}
	return f, nil
}

func (t *tx) FlowAssets(ctx context.Context, walletID int64) ([]int64, error) {
	seen := make(map[int64]struct{})
	var out []int64
	add := func(id int64) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, tr := range t.d.transactions.rows {
		if !tr.IsLive() {
			continue
		}
		if tr.ToWalletID == walletID {
			add(tr.ToAssetID)
		}
		if tr.FromWalletID != nil && *tr.FromWalletID == walletID && tr.FromAssetID != nil {
			add(*tr.FromAssetID)
		}
	}
	slices.Sort(out)
	return out, nil
}
