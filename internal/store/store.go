// Package store defines the persistence ports the domain services depend on.
// Adapters live in store/memory and store/postgres.
package store

import (
	"context"
	"errors"
	"time"

	"tradefolio/internal/model"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrSerialization reports a concurrent write that invalidated the unit of work.
	ErrSerialization = errors.New("serialization failure")
)

// Table is the CRUD surface over one entity kind.
type Table[T model.Entity] interface {
	// Get resolves by identity regardless of liveness.
	Get(ctx context.Context, id int64) (T, error)
	// List returns rows matching f; soft-deleted rows are excluded unless f.IncludeDeleted.
	List(ctx context.Context, f Filter) ([]T, error)
	// Insert assigns id and timestamps and returns the stored row.
	Insert(ctx context.Context, v T) (T, error)
	// Update replaces the row with v.ID and bumps updatedAt.
	Update(ctx context.Context, v T) (T, error)
	// MarkDeleted stamps deletedAt only if the row is still live; ErrNotFound otherwise.
	MarkDeleted(ctx context.Context, id int64, at time.Time) error
}

// Flows is the pair of DONE sums moving value into and out of a wallet for one asset.
type Flows struct {
	In  decimal.Decimal
	Out decimal.Decimal
}

func (f Flows) Net() decimal.Decimal {
	return f.In.Sub(f.Out)
}

// Tx is one unit of work against the entity graph.
type Tx interface {
	Users() Table[model.User]
	Assets() Table[model.Asset]
	ExternalEntities() Table[model.ExternalEntity]
	Groups() Table[model.Group]
	Wallets() Table[model.Wallet]
	Portfolios() Table[model.Portfolio]
	Strategies() Table[model.Strategy]
	Positions() Table[model.Position]
	TradeOrders() Table[model.TradeOrder]
	Transactions() Table[model.Transaction]

	// Flows sums toValue of live DONE transactions into (walletID, assetID)
	// and fromValue of live DONE transactions out of it.
	Flows(ctx context.Context, walletID, assetID int64) (Flows, error)
	// FlowAssets lists the asset ids a wallet has live transactions for.
	FlowAssets(ctx context.Context, walletID int64) ([]int64, error)
}

type Store interface {
	// Atomic runs fn as a single serializable unit; any error rolls back all of it.
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Snapshot runs fn against one consistent read-only view.
	Snapshot(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
