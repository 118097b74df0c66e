package postgres

import (
	"context"

	"tradefolio/internal/model"
	"tradefolio/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type tx struct {
	pg pgx.Tx
}

func newTx(pg pgx.Tx) *tx {
	return &tx{pg: pg}
}

func (t *tx) Users() store.Table[model.User] {
	return &table[model.User]{q: t.pg, spec: userSpec}
}

func (t *tx) Assets() store.Table[model.Asset] {
	return &table[model.Asset]{q: t.pg, spec: assetSpec}
}

func (t *tx) ExternalEntities() store.Table[model.ExternalEntity] {
	return &table[model.ExternalEntity]{q: t.pg, spec: externalEntitySpec}
}

func (t *tx) Groups() store.Table[model.Group] {
	return &table[model.Group]{q: t.pg, spec: groupSpec}
}

func (t *tx) Wallets() store.Table[model.Wallet] {
	return &table[model.Wallet]{q: t.pg, spec: walletSpec}
}

func (t *tx) Portfolios() store.Table[model.Portfolio] {
	return &table[model.Portfolio]{q: t.pg, spec: portfolioSpec}
}

func (t *tx) Strategies() store.Table[model.Strategy] {
	return &table[model.Strategy]{q: t.pg, spec: strategySpec}
}

func (t *tx) Positions() store.Table[model.Position] {
	return &table[model.Position]{q: t.pg, spec: positionSpec}
}

func (t *tx) TradeOrders() store.Table[model.TradeOrder] {
	return &table[model.TradeOrder]{q: t.pg, spec: tradeOrderSpec}
}

func (t *tx) Transactions() store.Table[model.Transaction] {
	return &table[model.Transaction]{q: t.pg, spec: transactionSpec}
}

func (t *tx) Flows(ctx context.Context, walletID, assetID int64) (store.Flows, error) {
	var f store.Flows
	err := t.pg.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT SUM(to_value) FROM transactions
				WHERE to_wallet_id = $1 AND to_asset_id = $2 AND status = 'DONE' AND deleted_at IS NULL), 0),
			COALESCE((SELECT SUM(from_value) FROM transactions
				WHERE from_wallet_id = $1 AND from_asset_id = $2 AND status = 'DONE' AND deleted_at IS NULL), 0)
	`, walletID, assetID).Scan(&f.In, &f.Out)
	if err != nil {
		return store.Flows{In: decimal.Zero, Out: decimal.Zero}, mapErr(err)
	}
	return f, nil
}

func (t *tx) FlowAssets(ctx context.Context, walletID int64) ([]int64, error) {
	rows, err := t.pg.Query(ctx, `
		SELECT to_asset_id FROM transactions WHERE to_wallet_id = $1 AND deleted_at IS NULL
		UNION
		SELECT from_asset_id FROM transactions
		WHERE from_wallet_id = $1 AND from_asset_id IS NOT NULL AND deleted_at IS NULL
		ORDER BY 1
	`, walletID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, mapErr(rows.Err())
}
