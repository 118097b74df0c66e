package postgres

import (
	"tradefolio/internal/model"
	"tradefolio/internal/types"

	"github.com/jackc/pgx/v5"
)

var userSpec = &tableSpec[model.User]{
	name:    "users",
	columns: []string{"email", "password_hash", "role"},
	values: func(u model.User) []any {
		return []any{u.Email, u.PasswordHash, string(u.Role)}
	},
	scan: func(row pgx.Row) (model.User, error) {
		var u model.User
		var role string
		err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt, &u.Email, &u.PasswordHash, &role)
		u.Role = types.Role(role)
		return u, err
	},
}

var assetSpec = &tableSpec[model.Asset]{
	name:    "assets",
	columns: []string{"ticker", "name", "type"},
	values: func(a model.Asset) []any {
		return []any{a.Ticker, a.Name, string(a.Type)}
	},
	scan: func(row pgx.Row) (model.Asset, error) {
		var a model.Asset
		var typ string
		err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt, &a.DeletedAt, &a.Ticker, &a.Name, &typ)
		a.Type = types.AssetType(typ)
		return a, err
	},
}

var externalEntitySpec = &tableSpec[model.ExternalEntity]{
	name:    "external_entities",
	columns: []string{"trademark_name", "type", "url"},
	values: func(e model.ExternalEntity) []any {
		return []any{e.TrademarkName, string(e.Type), e.URL}
	},
	scan: func(row pgx.Row) (model.ExternalEntity, error) {
		var e model.ExternalEntity
		var typ string
		err := row.Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt, &e.TrademarkName, &typ, &e.URL)
		e.Type = types.ExternalEntityType(typ)
		return e, err
	},
}

var groupSpec = &tableSpec[model.Group]{
	name:    "entity_groups",
	columns: []string{"user_id", "name", "descr", "type"},
	values: func(g model.Group) []any {
		return []any{g.UserID, g.Name, g.Descr, string(g.Type)}
	},
	scan: func(row pgx.Row) (model.Group, error) {
		var g model.Group
		var typ string
		err := row.Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt, &g.DeletedAt, &g.UserID, &g.Name, &g.Descr, &typ)
		g.Type = types.GroupType(typ)
		return g, err
	},
}

var walletSpec = &tableSpec[model.Wallet]{
	name:    "wallets",
	columns: []string{"user_id", "name", "descr", "external_entity_id", "is_archived"},
	values: func(w model.Wallet) []any {
		return []any{w.UserID, w.Name, w.Descr, w.ExternalEntityID, w.IsArchived}
	},
	scan: func(row pgx.Row) (model.Wallet, error) {
		var w model.Wallet
		err := row.Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt, &w.DeletedAt, &w.UserID, &w.Name, &w.Descr, &w.ExternalEntityID, &w.IsArchived)
		return w, err
	},
}

var portfolioSpec = &tableSpec[model.Portfolio]{
	name:    "portfolios",
	columns: []string{"user_id", "name", "descr", "is_archived", "group_id"},
	values: func(p model.Portfolio) []any {
		return []any{p.UserID, p.Name, p.Descr, p.IsArchived, p.GroupID}
	},
	scan: func(row pgx.Row) (model.Portfolio, error) {
		var p model.Portfolio
		err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt, &p.UserID, &p.Name, &p.Descr, &p.IsArchived, &p.GroupID)
		return p, err
	},
}

var strategySpec = &tableSpec[model.Strategy]{
	name:    "strategies",
	columns: []string{"user_id", "name", "descr", "is_archived", "group_id"},
	values: func(s model.Strategy) []any {
		return []any{s.UserID, s.Name, s.Descr, s.IsArchived, s.GroupID}
	},
	scan: func(row pgx.Row) (model.Strategy, error) {
		var s model.Strategy
		err := row.Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt, &s.UserID, &s.Name, &s.Descr, &s.IsArchived, &s.GroupID)
		return s, err
	},
}

var positionSpec = &tableSpec[model.Position]{
	name:    "positions",
	columns: []string{"user_id", "type", "descr", "group_id", "portfolio_id", "strategy_id"},
	values: func(p model.Position) []any {
		return []any{p.UserID, string(p.Type), p.Descr, p.GroupID, p.PortfolioID, p.StrategyID}
	},
	scan: func(row pgx.Row) (model.Position, error) {
		var p model.Position
		var typ string
		err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt, &p.UserID, &typ, &p.Descr, &p.GroupID, &p.PortfolioID, &p.StrategyID)
		p.Type = types.PositionType(typ)
		return p, err
	},
}

var tradeOrderSpec = &tableSpec[model.TradeOrder]{
	name: "trade_orders",
	columns: []string{
		"user_id", "position_id", "action", "status",
		"from_wallet_id", "from_asset_id", "from_value",
		"to_wallet_id", "to_asset_id", "to_value", "price",
		"open_date", "fill_date", "cancel_date", "expiration_date", "descr",
	},
	values: func(o model.TradeOrder) []any {
		return []any{
			o.UserID, o.PositionID, string(o.Action), string(o.Status),
			o.FromWalletID, o.FromAssetID, o.FromValue,
			o.ToWalletID, o.ToAssetID, o.ToValue, o.Price,
			o.OpenDate, o.FillDate, o.CancelDate, o.ExpirationDate, o.Descr,
		}
	},
	scan: func(row pgx.Row) (model.TradeOrder, error) {
		var o model.TradeOrder
		var action, status string
		err := row.Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt, &o.DeletedAt,
			&o.UserID, &o.PositionID, &action, &status,
			&o.FromWalletID, &o.FromAssetID, &o.FromValue,
			&o.ToWalletID, &o.ToAssetID, &o.ToValue, &o.Price,
			&o.OpenDate, &o.FillDate, &o.CancelDate, &o.ExpirationDate, &o.Descr)
		o.Action = types.TradeOrderAction(action)
		o.Status = types.TradeOrderStatus(status)
		return o, err
	},
}

var transactionSpec = &tableSpec[model.Transaction]{
	name: "transactions",
	columns: []string{
		"user_id", "type", "status", "date",
		"from_wallet_id", "from_asset_id", "from_value",
		"to_wallet_id", "to_asset_id", "to_value", "price", "quantity",
		"partial_of_id", "fee_of_id", "trade_order_id", "position_id", "descr",
	},
	values: func(t model.Transaction) []any {
		return []any{
			t.UserID, string(t.Type), string(t.Status), t.Date,
			t.FromWalletID, t.FromAssetID, t.FromValue,
			t.ToWalletID, t.ToAssetID, t.ToValue, t.Price, t.Quantity,
			t.PartialOfID, t.FeeOfID, t.TradeOrderID, t.PositionID, t.Descr,
		}
	},
	scan: func(row pgx.Row) (model.Transaction, error) {
		var t model.Transaction
		var typ, status string
		err := row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt,
			&t.UserID, &typ, &status, &t.Date,
			&t.FromWalletID, &t.FromAssetID, &t.FromValue,
			&t.ToWalletID, &t.ToAssetID, &t.ToValue, &t.Price, &t.Quantity,
			&t.PartialOfID, &t.FeeOfID, &t.TradeOrderID, &t.PositionID, &t.Descr)
		t.Type = types.TransactionType(typ)
		t.Status = types.TransactionStatus(status)
		return t, err
	},
}
