package store

import (
	"context"
	"fmt"

	"tradefolio/internal/model"
)

// Lookup resolves any entity by kind and identity.
func Lookup(ctx context.Context, tx Tx, kind model.Kind, id int64) (model.Entity, error) {
	switch kind {
	case model.KindUser:
		return get(ctx, tx.Users(), id)
	case model.KindAsset:
		return get(ctx, tx.Assets(), id)
	case model.KindExternalEntity:
		return get(ctx, tx.ExternalEntities(), id)
	case model.KindGroup:
		return get(ctx, tx.Groups(), id)
	case model.KindWallet:
		return get(ctx, tx.Wallets(), id)
	case model.KindPortfolio:
		return get(ctx, tx.Portfolios(), id)
	case model.KindStrategy:
		return get(ctx, tx.Strategies(), id)
	case model.KindPosition:
		return get(ctx, tx.Positions(), id)
	case model.KindTradeOrder:
		return get(ctx, tx.TradeOrders(), id)
	case model.KindTransaction:
		return get(ctx, tx.Transactions(), id)
	}
	return nil, fmt.Errorf("unknown entity kind %q", kind)
}

func get[T model.Entity](ctx context.Context, t Table[T], id int64) (model.Entity, error) {
	v, err := t.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return v, nil
}
