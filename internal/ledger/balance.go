package ledger

import (
	"context"
	"errors"

	"tradefolio/internal/policy"
	"tradefolio/internal/store"

	"github.com/shopspring/decimal"
)

// Balance is a derived position of one asset in one wallet. Nothing of it is
// stored; it is recomputed from the transaction history on every read.
type Balance struct {
	WalletID int64           `json:"walletId"`
	AssetID  int64           `json:"assetId"`
	Ticker   string          `json:"ticker"`
	Inflow   decimal.Decimal `json:"inflow"`
	Outflow  decimal.Decimal `json:"outflow"`
	Amount   decimal.Decimal `json:"amount"`
}

// Compute sums the live DONE transactions moving assetID into and out of
// walletID. Partials and fees count like any other transaction and are not
// netted against their parent. tx should be a snapshot.
func Compute(ctx context.Context, tx store.Tx, walletID, assetID int64) (Balance, error) {
	flows, err := tx.Flows(ctx, walletID, assetID)
	if err != nil {
		return Balance{}, policy.FromStore("balance", err)
	}
	b := Balance{
		WalletID: walletID,
		AssetID:  assetID,
		Inflow:   flows.In,
		Outflow:  flows.Out,
		Amount:   flows.Net(),
	}
	a, err := tx.Assets().Get(ctx, assetID)
	switch {
	case err == nil:
		b.Ticker = a.Ticker
	case !errors.Is(err, store.ErrNotFound):
		return Balance{}, policy.FromStore("asset", err)
	}
	return b, nil
}

// ComputeAll returns one Balance per asset the wallet has live transactions
// for, ordered by asset id.
func ComputeAll(ctx context.Context, tx store.Tx, walletID int64) ([]Balance, error) {
	assets, err := tx.FlowAssets(ctx, walletID)
	if err != nil {
		return nil, policy.FromStore("balance", err)
	}
	out := make([]Balance, 0, len(assets))
	for _, assetID := range assets {
		b, err := Compute(ctx, tx, walletID, assetID)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
