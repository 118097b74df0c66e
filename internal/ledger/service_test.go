package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"tradefolio/internal/apperr"
	"tradefolio/internal/model"
	"tradefolio/internal/policy"
	"tradefolio/internal/store"
	"tradefolio/internal/store/memory"
	"tradefolio/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = policy.Actor{UserID: 1, Role: types.RoleUser}
	bob   = policy.Actor{UserID: 2, Role: types.RoleUser}
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

type fixture struct {
	store *memory.Store
	svc   *Service
	usdt  model.Asset
	btc   model.Asset
	spot  model.Wallet
	cold  model.Wallet
	bobs  model.Wallet
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.New(nil)}
	f.svc = NewService(f.store, nil, nil)
	require.NoError(t, f.store.Atomic(context.Background(), func(ctx context.Context, tx store.Tx) error {
		var err error
		if f.usdt, err = tx.Assets().Insert(ctx, model.Asset{Ticker: "USDT", Type: types.AssetTypeCrypto}); err != nil {
			return err
		}
		if f.btc, err = tx.Assets().Insert(ctx, model.Asset{Ticker: "BTC", Type: types.AssetTypeCrypto}); err != nil {
			return err
		}
		if f.spot, err = tx.Wallets().Insert(ctx, model.Wallet{UserID: alice.UserID, Name: "spot"}); err != nil {
			return err
		}
		if f.cold, err = tx.Wallets().Insert(ctx, model.Wallet{UserID: alice.UserID, Name: "cold"}); err != nil {
			return err
		}
		f.bobs, err = tx.Wallets().Insert(ctx, model.Wallet{UserID: bob.UserID, Name: "bob"})
		return err
	}))
	return f
}

func (f *fixture) deposit(t *testing.T, amount string) model.Transaction {
	t.Helper()
	tr, err := f.svc.Create(context.Background(), alice, TransactionInput{
		Type:       types.TransactionTypeExternal,
		ToWalletID: f.spot.ID,
		ToAssetID:  f.usdt.ID,
		ToValue:    dec(amount),
	})
	require.NoError(t, err)
	return tr
}

func (f *fixture) transfer(t *testing.T, amount string) model.Transaction {
	t.Helper()
	tr, err := f.svc.Create(context.Background(), alice, TransactionInput{
		Type:         types.TransactionTypeTransfer,
		FromWalletID: &f.spot.ID,
		FromAssetID:  &f.usdt.ID,
		FromValue:    ptr(dec(amount)),
		ToWalletID:   f.cold.ID,
		ToAssetID:    f.usdt.ID,
		ToValue:      dec(amount),
	})
	require.NoError(t, err)
	return tr
}

func (f *fixture) balance(t *testing.T, walletID, assetID int64) decimal.Decimal {
	t.Helper()
	var b Balance
	require.NoError(t, f.store.Snapshot(context.Background(), func(ctx context.Context, tx store.Tx) error {
		var err error
		b, err = Compute(ctx, tx, walletID, assetID)
		return err
	}))
	return b.Amount
}

func TestValidate(t *testing.T) {
	base := model.Transaction{
		Type:       types.TransactionTypeTransfer,
		Status:     types.TransactionStatusDone,
		Date:       time.Now(),
		ToWalletID: 1,
		ToAssetID:  1,
		ToValue:    dec("1"),
	}
	require.NoError(t, Validate(base))

	tests := []struct {
		name  string
		edit  func(tr *model.Transaction)
		field string
	}{
		{"unknown type", func(tr *model.Transaction) { tr.Type = "SWAP" }, "type"},
		{"unknown status", func(tr *model.Transaction) { tr.Status = "LOST" }, "status"},
		{"no date", func(tr *model.Transaction) { tr.Date = time.Time{} }, "date"},
		{"no destination", func(tr *model.Transaction) { tr.ToWalletID = 0 }, "toWalletId"},
		{"zero value", func(tr *model.Transaction) { tr.ToValue = decimal.Zero }, "toValue"},
		{"negative price", func(tr *model.Transaction) { tr.Price = ptr(dec("-2")) }, "price"},
		{"zero quantity", func(tr *model.Transaction) { tr.Quantity = ptr(decimal.Zero) }, "quantity"},
		{"half a source", func(tr *model.Transaction) { tr.FromWalletID = ptr(int64(1)) }, "fromWalletId"},
		{"zero source value", func(tr *model.Transaction) {
			tr.FromWalletID, tr.FromAssetID, tr.FromValue = ptr(int64(1)), ptr(int64(1)), ptr(decimal.Zero)
		}, "fromValue"},
		{"partial and fee", func(tr *model.Transaction) { tr.PartialOfID, tr.FeeOfID = ptr(int64(1)), ptr(int64(2)) }, "feeOfId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := base
			tt.edit(&tr)
			err := Validate(tr)
			require.True(t, apperr.IsValidation(err), "got %v", err)
			assert.Equal(t, tt.field, apperr.FieldOf(err))
		})
	}
}

func TestBalance_RoundTrip(t *testing.T) {
	f := newFixture(t)

	f.deposit(t, "1000")
	f.transfer(t, "300")

	assert.True(t, f.balance(t, f.spot.ID, f.usdt.ID).Equal(dec("700")))
	assert.True(t, f.balance(t, f.cold.ID, f.usdt.ID).Equal(dec("300")))
	assert.True(t, f.balance(t, f.spot.ID, f.btc.ID).IsZero())
}

func TestBalance_IgnoresPendingAndDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.deposit(t, "1000")
	pending := types.TransactionStatusPending
	_, err := f.svc.Create(ctx, alice, TransactionInput{
		Type:       types.TransactionTypeExternal,
		Status:     pending,
		ToWalletID: f.spot.ID,
		ToAssetID:  f.usdt.ID,
		ToValue:    dec("50"),
	})
	require.NoError(t, err)
	out := f.transfer(t, "300")
	require.NoError(t, f.svc.SoftDelete(ctx, alice, out.ID))

	assert.True(t, f.balance(t, f.spot.ID, f.usdt.ID).Equal(dec("1000")))
}

func TestComputeAll(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, "1000")
	f.transfer(t, "250")

	var all []Balance
	require.NoError(t, f.store.Snapshot(context.Background(), func(ctx context.Context, tx store.Tx) error {
		var err error
		all, err = ComputeAll(ctx, tx, f.spot.ID)
		return err
	}))
	require.Len(t, all, 1)
	assert.Equal(t, "USDT", all[0].Ticker)
	assert.True(t, all[0].Inflow.Equal(dec("1000")))
	assert.True(t, all[0].Outflow.Equal(dec("250")))
	assert.True(t, all[0].Amount.Equal(dec("750")))
}

type assetsStub struct {
	store.Table[model.Asset]
	err error
}

func (a assetsStub) Get(context.Context, int64) (model.Asset, error) {
	return model.Asset{}, a.err
}

type flowsTx struct {
	store.Tx
	assets assetsStub
}

func (t flowsTx) Flows(context.Context, int64, int64) (store.Flows, error) {
	return store.Flows{In: dec("5"), Out: dec("2")}, nil
}

func (t flowsTx) Assets() store.Table[model.Asset] { return t.assets }

func TestCompute_AssetLookupFailures(t *testing.T) {
	ctx := context.Background()

	b, err := Compute(ctx, flowsTx{assets: assetsStub{err: store.ErrNotFound}}, 1, 2)
	require.NoError(t, err)
	assert.Empty(t, b.Ticker)
	assert.True(t, b.Amount.Equal(dec("3")))

	_, err = Compute(ctx, flowsTx{assets: assetsStub{err: fmt.Errorf("%w: concurrent update", store.ErrSerialization)}}, 1, 2)
	assert.True(t, apperr.IsConflict(err), "got %v", err)

	_, err = Compute(ctx, flowsTx{assets: assetsStub{err: errors.New("connection reset")}}, 1, 2)
	assert.True(t, apperr.IsInfra(err), "got %v", err)
}

func TestCreate_References(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, alice, TransactionInput{
		Type:       types.TransactionTypeExternal,
		ToWalletID: f.bobs.ID,
		ToAssetID:  f.usdt.ID,
		ToValue:    dec("1"),
	})
	require.True(t, apperr.IsReference(err))
	assert.Equal(t, "toWalletId", apperr.FieldOf(err))

	require.NoError(t, f.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Assets().MarkDeleted(ctx, f.btc.ID, time.Now())
	}))
	_, err = f.svc.Create(ctx, alice, TransactionInput{
		Type:       types.TransactionTypeExternal,
		ToWalletID: f.spot.ID,
		ToAssetID:  f.btc.ID,
		ToValue:    dec("1"),
	})
	require.True(t, apperr.IsReference(err))
	assert.Equal(t, "toAssetId", apperr.FieldOf(err))
}

func TestPartialsAndFees_DepthOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	parent := f.deposit(t, "1000")
	fee, err := f.svc.Create(ctx, alice, TransactionInput{
		Type:       types.TransactionTypeFee,
		ToWalletID: f.cold.ID,
		ToAssetID:  f.usdt.ID,
		ToValue:    dec("1"),
		FeeOfID:    &parent.ID,
	})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, alice, TransactionInput{
		Type:        types.TransactionTypeTrade,
		ToWalletID:  f.cold.ID,
		ToAssetID:   f.usdt.ID,
		ToValue:     dec("1"),
		PartialOfID: &fee.ID,
	})
	require.True(t, apperr.IsReference(err), "a fee cannot have partials")
	assert.Equal(t, "partialOfId", apperr.FieldOf(err))

	other := f.deposit(t, "50")
	_, err = f.svc.Update(ctx, alice, parent.ID, TransactionPatch{PartialOfID: types.Some(other.ID)})
	require.True(t, apperr.IsReference(err), "a parent cannot become a child")
	assert.Equal(t, "partialOfId", apperr.FieldOf(err))
	assert.Contains(t, err.Error(), "partials or fees of its own")

	_, err = f.svc.Update(ctx, alice, parent.ID, TransactionPatch{FeeOfID: types.Some(other.ID)})
	require.True(t, apperr.IsReference(err))
	assert.Equal(t, "feeOfId", apperr.FieldOf(err))

	_, err = f.svc.Update(ctx, alice, fee.ID, TransactionPatch{FeeOfID: types.Some(fee.ID)})
	require.True(t, apperr.IsReference(err))
	assert.Equal(t, "feeOfId", apperr.FieldOf(err))

	kids, err := f.svc.Children(ctx, alice, parent.ID)
	require.NoError(t, err)
	require.Len(t, kids.Fees, 1)
	assert.Equal(t, fee.ID, kids.Fees[0].ID)
	assert.Empty(t, kids.Partials)

	_, err = f.svc.Children(ctx, bob, parent.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestSoftDelete_DoesNotCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	parent := f.deposit(t, "1000")
	fee, err := f.svc.Create(ctx, alice, TransactionInput{
		Type:       types.TransactionTypeFee,
		ToWalletID: f.cold.ID,
		ToAssetID:  f.usdt.ID,
		ToValue:    dec("2"),
		FeeOfID:    &parent.ID,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.SoftDelete(ctx, alice, parent.ID))
	got, err := f.svc.Get(ctx, alice, fee.ID)
	require.NoError(t, err)
	assert.Equal(t, parent.ID, *got.FeeOfID)

	descr := "kept"
	got, err = f.svc.Update(ctx, alice, fee.ID, TransactionPatch{Descr: &descr})
	require.NoError(t, err, "unchanged references are not re-checked")
	assert.Equal(t, "kept", got.Descr)

	_, err = f.svc.Create(ctx, alice, TransactionInput{
		Type:       types.TransactionTypeFee,
		ToWalletID: f.cold.ID,
		ToAssetID:  f.usdt.ID,
		ToValue:    dec("2"),
		FeeOfID:    &parent.ID,
	})
	require.True(t, apperr.IsReference(err))
	assert.Contains(t, err.Error(), "deleted")
}

func TestSettlementRequiresFilledOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var order model.TradeOrder
	require.NoError(t, f.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		order, err = tx.TradeOrders().Insert(ctx, model.TradeOrder{
			UserID:       alice.UserID,
			Action:       types.TradeOrderActionBuy,
			Status:       types.TradeOrderStatusOpen,
			FromWalletID: f.spot.ID,
			FromAssetID:  f.usdt.ID,
			FromValue:    dec("500"),
			ToWalletID:   f.spot.ID,
			ToAssetID:    f.btc.ID,
			ToValue:      dec("0.02"),
			OpenDate:     time.Now().UTC(),
		})
		return err
	}))

	in := TransactionInput{
		Type:         types.TransactionTypeTrade,
		FromWalletID: &f.spot.ID,
		FromAssetID:  &f.usdt.ID,
		FromValue:    ptr(dec("500")),
		ToWalletID:   f.spot.ID,
		ToAssetID:    f.btc.ID,
		ToValue:      dec("0.02"),
		TradeOrderID: &order.ID,
	}
	_, err := f.svc.Create(ctx, alice, in)
	require.True(t, apperr.IsReference(err))
	assert.Equal(t, "tradeOrderId", apperr.FieldOf(err))

	require.NoError(t, f.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		order.Status = types.TradeOrderStatusFilled
		_, err := tx.TradeOrders().Update(ctx, order)
		return err
	}))
	settled, err := f.svc.Create(ctx, alice, in)
	require.NoError(t, err)
	assert.Equal(t, order.ID, *settled.TradeOrderID)
}
