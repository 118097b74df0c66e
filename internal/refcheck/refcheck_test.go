package refcheck

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

type fixture struct {
	s        *memory.Store
	wallet   model.Wallet
	foreign  model.Wallet
	deleted  model.Wallet
	group    model.Group
	parent   model.Transaction
	partial  model.Transaction
	assetBTC model.Asset
	actor    policy.Actor
}

func setup(t *testing.T) fixture {
	t.Helper()
	f := fixture{s: memory.New(nil), actor: policy.Actor{UserID: 1, Role: types.RoleUser}}
	err := f.s.Atomic(context.Background(), func(ctx context.Context, tx store.Tx) error {
		var err error
		if f.wallet, err = tx.Wallets().Insert(ctx, model.Wallet{UserID: 1, Name: "mine"}); err != nil {
			return err
		}
		if f.foreign, err = tx.Wallets().Insert(ctx, model.Wallet{UserID: 2, Name: "theirs"}); err != nil {
			return err
		}
		if f.deleted, err = tx.Wallets().Insert(ctx, model.Wallet{UserID: 1, Name: "gone"}); err != nil {
			return err
		}
		if err := tx.Wallets().MarkDeleted(ctx, f.deleted.ID, time.Now()); err != nil {
			return err
		}
		if f.group, err = tx.Groups().Insert(ctx, model.Group{UserID: 2, Name: "shared", Type: types.GroupTypePortfolio}); err != nil {
			return err
		}
		if f.assetBTC, err = tx.Assets().Insert(ctx, model.Asset{Ticker: "BTC", Type: types.AssetTypeCrypto}); err != nil {
			return err
		}
		base := model.Transaction{
			UserID: 1, Type: types.TransactionTypeTransfer, Status: types.TransactionStatusDone,
			Date: time.Now(), ToWalletID: f.wallet.ID, ToAssetID: f.assetBTC.ID, ToValue: decimal.NewFromInt(1),
		}
		if f.parent, err = tx.Transactions().Insert(ctx, base); err != nil {
			return err
		}
		child := base
		child.PartialOfID = &f.parent.ID
		f.partial, err = tx.Transactions().Insert(ctx, child)
		return err
	})
	require.NoError(t, err)
	return f
}

func (f fixture) check(t *testing.T, refs ...Ref) error {
	t.Helper()
	var out error
	require.NoError(t, f.s.Snapshot(context.Background(), func(ctx context.Context, tx store.Tx) error {
		out = Check(ctx, tx, f.actor, refs...)
		return nil
	}))
	return out
}

func TestCheck(t *testing.T) {
	f := setup(t)
	missing := int64(999)

	tests := []struct {
		name    string
		refs    []Ref
		field   string
		wantErr bool
	}{
		{"own live wallet", []Ref{To("toWalletId", model.KindWallet, f.wallet.ID)}, "", false},
		{"nil optional ref", []Ref{Opt("groupId", model.KindGroup, nil)}, "", false},
		{"missing wallet", []Ref{To("toWalletId", model.KindWallet, missing)}, "toWalletId", true},
		{"foreign wallet", []Ref{To("fromWalletId", model.KindWallet, f.foreign.ID)}, "fromWalletId", true},
		{"deleted wallet", []Ref{To("toWalletId", model.KindWallet, f.deleted.ID)}, "toWalletId", true},
		{"global group owned by another user", []Ref{Opt("groupId", model.KindGroup, &f.group.ID)}, "", false},
		{
			"group of wrong type",
			[]Ref{Opt("groupId", model.KindGroup, &f.group.ID).Where(GroupOf(types.GroupTypeStrategy))},
			"groupId", true,
		},
		{
			"partial of top-level transaction",
			[]Ref{Opt("partialOfId", model.KindTransaction, &f.parent.ID).Where(TopLevel)},
			"", false,
		},
		{
			"partial of a partial",
			[]Ref{Opt("feeOfId", model.KindTransaction, &f.partial.ID).Where(TopLevel)},
			"feeOfId", true,
		},
		{
			"first failing field is reported",
			[]Ref{
				To("fromWalletId", model.KindWallet, f.wallet.ID),
				To("toAssetId", model.KindAsset, missing),
				To("toWalletId", model.KindWallet, missing),
			},
			"toAssetId", true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.check(t, tt.refs...)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperr.IsReference(err), "got %v", err)
			assert.Equal(t, tt.field, apperr.FieldOf(err))
		})
	}
}

func TestWhere_DoesNotAlias(t *testing.T) {
	base := To("groupId", model.KindGroup, 1).Where(GroupOf(types.GroupTypePortfolio))
	a := base.Where(TopLevel)
	b := base.Where(GroupOf(types.GroupTypeStrategy))
	assert.Len(t, base.Rules, 1)
	assert.Len(t, a.Rules, 2)
	assert.Len(t, b.Rules, 2)
}

type failingWallets struct {
	store.Table[model.Wallet]
	err error
}

func (w failingWallets) Get(context.Context, int64) (model.Wallet, error) {
	return model.Wallet{}, w.err
}

type failingTx struct {
	store.Tx
	wallets failingWallets
}

func (t failingTx) Wallets() store.Table[model.Wallet] { return t.wallets }

func TestCheck_StoreFailures(t *testing.T) {
	actor := policy.Actor{UserID: 1, Role: types.RoleUser}
	ref := To("toWalletId", model.KindWallet, 1)

	tx := failingTx{wallets: failingWallets{err: fmt.Errorf("%w: could not serialize access", store.ErrSerialization)}}
	err := Check(context.Background(), tx, actor, ref)
	assert.True(t, apperr.IsConflict(err), "got %v", err)

	tx = failingTx{wallets: failingWallets{err: errors.New("connection reset")}}
	err = Check(context.Background(), tx, actor, ref)
	assert.True(t, apperr.IsInfra(err), "got %v", err)
}
