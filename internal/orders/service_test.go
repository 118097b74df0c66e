package orders

import (
	"context"
	"testing"
	"time"

	"tradefolio/internal/apperr"
	"tradefolio/internal/events"
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

type fixture struct {
	store *memory.Store
	svc   *Service
	usdt  model.Asset
	btc   model.Asset
	spot  model.Wallet
	cold  model.Wallet
	bobs  model.Wallet
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.New(nil), clock: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	f.svc = NewService(f.store, nil, nil)
	f.svc.now = func() time.Time { return f.clock }
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

func (f *fixture) buy() TradeOrderInput {
	return TradeOrderInput{
		Action:       types.TradeOrderActionBuy,
		FromWalletID: f.spot.ID,
		FromAssetID:  f.usdt.ID,
		FromValue:    decimal.RequireFromString("500"),
		ToWalletID:   f.spot.ID,
		ToAssetID:    f.btc.ID,
		ToValue:      decimal.RequireFromString("0.02"),
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, alice, f.buy())
	require.NoError(t, err)
	assert.Equal(t, types.TradeOrderStatusOpen, o.Status)
	assert.Equal(t, f.clock, o.OpenDate)
	assert.Equal(t, alice.UserID, o.UserID)
	assert.Nil(t, o.FillDate)
	assert.Nil(t, o.CancelDate)

	got, err := f.svc.Get(ctx, alice, o.ID)
	require.NoError(t, err)
	assert.True(t, got.ToValue.Equal(decimal.RequireFromString("0.02")))

	_, err = f.svc.Get(ctx, bob, o.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	zero := decimal.Zero
	early := f.clock.Add(-time.Hour)

	tests := []struct {
		name  string
		edit  func(in *TradeOrderInput)
		field string
	}{
		{"zero from value", func(in *TradeOrderInput) { in.FromValue = decimal.Zero }, "fromValue"},
		{"negative to value", func(in *TradeOrderInput) { in.ToValue = decimal.RequireFromString("-1") }, "toValue"},
		{"zero price", func(in *TradeOrderInput) { in.Price = &zero }, "price"},
		{"bad action", func(in *TradeOrderInput) { in.Action = "HOLD" }, "action"},
		{"missing wallet", func(in *TradeOrderInput) { in.ToWalletID = 0 }, "toWalletId"},
		{"expires before open", func(in *TradeOrderInput) { in.ExpirationDate = &early }, "expirationDate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.buy()
			tt.edit(&in)
			_, err := f.svc.Create(ctx, alice, in)
			require.True(t, apperr.IsValidation(err), "got %v", err)
			assert.Equal(t, tt.field, apperr.FieldOf(err))
		})
	}
}

func TestCreate_References(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := f.buy()
	in.ToWalletID = f.bobs.ID
	_, err := f.svc.Create(ctx, alice, in)
	require.True(t, apperr.IsReference(err))
	assert.Equal(t, "toWalletId", apperr.FieldOf(err))

	missing := int64(999)
	in = f.buy()
	in.PositionID = &missing
	_, err = f.svc.Create(ctx, alice, in)
	assert.Equal(t, "positionId", apperr.FieldOf(err))

	require.NoError(t, f.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Wallets().MarkDeleted(ctx, f.cold.ID, f.clock)
	}))
	in = f.buy()
	in.ToWalletID = f.cold.ID
	_, err = f.svc.Create(ctx, alice, in)
	require.True(t, apperr.IsReference(err))
	assert.Contains(t, err.Error(), "deleted")

	list, err := f.svc.List(ctx, alice, store.Filter{})
	require.NoError(t, err)
	assert.Empty(t, list, "failed creates write nothing")
}

func TestTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, alice, f.buy())
	require.NoError(t, err)

	f.clock = f.clock.Add(time.Hour)
	filled, err := f.svc.Transition(ctx, alice, o.ID, TransitionInput{Status: types.TradeOrderStatusFilled})
	require.NoError(t, err)
	assert.Equal(t, types.TradeOrderStatusFilled, filled.Status)
	require.NotNil(t, filled.FillDate)
	assert.Equal(t, f.clock, *filled.FillDate)

	_, err = f.svc.Transition(ctx, alice, o.ID, TransitionInput{Status: types.TradeOrderStatusCanceled})
	assert.True(t, apperr.IsConflict(err), "FILL is terminal")

	_, err = f.svc.Transition(ctx, bob, o.ID, TransitionInput{Status: types.TradeOrderStatusCanceled})
	assert.True(t, apperr.IsNotFound(err))

	got, err := f.svc.Get(ctx, alice, o.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TradeOrderStatusFilled, got.Status)
	assert.Nil(t, got.CancelDate)
}

func TestUpdate_TermsLockAfterOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, alice, f.buy())
	require.NoError(t, err)

	more := decimal.RequireFromString("600")
	o, err = f.svc.Update(ctx, alice, o.ID, TradeOrderPatch{FromValue: &more})
	require.NoError(t, err)
	assert.True(t, o.FromValue.Equal(more))

	_, err = f.svc.Transition(ctx, alice, o.ID, TransitionInput{Status: types.TradeOrderStatusCanceled})
	require.NoError(t, err)

	less := decimal.RequireFromString("400")
	_, err = f.svc.Update(ctx, alice, o.ID, TradeOrderPatch{FromValue: &less})
	assert.True(t, apperr.IsConflict(err))
	_, err = f.svc.Update(ctx, alice, o.ID, TradeOrderPatch{Price: types.Some(decimal.RequireFromString("25000"))})
	assert.True(t, apperr.IsConflict(err))

	descr := "changed my mind"
	o, err = f.svc.Update(ctx, alice, o.ID, TradeOrderPatch{Descr: &descr, FromValue: &more})
	require.NoError(t, err, "resending unchanged terms is allowed")
	assert.Equal(t, descr, o.Descr)
	assert.Equal(t, types.TradeOrderStatusCanceled, o.Status)
}

func TestUpdate_RechecksChangedReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, alice, f.buy())
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, alice, o.ID, TradeOrderPatch{ToWalletID: &f.bobs.ID})
	require.True(t, apperr.IsReference(err))
	assert.Equal(t, "toWalletId", apperr.FieldOf(err))

	o, err = f.svc.Update(ctx, alice, o.ID, TradeOrderPatch{ToWalletID: &f.cold.ID})
	require.NoError(t, err)
	assert.Equal(t, f.cold.ID, o.ToWalletID)
}

func TestUpdate_UnchangedPositionIsNotRechecked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var kept, other model.Position
	require.NoError(t, f.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if kept, err = tx.Positions().Insert(ctx, model.Position{UserID: alice.UserID, Type: types.PositionTypeLong}); err != nil {
			return err
		}
		other, err = tx.Positions().Insert(ctx, model.Position{UserID: alice.UserID, Type: types.PositionTypeShort})
		return err
	}))

	in := f.buy()
	in.PositionID = &kept.ID
	o, err := f.svc.Create(ctx, alice, in)
	require.NoError(t, err)

	require.NoError(t, f.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Positions().MarkDeleted(ctx, kept.ID, f.clock); err != nil {
			return err
		}
		return tx.Positions().MarkDeleted(ctx, other.ID, f.clock)
	}))

	descr := "rebalanced"
	o, err = f.svc.Update(ctx, alice, o.ID, TradeOrderPatch{PositionID: types.Some(kept.ID), Descr: &descr})
	require.NoError(t, err)
	require.NotNil(t, o.PositionID)
	assert.Equal(t, kept.ID, *o.PositionID)
	assert.Equal(t, "rebalanced", o.Descr)

	_, err = f.svc.Update(ctx, alice, o.ID, TradeOrderPatch{PositionID: types.Some(other.ID)})
	require.True(t, apperr.IsReference(err))
	assert.Equal(t, "positionId", apperr.FieldOf(err))

	o, err = f.svc.Update(ctx, alice, o.ID, TradeOrderPatch{PositionID: types.Null[int64]()})
	require.NoError(t, err)
	assert.Nil(t, o.PositionID)
}

func TestSoftDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, alice, f.buy())
	require.NoError(t, err)

	assert.True(t, apperr.IsNotFound(f.svc.SoftDelete(ctx, bob, o.ID)))
	require.NoError(t, f.svc.SoftDelete(ctx, alice, o.ID))
	assert.True(t, apperr.IsNotFound(f.svc.SoftDelete(ctx, alice, o.ID)))

	_, err = f.svc.Get(ctx, alice, o.ID)
	assert.True(t, apperr.IsNotFound(err))
	_, err = f.svc.Transition(ctx, alice, o.ID, TransitionInput{Status: types.TradeOrderStatusFilled})
	assert.True(t, apperr.IsNotFound(err))
}

func TestExpireDue(t *testing.T) {
	bus := events.NewBus()
	sub := bus.Subscribe(alice.UserID)
	defer bus.Unsubscribe(sub)

	f := newFixture(t)
	f.svc.bus = bus
	ctx := context.Background()

	soon := f.clock.Add(time.Hour)
	later := f.clock.Add(48 * time.Hour)

	in := f.buy()
	in.ExpirationDate = &soon
	due, err := f.svc.Create(ctx, alice, in)
	require.NoError(t, err)

	in.ExpirationDate = &later
	notYet, err := f.svc.Create(ctx, alice, in)
	require.NoError(t, err)

	in.ExpirationDate = nil
	never, err := f.svc.Create(ctx, alice, in)
	require.NoError(t, err)

	in.ExpirationDate = &soon
	deleted, err := f.svc.Create(ctx, alice, in)
	require.NoError(t, err)
	require.NoError(t, f.svc.SoftDelete(ctx, alice, deleted.ID))

	for len(sub) > 0 {
		<-sub
	}

	expired, err := f.svc.ExpireDue(ctx, soon)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, due.ID, expired[0].ID)
	assert.Equal(t, types.TradeOrderStatusExpired, expired[0].Status)

	ev := <-sub
	assert.Equal(t, "trade_order.transitioned", ev.Type)

	for _, id := range []int64{notYet.ID, never.ID} {
		o, err := f.svc.Get(ctx, alice, id)
		require.NoError(t, err)
		assert.Equal(t, types.TradeOrderStatusOpen, o.Status)
	}

	again, err := f.svc.ExpireDue(ctx, soon)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestRunExpiryWorker_StopsWithContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	soon := f.clock.Add(-time.Minute)
	in := f.buy()
	in.OpenDate = &soon
	in.ExpirationDate = &soon
	o, err := f.svc.Create(ctx, alice, in)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		f.svc.RunExpiryWorker(ctx, time.Hour)
		close(done)
	}()

	require.Eventually(t, func() bool {
		got, err := f.svc.Get(context.Background(), alice, o.ID)
		return err == nil && got.Status == types.TradeOrderStatusExpired
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
