package orders

import (
	"testing"
	"time"

	"tradefolio/internal/apperr"
	"tradefolio/internal/model"
	"tradefolio/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvance(t *testing.T) {
	open := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	now := open.Add(48 * time.Hour)
	before := open.Add(-time.Minute)
	later := open.Add(time.Hour)

	base := model.TradeOrder{Status: types.TradeOrderStatusOpen, OpenDate: open}
	withExpiry := base
	withExpiry.ExpirationDate = &later

	tests := []struct {
		name   string
		order  model.TradeOrder
		in     TransitionInput
		status types.TradeOrderStatus
		kind   apperr.Kind
		field  string
		check  func(t *testing.T, o model.TradeOrder)
	}{
		{
			name:   "fill defaults to now",
			order:  base,
			in:     TransitionInput{Status: types.TradeOrderStatusFilled},
			status: types.TradeOrderStatusFilled,
			check: func(t *testing.T, o model.TradeOrder) {
				require.NotNil(t, o.FillDate)
				assert.Equal(t, now, *o.FillDate)
				assert.Nil(t, o.CancelDate)
			},
		},
		{
			name:   "fill with explicit date",
			order:  base,
			in:     TransitionInput{Status: types.TradeOrderStatusFilled, FillDate: &later},
			status: types.TradeOrderStatusFilled,
			check: func(t *testing.T, o model.TradeOrder) {
				assert.Equal(t, later, *o.FillDate)
			},
		},
		{
			name:  "fill before open",
			order: base,
			in:    TransitionInput{Status: types.TradeOrderStatusFilled, FillDate: &before},
			kind:  apperr.KindValidation,
			field: "fillDate",
		},
		{
			name:   "cancel defaults to now",
			order:  base,
			in:     TransitionInput{Status: types.TradeOrderStatusCanceled},
			status: types.TradeOrderStatusCanceled,
			check: func(t *testing.T, o model.TradeOrder) {
				assert.Equal(t, now, *o.CancelDate)
			},
		},
		{
			name:  "cancel before open",
			order: base,
			in:    TransitionInput{Status: types.TradeOrderStatusCanceled, CancelDate: &before},
			kind:  apperr.KindValidation,
			field: "cancelDate",
		},
		{
			name:  "expire without any date",
			order: base,
			in:    TransitionInput{Status: types.TradeOrderStatusExpired},
			kind:  apperr.KindValidation,
			field: "expirationDate",
		},
		{
			name:   "expire uses the order's date",
			order:  withExpiry,
			in:     TransitionInput{Status: types.TradeOrderStatusExpired},
			status: types.TradeOrderStatusExpired,
			check: func(t *testing.T, o model.TradeOrder) {
				assert.Equal(t, later, *o.ExpirationDate)
			},
		},
		{
			name:   "expire with the command's date",
			order:  base,
			in:     TransitionInput{Status: types.TradeOrderStatusExpired, ExpirationDate: &now},
			status: types.TradeOrderStatusExpired,
			check: func(t *testing.T, o model.TradeOrder) {
				assert.Equal(t, now, *o.ExpirationDate)
			},
		},
		{
			name:  "same state",
			order: base,
			in:    TransitionInput{Status: types.TradeOrderStatusOpen},
			kind:  apperr.KindConflict,
		},
		{
			name:  "unknown status",
			order: base,
			in:    TransitionInput{Status: "DONE"},
			kind:  apperr.KindValidation,
			field: "status",
		},
		{
			name:  "out of a terminal state",
			order: model.TradeOrder{Status: types.TradeOrderStatusFilled, OpenDate: open},
			in:    TransitionInput{Status: types.TradeOrderStatusCanceled},
			kind:  apperr.KindConflict,
		},
		{
			name:  "expired is terminal",
			order: model.TradeOrder{Status: types.TradeOrderStatusExpired, OpenDate: open},
			in:    TransitionInput{Status: types.TradeOrderStatusFilled},
			kind:  apperr.KindConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Advance(tt.order, tt.in, now)
			if tt.status == "" {
				require.Error(t, err)
				assert.Equal(t, tt.kind, apperr.KindOf(err))
				assert.Equal(t, tt.field, apperr.FieldOf(err))
				assert.Equal(t, tt.order.Status, got.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, got.Status)
			if tt.check != nil {
				tt.check(t, got)
			}
		})
	}
}

func TestAdvance_DoesNotModifyInput(t *testing.T) {
	o := model.TradeOrder{Status: types.TradeOrderStatusOpen, OpenDate: time.Now().UTC().Add(-time.Hour)}
	_, err := Advance(o, TransitionInput{Status: types.TradeOrderStatusFilled}, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, types.TradeOrderStatusOpen, o.Status)
	assert.Nil(t, o.FillDate)
}
