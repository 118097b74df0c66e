package orders

import (
	"fmt"
	"time"

	"tradefolio/internal/apperr"
	"tradefolio/internal/model"
	"tradefolio/internal/types"
)

// TransitionInput moves an order out of OPND. The date matching the target
// status is optional and defaults to now, except for EXPR, which needs an
// expiration date on the order or in the command.
type TransitionInput struct {
	Status         types.TradeOrderStatus `json:"status"`
	FillDate       *time.Time             `json:"fillDate"`
	CancelDate     *time.Time             `json:"cancelDate"`
	ExpirationDate *time.Time             `json:"expirationDate"`
}

// Advance applies in to o and returns the moved order. o is not modified.
func Advance(o model.TradeOrder, in TransitionInput, now time.Time) (model.TradeOrder, error) {
	if !in.Status.Valid() {
		return o, apperr.Validationf("status", "unknown trade order status %q", in.Status)
	}
	if o.Status.Terminal() {
		return o, apperr.Conflict(fmt.Sprintf("trade order is %s and can no longer change", o.Status))
	}
	if in.Status == o.Status {
		return o, apperr.Conflict(fmt.Sprintf("trade order is already %s", o.Status))
	}

	switch in.Status {
	case types.TradeOrderStatusFilled:
		at := stamp(in.FillDate, now)
		if err := notBeforeOpen("fillDate", at, o.OpenDate); err != nil {
			return o, err
		}
		o.FillDate = &at
	case types.TradeOrderStatusCanceled:
		at := stamp(in.CancelDate, now)
		if err := notBeforeOpen("cancelDate", at, o.OpenDate); err != nil {
			return o, err
		}
		o.CancelDate = &at
	case types.TradeOrderStatusExpired:
		at := o.ExpirationDate
		if in.ExpirationDate != nil {
			at = in.ExpirationDate
		}
		if at == nil {
			return o, apperr.Validation("expirationDate", "is required to expire an order")
		}
		v := at.UTC()
		if err := notBeforeOpen("expirationDate", v, o.OpenDate); err != nil {
			return o, err
		}
		o.ExpirationDate = &v
	default:
		return o, apperr.Conflict(fmt.Sprintf("cannot move trade order from %s to %s", o.Status, in.Status))
	}
	o.Status = in.Status
	return o, nil
}

func stamp(at *time.Time, now time.Time) time.Time {
	if at == nil {
		return now
	}
	return at.UTC()
}

func notBeforeOpen(field string, at, open time.Time) error {
	if at.Before(open) {
		return apperr.Validation(field, "must not be before openDate")
	}
	return nil
}
