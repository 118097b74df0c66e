package model

import (
	"time"

	"tradefolio/internal/types"

	"github.com/shopspring/decimal"
)

type TradeOrder struct {
	Meta
	UserID         int64                  `json:"userId"`
	PositionID     *int64                 `json:"positionId"`
	Action         types.TradeOrderAction `json:"action"`
	Status         types.TradeOrderStatus `json:"status"`
	FromWalletID   int64                  `json:"fromWalletId"`
	FromAssetID    int64                  `json:"fromAssetId"`
	FromValue      decimal.Decimal        `json:"fromValue"`
	ToWalletID     int64                  `json:"toWalletId"`
	ToAssetID      int64                  `json:"toAssetId"`
	ToValue        decimal.Decimal        `json:"toValue"`
	Price          *decimal.Decimal       `json:"price"`
	OpenDate       time.Time              `json:"openDate"`
	FillDate       *time.Time             `json:"fillDate"`
	CancelDate     *time.Time             `json:"cancelDate"`
	ExpirationDate *time.Time             `json:"expirationDate"`
	Descr          string                 `json:"descr"`
}

func (TradeOrder) Kind() Kind { return KindTradeOrder }

func (o TradeOrder) OwnerID() int64 { return o.UserID }

func (o TradeOrder) Field(name string) any {
	if v, ok := o.Meta.field(name); ok {
		return v
	}
	switch name {
	case "user_id":
		return o.UserID
	case "position_id":
		return o.PositionID
	case "action":
		return string(o.Action)
	case "status":
		return string(o.Status)
	case "from_wallet_id":
		return o.FromWalletID
	case "from_asset_id":
		return o.FromAssetID
	case "to_wallet_id":
		return o.ToWalletID
	case "to_asset_id":
		return o.ToAssetID
	case "open_date":
		return o.OpenDate
	case "expiration_date":
		return o.ExpirationDate
	}
	return nil
}

type Transaction struct {
	Meta
	UserID       int64                   `json:"userId"`
	Type         types.TransactionType   `json:"type"`
	Status       types.TransactionStatus `json:"status"`
	Date         time.Time               `json:"date"`
	FromWalletID *int64                  `json:"fromWalletId"`
	FromAssetID  *int64                  `json:"fromAssetId"`
	FromValue    *decimal.Decimal        `json:"fromValue"`
	ToWalletID   int64                   `json:"toWalletId"`
	ToAssetID    int64                   `json:"toAssetId"`
	ToValue      decimal.Decimal         `json:"toValue"`
	Price        *decimal.Decimal        `json:"price"`
	Quantity     *decimal.Decimal        `json:"quantity"`
	PartialOfID  *int64                  `json:"partialOfId"`
	FeeOfID      *int64                  `json:"feeOfId"`
	TradeOrderID *int64                  `json:"tradeOrderId"`
	PositionID   *int64                  `json:"positionId"`
	Descr        string                  `json:"descr"`
}

func (Transaction) Kind() Kind { return KindTransaction }

func (t Transaction) OwnerID() int64 { return t.UserID }

// IsChild reports whether t is a partial or a fee of another transaction.
func (t Transaction) IsChild() bool {
	return t.PartialOfID != nil || t.FeeOfID != nil
}

func (t Transaction) Field(name string) any {
	if v, ok := t.Meta.field(name); ok {
		return v
	}
	switch name {
	case "user_id":
		return t.UserID
	case "type":
		return string(t.Type)
	case "status":
		return string(t.Status)
	case "date":
		return t.Date
	case "from_wallet_id":
		return t.FromWalletID
	case "from_asset_id":
		return t.FromAssetID
	case "to_wallet_id":
		return t.ToWalletID
	case "to_asset_id":
		return t.ToAssetID
	case "partial_of_id":
		return t.PartialOfID
	case "fee_of_id":
		return t.FeeOfID
	case "trade_order_id":
		return t.TradeOrderID
	case "position_id":
		return t.PositionID
	}
	return nil
}
