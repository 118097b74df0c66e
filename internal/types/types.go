package types

type Role string

type AssetType string

type ExternalEntityType string

type GroupType string

type PositionType string

type TradeOrderAction string

type TradeOrderStatus string

type TransactionType string

type TransactionStatus string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

const (
	AssetTypeCrypto AssetType = "CRYP"
	AssetTypeFiat   AssetType = "FIAT"
	AssetTypeStock  AssetType = "STOK"
	AssetTypeBond   AssetType = "BOND"
	AssetTypeETF    AssetType = "ETF"
)

const (
	ExternalEntityExchange ExternalEntityType = "EXCH"
	ExternalEntityCustody  ExternalEntityType = "WCST"
)

const (
	GroupTypePortfolio GroupType = "PORTFOLIO"
	GroupTypePosition  GroupType = "POSITION"
	GroupTypeStrategy  GroupType = "STRATEGY"
)

const (
	PositionTypeLong  PositionType = "LONG"
	PositionTypeShort PositionType = "SHRT"
)

const (
	TradeOrderActionBuy  TradeOrderAction = "BUY"
	TradeOrderActionSell TradeOrderAction = "SELL"
)

const (
	TradeOrderStatusOpen     TradeOrderStatus = "OPND"
	TradeOrderStatusFilled   TradeOrderStatus = "FILL"
	TradeOrderStatusCanceled TradeOrderStatus = "CANC"
	TradeOrderStatusExpired  TradeOrderStatus = "EXPR"
)

const (
	TransactionTypeTrade    TransactionType = "TRDE"
	TransactionTypeTransfer TransactionType = "TRNS"
	TransactionTypeExternal TransactionType = "EXTR"
	TransactionTypeFee      TransactionType = "FEE"
)

const (
	TransactionStatusDone     TransactionStatus = "DONE"
	TransactionStatusPending  TransactionStatus = "PEND"
	TransactionStatusCanceled TransactionStatus = "CANC"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

func (t AssetType) Valid() bool {
	switch t {
	case AssetTypeCrypto, AssetTypeFiat, AssetTypeStock, AssetTypeBond, AssetTypeETF:
		return true
	}
	return false
}

func (t ExternalEntityType) Valid() bool {
	return t == ExternalEntityExchange || t == ExternalEntityCustody
}

func (t GroupType) Valid() bool {
	switch t {
	case GroupTypePortfolio, GroupTypePosition, GroupTypeStrategy:
		return true
	}
	return false
}

func (t PositionType) Valid() bool {
	return t == PositionTypeLong || t == PositionTypeShort
}

func (a TradeOrderAction) Valid() bool {
	return a == TradeOrderActionBuy || a == TradeOrderActionSell
}

func (s TradeOrderStatus) Valid() bool {
	switch s {
	case TradeOrderStatusOpen, TradeOrderStatusFilled, TradeOrderStatusCanceled, TradeOrderStatusExpired:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed out of s.
func (s TradeOrderStatus) Terminal() bool {
	return s == TradeOrderStatusFilled || s == TradeOrderStatusCanceled || s == TradeOrderStatusExpired
}

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeTrade, TransactionTypeTransfer, TransactionTypeExternal, TransactionTypeFee:
		return true
	}
	return false
}

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusDone, TransactionStatusPending, TransactionStatusCanceled:
		return true
	}
	return false
}
