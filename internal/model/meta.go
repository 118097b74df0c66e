package model

import "time"

type Kind string

const (
	KindUser           Kind = "user"
	KindAsset          Kind = "asset"
	KindExternalEntity Kind = "external_entity"
	KindGroup          Kind = "group"
	KindWallet         Kind = "wallet"
	KindPortfolio      Kind = "portfolio"
	KindStrategy       Kind = "strategy"
	KindPosition       Kind = "position"
	KindTradeOrder     Kind = "trade_order"
	KindTransaction    Kind = "transaction"
)

// Scoped reports whether rows of this kind are visible only to their owner.
// Groups record their creator but are listed and referenced globally.
func (k Kind) Scoped() bool {
	switch k {
	case KindWallet, KindPortfolio, KindStrategy, KindPosition, KindTradeOrder, KindTransaction:
		return true
	}
	return false
}

// Meta holds the columns every entity shares.
type Meta struct {
	ID        int64      `json:"id"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

func (m Meta) Metadata() Meta {
	return m
}

func (m Meta) IsLive() bool {
	return m.DeletedAt == nil
}

func (m *Meta) SetMeta(v Meta) {
	*m = v
}

func (m Meta) field(name string) (any, bool) {
	switch name {
	case "id":
		return m.ID, true
	case "created_at":
		return m.CreatedAt, true
	case "updated_at":
		return m.UpdatedAt, true
	case "deleted_at":
		return m.DeletedAt, true
	}
	return nil, false
}

// Entity is implemented by every stored record.
type Entity interface {
	Metadata() Meta
	IsLive() bool
	Kind() Kind
	// OwnerID is zero for global reference data.
	OwnerID() int64
	// Field returns the value stored under a column name, nil when unknown.
	Field(name string) any
}
