package model

import "tradefolio/internal/types"

type Wallet struct {
	Meta
	UserID           int64  `json:"userId"`
	Name             string `json:"name"`
	Descr            string `json:"descr"`
	ExternalEntityID *int64 `json:"externalEntityId"`
	IsArchived       bool   `json:"isArchived"`
}

func (Wallet) Kind() Kind { return KindWallet }

func (w Wallet) OwnerID() int64 { return w.UserID }

func (w Wallet) Field(name string) any {
	if v, ok := w.Meta.field(name); ok {
		return v
	}
	switch name {
	case "user_id":
		return w.UserID
	case "name":
		return w.Name
	case "descr":
		return w.Descr
	case "external_entity_id":
		return w.ExternalEntityID
	case "is_archived":
		return w.IsArchived
	}
	return nil
}

type Portfolio struct {
	Meta
	UserID     int64  `json:"userId"`
	Name       string `json:"name"`
	Descr      string `json:"descr"`
	IsArchived bool   `json:"isArchived"`
	GroupID    *int64 `json:"groupId"`
}

func (Portfolio) Kind() Kind { return KindPortfolio }

func (p Portfolio) OwnerID() int64 { return p.UserID }

func (p Portfolio) Field(name string) any {
	if v, ok := p.Meta.field(name); ok {
		return v
	}
	switch name {
	case "user_id":
		return p.UserID
	case "name":
		return p.Name
	case "descr":
		return p.Descr
	case "is_archived":
		return p.IsArchived
	case "group_id":
		return p.GroupID
	}
	return nil
}

type Strategy struct {
	Meta
	UserID     int64  `json:"userId"`
	Name       string `json:"name"`
	Descr      string `json:"descr"`
	IsArchived bool   `json:"isArchived"`
	GroupID    *int64 `json:"groupId"`
}

func (Strategy) Kind() Kind { return KindStrategy }

func (s Strategy) OwnerID() int64 { return s.UserID }

func (s Strategy) Field(name string) any {
	if v, ok := s.Meta.field(name); ok {
		return v
	}
	switch name {
	case "user_id":
		return s.UserID
	case "name":
		return s.Name
	case "descr":
		return s.Descr
	case "is_archived":
		return s.IsArchived
	case "group_id":
		return s.GroupID
	}
	return nil
}

type Position struct {
	Meta
	UserID      int64              `json:"userId"`
	Type        types.PositionType `json:"type"`
	Descr       string             `json:"descr"`
	GroupID     *int64             `json:"groupId"`
	PortfolioID *int64             `json:"portfolioId"`
	StrategyID  *int64             `json:"strategyId"`
}

func (Position) Kind() Kind { return KindPosition }

func (p Position) OwnerID() int64 { return p.UserID }

func (p Position) Field(name string) any {
	if v, ok := p.Meta.field(name); ok {
		return v
	}
	switch name {
	case "user_id":
		return p.UserID
	case "type":
		return string(p.Type)
	case "descr":
		return p.Descr
	case "group_id":
		return p.GroupID
	case "portfolio_id":
		return p.PortfolioID
	case "strategy_id":
		return p.StrategyID
	}
	return nil
}
