package model

import "tradefolio/internal/types"

type User struct {
	Meta
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         types.Role `json:"role"`
}

func (User) Kind() Kind { return KindUser }

func (u User) OwnerID() int64 { return u.ID }

func (u User) Field(name string) any {
	if v, ok := u.Meta.field(name); ok {
		return v
	}
	switch name {
	case "email":
		return u.Email
	case "role":
		return string(u.Role)
	}
	return nil
}

type Asset struct {
	Meta
	Ticker string          `json:"ticker"`
	Name   string          `json:"name"`
	Type   types.AssetType `json:"type"`
}

func (Asset) Kind() Kind { return KindAsset }

func (Asset) OwnerID() int64 { return 0 }

func (a Asset) Field(name string) any {
	if v, ok := a.Meta.field(name); ok {
		return v
	}
	switch name {
	case "ticker":
		return a.Ticker
	case "name":
		return a.Name
	case "type":
		return string(a.Type)
	}
	return nil
}

type ExternalEntity struct {
	Meta
	TrademarkName string                   `json:"trademarkName"`
	Type          types.ExternalEntityType `json:"type"`
	URL           string                   `json:"url"`
}

func (ExternalEntity) Kind() Kind { return KindExternalEntity }

func (ExternalEntity) OwnerID() int64 { return 0 }

func (e ExternalEntity) Field(name string) any {
	if v, ok := e.Meta.field(name); ok {
		return v
	}
	switch name {
	case "trademark_name":
		return e.TrademarkName
	case "type":
		return string(e.Type)
	case "url":
		return e.URL
	}
	return nil
}

type Group struct {
	Meta
	UserID int64           `json:"userId"`
	Name   string          `json:"name"`
	Descr  string          `json:"descr"`
	Type   types.GroupType `json:"type"`
}

func (Group) Kind() Kind { return KindGroup }

func (g Group) OwnerID() int64 { return g.UserID }

func (g Group) Field(name string) any {
	if v, ok := g.Meta.field(name); ok {
		return v
	}
	switch name {
	case "user_id":
		return g.UserID
	case "name":
		return g.Name
	case "descr":
		return g.Descr
	case "type":
		return string(g.Type)
	}
	return nil
}
