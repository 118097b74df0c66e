package ledger

import (
	"net/http"

	"tradefolio/internal/httputil"
	"tradefolio/internal/model"
	"tradefolio/internal/policy"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

var transactionFilter = httputil.FilterSpec{
	Fields: map[string]httputil.FilterField{
		"type":         {Column: "type", Type: httputil.FieldString},
		"status":       {Column: "status", Type: httputil.FieldString},
		"fromWalletId": {Column: "from_wallet_id", Type: httputil.FieldInt},
		"fromAssetId":  {Column: "from_asset_id", Type: httputil.FieldInt},
		"toWalletId":   {Column: "to_wallet_id", Type: httputil.FieldInt},
		"toAssetId":    {Column: "to_asset_id", Type: httputil.FieldInt},
		"tradeOrderId": {Column: "trade_order_id", Type: httputil.FieldInt},
		"positionId":   {Column: "position_id", Type: httputil.FieldInt},
		"partialOfId":  {Column: "partial_of_id", Type: httputil.FieldInt},
		"feeOfId":      {Column: "fee_of_id", Type: httputil.FieldInt},
	},
	Presence: map[string]string{
		"settlement": "trade_order_id",
		"partial":    "partial_of_id",
		"fee":        "fee_of_id",
	},
	Sortable: map[string]string{"date": "date", "createdAt": "created_at"},
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	f, err := httputil.ParseFilter(r, transactionFilter)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	items, err := h.svc.List(r.Context(), actor, f)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.ListResponse[model.Transaction]{Items: items})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	var in TransactionInput
	if err := httputil.ReadJSON(r, &in); err != nil {
		httputil.BadRequest(w, err)
		return
	}
	t, err := h.svc.Create(r.Context(), actor, in)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	t, err := h.svc.Get(r.Context(), actor, id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	var p TransactionPatch
	if err := httputil.ReadJSON(r, &p); err != nil {
		httputil.BadRequest(w, err)
		return
	}
	t, err := h.svc.Update(r.Context(), actor, id, p)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	if err := h.svc.SoftDelete(r.Context(), actor, id); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Children(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	c, err := h.svc.Children(r.Context(), actor, id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}
