package orders

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

var orderFilter = httputil.FilterSpec{
	Fields: map[string]httputil.FilterField{
		"action":       {Column: "action", Type: httputil.FieldString},
		"status":       {Column: "status", Type: httputil.FieldString},
		"positionId":   {Column: "position_id", Type: httputil.FieldInt},
		"fromWalletId": {Column: "from_wallet_id", Type: httputil.FieldInt},
		"fromAssetId":  {Column: "from_asset_id", Type: httputil.FieldInt},
		"toWalletId":   {Column: "to_wallet_id", Type: httputil.FieldInt},
		"toAssetId":    {Column: "to_asset_id", Type: httputil.FieldInt},
	},
	Presence: map[string]string{"expiring": "expiration_date"},
	Sortable: map[string]string{"openDate": "open_date", "expirationDate": "expiration_date", "createdAt": "created_at"},
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	f, err := httputil.ParseFilter(r, orderFilter)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	items, err := h.svc.List(r.Context(), actor, f)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.ListResponse[model.TradeOrder]{Items: items})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	var in TradeOrderInput
	if err := httputil.ReadJSON(r, &in); err != nil {
		httputil.BadRequest(w, err)
		return
	}
	o, err := h.svc.Create(r.Context(), actor, in)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, o)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	o, err := h.svc.Get(r.Context(), actor, id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	var patch TradeOrderPatch
	if err := httputil.ReadJSON(r, &patch); err != nil {
		httputil.BadRequest(w, err)
		return
	}
	o, err := h.svc.Update(r.Context(), actor, id, patch)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, o)
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

func (h *Handler) Transition(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	var in TransitionInput
	if err := httputil.ReadJSON(r, &in); err != nil {
		httputil.BadRequest(w, err)
		return
	}
	o, err := h.svc.Transition(r.Context(), actor, id, in)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, o)
}
