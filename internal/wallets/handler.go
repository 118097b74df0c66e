package wallets

import (
	"net/http"

	"tradefolio/internal/httputil"
	"tradefolio/internal/ledger"
	"tradefolio/internal/model"
	"tradefolio/internal/policy"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

var walletFilter = httputil.FilterSpec{
	Fields: map[string]httputil.FilterField{
		"name":             {Column: "name", Type: httputil.FieldString},
		"externalEntityId": {Column: "external_entity_id", Type: httputil.FieldInt},
		"isArchived":       {Column: "is_archived", Type: httputil.FieldBool},
	},
	Sortable: map[string]string{"name": "name", "createdAt": "created_at"},
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	f, err := httputil.ParseFilter(r, walletFilter)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	items, err := h.svc.List(r.Context(), actor, f)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.ListResponse[model.Wallet]{Items: items})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	var in WalletInput
	if err := httputil.ReadJSON(r, &in); err != nil {
		httputil.BadRequest(w, err)
		return
	}
	wallet, err := h.svc.Create(r.Context(), actor, in)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, wallet)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	wallet, err := h.svc.Get(r.Context(), actor, id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, wallet)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	var p WalletPatch
	if err := httputil.ReadJSON(r, &p); err != nil {
		httputil.BadRequest(w, err)
		return
	}
	wallet, err := h.svc.Update(r.Context(), actor, id, p)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, wallet)
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

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	assetID, err := httputil.PathID(r, "assetId")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	b, err := h.svc.Balance(r.Context(), actor, id, assetID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) Balances(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	items, err := h.svc.Balances(r.Context(), actor, id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.ListResponse[ledger.Balance]{Items: items})
}
