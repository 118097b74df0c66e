package positions

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

var positionFilter = httputil.FilterSpec{
	Fields: map[string]httputil.FilterField{
		"type":        {Column: "type", Type: httputil.FieldString},
		"groupId":     {Column: "group_id", Type: httputil.FieldInt},
		"portfolioId": {Column: "portfolio_id", Type: httputil.FieldInt},
		"strategyId":  {Column: "strategy_id", Type: httputil.FieldInt},
	},
	Sortable: map[string]string{"createdAt": "created_at", "type": "type"},
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	f, err := httputil.ParseFilter(r, positionFilter)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	items, err := h.svc.List(r.Context(), actor, f)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.ListResponse[model.Position]{Items: items})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	var in PositionInput
	if err := httputil.ReadJSON(r, &in); err != nil {
		httputil.BadRequest(w, err)
		return
	}
	p, err := h.svc.Create(r.Context(), actor, in)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	p, err := h.svc.Get(r.Context(), actor, id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	var patch PositionPatch
	if err := httputil.ReadJSON(r, &patch); err != nil {
		httputil.BadRequest(w, err)
		return
	}
	p, err := h.svc.Update(r.Context(), actor, id, patch)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
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
