package portfolios

import (
	"net/http"

	"tradefolio/internal/httputil"
	"tradefolio/internal/model"
	"tradefolio/internal/policy"
)

var namedFilter = httputil.FilterSpec{
	Fields: map[string]httputil.FilterField{
		"name":       {Column: "name", Type: httputil.FieldString},
		"groupId":    {Column: "group_id", Type: httputil.FieldInt},
		"isArchived": {Column: "is_archived", Type: httputil.FieldBool},
	},
	Sortable: map[string]string{"name": "name", "createdAt": "created_at"},
}

// PortfolioHandler serves /v1/portfolios.
type PortfolioHandler struct {
	svc *Service
}

func NewPortfolioHandler(svc *Service) *PortfolioHandler {
	return &PortfolioHandler{svc: svc}
}

func (h *PortfolioHandler) List(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	f, err := httputil.ParseFilter(r, namedFilter)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	items, err := h.svc.ListPortfolios(r.Context(), actor, f)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.ListResponse[model.Portfolio]{Items: items})
}

func (h *PortfolioHandler) Create(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	var in Input
	if err := httputil.ReadJSON(r, &in); err != nil {
		httputil.BadRequest(w, err)
		return
	}
	p, err := h.svc.CreatePortfolio(r.Context(), actor, in)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *PortfolioHandler) Get(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	p, err := h.svc.GetPortfolio(r.Context(), actor, id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *PortfolioHandler) Update(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	var patch Patch
	if err := httputil.ReadJSON(r, &patch); err != nil {
		httputil.BadRequest(w, err)
		return
	}
	p, err := h.svc.UpdatePortfolio(r.Context(), actor, id, patch)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *PortfolioHandler) Delete(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	if err := h.svc.DeletePortfolio(r.Context(), actor, id); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StrategyHandler serves /v1/strategies.
type StrategyHandler struct {
	svc *Service
}

func NewStrategyHandler(svc *Service) *StrategyHandler {
	return &StrategyHandler{svc: svc}
}

func (h *StrategyHandler) List(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	f, err := httputil.ParseFilter(r, namedFilter)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	items, err := h.svc.ListStrategies(r.Context(), actor, f)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.ListResponse[model.Strategy]{Items: items})
}

func (h *StrategyHandler) Create(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	var in Input
	if err := httputil.ReadJSON(r, &in); err != nil {
		httputil.BadRequest(w, err)
		return
	}
	st, err := h.svc.CreateStrategy(r.Context(), actor, in)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, st)
}

func (h *StrategyHandler) Get(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	st, err := h.svc.GetStrategy(r.Context(), actor, id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

func (h *StrategyHandler) Update(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	var patch Patch
	if err := httputil.ReadJSON(r, &patch); err != nil {
		httputil.BadRequest(w, err)
		return
	}
	st, err := h.svc.UpdateStrategy(r.Context(), actor, id, patch)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

func (h *StrategyHandler) Delete(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	if err := h.svc.DeleteStrategy(r.Context(), actor, id); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
