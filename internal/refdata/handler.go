package refdata

import (
	"net/http"

	"tradefolio/internal/httputil"
	"tradefolio/internal/model"
	"tradefolio/internal/policy"
)

var assetFilter = httputil.FilterSpec{
	Fields: map[string]httputil.FilterField{
		"ticker": {Column: "ticker", Type: httputil.FieldString},
		"type":   {Column: "type", Type: httputil.FieldString},
	},
	Sortable: map[string]string{"ticker": "ticker", "name": "name", "createdAt": "created_at"},
}

var externalEntityFilter = httputil.FilterSpec{
	Fields: map[string]httputil.FilterField{
		"trademarkName": {Column: "trademark_name", Type: httputil.FieldString},
		"type":          {Column: "type", Type: httputil.FieldString},
	},
	Sortable: map[string]string{"trademarkName": "trademark_name", "createdAt": "created_at"},
}

var groupFilter = httputil.FilterSpec{
	Fields: map[string]httputil.FilterField{
		"type":   {Column: "type", Type: httputil.FieldString},
		"userId": {Column: "user_id", Type: httputil.FieldInt},
	},
	Sortable: map[string]string{"name": "name", "createdAt": "created_at"},
}

// AssetHandler serves /v1/assets.
type AssetHandler struct {
	svc *Service
}

func NewAssetHandler(svc *Service) *AssetHandler {
	return &AssetHandler{svc: svc}
}

func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	f, err := httputil.ParseFilter(r, assetFilter)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	items, err := h.svc.ListAssets(r.Context(), actor, f)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.ListResponse[model.Asset]{Items: items})
}

func (h *AssetHandler) Create(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	var in AssetInput
	if err := httputil.ReadJSON(r, &in); err != nil {
		httputil.BadRequest(w, err)
		return
	}
	a, err := h.svc.CreateAsset(r.Context(), actor, in)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, a)
}

func (h *AssetHandler) Get(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	a, err := h.svc.GetAsset(r.Context(), actor, id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *AssetHandler) Update(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	var p AssetPatch
	if err := httputil.ReadJSON(r, &p); err != nil {
		httputil.BadRequest(w, err)
		return
	}
	a, err := h.svc.UpdateAsset(r.Context(), actor, id, p)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *AssetHandler) Delete(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	if err := h.svc.DeleteAsset(r.Context(), actor, id); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExternalEntityHandler serves /v1/external-entities.
type ExternalEntityHandler struct {
	svc *Service
}

func NewExternalEntityHandler(svc *Service) *ExternalEntityHandler {
	return &ExternalEntityHandler{svc: svc}
}

func (h *ExternalEntityHandler) List(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	f, err := httputil.ParseFilter(r, externalEntityFilter)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	items, err := h.svc.ListExternalEntities(r.Context(), actor, f)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.ListResponse[model.ExternalEntity]{Items: items})
}

func (h *ExternalEntityHandler) Create(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	var in ExternalEntityInput
	if err := httputil.ReadJSON(r, &in); err != nil {
		httputil.BadRequest(w, err)
		return
	}
	e, err := h.svc.CreateExternalEntity(r.Context(), actor, in)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, e)
}

func (h *ExternalEntityHandler) Get(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	e, err := h.svc.GetExternalEntity(r.Context(), actor, id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

func (h *ExternalEntityHandler) Update(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	var p ExternalEntityPatch
	if err := httputil.ReadJSON(r, &p); err != nil {
		httputil.BadRequest(w, err)
		return
	}
	e, err := h.svc.UpdateExternalEntity(r.Context(), actor, id, p)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

func (h *ExternalEntityHandler) Delete(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	if err := h.svc.DeleteExternalEntity(r.Context(), actor, id); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GroupHandler serves /v1/groups.
type GroupHandler struct {
	svc *Service
}

func NewGroupHandler(svc *Service) *GroupHandler {
	return &GroupHandler{svc: svc}
}

func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	f, err := httputil.ParseFilter(r, groupFilter)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	items, err := h.svc.ListGroups(r.Context(), actor, f)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.ListResponse[model.Group]{Items: items})
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	var in GroupInput
	if err := httputil.ReadJSON(r, &in); err != nil {
		httputil.BadRequest(w, err)
		return
	}
	g, err := h.svc.CreateGroup(r.Context(), actor, in)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, g)
}

func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	g, err := h.svc.GetGroup(r.Context(), actor, id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, g)
}

func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	var p GroupPatch
	if err := httputil.ReadJSON(r, &p); err != nil {
		httputil.BadRequest(w, err)
		return
	}
	g, err := h.svc.UpdateGroup(r.Context(), actor, id, p)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, g)
}

func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	if err := h.svc.DeleteGroup(r.Context(), actor, id); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
