package auth

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

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	UserID      int64  `json:"userId,omitempty"`
	AccessToken string `json:"accessToken"`
}

var userFilter = httputil.FilterSpec{
	Fields: map[string]httputil.FilterField{
		"email": {Column: "email", Type: httputil.FieldString},
		"role":  {Column: "role", Type: httputil.FieldString},
	},
	Sortable: map[string]string{"createdAt": "created_at", "email": "email"},
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.BadRequest(w, err)
		return
	}
	u, err := h.svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, tokenResponse{UserID: u.ID, AccessToken: token})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.BadRequest(w, err)
		return
	}
	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: token})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	u, err := h.svc.GetUser(r.Context(), actor, actor.UserID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	f, err := httputil.ParseFilter(r, userFilter)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	users, err := h.svc.ListUsers(r.Context(), actor, f)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.ListResponse[model.User]{Items: users})
}
