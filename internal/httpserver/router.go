// Package httpserver assembles the HTTP surface: middleware and routes.
package httpserver

import (
	"log/slog"
	"net/http"

	"tradefolio/internal/auth"
	"tradefolio/internal/health"
	"tradefolio/internal/httputil"
	"tradefolio/internal/ledger"
	"tradefolio/internal/orders"
	"tradefolio/internal/policy"
	"tradefolio/internal/portfolios"
	"tradefolio/internal/positions"
	"tradefolio/internal/refdata"
	"tradefolio/internal/wallets"

	"github.com/go-chi/chi/v5"
)

type RouterDeps struct {
	Auth                  Authenticator
	AuthHandler           *auth.Handler
	HealthHandler         *health.Handler
	WalletHandler         *wallets.Handler
	AssetHandler          *refdata.AssetHandler
	ExternalEntityHandler *refdata.ExternalEntityHandler
	GroupHandler          *refdata.GroupHandler
	PortfolioHandler      *portfolios.PortfolioHandler
	StrategyHandler       *portfolios.StrategyHandler
	PositionHandler       *positions.Handler
	OrderHandler          *orders.Handler
	TransactionHandler    *ledger.Handler
	EventsWSHandler       http.Handler
	Logger                *slog.Logger
	CORSOrigin            string
	RateLimiter           *RateLimiter
}

// crud is the route set every entity resource shares.
type crud interface {
	List(http.ResponseWriter, *http.Request, policy.Actor)
	Create(http.ResponseWriter, *http.Request, policy.Actor)
	Get(http.ResponseWriter, *http.Request, policy.Actor)
	Update(http.ResponseWriter, *http.Request, policy.Actor)
	Delete(http.ResponseWriter, *http.Request, policy.Actor)
}

func mountCRUD(r chi.Router, h crud, extra func(r chi.Router)) {
	r.Get("/", withActor(h.List))
	r.Post("/", withActor(h.Create))
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", withActor(h.Get))
		r.Patch("/", withActor(h.Update))
		r.Delete("/", withActor(h.Delete))
		if extra != nil {
			extra(r)
		}
	})
}

func NewRouter(d RouterDeps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(AccessLog(logger))
	r.Use(CORS(d.CORSOrigin))
	r.Use(SecurityHeaders)
	if d.RateLimiter != nil {
		r.Use(d.RateLimiter.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, httputil.ErrorResponse{Error: "method not allowed"})
	})

	r.Get("/health", d.HealthHandler.Ready)
	r.Get("/health/live", d.HealthHandler.Live)
	r.Get("/health/ready", d.HealthHandler.Ready)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", d.AuthHandler.Register)
			r.Post("/login", d.AuthHandler.Login)
		})
		if d.EventsWSHandler != nil {
			r.Get("/ws", d.EventsWSHandler.ServeHTTP)
		}
		r.Group(func(r chi.Router) {
			r.Use(WithAuth(d.Auth))
			r.Get("/me", withActor(d.AuthHandler.Me))
			r.Route("/admin", func(r chi.Router) {
				r.Get("/users", withActor(d.AuthHandler.ListUsers))
				r.Get("/health", withActor(d.HealthHandler.Diagnostics))
			})
			r.Route("/wallets", func(r chi.Router) {
				mountCRUD(r, d.WalletHandler, func(r chi.Router) {
					r.Get("/balances", withActor(d.WalletHandler.Balances))
					r.Get("/balances/{assetId}", withActor(d.WalletHandler.Balance))
				})
			})
			r.Route("/assets", func(r chi.Router) { mountCRUD(r, d.AssetHandler, nil) })
			r.Route("/external-entities", func(r chi.Router) { mountCRUD(r, d.ExternalEntityHandler, nil) })
			r.Route("/groups", func(r chi.Router) { mountCRUD(r, d.GroupHandler, nil) })
			r.Route("/portfolios", func(r chi.Router) { mountCRUD(r, d.PortfolioHandler, nil) })
			r.Route("/strategies", func(r chi.Router) { mountCRUD(r, d.StrategyHandler, nil) })
			r.Route("/positions", func(r chi.Router) { mountCRUD(r, d.PositionHandler, nil) })
			r.Route("/trade-orders", func(r chi.Router) {
				mountCRUD(r, d.OrderHandler, func(r chi.Router) {
					r.Post("/transition", withActor(d.OrderHandler.Transition))
				})
			})
			r.Route("/transactions", func(r chi.Router) {
				mountCRUD(r, d.TransactionHandler, func(r chi.Router) {
					r.Get("/children", withActor(d.TransactionHandler.Children))
				})
			})
		})
	})
	return r
}
