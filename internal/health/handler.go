// Package health serves liveness, readiness and admin diagnostics.
package health

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"tradefolio/internal/apperr"
	"tradefolio/internal/httputil"
	"tradefolio/internal/policy"

	"github.com/jackc/pgx/v5/pgxpool"
)

const pingTimeout = time.Second

// Handler reports process and database state. pool is nil when the service
// runs on the in-memory store; readiness then only reflects the process.
type Handler struct {
	pool      *pgxpool.Pool
	store     string
	startedAt time.Time
	httpAddr  string
}

func NewHandler(pool *pgxpool.Pool, storeKind string, startedAt time.Time, httpAddr string) *Handler {
	start := startedAt.UTC()
	if start.IsZero() {
		start = time.Now().UTC()
	}
	return &Handler{
		pool:      pool,
		store:     strings.TrimSpace(storeKind),
		startedAt: start,
		httpAddr:  strings.TrimSpace(httpAddr),
	}
}

type liveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	UptimeSec int64  `json:"uptimeSec"`
	Uptime    string `json:"uptime"`
}

type readinessResponse struct {
	liveResponse
	Database databaseStats `json:"database"`
}

type databaseStats struct {
	Store     string     `json:"store"`
	Reachable bool       `json:"reachable"`
	PingMs    int64      `json:"pingMs"`
	Error     string     `json:"error,omitempty"`
	CheckedAt string     `json:"checkedAt"`
	Pool      *poolStats `json:"pool,omitempty"`
}

type poolStats struct {
	TotalConns        int32 `json:"totalConns"`
	IdleConns         int32 `json:"idleConns"`
	AcquiredConns     int32 `json:"acquiredConns"`
	ConstructingConns int32 `json:"constructingConns"`
	MaxConns          int32 `json:"maxConns"`
	AcquireCount      int64 `json:"acquireCount"`
	AcquireDurationMs int64 `json:"acquireDurationMs"`
}

type diagnosticsResponse struct {
	readinessResponse
	HTTPAddr   string `json:"httpAddr"`
	PID        int    `json:"pid"`
	Hostname   string `json:"hostname"`
	GoVersion  string `json:"goVersion"`
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heapAllocBytes"`
	NumGC      uint32 `json:"numGc"`
	Version    string `json:"version"`
}

func (h *Handler) live(now time.Time) liveResponse {
	uptime := now.Sub(h.startedAt)
	if uptime < 0 {
		uptime = 0
	}
	return liveResponse{
		Status:    "ok",
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(uptime.Seconds()),
		Uptime:    uptime.Truncate(time.Second).String(),
	}
}

func (h *Handler) collectDB(ctx context.Context, includePool bool) databaseStats {
	db := databaseStats{Store: h.store, Reachable: true}
	if h.pool == nil {
		db.CheckedAt = time.Now().UTC().Format(time.RFC3339)
		return db
	}
	if includePool {
		stat := h.pool.Stat()
		db.Pool = &poolStats{
			TotalConns:        stat.TotalConns(),
			IdleConns:         stat.IdleConns(),
			AcquiredConns:     stat.AcquiredConns(),
			ConstructingConns: stat.ConstructingConns(),
			MaxConns:          stat.MaxConns(),
			AcquireCount:      stat.AcquireCount(),
			AcquireDurationMs: stat.AcquireDuration().Milliseconds(),
		}
	}
	start := time.Now()
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := h.pool.Ping(pingCtx)
	cancel()
	db.PingMs = time.Since(start).Milliseconds()
	db.CheckedAt = time.Now().UTC().Format(time.RFC3339)
	if err != nil {
		db.Reachable = false
		db.Error = err.Error()
	}
	return db
}

// Live does not touch the database.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.live(time.Now().UTC()))
}

// Ready returns 503 when the database does not answer a ping.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	resp := readinessResponse{liveResponse: h.live(time.Now().UTC()), Database: h.collectDB(r.Context(), false)}
	status := http.StatusOK
	if !resp.Database.Reachable {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, resp)
}

// Diagnostics adds pool and runtime figures for administrators.
func (h *Handler) Diagnostics(w http.ResponseWriter, r *http.Request, actor policy.Actor) {
	if !actor.IsAdmin() {
		httputil.WriteError(w, r, apperr.Forbidden("diagnostics require the ADMIN role"))
		return
	}
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := diagnosticsResponse{
		readinessResponse: readinessResponse{liveResponse: h.live(time.Now().UTC()), Database: h.collectDB(r.Context(), true)},
		HTTPAddr:          h.httpAddr,
		PID:               os.Getpid(),
		GoVersion:         runtime.Version(),
		Goroutines:        runtime.NumGoroutine(),
		HeapAlloc:         mem.HeapAlloc,
		NumGC:             mem.NumGC,
	}
	if host, err := os.Hostname(); err == nil {
		resp.Hostname = host
	}
	if info, ok := debug.ReadBuildInfo(); ok && info != nil {
		resp.Version = strings.TrimSpace(info.Main.Version)
	}
	status := http.StatusOK
	if !resp.Database.Reachable {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, resp)
}
