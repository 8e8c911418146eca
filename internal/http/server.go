// Package http exposes the ledger over a JSON API.
package http

import (
	"context"
	"net/http"
	"strings"
	"sync"

	applog "splitledger/internal/log"
	"splitledger/internal/middleware/ratelimit"
	"splitledger/internal/middleware/trace"
	"splitledger/internal/services"
)

type Server struct {
	http.Server
	groups      *services.GroupExpenseService
	settlements *services.SettlementProcessor
	rateLimiter *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, groups *services.GroupExpenseService, settlements *services.SettlementProcessor, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		groups:      groups,
		settlements: settlements,
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/split/preview", s.handleSplitPreview)

	mux.HandleFunc("POST /api/groups", s.handleCreateGroup)
	mux.HandleFunc("GET /api/groups", s.handleListGroups)
	mux.HandleFunc("GET /api/groups/{id}", s.handleGetGroup)
	mux.HandleFunc("DELETE /api/groups/{id}", s.handleDeleteGroup)

	mux.HandleFunc("POST /api/groups/{id}/expenses", s.handleAddExpense)
	mux.HandleFunc("PUT /api/groups/{id}/expenses/{expenseID}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/groups/{id}/expenses/{expenseID}", s.handleDeleteExpense)

	mux.HandleFunc("POST /api/groups/{id}/payments", s.handleRecordPayment)
	mux.HandleFunc("DELETE /api/groups/{id}/payments/{paymentID}", s.handleDeletePayment)

	mux.HandleFunc("GET /api/groups/{id}/balances", s.handleBalances)
	mux.HandleFunc("POST /api/groups/{id}/recompute", s.handleRecompute)

	traceMW := trace.NewMiddleware(extractClientIP)
	rateMW := s.rateLimiter.Middleware(extractClientIP, nil)

	var handler http.Handler = mux
	handler = rateMW(handler)
	handler = traceMW.Middleware(handler)
	if logger != nil {
		handler = applog.Middleware(logger)(handler)
	}

	s.Server = http.Server{
		Addr:    addr,
		Handler: handler,
	}
	return s
}

// Shutdown stops the server and its background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// extractClientIP considers proxy headers before the raw remote
// address.
func extractClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if idx := strings.IndexByte(ip, ','); idx >= 0 {
			return strings.TrimSpace(ip[:idx])
		}
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
