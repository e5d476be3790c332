package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"account-console/internal/httpjson"
	"account-console/internal/server/middleware"
)

// Routes mounts a group of endpoints on a router.
type Routes interface {
	Register(r *mux.Router)
}

// Prober reports whether the backing store is reachable.
type Prober interface {
	Probe(ctx context.Context) error
}

// HTTPDeps holds the handlers and services used by the HTTP router. Nil route groups are skipped.
// A nil Tokens leaves /api/* unauthenticated.
type HTTPDeps struct {
	Accounts Routes
	Messages Routes
	Login    Routes
	Health   Prober
	Tokens   middleware.TokenValidator
	Log      *zap.Logger
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// NewRouter builds the JSON API router: /health is public, every /api/* route passes the auth
// middleware. All matched routes are traced, counted and logged.
func NewRouter(deps HTTPDeps) http.Handler {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := mux.NewRouter()
	r.Use(middleware.Recover(log), middleware.Telemetry(log))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httpjson.Error(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httpjson.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/health", healthHandler(deps.Health)).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	api.Use(middleware.Auth(deps.Tokens))
	for _, routes := range []Routes{deps.Accounts, deps.Messages, deps.Login} {
		if routes != nil {
			routes.Register(api)
		}
	}
	return r
}

func healthHandler(prober Prober) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if prober == nil {
			httpjson.Write(w, http.StatusOK, healthResponse{Status: "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := prober.Probe(ctx); err != nil {
			httpjson.Write(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: err.Error()})
			return
		}
		httpjson.Write(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}

// NewHTTPServer wraps handler in an http.Server with conservative timeouts. WriteTimeout stays unset
// so slow clients on long API calls are not cut off.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
