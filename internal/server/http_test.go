package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
)

type fakeRoutes struct{}

func (fakeRoutes) Register(r *mux.Router) {
	r.HandleFunc("/api/accounts", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}).Methods(http.MethodGet)
}

type fakeProber struct{ err error }

func (p fakeProber) Probe(ctx context.Context) error { return p.err }

type fakeTokens struct{}

func (fakeTokens) Validate(token string) (string, error) {
	if token == "good" {
		return "operator", nil
	}
	return "", errors.New("invalid")
}

func serve(h http.Handler, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewRouter_Health(t *testing.T) {
	testCases := []struct {
		name   string
		prober Prober
		code   int
		status string
	}{
		{"no prober", nil, http.StatusOK, "ok"},
		{"healthy", fakeProber{}, http.StatusOK, "ok"},
		{"unhealthy", fakeProber{err: errors.New("db down")}, http.StatusServiceUnavailable, "unavailable"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewRouter(HTTPDeps{Health: tc.prober, Tokens: fakeTokens{}})
			rec := serve(h, http.MethodGet, "/health", "")
			if rec.Code != tc.code {
				t.Fatalf("code = %d, want %d", rec.Code, tc.code)
			}
			var body healthResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != tc.status {
				t.Errorf("status = %q, want %q", body.Status, tc.status)
			}
		})
	}
}

func TestNewRouter_AuthOnAPI(t *testing.T) {
	h := NewRouter(HTTPDeps{Accounts: fakeRoutes{}, Tokens: fakeTokens{}})

	if rec := serve(h, http.MethodGet, "/api/accounts", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: code = %d, want 401", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/api/accounts", "Bearer bad"); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: code = %d, want 401", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/api/accounts", "Bearer good"); rec.Code != http.StatusOK {
		t.Errorf("good token: code = %d, want 200", rec.Code)
	}
}

func TestNewRouter_AuthDisabled(t *testing.T) {
	h := NewRouter(HTTPDeps{Accounts: fakeRoutes{}})
	if rec := serve(h, http.MethodGet, "/api/accounts", ""); rec.Code != http.StatusOK {
		t.Errorf("code = %d, want 200", rec.Code)
	}
}

func TestNewRouter_NotFound(t *testing.T) {
	h := NewRouter(HTTPDeps{Accounts: fakeRoutes{}})

	rec := serve(h, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %d, want 404", rec.Code)
	}
	if rec.Body.String() != "{\"error\":\"not found\"}\n" {
		t.Errorf("body = %q", rec.Body.String())
	}
}
