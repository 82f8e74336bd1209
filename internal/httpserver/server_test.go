package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/blockduel/go-server/internal/match"
	"github.com/blockduel/go-server/internal/profile"
	"github.com/blockduel/go-server/internal/ws"
)

func newTestServer() *Server {
	profiles := profile.NewMemoryStore()
	hub := ws.NewHub()
	mgr := match.NewManager(hub, profiles)
	return New(nil, profiles, hub, mgr)
}

func TestHealth(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestNotFoundIsJSON(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error":"not_found"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestGatedRoutesRequireAuth(t *testing.T) {
	s := newTestServer()
	for _, path := range []string{"/profile/me", "/matches/mine", "/auth/me"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want 401", path, rec.Code)
		}
	}
}

func TestValidateSignup(t *testing.T) {
	cases := []struct {
		username string
		password string
		ok       bool
	}{
		{"alice", "longenough", true},
		{"al", "longenough", false},
		{"has space", "longenough", false},
		{"alice", "short", false},
		{"with_underscore9", "longenough", true},
	}
	for _, tc := range cases {
		err := validateSignup(tc.username, tc.password)
		if (err == nil) != tc.ok {
			t.Fatalf("validateSignup(%q, %q) = %v, want ok=%v", tc.username, tc.password, err, tc.ok)
		}
	}
}
