package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/covergrid/pulse/internal/auth"
	"github.com/covergrid/pulse/internal/core"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	h := APIKeyAuth("")(okHandler())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/articles", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with auth disabled, got %d", w.Code)
	}
}

func TestAPIKeyAuth_MissingKey(t *testing.T) {
	h := APIKeyAuth("secret-key")(okHandler())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/articles", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", w.Code)
	}
}

func TestAPIKeyAuth_WrongKey(t *testing.T) {
	h := APIKeyAuth("secret-key")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	req.Header.Set("X-API-Key", "wrong")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong key, got %d", w.Code)
	}
}

func TestAPIKeyAuth_ValidKey(t *testing.T) {
	h := APIKeyAuth("secret-key")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	req.Header.Set("X-API-Key", "secret-key")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with valid key, got %d", w.Code)
	}
}

func TestBearerAuth(t *testing.T) {
	issuer, err := auth.NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	token, err := issuer.Issue(core.User{Email: "dana@covergrid.com", Role: "editor"}, time.Now())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var gotEmail string
	h := BearerAuth(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		if !ok {
			t.Error("claims missing from context")
			return
		}
		gotEmail = claims.Subject
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotEmail != "dana@covergrid.com" {
		t.Errorf("unexpected subject: %s", gotEmail)
	}
}

func TestBearerAuth_Rejections(t *testing.T) {
	issuer, _ := auth.NewTokenIssuer("test-secret", time.Hour)
	h := BearerAuth(issuer)(okHandler())

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not-a-jwt"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", w.Code)
			}
		})
	}
}
