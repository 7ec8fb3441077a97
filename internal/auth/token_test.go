package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/covergrid/pulse/internal/core"
)

func TestNewTokenIssuer_RequiresSecret(t *testing.T) {
	if _, err := NewTokenIssuer("", time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}

	user := core.User{Email: "dana@covergrid.com", Name: "Dana", Role: "editor"}
	token, err := issuer.Issue(user, time.Now())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "dana@covergrid.com" {
		t.Errorf("unexpected subject: %s", claims.Subject)
	}
	if claims.Role != "editor" {
		t.Errorf("unexpected role: %s", claims.Role)
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}

	token, err := issuer.Issue(core.User{Email: "a@b.com"}, time.Now().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := issuer.Verify(token); !errors.Is(err, core.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for expired token, got %v", err)
	}
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	a, _ := NewTokenIssuer("secret-a", time.Hour)
	b, _ := NewTokenIssuer("secret-b", time.Hour)

	token, err := a.Issue(core.User{Email: "a@b.com"}, time.Now())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := b.Verify(token); !errors.Is(err, core.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for wrong secret, got %v", err)
	}
}

func TestTokenIssuer_Garbage(t *testing.T) {
	issuer, _ := NewTokenIssuer("test-secret", time.Hour)
	if _, err := issuer.Verify("not.a.token"); !errors.Is(err, core.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}
