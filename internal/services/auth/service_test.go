package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	manager := NewJWTManager("test-secret")
	service := NewService(manager)

	token, expiresAt, err := manager.GenerateAccessToken("user_42", 15*time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("token must expire in the future")
	}

	claims, err := service.ValidateAccessToken(context.Background(), token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.UserID != "user_42" {
		t.Fatalf("unexpected user id: %q", claims.UserID)
	}
}

func TestExpiredTokenIsRejected(t *testing.T) {
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	issuer := NewJWTManager("test-secret")
	issuer.now = func() time.Time { return issued }

	token, _, err := issuer.GenerateAccessToken("user_42", time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	verifier := NewJWTManager("test-secret")
	verifier.now = func() time.Time { return issued.Add(2 * time.Minute) }

	if _, err := verifier.ParseAccessToken(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestWrongSecretIsRejected(t *testing.T) {
	issuer := NewJWTManager("secret-a")
	token, _, err := issuer.GenerateAccessToken("user_42", time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	verifier := NewJWTManager("secret-b")
	if _, err := verifier.ParseAccessToken(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestEmptyTokenIsRejected(t *testing.T) {
	manager := NewJWTManager("test-secret")
	if _, err := manager.ParseAccessToken("  "); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestIdentityContextRoundTrip(t *testing.T) {
	ctx := WithIdentity(context.Background(), Identity{UserID: "user_42"})

	identity, ok := IdentityFromContext(ctx)
	if !ok || identity.UserID != "user_42" {
		t.Fatalf("unexpected identity: %+v ok=%v", identity, ok)
	}

	if _, ok := IdentityFromContext(context.Background()); ok {
		t.Fatalf("empty context must not carry an identity")
	}
}
