package auth_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kamaumbugua/userhub/internal/auth"
	"github.com/kamaumbugua/userhub/internal/domain/user"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	m := auth.NewManager("test-secret-key", time.Hour)

	token, err := m.Sign(1, "jo@example.com", user.RoleUser)

	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	claims, err := m.Verify(token)

	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if claims.UserID != 1 {
		t.Fatalf("got user id %d, want 1", claims.UserID)
	}

	if claims.Email != "jo@example.com" {
		t.Fatalf("got email %q, want jo@example.com", claims.Email)
	}

	if claims.Role != user.RoleUser {
		t.Fatalf("got role %q, want user", claims.Role)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	// Negative TTL puts the expiry claim in the past at signing time.
	m := auth.NewManager("test-secret-key", -time.Minute)

	token, err := m.Sign(1, "jo@example.com", user.RoleUser)

	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	_, err = m.Verify(token)

	if !errors.Is(err, auth.ErrTokenExpired) {
		t.Fatalf("got %v, want ErrTokenExpired", err)
	}
}

func TestVerifyTamperedToken(t *testing.T) {
	m := auth.NewManager("test-secret-key", time.Hour)

	token, err := m.Sign(1, "jo@example.com", user.RoleUser)

	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	// flip one character in the payload segment
	parts := strings.Split(token, ".")

	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", token)
	}

	payload := []byte(parts[1])

	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}

	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	_, err = m.Verify(tampered)

	if !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("got %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	signer := auth.NewManager("secret-a", time.Hour)
	verifier := auth.NewManager("secret-b", time.Hour)

	token, err := signer.Sign(7, "admin@example.com", user.RoleAdmin)

	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	_, err = verifier.Verify(token)

	if !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("got %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	m := auth.NewManager("test-secret-key", time.Hour)

	_, err := m.Verify("not.a.token")

	if !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("got %v, want ErrTokenInvalid", err)
	}
}
