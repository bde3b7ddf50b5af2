package auth

import (
	"errors"
	"testing"
	"time"

	"corebank/internal/common"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	tok, err := GenerateToken(42, []string{"CUSTOMER"}, secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	claims, err := ParseToken(tok, secret)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("userID mismatch: got %d want 42", claims.UserID)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "CUSTOMER" {
		t.Fatalf("roles mismatch: %v", claims.Roles)
	}
	if claims.ID == "" {
		t.Fatalf("expected a jti to be set")
	}
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")

	tok, err := GenerateToken(1, nil, secret, -1*time.Second)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	if _, err := ParseToken(tok, secret); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken for expired token, got %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(1, nil, []byte("right"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	if _, err := ParseToken(tok, []byte("wrong")); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestParseToken_Garbage(t *testing.T) {
	t.Parallel()

	if _, err := ParseToken("not.a.token", []byte("secret")); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken for garbage input, got %v", err)
	}

	// jti must differ between tokens so revocation stays per-session.
	a, _ := GenerateToken(1, nil, []byte("secret"), time.Hour)
	b, _ := GenerateToken(1, nil, []byte("secret"), time.Hour)
	ca, _ := ParseToken(a, []byte("secret"))
	cb, _ := ParseToken(b, []byte("secret"))
	if ca.ID == cb.ID {
		t.Fatalf("expected distinct jti values")
	}
}
