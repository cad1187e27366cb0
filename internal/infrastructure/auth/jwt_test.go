package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iho/paisbank/internal/domain"
	"github.com/iho/paisbank/internal/infrastructure/auth"
)

func TestJWTManagerGenerateAndVerify(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("super-secret", time.Minute)

	principal := &domain.Principal{
		ID:    "user-123",
		Email: "user@example.com",
		Role:  "customer",
	}

	token, err := manager.Generate(principal)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	claims, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("expected token to verify, got %v", err)
	}

	if got := claims.Principal(); *got != *principal {
		t.Fatalf("expected claims to match principal, got %+v", got)
	}
}

func TestJWTManagerGenerateRequiresSubject(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("secret", time.Minute)
	if _, err := manager.Generate(&domain.Principal{}); err == nil {
		t.Fatalf("expected error for empty principal")
	}
}

func TestJWTManagerVerifyErrors(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("secret", time.Minute)

	expiredClaims := auth.Claims{
		Email: "expired@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "expired",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
			NotBefore: jwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
		},
	}

	expiredToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign expired token: %v", err)
	}

	if _, err := manager.Verify(expiredToken); err != domain.ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}

	otherManager := auth.NewJWTManager("other-secret", time.Minute)
	if _, err := otherManager.Verify(expiredToken); err == nil || err == domain.ErrExpiredToken {
		t.Fatalf("expected invalid token error, got %v", err)
	}

	if _, err := manager.Verify("not-a-token"); err != domain.ErrInvalidToken {
		t.Fatalf("expected failure for malformed token, got %v", err)
	}

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	if _, err := manager.Verify(noSubject); err != domain.ErrInvalidToken {
		t.Fatalf("expected subject-less token to be rejected, got %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, expiredClaims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to sign none token: %v", err)
	}
	if _, err := manager.Verify(none); err != domain.ErrInvalidToken {
		t.Fatalf("expected alg=none to be rejected, got %v", err)
	}
}
