package identity

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewTokenVerifierShortSecret(t *testing.T) {
	if _, err := NewTokenVerifier("short"); err == nil {
		t.Error("NewTokenVerifier() accepted a secret under 16 characters")
	}
}

func TestTokenVerifierRoundTrip(t *testing.T) {
	v, err := NewTokenVerifier(testSecret)
	if err != nil {
		t.Fatalf("NewTokenVerifier() error = %v", err)
	}

	token, _, err := signAccessToken([]byte(testSecret), "s1", "x@test", time.Hour)
	if err != nil {
		t.Fatalf("signAccessToken() error = %v", err)
	}

	ident, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if ident.SubjectID != "s1" || ident.Email != "x@test" {
		t.Errorf("Verify() = %+v, want subject s1 email x@test", ident)
	}
}

func TestTokenVerifierRejections(t *testing.T) {
	v, err := NewTokenVerifier(testSecret)
	if err != nil {
		t.Fatalf("NewTokenVerifier() error = %v", err)
	}

	expired, _, err := signAccessToken([]byte(testSecret), "s1", "x@test", -time.Minute)
	if err != nil {
		t.Fatalf("signAccessToken() error = %v", err)
	}

	wrongSecret, _, err := signAccessToken([]byte("another-secret-9876543210"), "s1", "x@test", time.Hour)
	if err != nil {
		t.Fatalf("signAccessToken() error = %v", err)
	}

	// Valid signature but no email claim — unusable for reconciliation.
	noEmail := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "s1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	noEmailToken, err := noEmail.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"expired token", expired},
		{"wrong secret", wrongSecret},
		{"garbage", "not.a.jwt"},
		{"missing email claim", noEmailToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}
