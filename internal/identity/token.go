package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// accessClaims is the payload of a provider access token. The subject claim
// carries the provider user id; the email claim is the address the account
// was registered with. Both are required by the reconciliation layer.
type accessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// TokenVerifier checks provider-issued HS256 access tokens against the
// provider's shared JWT secret. Verification is entirely local — no network
// traffic per request.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier creates a TokenVerifier with the given shared secret.
// The secret must match the one the provider signs with.
func NewTokenVerifier(secret string) (*TokenVerifier, error) {
	if len(secret) < 16 {
		return nil, errors.New("identity: JWT secret must be at least 16 characters")
	}
	return &TokenVerifier{secret: []byte(secret)}, nil
}

// Verify parses and verifies an access token and returns the identity it
// encodes. All failures collapse into ErrInvalidToken — the caller must not
// leak why a token was rejected.
//
// jwt.WithValidMethods pins the algorithm to HS256 so a token claiming
// alg=none (or an RSA public key confusion) is rejected outright.
func (v *TokenVerifier) Verify(tokenStr string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&accessClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("identity: unexpected signing method: %v", token.Header["alg"])
			}
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: bad claims", ErrInvalidToken)
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: token missing subject or email", ErrInvalidToken)
	}

	return &Identity{SubjectID: claims.Subject, Email: claims.Email}, nil
}

// signAccessToken issues an HS256 access token for the given subject and
// email. Used by LocalProvider; the hosted provider signs its own tokens.
func signAccessToken(secret []byte, subjectID, email string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(ttl)

	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email: email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("identity: signing token: %w", err)
	}
	return signed, expires, nil
}
