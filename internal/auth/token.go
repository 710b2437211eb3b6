package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers bad signatures, malformed tokens, unexpected
	// algorithms, expired tokens and tokens without an identity claim.
	ErrInvalidToken   = errors.New("invalid token")
	ErrSecretRequired = errors.New("jwt secret is required")
	ErrSecretTooShort = errors.New("jwt secret must be at least 16 bytes")
)

const minSecretLen = 16

// Claims binds a bearer token to an identity. The claim is named "id" so
// tokens stay compatible with existing clients.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
}

// TokenService issues and verifies HS256 bearer tokens with an injected secret.
// A zero TTL issues tokens without an exp claim.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, ErrSecretRequired
	}
	if len(secret) < minSecretLen {
		return nil, ErrSecretTooShort
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}, nil
}

// Issue creates a signed token for identityID.
func (s *TokenService) Issue(identityID string) (string, error) {
	if identityID == "" {
		return "", fmt.Errorf("issue token: empty identity")
	}
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(now)},
		UserID:           identityID,
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks the signature and returns the embedded identity id.
// The payload is only read after the signature has been validated.
func (s *TokenService) Verify(token string) (string, error) {
	claims := &Claims{}
	parsed, err := s.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}
