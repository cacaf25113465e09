// Package auth issues and verifies access tokens and validates external
// identity assertions.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fairytaleapp/fairytale-server/internal/domain"
	apperrors "github.com/fairytaleapp/fairytale-server/internal/errors"
)

// Claims carries the identity embedded in an access token.
type Claims struct {
	jwt.RegisteredClaims
	UserID  string `json:"uid"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	IsAdmin bool   `json:"admin,omitempty"`
}

// TokenService issues and verifies HS256 access tokens.
type TokenService struct {
	signingKey []byte
	issuer     string
	audience   string
	duration   time.Duration
}

// NewTokenService creates a TokenService.
func NewTokenService(signingKey []byte, issuer, audience string, duration time.Duration) *TokenService {
	return &TokenService{
		signingKey: signingKey,
		issuer:     issuer,
		audience:   audience,
		duration:   duration,
	}
}

// Issue signs a token for the user with the configured issuer, audience,
// and lifetime.
func (s *TokenService) Issue(user *domain.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.duration)),
		},
		UserID:  user.ID,
		Email:   user.Email,
		Name:    user.Name,
		IsAdmin: user.IsAdmin,
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeInternal, "sign token")
	}
	return signed, nil
}

// Verify parses and validates a token string and returns its claims.
// Expired, mis-issued, or tampered tokens yield an UNAUTHORIZED error.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return s.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid token").WithCause(err)
	}
	if !token.Valid {
		return nil, apperrors.Unauthorized("invalid token")
	}
	return claims, nil
}
