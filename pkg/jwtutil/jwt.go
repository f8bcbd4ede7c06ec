package jwtutil

import (
	"errors"
	"time"

	"identity-service/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

var (
	signingKey = []byte("secret-key")
	issuer     string
)

// AccessClaims are the claims carried by a provider-issued access token.
// The subject is the identity key of the authenticated account.
type AccessClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Initialize configures the package with the provider's token settings
func Initialize(cfg *config.JWTConfig) {
	signingKey = []byte(cfg.SigningKey)
	issuer = cfg.Issuer
}

// GenerateToken creates a signed access token for the given identity. The
// provider issues tokens in production; this exists for local development
// and tests.
func GenerateToken(identity, email string) (string, error) {
	claims := AccessClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 1)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey)
}

// ValidateToken validates and parses a provider-issued access token
func ValidateToken(tokenString string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return signingKey, nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}

	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	if issuer != "" && claims.Issuer != issuer {
		return nil, errors.New("unexpected token issuer")
	}

	return claims, nil
}
