package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v4"
)

// TokenClaims are the registered claims carried by the identity service's
// access tokens.
type TokenClaims struct {
	jwt.RegisteredClaims
}

// TokenValidator verifies access tokens signed by the hosted identity
// service (HS256 over a shared secret).
type TokenValidator struct {
	method jwt.SigningMethod
	secret []byte
}

func NewTokenValidator(secret string) *TokenValidator {
	return &TokenValidator{method: jwt.SigningMethodHS256, secret: []byte(secret)}
}

func (v *TokenValidator) Verify(rawToken string) (TokenClaims, error) {
	var claims TokenClaims
	if _, err := jwt.ParseWithClaims(rawToken, &claims, v.keyFunc); err != nil {
		return TokenClaims{}, err
	}
	return claims, nil
}

func (v *TokenValidator) keyFunc(token *jwt.Token) (any, error) {
	if token.Method.Alg() != v.method.Alg() {
		return nil, errors.New("failed to verify signing algorithm")
	}
	return v.secret, nil
}
