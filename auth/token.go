package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminClaims is the payload of an admin session token.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates admin session tokens. The signing
// key comes from configuration; there is no process-wide default.
type TokenManager struct {
	key []byte
	ttl time.Duration
}

func NewTokenManager(key []byte, ttl time.Duration) TokenManager {
	return TokenManager{key: key, ttl: ttl}
}

// Generate creates a signed HS256 token carrying the admin role.
func (m TokenManager) Generate() (string, error) {
	now := time.Now()
	claims := &AdminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "afterhours",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.key)
}

// Validate parses the token and checks signature, expiry and role.
func (m TokenManager) Validate(tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return m.key, nil
		})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid || claims.Role != "admin" {
		return nil, jwt.ErrSignatureInvalid
	}
	return claims, nil
}
