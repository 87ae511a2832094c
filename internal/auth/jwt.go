package auth

import (
	"errors"
	"fmt"
	"time"

	"uniform-service/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims identify the calling requester. Tokens are issued by the identity
// service; this service only validates them.
type Claims struct {
	RequesterID int64       `json:"requester_id"`
	Role        models.Role `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the caller holds the administrator role
func (c *Claims) IsAdmin() bool {
	return c.Role == models.RoleAdministrator
}

// TokenExpiry is the lifetime of tokens minted by GenerateToken
const TokenExpiry = 12 * time.Hour

// GenerateToken signs a token for a requester. Used by tests and local tooling.
func GenerateToken(secret string, requesterID int64, role models.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		RequesterID: requesterID,
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   fmt.Sprintf("%d", requesterID),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates an HMAC-signed token
func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.RequesterID <= 0 {
		return nil, errors.New("token carries no requester")
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("token carries unknown role %q", claims.Role)
	}
	return claims, nil
}
