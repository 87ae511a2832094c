package auth

import (
	"testing"
	"time"

	"uniform-service/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestGenerateAndValidate(t *testing.T) {
	token, err := GenerateToken(secret, 42, models.RoleAdministrator)
	require.NoError(t, err)

	claims, err := ValidateToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.RequesterID)
	assert.True(t, claims.IsAdmin())
	assert.Equal(t, "42", claims.Subject)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken(secret, 42, models.RoleStandard)
	require.NoError(t, err)

	_, err = ValidateToken("other-secret", token)
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	claims := Claims{
		RequesterID: 1,
		Role:        models.RoleStandard,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = ValidateToken(secret, token)
	assert.Error(t, err)
}

func TestValidateRejectsUnknownRole(t *testing.T) {
	token, err := GenerateToken(secret, 3, "superadmin")
	require.NoError(t, err)

	_, err = ValidateToken(secret, token)
	assert.ErrorContains(t, err, "unknown role")
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := ValidateToken(secret, "not-a-token")
	assert.Error(t, err)
}
