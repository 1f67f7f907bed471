package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func signTestToken(t *testing.T, secret string, method jwt.SigningMethod, claims models.JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(method, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims(issuer string, expiresIn time.Duration) models.JWTClaims {
	now := time.Now()
	return models.JWTClaims{
		UserID:        "user-1",
		Role:          models.RoleSchoolAdmin,
		InstitutionID: "inst-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}
}

func TestTokenServiceValidateToken(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "identity"})

	claims, err := svc.ValidateToken(signTestToken(t, "secret", jwt.SigningMethodHS256, validClaims("identity", time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "inst-1", claims.InstitutionID)
	assert.Equal(t, models.RoleSchoolAdmin, claims.Role)
}

func TestTokenServiceRejectsInvalidTokens(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "identity"})

	cases := map[string]string{
		"wrong secret": signTestToken(t, "other", jwt.SigningMethodHS256, validClaims("identity", time.Hour)),
		"wrong issuer": signTestToken(t, "secret", jwt.SigningMethodHS256, validClaims("someone", time.Hour)),
		"expired":      signTestToken(t, "secret", jwt.SigningMethodHS256, validClaims("identity", -time.Hour)),
		"wrong method": signTestToken(t, "secret", jwt.SigningMethodHS512, validClaims("identity", time.Hour)),
		"garbage":      "not-a-token",
		"missing role": signTestToken(t, "secret", jwt.SigningMethodHS256, func() models.JWTClaims {
			c := validClaims("identity", time.Hour)
			c.Role = ""
			return c
		}()),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
		})
	}
}
