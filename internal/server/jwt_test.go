package server

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonathan/resume-memory/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func setupTestJWTService(_ *testing.T, expirationHours int) *JWTService {
	cfg := &config.JWTConfig{
		Secret:          testSecret,
		ExpirationHours: expirationHours,
	}
	return NewJWTService(cfg)
}

func TestJWTService_GenerateToken(t *testing.T) {
	service := setupTestJWTService(t, 24)

	token, err := service.GenerateToken("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parts := strings.Split(token, ".")
	assert.Equal(t, 3, len(parts), "JWT should have 3 parts separated by dots")
}

func TestJWTService_GenerateToken_ContainsUserID(t *testing.T) {
	service := setupTestJWTService(t, 24)

	token, err := service.GenerateToken("user-1")
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user-1", claims.GetUserID())
	assert.Equal(t, "user-1", claims.Subject)
}

func TestJWTService_GenerateToken_RequiresUserID(t *testing.T) {
	service := setupTestJWTService(t, 24)

	_, err := service.GenerateToken("   ")
	assert.Error(t, err)
}

func TestJWTService_GenerateToken_Expiration(t *testing.T) {
	service := setupTestJWTService(t, 2)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return fixed }

	token, err := service.GenerateToken("user-1")
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(2*time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, fixed.Unix(), claims.IssuedAt.Unix())
}

func TestJWTService_ValidateToken_Expired(t *testing.T) {
	service := setupTestJWTService(t, 1)
	issued := time.Now().Add(-3 * time.Hour)
	service.now = func() time.Time { return issued }

	token, err := service.GenerateToken("user-1")
	require.NoError(t, err)

	service.now = time.Now
	_, err = service.ValidateToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token expired")
}

func TestJWTService_ValidateToken_WrongSecret(t *testing.T) {
	service := setupTestJWTService(t, 24)
	token, err := service.GenerateToken("user-1")
	require.NoError(t, err)

	other := NewJWTService(&config.JWTConfig{Secret: "another-secret-key-that-is-long-enough", ExpirationHours: 24})
	_, err = other.ValidateToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token signature")
}

func TestJWTService_ValidateToken_Malformed(t *testing.T) {
	service := setupTestJWTService(t, 24)

	_, err := service.ValidateToken("")
	assert.Error(t, err)

	_, err = service.ValidateToken("not.a.jwt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed token")
}

func TestJWTService_ValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	service := setupTestJWTService(t, 24)
	claims := &Claims{UserID: "user-1", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_ValidateToken_FallsBackToSubject(t *testing.T) {
	service := setupTestJWTService(t, 24)
	token := signTestClaims(t, jwt.RegisteredClaims{
		Issuer:    TokenIssuer,
		Subject:   "user-sub",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	got, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-sub", got.UserID)
}

func TestJWTService_ValidateToken_RejectsForeignClaims(t *testing.T) {
	service := setupTestJWTService(t, 24)
	expires := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name   string
		claims jwt.RegisteredClaims
		want   string
	}{
		{"other issuer", jwt.RegisteredClaims{Issuer: "someone-else", Subject: "u", ExpiresAt: expires}, "invalid token issuer"},
		{"no expiry", jwt.RegisteredClaims{Issuer: TokenIssuer, Subject: "u"}, "failed to parse token"},
		{"no user", jwt.RegisteredClaims{Issuer: TokenIssuer, ExpiresAt: expires}, "no user ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ValidateToken(signTestClaims(t, tt.claims))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func signTestClaims(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestJWTService_AsTokenValidator(t *testing.T) {
	service := setupTestJWTService(t, 24)
	token, err := service.GenerateToken("user-1")
	require.NoError(t, err)

	getter, err := service.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", getter.GetUserID())

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, TokenIssuer, claims.Issuer)

	_, err = service.AsTokenValidator().ValidateToken("garbage")
	assert.Error(t, err)
}
