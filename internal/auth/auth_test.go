package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenlabs/realm-tracker/internal/config"
	"github.com/wardenlabs/realm-tracker/internal/model"
)

func testService() *Service {
	return NewService(config.AuthConfig{
		Secret:         "test-secret-test-secret",
		TokenTTLHours:  1,
		MinPasswordLen: 10,
	})
}

func TestIssueAndVerifyToken(t *testing.T) {
	s := testService()
	user := &model.User{ID: "u-1", Username: "warden", Role: model.RoleAdmin}

	token, err := s.IssueToken(user)
	require.NoError(t, err)

	claims, err := s.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "warden", claims.Username)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.Equal(t, "u-1", claims.Subject)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	s := testService()
	other := NewService(config.AuthConfig{Secret: "a-different-secret-entirely"})

	token, err := other.IssueToken(&model.User{ID: "u-1", Username: "warden", Role: model.RoleViewer})
	require.NoError(t, err)

	_, err = s.VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyToken_Expired(t *testing.T) {
	s := testService()

	claims := Claims{
		Username: "warden",
		Role:     model.RoleViewer,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-test-secret"))
	require.NoError(t, err)

	_, err = s.VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyToken_Garbage(t *testing.T) {
	s := testService()
	_, err := s.VerifyToken("not.a.token")
	assert.Error(t, err)
}

func TestHashAndCheckPassword(t *testing.T) {
	s := testService()

	hash, err := s.HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.True(t, s.CheckPassword(hash, "correct horse battery"))
	assert.False(t, s.CheckPassword(hash, "wrong password!"))
}

func TestHashPassword_TooShort(t *testing.T) {
	s := testService()
	_, err := s.HashPassword("short")
	assert.Error(t, err)
}
