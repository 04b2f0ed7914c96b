package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-service/internal/entity"
)

var testUser = &entity.User{ID: 7, Email: "ana@example.com", Username: "ana", Role: entity.RoleSeller, IsActive: true}

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, 24*time.Hour)

	pair, err := issuer.IssuePair(testUser)
	require.NoError(t, err)

	access, err := issuer.ParseAccess(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, int64(7), access.UserID)
	assert.Equal(t, "ana@example.com", access.Email)
	assert.Equal(t, "ana", access.Username)
	assert.Equal(t, entity.RoleSeller, access.Role)
	assert.Equal(t, TokenTypeAccess, access.TokenType)
	assert.NotEmpty(t, access.ID)

	refresh, err := issuer.Parse(pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
	assert.NotEqual(t, access.ID, refresh.ID)
	assert.True(t, refresh.ExpiresAt.After(access.ExpiresAt.Time))
}

func TestParseAccessRejectsRefreshToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, 24*time.Hour)
	pair, err := issuer.IssuePair(testUser)
	require.NoError(t, err)

	_, err = issuer.ParseAccess(pair.Refresh)
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", -time.Minute, time.Hour)
	pair, err := issuer.IssuePair(testUser)
	require.NoError(t, err)

	_, err = issuer.Parse(pair.Access)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	pair, err := NewTokenIssuer("other", time.Hour, time.Hour).IssuePair(testUser)
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", time.Hour, time.Hour).Parse(pair.Access)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	tkn := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{
		UserID:    1,
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := tkn.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", time.Hour, time.Hour).Parse(signed)
	assert.Error(t, err)
}
