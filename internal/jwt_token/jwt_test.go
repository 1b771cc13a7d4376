package jwttoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
)

var jwtService = NewJWTService("test-signing-key", "test-issuer")
var userID = id.UserID(uuid.New())
var roles = []string{"OWNER"}
var expiresIn = time.Hour

func Test_GenerateAccessToken(t *testing.T) {
	token, issued, err := jwtService.GenerateAccessToken(userID, roles, expiresIn)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, roles, claims.Roles)
	assert.Equal(t, issued.ID, claims.ID)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(expiresIn), claims.ExpiresAt.Time, time.Minute)
}

func Test_GenerateAccessToken_UniqueJTI(t *testing.T) {
	_, a, err := jwtService.GenerateAccessToken(userID, roles, expiresIn)
	require.NoError(t, err)
	_, b, err := jwtService.GenerateAccessToken(userID, roles, expiresIn)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Equal(t, "invalid token", dErrors.MessageOf(err))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token, _, err := jwtService.GenerateAccessToken(userID, roles, -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, "token has expired", dErrors.MessageOf(err))
}

func Test_ValidateToken_WrongKey(t *testing.T) {
	other := NewJWTService("another-key", "test-issuer")
	token, _, err := other.GenerateAccessToken(userID, roles, expiresIn)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_WrongIssuer(t *testing.T) {
	other := NewJWTService("test-signing-key", "someone-else")
	token, _, err := other.GenerateAccessToken(userID, roles, expiresIn)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ToMiddlewareClaims(t *testing.T) {
	_, claims, err := jwtService.GenerateAccessToken(userID, roles, expiresIn)
	require.NoError(t, err)

	mw := ToMiddlewareClaims(claims)
	assert.Equal(t, userID.String(), mw.UserID)
	assert.Equal(t, roles, mw.Roles)
	assert.Equal(t, claims.ID, mw.JTI)
	assert.Equal(t, claims.ExpiresAt.Time, mw.ExpiresAt)
}
