package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	dErrors "coliving/pkg/domain-errors"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, Verify("correct horse", hash))
	assert.True(t, dErrors.HasCode(Verify("wrong horse", hash), dErrors.CodeUnauthorized))
}

func TestHashRejectsShortAndLongPasswords(t *testing.T) {
	_, err := Hash("short")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = Hash(strings.Repeat("a", 80))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestHasherUsesConfiguredCost(t *testing.T) {
	hash, err := NewHasher(bcrypt.MinCost).Hash("correct horse")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	assert.Equal(t, bcrypt.DefaultCost, NewHasher(99).cost)
}
