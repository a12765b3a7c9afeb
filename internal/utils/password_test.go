package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("pw123456")
	require.NoError(t, err)
	assert.NotEqual(t, "pw123456", hash)

	assert.True(t, h.Verify(hash, "pw123456"))
	assert.False(t, h.Verify(hash, "pw1234567"))
	assert.False(t, h.Verify("not-a-hash", "pw123456"))
	assert.NotPanics(t, func() { h.Burn("anything") })
}

func TestNewPasswordHasherClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(99).cost)
	assert.Equal(t, bcrypt.MinCost, NewPasswordHasher(bcrypt.MinCost).cost)
}

func TestIsTooLong(t *testing.T) {
	assert.False(t, IsTooLong(strings.Repeat("a", 72)))
	assert.True(t, IsTooLong(strings.Repeat("a", 73)))
}
