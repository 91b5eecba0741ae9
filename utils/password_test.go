package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 12, cost)

	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
	assert.False(t, CheckPassword("", ""))
}
