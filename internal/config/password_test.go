package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPasswordConfigDefaults(t *testing.T) {
	t.Setenv("BCRYPT_COST", "")

	cfg, err := NewPasswordConfig()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.BcryptCost)
}

func TestNewPasswordConfigRejectsBadCost(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"not a number", "high"},
		{"too low", "9"},
		{"too high", "15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BCRYPT_COST", tt.value)
			_, err := NewPasswordConfig()
			assert.Error(t, err)
		})
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10}

	hash, err := cfg.HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, cfg.VerifyPassword("s3cret-pass", hash))
	assert.False(t, cfg.VerifyPassword("wrong-pass", hash))
}

func TestHashPasswordProducesUniqueSalts(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10}

	first, err := cfg.HashPassword("s3cret-pass")
	require.NoError(t, err)
	second, err := cfg.HashPassword("s3cret-pass")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
