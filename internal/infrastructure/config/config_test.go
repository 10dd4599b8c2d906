package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 25, cfg.DatabaseMaxConns)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "USD", cfg.SystemAccountCurrency)
	assert.NotEmpty(t, cfg.GenesisAccountID)
	assert.NotEmpty(t, cfg.RevenueAccountID)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("TRANSFER_FEE_RATE", "0.025")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "debug", cfg.LogLevel)

	rate, err := cfg.FeeRate()
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.025")))
}

func TestLoadRejectsBadFeeRate(t *testing.T) {
	tests := []struct {
		name string
		rate string
	}{
		{name: "not a number", rate: "ten percent"},
		{name: "negative", rate: "-0.1"},
		{name: "at least one", rate: "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TRANSFER_FEE_RATE", tt.rate)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
