package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := defaultConfig()

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9460, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "maturityd", cfg.Observability.ServiceName)
	assert.Equal(t, 24*time.Hour, cfg.Gates.DecisionTTL)
	assert.Equal(t, 168*time.Hour, cfg.Gates.PaymentTTL)
	assert.Equal(t, time.Minute, cfg.Gates.SweepInterval)
	assert.False(t, cfg.Billing.Restated)
	assert.Equal(t, -1, cfg.NATS.MaxReconnects)
}

func TestValidate_Defaults(t *testing.T) {
	require.NoError(t, defaultConfig().Validate())
}

func TestValidate_PortRange(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := defaultConfig()
	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestValidate_ObservabilityNeedsEndpoint(t *testing.T) {
	cfg := defaultConfig()
	cfg.Observability.Enabled = true
	assert.Error(t, cfg.Validate())

	cfg.Observability.Endpoint = "collector:4317"
	assert.NoError(t, cfg.Validate())

	cfg.Observability.SampleRate = 2
	assert.Error(t, cfg.Validate())
}

func TestValidate_NATSNeedsURL(t *testing.T) {
	cfg := defaultConfig()
	cfg.NATS.Enabled = true
	cfg.NATS.URL = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_GateTTLs(t *testing.T) {
	cfg := defaultConfig()
	cfg.Gates.DecisionTTL = -time.Hour
	assert.Error(t, cfg.Validate())
}
