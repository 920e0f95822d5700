// Package config provides configuration loading for maturityd.
package config

import (
	"fmt"
	"time"
)

// Config is the top-level daemon configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Logging       LoggingConfig       `koanf:"logging"`
	Observability ObservabilityConfig `koanf:"observability"`
	NATS          NATSConfig          `koanf:"nats"`
	Gates         GatesConfig         `koanf:"gates"`
	Billing       BillingConfig       `koanf:"billing"`
	Patterns      PatternsConfig      `koanf:"patterns"`
}

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// ConfirmRateLimit is the sustained confirmations-per-second allowed on
	// the payment confirmation endpoint.
	ConfirmRateLimit float64 `koanf:"confirm_rate_limit"`

	// ConfirmRateBurst is the confirmation burst size.
	ConfirmRateBurst int `koanf:"confirm_rate_burst"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is debug, info, warn, or error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`
}

// ObservabilityConfig configures OpenTelemetry export.
type ObservabilityConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`

	// Endpoint is the OTLP collector endpoint (host:port).
	Endpoint string `koanf:"endpoint"`

	// Protocol is grpc or http.
	Protocol string `koanf:"protocol"`

	// Insecure disables transport security toward the collector.
	Insecure bool `koanf:"insecure"`

	// TLSSkipVerify accepts any collector certificate. Test environments
	// only.
	TLSSkipVerify bool `koanf:"tls_skip_verify"`

	// SampleRate is the trace sampling ratio in [0,1].
	SampleRate float64 `koanf:"sample_rate"`
}

// NATSConfig configures the notification bus.
type NATSConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`

	// MaxReconnects caps reconnection attempts; -1 retries forever.
	MaxReconnects int `koanf:"max_reconnects"`
}

// GatesConfig configures gate lifecycles.
type GatesConfig struct {
	// DecisionTTL is how long a decision gate stays open.
	DecisionTTL time.Duration `koanf:"decision_ttl"`

	// PaymentTTL is how long a payment gate stays open.
	PaymentTTL time.Duration `koanf:"payment_ttl"`

	// SweepInterval is the expiry sweeper tick.
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// BillingConfig configures milestone billing.
type BillingConfig struct {
	// Restated bills the full milestone percentage on every level crossing
	// instead of the increment over what the project already paid. The
	// default (false) is cumulative incremental billing.
	Restated bool `koanf:"restated"`
}

// PatternsConfig configures the remediation corpus.
type PatternsConfig struct {
	// CorpusPath is the directory for the persistent remediation corpus.
	// Empty keeps the corpus in memory.
	CorpusPath string `koanf:"corpus_path"`

	// Compress enables gzip compression of persisted corpus data.
	Compress bool `koanf:"compress"`

	// VectorSize is the embedding dimension.
	VectorSize int `koanf:"vector_size"`
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}

	if c.Observability.Enabled {
		if c.Observability.Endpoint == "" {
			return fmt.Errorf("observability endpoint is required when enabled")
		}
		switch c.Observability.Protocol {
		case "grpc", "http":
		default:
			return fmt.Errorf("unknown observability protocol %q", c.Observability.Protocol)
		}
		if c.Observability.SampleRate < 0 || c.Observability.SampleRate > 1 {
			return fmt.Errorf("sample rate %f out of range [0,1]", c.Observability.SampleRate)
		}
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("nats url is required when enabled")
	}

	if c.Gates.DecisionTTL <= 0 {
		return fmt.Errorf("decision ttl must be positive")
	}
	if c.Gates.PaymentTTL <= 0 {
		return fmt.Errorf("payment ttl must be positive")
	}
	if c.Gates.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive")
	}

	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9460
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.ConfirmRateLimit == 0 {
		cfg.Server.ConfirmRateLimit = 5
	}
	if cfg.Server.ConfirmRateBurst == 0 {
		cfg.Server.ConfirmRateBurst = 10
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "maturityd"
	}
	if cfg.Observability.Protocol == "" {
		cfg.Observability.Protocol = "grpc"
	}
	if cfg.Observability.SampleRate == 0 {
		cfg.Observability.SampleRate = 1
	}

	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://127.0.0.1:4222"
	}
	if cfg.NATS.MaxReconnects == 0 {
		cfg.NATS.MaxReconnects = -1
	}

	if cfg.Gates.DecisionTTL == 0 {
		cfg.Gates.DecisionTTL = 24 * time.Hour
	}
	if cfg.Gates.PaymentTTL == 0 {
		cfg.Gates.PaymentTTL = 168 * time.Hour
	}
	if cfg.Gates.SweepInterval == 0 {
		cfg.Gates.SweepInterval = time.Minute
	}

	if cfg.Patterns.VectorSize == 0 {
		cfg.Patterns.VectorSize = 64
	}
}
