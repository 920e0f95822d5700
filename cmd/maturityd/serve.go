package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/maturityd/internal/audit"
	"github.com/fyrsmithlabs/maturityd/internal/config"
	"github.com/fyrsmithlabs/maturityd/internal/decision"
	"github.com/fyrsmithlabs/maturityd/internal/engine"
	"github.com/fyrsmithlabs/maturityd/internal/httpapi"
	"github.com/fyrsmithlabs/maturityd/internal/logging"
	"github.com/fyrsmithlabs/maturityd/internal/notify"
	"github.com/fyrsmithlabs/maturityd/internal/patterns"
	"github.com/fyrsmithlabs/maturityd/internal/payment"
	"github.com/fyrsmithlabs/maturityd/internal/store"
	"github.com/fyrsmithlabs/maturityd/internal/telemetry"
	"github.com/fyrsmithlabs/maturityd/internal/validator"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the maturityd daemon",
	Long: `Start the maturityd HTTP server with the gate engine, the expiry
sweeper, and, when enabled, NATS event publishing.

Examples:
  # Start with defaults
  maturityd serve

  # Start with an explicit config file
  maturityd serve --config /etc/maturityd/config.yaml

  # Override via environment
  SERVER_PORT=9470 maturityd serve`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if configPath == "" {
		if err := config.EnsureConfigDir(); err != nil {
			return fmt.Errorf("ensuring config directory: %w", err)
		}
	}

	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logging.Sync(logger) }()

	tel, err := telemetry.New(ctx, cfg.Observability, version, logger)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	notifier, natsConn, err := buildNotifier(cfg.NATS, logger)
	if err != nil {
		return err
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	server, sweeper, err := buildServices(cfg, notifier, logger)
	if err != nil {
		return err
	}

	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("starting sweeper: %w", err)
	}
	defer func() {
		if err := sweeper.Stop(); err != nil {
			logger.Warn("sweeper stop failed", zap.Error(err))
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	logger.Info("maturityd started",
		zap.String("version", version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("nats", cfg.NATS.Enabled),
		zap.Bool("telemetry_degraded", tel.Degraded()),
	)

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// buildNotifier connects to NATS when enabled, falling back to the no-op
// notifier otherwise. The returned connection is nil when NATS is off.
func buildNotifier(cfg config.NATSConfig, logger *zap.Logger) (notify.Notifier, *nats.Conn, error) {
	if !cfg.Enabled {
		return notify.NopNotifier{}, nil, nil
	}

	nc, err := nats.Connect(cfg.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to NATS at %s: %w", cfg.URL, err)
	}

	notifier, err := notify.NewNATSNotifier(nc, logger)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("creating NATS notifier: %w", err)
	}

	return notifier, nc, nil
}

// buildServices wires the full service graph over a fresh in-memory store.
func buildServices(cfg *config.Config, notifier notify.Notifier, logger *zap.Logger) (*httpapi.Server, *engine.Sweeper, error) {
	ks := store.NewMemoryStore()

	trail, err := audit.NewTrail(ks, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating audit trail: %w", err)
	}

	checklist, err := validator.LoadChecklist()
	if err != nil {
		return nil, nil, fmt.Errorf("loading checklist: %w", err)
	}
	v, err := validator.New(checklist, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating validator: %w", err)
	}

	decisions, err := decision.NewService(&decision.Config{
		TTL: cfg.Gates.DecisionTTL,
	}, ks, trail, notifier, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating decision service: %w", err)
	}

	payments, err := payment.NewService(&payment.Config{
		TTL:        cfg.Gates.PaymentTTL,
		Cumulative: !cfg.Billing.Restated,
	}, ks, trail, notifier, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating payment service: %w", err)
	}

	corpus, err := patterns.NewRemediationCorpus(patterns.CorpusConfig{
		Path:       cfg.Patterns.CorpusPath,
		Compress:   cfg.Patterns.Compress,
		VectorSize: cfg.Patterns.VectorSize,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating remediation corpus: %w", err)
	}

	analyzer, err := patterns.NewEngine(ks, corpus, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating pattern engine: %w", err)
	}

	machine, err := engine.NewStateMachine(ks, trail, v, decisions, payments, analyzer, notifier, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating state machine: %w", err)
	}

	sweeper, err := engine.NewSweeper(machine, logger,
		engine.WithSweepInterval(cfg.Gates.SweepInterval))
	if err != nil {
		return nil, nil, fmt.Errorf("creating sweeper: %w", err)
	}

	server, err := httpapi.NewServer(machine, trail, analyzer, logger, cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("creating http server: %w", err)
	}

	return server, sweeper, nil
}
