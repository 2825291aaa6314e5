// Package cli provides the rizesync command tree and the initialization
// shared by its commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"rizesync/internal/config"
	"rizesync/internal/log"
	"rizesync/internal/storage"
)

// SetupLogger initializes structured logging at level and sets it as the
// default logger.
func SetupLogger(level string, out io.Writer) (*log.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger := log.New(log.Config{
		Level:     lvl,
		Component: log.ComponentApp,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger, nil
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig resolves the configuration from every source and
// validates it. A missing file is only an error when explicit is set.
func LoadAndValidateConfig(path string, explicit bool, o config.Overrides) (*config.Config, error) {
	cfg, err := config.Load(path, explicit)
	if err != nil {
		return nil, err
	}
	cfg.Apply(o)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitLedger opens the sync ledger at dbPath, creating it when needed.
func InitLedger(ctx context.Context, logger *log.Logger, dbPath string) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sync ledger %s: %w", dbPath, err)
	}
	logger.WithComponent(log.ComponentLedger).DebugContext(ctx, "Sync ledger ready", log.FieldPath, dbPath)
	return repo, nil
}

// GracefulShutdown returns a context that is cancelled on SIGINT or SIGTERM
// or when the returned cancel function is called.
func GracefulShutdown(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.InfoContext(ctx, "Shutdown signal received",
				log.FieldOperation, log.OpShutdown,
				"signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
