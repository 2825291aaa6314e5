package cli

import (
	"context"
	"errors"
	"time"

	"rizesync/internal/amqp"
	"rizesync/internal/cache"
	"rizesync/internal/config"
	"rizesync/internal/log"
	"rizesync/internal/rize"
	"rizesync/internal/services"
	gsheet "rizesync/internal/sheets/google"
	"rizesync/internal/source"
	"rizesync/internal/storage"
	"rizesync/internal/vault"
)

// fetchCacheSize bounds the per-process fetch cache. Two entries per day
// cover a lookback of several weeks.
const fetchCacheSize = 128

// App holds the components built from one resolved configuration. Ledger,
// Events and Exporter are nil when disabled or when they failed to start.
type App struct {
	Config   *config.Config
	Sync     *services.SyncService
	Sweeper  *cache.Sweeper
	Ledger   *storage.SQLiteRepository
	Events   *amqp.Client
	Exporter *gsheet.Client

	closers []func() error
}

// NewApp wires the sync pipeline for cfg. The optional sinks never make it
// fail: a sink that cannot start is logged and left out.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) *App {
	app := &App{Config: cfg, Sweeper: cache.NewSweeper()}

	client := rize.NewClient(cfg.RizeAPIURL, cfg.RizeAPIKey, cfg.HTTPTimeout)
	cached := source.NewCached(client, fetchCacheSize, cacheTTL(cfg.WatchInterval))
	cached.Register(app.Sweeper)

	deps := services.SyncDeps{
		Source: cached,
		Store:  vault.NewStore(cfg.VaultPath, cfg.DailyLogsPath, cfg.WeeklyLogsPath),
	}

	if cfg.LedgerPath != "" {
		repo, err := InitLedger(ctx, logger, cfg.LedgerPath)
		if err != nil {
			logger.WarnContext(ctx, "Sync ledger disabled",
				log.FieldOperation, log.OpStartup,
				log.FieldError, err)
		} else {
			app.Ledger = repo
			deps.Ledger = repo
			app.closers = append(app.closers, repo.Close)
		}
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.WarnContext(ctx, "AMQP events disabled",
				log.FieldOperation, log.OpStartup,
				log.FieldError, err)
		} else {
			app.Events = client
			deps.Events = client
			app.closers = append(app.closers, client.Close)
			logger.InfoContext(ctx, "AMQP events enabled",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	if cfg.GoogleSpreadsheetID != "" {
		exporter, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
			OAuthClientFile:    cfg.GoogleOAuthClientFile,
			OAuthTokenFile:     cfg.GoogleOAuthTokenFile,
		})
		if err != nil {
			logger.WarnContext(ctx, "Google Sheets export disabled",
				log.FieldOperation, log.OpStartup,
				log.FieldError, err)
		} else {
			app.Exporter = exporter
			deps.Exporter = exporter
			logger.InfoContext(ctx, "Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		}
	}

	app.Sync = services.NewSyncService(deps)
	return app
}

// Close releases the sinks in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// cacheTTL keeps fetched days for half a watch interval so every pass of
// the watch loop sees fresh data.
func cacheTTL(interval time.Duration) time.Duration {
	ttl := interval / 2
	if ttl < time.Minute {
		ttl = time.Minute
	}
	return ttl
}
