package commands

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dndguild/keyevent-bot/internal/config"
	"github.com/dndguild/keyevent-bot/pkg/clients/blizzardclient"
	"github.com/dndguild/keyevent-bot/pkg/clients/sheetsclient"
	"github.com/dndguild/keyevent-bot/pkg/core/realm"
	"github.com/dndguild/keyevent-bot/pkg/core/schedule"
	"github.com/dndguild/keyevent-bot/pkg/db"
	"github.com/dndguild/keyevent-bot/pkg/metrics"
	"github.com/dndguild/keyevent-bot/pkg/postgres"
	"github.com/dndguild/keyevent-bot/pkg/sheetssql"
	"github.com/dndguild/keyevent-bot/pkg/utils"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Resolver *realm.Resolver
	Calendar *schedule.Calendar
	Tokens   *utils.TokenCache
	Profiles *blizzardclient.Client
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Ctx      context.Context

	store   db.RegistrationStore
	pgStore *postgres.DB
}

// Tables returns the configured table names
func (app *AppContext) Tables() db.Tables {
	return db.Tables{
		Worksheet:        app.Cfg.Worksheet,
		RemovedWorksheet: app.Cfg.RemovedWorksheet,
	}
}

// Store opens the configured registration store on first use. Sheets
// storage creates missing tables; postgres storage expects migrate to have run.
func (app *AppContext) Store() (db.RegistrationStore, error) {
	if app.store != nil {
		return app.store, nil
	}

	switch app.Cfg.Storage {
	case config.StoragePostgres:
		pg, err := app.Postgres()
		if err != nil {
			return nil, err
		}
		app.store = pg
	default:
		app.Logger.Info("Initializing sheets client")
		client, err := sheetsclient.NewClient(app.Ctx, app.Cfg.Secrets.GoogleCredentials)
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets client: %w", err)
		}

		app.Logger.Info("Connecting to spreadsheet", zap.String("spreadsheet_id", app.Cfg.SpreadsheetID))
		sheetsDB := db.NewDB(sheetssql.NewDB(client, app.Cfg.SpreadsheetID), app.Tables(), app.Calendar, app.Logger)
		if err := sheetsDB.EnsureTables(app.Ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare tables: %w", err)
		}
		app.store = sheetsDB
	}

	return app.store, nil
}

// Postgres connects to DATABASE_URL on first use
func (app *AppContext) Postgres() (*postgres.DB, error) {
	if app.pgStore != nil {
		return app.pgStore, nil
	}
	if app.Cfg.Secrets.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for postgres storage")
	}

	app.Logger.Info("Connecting to postgres")
	pg, err := postgres.NewDB(app.Ctx, app.Cfg.Secrets.DatabaseURL, app.Tables(), app.Calendar, app.Logger)
	if err != nil {
		return nil, err
	}
	app.pgStore = pg
	return pg, nil
}

// Close releases connections opened by Store
func (app *AppContext) Close() {
	if app.pgStore != nil {
		app.pgStore.Close()
	}
}
