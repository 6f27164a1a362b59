package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/dndguild/keyevent-bot/cmd/bot/commands"
	"github.com/dndguild/keyevent-bot/internal/config"
	"github.com/dndguild/keyevent-bot/pkg/clients/blizzardclient"
	"github.com/dndguild/keyevent-bot/pkg/core/realm"
	"github.com/dndguild/keyevent-bot/pkg/core/schedule"
	"github.com/dndguild/keyevent-bot/pkg/metrics"
	"github.com/dndguild/keyevent-bot/pkg/utils"
	"github.com/dndguild/keyevent-bot/pkg/utils/logging"
)

var (
	env  string
	app  = &commands.AppContext{}
	stop context.CancelFunc
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "keyevent-bot",
		Short: "Key Event bot - Mythic+ event sign-ups on Discord",
		Long:  `A Discord bot that records Mythic+ key event sign-ups, rotates the weekly sign-up table and refreshes character stats.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
			if stop != nil {
				stop()
			}
			if app.Logger != nil {
				_ = app.Logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	_ = rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(commands.RotateCmd(app))
	rootCmd.AddCommand(commands.RefreshStatsCmd(app))
	rootCmd.AddCommand(commands.ResolveRealmCmd(app))
	rootCmd.AddCommand(commands.LookupCharacterCmd(app))
	rootCmd.AddCommand(commands.ListSignupsCmd(app))
	rootCmd.AddCommand(commands.MigrateCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up config, logger, API clients and metrics. Storage is opened
// by the commands that need it.
func initApp() error {
	var err error
	app.Ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// Load configuration
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	app.Logger, err = logging.InitLogger(env, app.Cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger.Info("Starting application", zap.String("environment", env), zap.String("storage", app.Cfg.Storage))

	if _, err := maxprocs.Set(maxprocs.Logger(app.Logger.Sugar().Debugf)); err != nil {
		app.Logger.Warn("Failed to set GOMAXPROCS", zap.Error(err))
	}

	app.Resolver, err = realm.DefaultResolver()
	if err != nil {
		return fmt.Errorf("failed to load realm list: %w", err)
	}
	app.Logger.Debug("Realm list loaded", zap.Int("realms", app.Resolver.Len()))

	app.Calendar = schedule.NewCalendar(app.Cfg.Location())
	app.Tokens = utils.NewTokenCache(app.Cfg.OAuthURL, app.Cfg.Secrets.ClientID, app.Cfg.Secrets.ClientSecret, nil, app.Logger)

	app.Profiles, err = blizzardclient.NewClient(app.Cfg.CharacterURL, app.Cfg.MythicProfileURL, nil, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to create profile client: %w", err)
	}

	app.Registry = prometheus.NewRegistry()
	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.Metrics = metrics.New(app.Registry)

	return nil
}
