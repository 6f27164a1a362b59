package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dndguild/keyevent-bot/internal/config"
	"github.com/dndguild/keyevent-bot/pkg/core/scheduler"
	"github.com/dndguild/keyevent-bot/pkg/core/services"
	"github.com/dndguild/keyevent-bot/pkg/db"
	"github.com/dndguild/keyevent-bot/pkg/discordbot"
	"github.com/dndguild/keyevent-bot/pkg/metrics"
)

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and handle sign-ups until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ValidateSecrets(app.Cfg); err != nil {
				return err
			}

			store, err := app.Store()
			if err != nil {
				return err
			}

			session, err := discordgo.New("Bot " + app.Cfg.Secrets.DiscordToken)
			if err != nil {
				return fmt.Errorf("failed to create discord session: %w", err)
			}
			session.Identify.Intents = discordgo.IntentsGuilds

			prompter := discordbot.NewPrompter(session, app.Logger)
			workflow := services.NewWorkflow(store, app.Resolver, app.Tokens, app.Profiles, prompter,
				app.Calendar, app.Metrics, app.Logger, services.WorkflowOptions{
					ChoiceTimeout: app.Cfg.ChoiceTimeout,
					CleanupDelay:  app.Cfg.CleanupDelay,
				})
			bot := discordbot.New(app.Ctx, session, workflow, store, prompter, app.Calendar, discordbot.Options{
				InfoLink:      app.Cfg.EventInfoLink,
				IsAllowedRole: app.Cfg.IsAllowedRole,
			}, app.Logger)

			session.AddHandler(bot.HandleInteraction)
			session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
				app.Logger.Info("Logged in", zap.String("user", r.User.Username))
			})

			if err := session.Open(); err != nil {
				return fmt.Errorf("failed to connect to discord: %w", err)
			}
			defer session.Close()

			registered, err := session.ApplicationCommandBulkOverwrite(session.State.User.ID, app.Cfg.GuildID, discordbot.Commands())
			if err != nil {
				return fmt.Errorf("failed to register commands: %w", err)
			}
			app.Logger.Info("Commands registered", zap.Int("count", len(registered)), zap.String("guild", app.Cfg.GuildID))

			done := make(chan struct{})
			metricsServer := metrics.NewServer(app.Cfg.MetricsAddr, app.Registry, app.Logger)
			go func() {
				defer close(done)
				if err := metricsServer.Run(app.Ctx); err != nil {
					app.Logger.Error("Metrics server stopped", zap.Error(err))
				}
			}()

			if app.Cfg.SchedulerEnabled {
				sched, err := newScheduler(app, store)
				if err != nil {
					return err
				}
				go sched.Run(app.Ctx)
			} else {
				app.Logger.Info("Scheduled jobs are disabled")
			}

			app.Logger.Info("Bot is running, press Ctrl+C to stop")
			<-app.Ctx.Done()
			app.Logger.Info("Shutting down")
			<-done
			return nil
		},
	}
}

// newScheduler builds the weekly rotation and the nightly stats refresh jobs
func newScheduler(app *AppContext, store db.RegistrationStore) (*scheduler.Scheduler, error) {
	loc := app.Cfg.Location()

	rotation, err := scheduler.NewJob("rotate_tables", app.Cfg.RotationRRule, loc,
		func(ctx context.Context, now time.Time) error {
			_, err := services.RotateTables(ctx, store, app.Metrics, app.Logger, now)
			return err
		})
	if err != nil {
		return nil, err
	}

	refresher := services.NewStatsRefresher(store, app.Resolver, app.Tokens, app.Profiles,
		rate.NewLimiter(rate.Limit(app.Cfg.RefreshRate), 1), app.Metrics, app.Logger)
	refresh, err := scheduler.NewJob("refresh_stats", app.Cfg.RefreshRRule, loc,
		func(ctx context.Context, _ time.Time) error {
			_, err := refresher.Run(ctx)
			return err
		})
	if err != nil {
		return nil, err
	}

	return scheduler.New(app.Logger, rotation, refresh), nil
}
