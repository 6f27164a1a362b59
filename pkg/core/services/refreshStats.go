package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dndguild/keyevent-bot/pkg/db"
	"github.com/dndguild/keyevent-bot/pkg/metrics"
)

// RefreshSummary counts what a stats refresh did
type RefreshSummary struct {
	Rows         int
	Updated      int
	UnknownRealm int
	NoData       int
	Failed       int
}

// StatsRefresher re-fetches character data for every sign-up in the active table
type StatsRefresher struct {
	store    db.RegistrationStore
	resolver RealmResolver
	tokens   TokenSource
	profiles ProfileFetcher
	limiter  *rate.Limiter
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewStatsRefresher creates a refresher. A nil limiter means no rate limit.
func NewStatsRefresher(
	store db.RegistrationStore,
	resolver RealmResolver,
	tokens TokenSource,
	profiles ProfileFetcher,
	limiter *rate.Limiter,
	m *metrics.Metrics,
	logger *zap.Logger,
) *StatsRefresher {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &StatsRefresher{
		store:    store,
		resolver: resolver,
		tokens:   tokens,
		profiles: profiles,
		limiter:  limiter,
		metrics:  m,
		logger:   logger,
	}
}

// Run updates item level, rating and highest key of every row where the
// profile API returns them. A failed row is logged and skipped.
func (r *StatsRefresher) Run(ctx context.Context) (*RefreshSummary, error) {
	token, err := r.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	rows, err := r.store.ListRegistrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}

	summary := &RefreshSummary{Rows: len(rows)}
	r.logger.Info("Refreshing character stats", zap.Int("rows", len(rows)))

	for _, row := range rows {
		if err := r.limiter.Wait(ctx); err != nil {
			return summary, fmt.Errorf("stats refresh interrupted: %w", err)
		}

		result := r.refreshRow(ctx, row, token)
		switch result {
		case "updated":
			summary.Updated++
		case "unknown_realm":
			summary.UnknownRealm++
		case "no_data":
			summary.NoData++
		default:
			summary.Failed++
		}
		r.metrics.RefreshedRow(result)
	}

	r.logger.Info("Character stats refreshed",
		zap.Int("rows", summary.Rows),
		zap.Int("updated", summary.Updated),
		zap.Int("unknown_realm", summary.UnknownRealm),
		zap.Int("no_data", summary.NoData),
		zap.Int("failed", summary.Failed))

	return summary, nil
}

func (r *StatsRefresher) refreshRow(ctx context.Context, row db.RegistrationRow, token string) string {
	resolved := r.resolver.Resolve(row.Realm)
	if !resolved.Found() {
		r.logger.Warn("Skipping row with unknown realm",
			zap.Int("row", row.Index),
			zap.String("character", row.Character),
			zap.String("realm", row.Realm))
		return "unknown_realm"
	}

	profile := r.profiles.GetProfile(ctx, resolved.Slug, resolved.Name, row.Character, token)
	stats := profile.Stats()
	if stats.ItemLevel == "" && stats.Rating == "" && stats.HighestKey == "" {
		return "no_data"
	}

	if err := r.store.UpdateStats(ctx, row.Index, stats); err != nil {
		r.logger.Error("Failed to update row stats",
			zap.Int("row", row.Index),
			zap.String("character", row.Character),
			zap.Error(err))
		return "failed"
	}

	r.logger.Debug("Updated row stats",
		zap.Int("row", row.Index),
		zap.String("character", row.Character),
		zap.String("item_level", stats.ItemLevel),
		zap.String("rating", stats.Rating),
		zap.String("highest_key", stats.HighestKey))
	return "updated"
}
