package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dndguild/keyevent-bot/pkg/db"
	"github.com/dndguild/keyevent-bot/pkg/metrics"
)

// RotateTables runs the weekly table rotation and records its outcome
func RotateTables(ctx context.Context, store db.RegistrationStore, m *metrics.Metrics, logger *zap.Logger, now time.Time) (db.RotateOutcome, error) {
	logger.Debug("Checking weekly table rotation", zap.Time("now", now))

	outcome, err := store.Rotate(ctx, now)
	if err != nil {
		m.Rotation("failed")
		return outcome, fmt.Errorf("failed to rotate tables: %w", err)
	}

	m.Rotation(outcome.String())
	logger.Info("Table rotation finished", zap.String("outcome", outcome.String()))
	return outcome, nil
}
