package db

import (
	"context"
	"time"

	"github.com/dndguild/keyevent-bot/pkg/core/model"
)

// RemoveOutcome is the result of a removal that did not fail
type RemoveOutcome int

const (
	RemoveNotFound RemoveOutcome = iota
	Removed
)

func (o RemoveOutcome) String() string {
	if o == Removed {
		return "removed"
	}
	return "not_found"
}

// RotateOutcome is the result of a rotation attempt that did not fail
type RotateOutcome int

const (
	RotateSkipped RotateOutcome = iota
	Rotated
)

func (o RotateOutcome) String() string {
	if o == Rotated {
		return "rotated"
	}
	return "skipped"
}

// RegistrationStore defines record-level operations on the sign-up tables.
// Both the SheetsSQL-backed db.DB and postgres.DB implement this interface.
//
// The store does not enforce one registration per user; callers check with
// FindByUser before appending.
type RegistrationStore interface {
	// FindByUser returns the first registration owned by userID, or nil
	FindByUser(ctx context.Context, userID string) (*Registration, error)
	Append(ctx context.Context, reg *Registration) error
	// Remove archives and deletes the registration matching all three keys exactly
	Remove(ctx context.Context, character, realm, userID string, now time.Time) (RemoveOutcome, error)
	// Rotate retires the active table; it is a no-op unless now is a Friday
	Rotate(ctx context.Context, now time.Time) (RotateOutcome, error)
	ListRegistrations(ctx context.Context) ([]RegistrationRow, error)
	// UpdateStats overwrites the stat columns of a row; empty stats are left untouched
	UpdateStats(ctx context.Context, index int, stats model.CharacterStats) error
}
