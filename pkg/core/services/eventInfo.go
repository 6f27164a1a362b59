package services

import (
	"context"
	"fmt"

	"github.com/dndguild/keyevent-bot/pkg/db"
)

// EventInfoResult is the summary shown by the Event Info button
type EventInfoResult struct {
	SignupCount int
	InfoLink    string
}

// Message renders the summary for the user
func (r EventInfoResult) Message() string {
	msg := fmt.Sprintf("The number of people who have signed up for this week's event: %d", r.SignupCount)
	if r.InfoLink != "" {
		msg += "\nFor more information, visit this post: " + r.InfoLink
	}
	return msg
}

// EventInfo counts the registrations in the active table
func EventInfo(ctx context.Context, store db.RegistrationStore, infoLink string) (*EventInfoResult, error) {
	rows, err := store.ListRegistrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return &EventInfoResult{SignupCount: len(rows), InfoLink: infoLink}, nil
}
