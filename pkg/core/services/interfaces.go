package services

import (
	"context"

	"github.com/dndguild/keyevent-bot/pkg/clients/blizzardclient"
	"github.com/dndguild/keyevent-bot/pkg/core/realm"
)

// RealmResolver maps free-text realm names to reference realms
type RealmResolver interface {
	Resolve(raw string) realm.Result
}

// TokenSource provides bearer tokens for the profile API
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// ProfileFetcher retrieves character data. It never fails; unknown values are nil.
type ProfileFetcher interface {
	GetProfile(ctx context.Context, realmSlug, realmName, character, token string) blizzardclient.Profile
}

// Presenter shows workflow prompts to a user. Answers come back through
// Workflow.Answer.
type Presenter interface {
	RequestChoice(ctx context.Context, req ChoiceRequest) error
	// ReleaseChoice forgets a request once it is answered, timed out or abandoned
	ReleaseChoice(requestID string)
	// CapturePrompts snapshots the transient prompts shown to user so far and
	// returns a func that removes exactly those
	CapturePrompts(user User) func()
}
