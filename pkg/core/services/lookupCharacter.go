package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dndguild/keyevent-bot/pkg/clients/blizzardclient"
	"github.com/dndguild/keyevent-bot/pkg/core/realm"
)

// LookupResult is a resolved realm and the profile fetched for it
type LookupResult struct {
	Realm   realm.Result
	Profile blizzardclient.Profile
}

// LookupCharacter resolves a realm and fetches the character profile the way
// a sign-up does, without recording anything
func LookupCharacter(
	ctx context.Context,
	resolver RealmResolver,
	tokens TokenSource,
	profiles ProfileFetcher,
	logger *zap.Logger,
	character, realmInput string,
) (*LookupResult, error) {
	resolved := resolver.Resolve(realmInput)
	if !resolved.Found() {
		return &LookupResult{Realm: resolved}, fmt.Errorf("realm %q not found (best score %d)", realmInput, resolved.Score)
	}

	token, err := tokens.AccessToken(ctx)
	if err != nil {
		return &LookupResult{Realm: resolved}, fmt.Errorf("failed to get access token: %w", err)
	}

	logger.Debug("Fetching character profile",
		zap.String("character", character),
		zap.String("realm_slug", resolved.Slug))

	profile := profiles.GetProfile(ctx, resolved.Slug, resolved.Name, character, token)
	return &LookupResult{Realm: resolved, Profile: profile}, nil
}
