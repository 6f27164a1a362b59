package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dndguild/keyevent-bot/pkg/clients/blizzardclient"
	"github.com/dndguild/keyevent-bot/pkg/core/model"
	"github.com/dndguild/keyevent-bot/pkg/db"
)

// IdentityInput is what the user typed into the registration form
type IdentityInput struct {
	Character string
	Realm     string
	Notes     string
}

// CompleteIdentity resolves the realm, enriches the character from the
// profile API, asks for role and bracket and persists the registration.
//
// An unknown realm keeps the dialogue in CollectingIdentity so the form can be
// submitted again. Profile failures never block the sign-up; unknown values
// are written as N/A.
func (w *Workflow) CompleteIdentity(ctx context.Context, user User, input IdentityInput) Result {
	s, err := w.expect(user, CollectingIdentity)
	if err != nil {
		return Result{State: w.State(user), Err: err}
	}

	character := strings.TrimSpace(input.Character)
	realmInput := strings.TrimSpace(input.Realm)
	if character == "" || realmInput == "" {
		return Result{
			State:   CollectingIdentity,
			Message: "Please enter both a character name and a realm.",
			Err:     ErrInvalidIdentity,
		}
	}
	if strings.ContainsAny(character, " \t") {
		return Result{
			State:   CollectingIdentity,
			Message: "Character names cannot contain spaces.",
			Err:     ErrInvalidIdentity,
		}
	}

	resolved := w.resolver.Resolve(realmInput)
	w.metrics.RealmResolution(resolved.Outcome.String())
	if !resolved.Found() {
		w.logger.Warn("Realm not found",
			zap.String("user", user.Name),
			zap.String("realm", realmInput),
			zap.Int("best_score", resolved.Score))
		return Result{
			State:   CollectingIdentity,
			Message: fmt.Sprintf("We couldn't find a realm called %q. Please double check your realm and try again.", realmInput),
			Err:     fmt.Errorf("%w: unknown realm %q", ErrInvalidIdentity, realmInput),
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w.mu.Lock()
	if w.sessions[user.ID] != s {
		w.mu.Unlock()
		return Result{State: Idle, Err: ErrNoSession}
	}
	s.cancel = cancel
	w.mu.Unlock()

	profile := w.fetchProfile(ctx, resolved.Slug, resolved.Name, character)
	reg := newRegistration(w.opts.Now().In(w.calendar.Location()), user, character, profile, input.Notes)

	w.setState(user, AwaitingRole)
	role, err := w.awaitChoice(ctx, user, ChoiceRole, model.RoleOptions())
	if err != nil {
		return w.abandon(user, s, err)
	}
	reg.Role = role

	w.setState(user, AwaitingBracket)
	bracket, err := w.awaitChoice(ctx, user, ChoiceBracket, model.BracketOptions())
	if err != nil {
		return w.abandon(user, s, err)
	}
	reg.KeyRange = bracket

	w.setState(user, Persisting)
	if err := w.store.Append(ctx, reg); err != nil {
		w.logger.Error("Error appending registration",
			zap.String("user", user.Name),
			zap.String("character", reg.Character),
			zap.String("realm", reg.Realm),
			zap.Error(err))
		w.finish(user, s)
		w.metrics.WorkflowOutcome("signup", "failed")
		return Result{
			State:   Failed,
			Message: "There was an error recording your registration. Please try again later.",
			Err:     fmt.Errorf("failed to persist registration: %w", err),
		}
	}

	w.logger.Info("Registration recorded",
		zap.String("user", user.Name),
		zap.String("character", reg.Character),
		zap.String("realm", reg.Realm))
	w.finish(user, s)
	w.metrics.WorkflowOutcome("signup", "confirmed")
	w.scheduleCleanup(user)

	return Result{
		State:        Confirmed,
		Message:      confirmationMessage(user, reg),
		Registration: reg,
	}
}

func (w *Workflow) fetchProfile(ctx context.Context, slug, realmName, character string) blizzardclient.Profile {
	token, err := w.tokens.AccessToken(ctx)
	if err != nil {
		w.logger.Warn("No access token, registering without character data", zap.Error(err))
		w.metrics.ProfileFetch("no_token")
		return blizzardclient.Profile{RealmName: realmName}
	}

	profile := w.profiles.GetProfile(ctx, slug, realmName, character, token)
	switch {
	case !profile.Known():
		w.metrics.ProfileFetch("unavailable")
	case profile.Rating == nil && profile.HighestKey == nil:
		w.metrics.ProfileFetch("partial")
	default:
		w.metrics.ProfileFetch("ok")
	}
	return profile
}

// abandon ends a sign-up whose context was cancelled while waiting on a prompt
func (w *Workflow) abandon(user User, s *session, err error) Result {
	w.logger.Info("Sign-up abandoned", zap.String("user", user.Name), zap.Error(err))
	w.finish(user, s)
	w.metrics.WorkflowOutcome("signup", "abandoned")
	return Result{State: Idle, Message: "Your registration was cancelled.", Err: err}
}

// finish ends s if it is still the user's current session
func (w *Workflow) finish(user User, s *session) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sessions[user.ID] == s {
		delete(w.sessions, user.ID)
	}
}

// scheduleCleanup removes the prompts of this sign-up after CleanupDelay.
// Prompts of a sign-up started in the meantime are left alone.
func (w *Workflow) scheduleCleanup(user User) {
	cleanup := w.presenter.CapturePrompts(user)
	if w.opts.CleanupDelay <= 0 {
		cleanup()
		return
	}
	time.AfterFunc(w.opts.CleanupDelay, cleanup)
}

func newRegistration(now time.Time, user User, character string, profile blizzardclient.Profile, notes string) *db.Registration {
	stats := profile.Stats()
	return &db.Registration{
		Timestamp:   now.Format(model.TimestampLayout),
		Character:   model.Capitalize(character),
		Class:       orNotAvailable(deref(profile.Class)),
		DiscordUser: user.Name,
		Realm:       profile.RealmName,
		ItemLevel:   orNotAvailable(stats.ItemLevel),
		Rating:      orNotAvailable(stats.Rating),
		HighestKey:  orNotAvailable(stats.HighestKey),
		Notes:       strings.TrimSpace(notes),
	}
}

func confirmationMessage(user User, reg *db.Registration) string {
	role := reg.Role
	if role == "" {
		role = "no role selected"
	}
	keys := reg.KeyRange
	if keys == "" {
		keys = "no key range selected"
	}
	return fmt.Sprintf("Thank you, %s! Your registration has been completed with your %s %s for keys %s. "+
		"You are ilvl: %s, and your Mythic+ rating is %s. We will also pull an updated rating closer to the event date.",
		user.Name, role, reg.Class, keys, reg.ItemLevel, reg.Rating)
}

func orNotAvailable(s string) string {
	if s == "" {
		return model.NotAvailable
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
