package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dndguild/keyevent-bot/pkg/clients/blizzardclient"
	"github.com/dndguild/keyevent-bot/pkg/core/model"
	"github.com/dndguild/keyevent-bot/pkg/core/schedule"
	"github.com/dndguild/keyevent-bot/pkg/db"
)

var alice = User{ID: "100", Name: "alice"}

type workflowFixture struct {
	workflow  *Workflow
	store     *mockStore
	tokens    *mockTokens
	profiles  *mockProfiles
	presenter *mockPresenter
	now       time.Time
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()
	loc := newYork(t)
	// Wednesday afternoon, well before the Friday cutoff
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, loc)

	f := &workflowFixture{
		store:  &mockStore{},
		tokens: &mockTokens{token: "token-abc"},
		profiles: &mockProfiles{profiles: map[string]blizzardclient.Profile{
			"jaina": jainaProfile(),
		}},
		presenter: &mockPresenter{answers: map[ChoiceKind]string{
			ChoiceRole:    "Healer",
			ChoiceBracket: "12+ (Gilded)",
		}},
		now: now,
	}
	f.workflow = NewWorkflow(
		f.store,
		testResolver(),
		f.tokens,
		f.profiles,
		f.presenter,
		schedule.NewCalendar(loc),
		nil,
		zap.NewNop(),
		WorkflowOptions{
			ChoiceTimeout: 20 * time.Millisecond,
			Now:           func() time.Time { return now },
		},
	)
	f.presenter.workflow = f.workflow
	return f
}

func existingRegistration(user string) db.Registration {
	return db.Registration{
		Timestamp:   "03/10/2025 10:00:00",
		Character:   "Thrall",
		Class:       "Shaman",
		DiscordUser: user,
		Realm:       "Area 52",
		Role:        "DPS",
		KeyRange:    "7-9 (Gilded)",
	}
}

func TestSubmit_NoExistingRegistration(t *testing.T) {
	f := newWorkflowFixture(t)

	result := f.workflow.Submit(context.Background(), alice)

	assert.Equal(t, CollectingIdentity, result.State)
	assert.NoError(t, result.Err)
	assert.Equal(t, "You are signing up for the key event on **Mar 15**.", result.Message)
	assert.Equal(t, time.Saturday, result.EventDate.Weekday())
	assert.Equal(t, 15, result.EventDate.Day())
	assert.Equal(t, CollectingIdentity, f.workflow.State(alice))
}

func TestSubmit_ExistingRegistrationOffersEdit(t *testing.T) {
	f := newWorkflowFixture(t)
	f.store.rows = []db.Registration{existingRegistration("alice")}

	result := f.workflow.Submit(context.Background(), alice)

	assert.Equal(t, EditConfirm, result.State)
	require.NotNil(t, result.Registration)
	assert.Equal(t, "Thrall", result.Registration.Character)
	assert.Contains(t, result.Message, "Thrall-Area 52")
	assert.Equal(t, EditConfirm, f.workflow.State(alice))
}

func TestSubmit_LookupFailure(t *testing.T) {
	f := newWorkflowFixture(t)
	f.store.findErr = errBoom

	result := f.workflow.Submit(context.Background(), alice)

	assert.Equal(t, Failed, result.State)
	assert.ErrorIs(t, result.Err, errBoom)
	assert.Equal(t, Idle, f.workflow.State(alice))
}

func TestCompleteIdentity_RecordsRegistration(t *testing.T) {
	f := newWorkflowFixture(t)
	f.workflow.Submit(context.Background(), alice)

	result := f.workflow.CompleteIdentity(context.Background(), alice, IdentityInput{
		Character: "  jaina ",
		Realm:     "stormrage",
		Notes:     "bringing a friend",
	})

	require.Equal(t, Confirmed, result.State, result.Message)
	require.NoError(t, result.Err)
	require.Len(t, f.store.rows, 1)

	reg := f.store.rows[0]
	assert.Equal(t, "03/12/2025 15:00:00", reg.Timestamp)
	assert.Equal(t, "Jaina", reg.Character)
	assert.Equal(t, "Mage", reg.Class)
	assert.Equal(t, "alice", reg.DiscordUser)
	assert.Equal(t, "Stormrage", reg.Realm)
	assert.Equal(t, "Healer", reg.Role)
	assert.Equal(t, "639", reg.ItemLevel)
	assert.Equal(t, "2450.5", reg.Rating)
	assert.Equal(t, "12", reg.HighestKey)
	assert.Equal(t, "12+ (Gilded)", reg.KeyRange)
	assert.Equal(t, "bringing a friend", reg.Notes)

	assert.Equal(t, []ChoiceKind{ChoiceRole, ChoiceBracket}, f.presenter.requestKinds())
	assert.Equal(t, []string{"stormrage/jaina"}, f.profiles.calls)
	assert.Equal(t, []string{"100"}, f.presenter.cleared)
	assert.Equal(t, f.presenter.requestIDs(), f.presenter.released)
	assert.Contains(t, result.Message, "Thank you, alice!")
	assert.Equal(t, Idle, f.workflow.State(alice))
}

func TestCompleteIdentity_UnknownRealmStaysInCollectingIdentity(t *testing.T) {
	f := newWorkflowFixture(t)
	f.workflow.Submit(context.Background(), alice)

	result := f.workflow.CompleteIdentity(context.Background(), alice, IdentityInput{
		Character: "jaina",
		Realm:     "xyzzyqq",
	})

	assert.Equal(t, CollectingIdentity, result.State)
	assert.ErrorIs(t, result.Err, ErrInvalidIdentity)
	assert.Contains(t, result.Message, "xyzzyqq")
	assert.Empty(t, f.store.rows)
	assert.Empty(t, f.profiles.calls)
	assert.Equal(t, CollectingIdentity, f.workflow.State(alice))

	// The form can be submitted again
	result = f.workflow.CompleteIdentity(context.Background(), alice, IdentityInput{
		Character: "jaina",
		Realm:     "stormrage",
	})
	assert.Equal(t, Confirmed, result.State)
}

func TestCompleteIdentity_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input IdentityInput
	}{
		{"empty character", IdentityInput{Character: " ", Realm: "stormrage"}},
		{"empty realm", IdentityInput{Character: "jaina", Realm: ""}},
		{"spaces in character", IdentityInput{Character: "jaina proud", Realm: "stormrage"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWorkflowFixture(t)
			f.workflow.Submit(context.Background(), alice)

			result := f.workflow.CompleteIdentity(context.Background(), alice, tt.input)

			assert.Equal(t, CollectingIdentity, result.State)
			assert.ErrorIs(t, result.Err, ErrInvalidIdentity)
			assert.Empty(t, f.store.rows)
		})
	}
}

func TestCompleteIdentity_TokenFailureUsesPlaceholders(t *testing.T) {
	f := newWorkflowFixture(t)
	f.tokens.err = errBoom
	f.workflow.Submit(context.Background(), alice)

	result := f.workflow.CompleteIdentity(context.Background(), alice, IdentityInput{
		Character: "jaina",
		Realm:     "stormrage",
	})

	require.Equal(t, Confirmed, result.State)
	require.Len(t, f.store.rows, 1)
	reg := f.store.rows[0]
	assert.Equal(t, "Stormrage", reg.Realm)
	assert.Equal(t, model.NotAvailable, reg.Class)
	assert.Equal(t, model.NotAvailable, reg.ItemLevel)
	assert.Equal(t, model.NotAvailable, reg.Rating)
	assert.Equal(t, model.NotAvailable, reg.HighestKey)
	assert.Empty(t, f.profiles.calls)
}

func TestCompleteIdentity_UnansweredPromptsLeaveFieldsUnset(t *testing.T) {
	f := newWorkflowFixture(t)
	f.presenter.answers = nil
	f.workflow.Submit(context.Background(), alice)

	result := f.workflow.CompleteIdentity(context.Background(), alice, IdentityInput{
		Character: "jaina",
		Realm:     "stormrage",
	})

	require.Equal(t, Confirmed, result.State)
	require.Len(t, f.store.rows, 1)
	assert.Empty(t, f.store.rows[0].Role)
	assert.Empty(t, f.store.rows[0].KeyRange)
	assert.Contains(t, result.Message, "no role selected")
}

func TestCompleteIdentity_PresenterFailureLeavesFieldsUnset(t *testing.T) {
	f := newWorkflowFixture(t)
	f.presenter.err = errBoom
	f.workflow.Submit(context.Background(), alice)

	result := f.workflow.CompleteIdentity(context.Background(), alice, IdentityInput{
		Character: "jaina",
		Realm:     "stormrage",
	})

	require.Equal(t, Confirmed, result.State)
	assert.Empty(t, f.store.rows[0].Role)
	assert.Empty(t, f.store.rows[0].KeyRange)
	assert.Equal(t, f.presenter.requestIDs(), f.presenter.released)
}

func TestCompleteIdentity_PersistFailure(t *testing.T) {
	f := newWorkflowFixture(t)
	f.store.appendErr = errBoom
	f.workflow.Submit(context.Background(), alice)

	result := f.workflow.CompleteIdentity(context.Background(), alice, IdentityInput{
		Character: "jaina",
		Realm:     "stormrage",
	})

	assert.Equal(t, Failed, result.State)
	assert.ErrorIs(t, result.Err, errBoom)
	assert.Equal(t, "There was an error recording your registration. Please try again later.", result.Message)
	assert.Empty(t, f.presenter.cleared)
	assert.Len(t, f.presenter.released, 2)
	assert.Equal(t, Idle, f.workflow.State(alice))
}

func TestCompleteIdentity_CancelWhileAwaitingChoice(t *testing.T) {
	f := newWorkflowFixture(t)
	f.presenter.answers = nil
	f.presenter.shown = make(chan ChoiceRequest, 2)
	f.workflow.opts.ChoiceTimeout = time.Minute
	f.workflow.Submit(context.Background(), alice)

	done := make(chan Result, 1)
	go func() {
		done <- f.workflow.CompleteIdentity(context.Background(), alice, IdentityInput{
			Character: "jaina",
			Realm:     "stormrage",
		})
	}()

	req := <-f.presenter.shown
	assert.Equal(t, ChoiceRole, req.Kind)
	assert.Equal(t, AwaitingRole, f.workflow.State(alice))

	f.workflow.Cancel(alice)

	select {
	case result := <-done:
		assert.Equal(t, Idle, result.State)
		assert.ErrorIs(t, result.Err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("sign-up did not stop after cancel")
	}
	assert.Equal(t, 0, f.store.count())
	f.presenter.mu.Lock()
	assert.Equal(t, []string{req.ID}, f.presenter.released)
	f.presenter.mu.Unlock()
}

func TestCompleteIdentity_RequiresCollectingIdentity(t *testing.T) {
	f := newWorkflowFixture(t)

	result := f.workflow.CompleteIdentity(context.Background(), alice, IdentityInput{Character: "jaina", Realm: "stormrage"})
	assert.ErrorIs(t, result.Err, ErrNoSession)

	f.store.rows = []db.Registration{existingRegistration("alice")}
	f.workflow.Submit(context.Background(), alice)

	result = f.workflow.CompleteIdentity(context.Background(), alice, IdentityInput{Character: "jaina", Realm: "stormrage"})
	assert.ErrorIs(t, result.Err, ErrWrongState)
	assert.Equal(t, EditConfirm, result.State)
}

func TestAnswer(t *testing.T) {
	f := newWorkflowFixture(t)
	f.presenter.answers = nil
	f.presenter.shown = make(chan ChoiceRequest, 2)
	f.workflow.opts.ChoiceTimeout = time.Minute
	f.workflow.Submit(context.Background(), alice)

	done := make(chan Result, 1)
	go func() {
		done <- f.workflow.CompleteIdentity(context.Background(), alice, IdentityInput{
			Character: "jaina",
			Realm:     "stormrage",
		})
	}()

	roleReq := <-f.presenter.shown
	assert.ErrorIs(t, f.workflow.Answer("missing", alice.ID, "Tank"), ErrUnknownChoice)
	assert.ErrorIs(t, f.workflow.Answer(roleReq.ID, "someone-else", "Tank"), ErrUnknownChoice)
	assert.ErrorIs(t, f.workflow.Answer(roleReq.ID, alice.ID, "Bard"), ErrInvalidOption)
	require.NoError(t, f.workflow.Answer(roleReq.ID, alice.ID, "Tank"))

	bracketReq := <-f.presenter.shown
	assert.Equal(t, model.BracketOptions(), bracketReq.Options)
	require.NoError(t, f.workflow.Answer(bracketReq.ID, alice.ID, "0-3 (Carved)"))

	result := <-done
	require.Equal(t, Confirmed, result.State)
	assert.Equal(t, "Tank", result.Registration.Role)
	assert.Equal(t, "0-3 (Carved)", result.Registration.KeyRange)

	// Answered prompts are no longer pending
	assert.ErrorIs(t, f.workflow.Answer(roleReq.ID, alice.ID, "Tank"), ErrUnknownChoice)
}

func TestConfirmEdit_No(t *testing.T) {
	f := newWorkflowFixture(t)
	f.store.rows = []db.Registration{existingRegistration("alice")}
	f.workflow.Submit(context.Background(), alice)

	result := f.workflow.ConfirmEdit(context.Background(), alice, false)

	assert.Equal(t, Idle, result.State)
	assert.Equal(t, "Thanks for registering!", result.Message)
	assert.Len(t, f.store.rows, 1)
	assert.Equal(t, Idle, f.workflow.State(alice))
}

func TestConfirmEdit_YesRemovesAndRestarts(t *testing.T) {
	f := newWorkflowFixture(t)
	f.store.rows = []db.Registration{existingRegistration("alice")}
	f.workflow.Submit(context.Background(), alice)

	result := f.workflow.ConfirmEdit(context.Background(), alice, true)

	assert.Equal(t, CollectingIdentity, result.State)
	assert.Contains(t, result.Message, "Your registration for **Thrall**-**Area 52** has been successfully removed.")
	assert.Contains(t, result.Message, "**Mar 15**")
	assert.Empty(t, f.store.rows)
	require.Len(t, f.store.removed, 1)
	assert.Equal(t, "03/12/2025 15:00:00", f.store.removed[0].Timestamp)

	result = f.workflow.CompleteIdentity(context.Background(), alice, IdentityInput{Character: "jaina", Realm: "stormrage"})
	assert.Equal(t, Confirmed, result.State)
	assert.Len(t, f.store.rows, 1)
}

func TestConfirmEdit_RemoveFailure(t *testing.T) {
	tests := []struct {
		name      string
		removeErr error
		rows      []db.Registration
	}{
		{"store error", errBoom, []db.Registration{existingRegistration("alice")}},
		{"record vanished", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWorkflowFixture(t)
			f.store.rows = []db.Registration{existingRegistration("alice")}
			f.workflow.Submit(context.Background(), alice)
			f.store.rows = tt.rows
			f.store.removeErr = tt.removeErr

			result := f.workflow.ConfirmEdit(context.Background(), alice, true)

			assert.Equal(t, Failed, result.State)
			assert.Error(t, result.Err)
			assert.Equal(t, "An error occurred while trying to remove your registration. Please try again.", result.Message)
			assert.Equal(t, Idle, f.workflow.State(alice))
		})
	}
}

func TestBeginRemove_NoRegistration(t *testing.T) {
	f := newWorkflowFixture(t)

	result := f.workflow.BeginRemove(context.Background(), alice)

	assert.Equal(t, Idle, result.State)
	assert.Equal(t, "No registration found for you.", result.Message)
}

func TestRemoveFlow(t *testing.T) {
	tests := []struct {
		name          string
		confirm       bool
		expectedState State
		expectedRows  int
		expectedMsg   string
	}{
		{"confirmed", true, Removed, 0, "Your registration for **Thrall**-**Area 52** has been removed."},
		{"declined", false, Idle, 1, "Your registration has not been removed."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWorkflowFixture(t)
			f.store.rows = []db.Registration{existingRegistration("alice")}

			begin := f.workflow.BeginRemove(context.Background(), alice)
			require.Equal(t, RemoveConfirm, begin.State)
			assert.Contains(t, begin.Message, "Thrall-Area 52")

			result := f.workflow.ConfirmRemove(context.Background(), alice, tt.confirm)

			assert.Equal(t, tt.expectedState, result.State)
			assert.Equal(t, tt.expectedMsg, result.Message)
			assert.Len(t, f.store.rows, tt.expectedRows)
			assert.Equal(t, Idle, f.workflow.State(alice))
		})
	}
}

func TestConfirmRemove_Outcomes(t *testing.T) {
	f := newWorkflowFixture(t)
	f.store.rows = []db.Registration{existingRegistration("alice")}
	f.workflow.BeginRemove(context.Background(), alice)
	f.store.rows = nil

	result := f.workflow.ConfirmRemove(context.Background(), alice, true)
	assert.Equal(t, Idle, result.State)
	assert.Equal(t, "No registration found for you.", result.Message)

	f.store.rows = []db.Registration{existingRegistration("alice")}
	f.workflow.BeginRemove(context.Background(), alice)
	f.store.removeErr = errBoom

	result = f.workflow.ConfirmRemove(context.Background(), alice, true)
	assert.Equal(t, Failed, result.State)
	assert.ErrorIs(t, result.Err, errBoom)
}

func TestSessionsAreIndependent(t *testing.T) {
	f := newWorkflowFixture(t)
	bob := User{ID: "200", Name: "bob"}
	f.store.rows = []db.Registration{existingRegistration("bob")}

	assert.Equal(t, CollectingIdentity, f.workflow.Submit(context.Background(), alice).State)
	assert.Equal(t, EditConfirm, f.workflow.Submit(context.Background(), bob).State)

	f.workflow.Cancel(bob)
	assert.Equal(t, Idle, f.workflow.State(bob))
	assert.Equal(t, CollectingIdentity, f.workflow.State(alice))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "collecting_identity", CollectingIdentity.String())
	assert.Equal(t, "state(99)", State(99).String())
}
