package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dndguild/keyevent-bot/pkg/core/schedule"
	"github.com/dndguild/keyevent-bot/pkg/db"
	"github.com/dndguild/keyevent-bot/pkg/metrics"
)

// State is a step of the registration dialogue
type State int

const (
	Idle State = iota
	DuplicateCheck
	CollectingIdentity
	AwaitingRole
	AwaitingBracket
	Persisting
	Confirmed
	Failed
	EditConfirm
	RemoveConfirm
	Removed
)

var stateNames = map[State]string{
	Idle:               "idle",
	DuplicateCheck:     "duplicate_check",
	CollectingIdentity: "collecting_identity",
	AwaitingRole:       "awaiting_role",
	AwaitingBracket:    "awaiting_bracket",
	Persisting:         "persisting",
	Confirmed:          "confirmed",
	Failed:             "failed",
	EditConfirm:        "edit_confirm",
	RemoveConfirm:      "remove_confirm",
	Removed:            "removed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	// ErrNoSession is returned when a step arrives for a user with no dialogue in progress
	ErrNoSession = errors.New("no registration in progress")
	// ErrWrongState is returned when a step does not apply to the current state
	ErrWrongState = errors.New("action not valid in current state")
	// ErrInvalidIdentity is reported when character or realm input is unusable
	ErrInvalidIdentity = errors.New("invalid character or realm")
)

// User identifies who is driving a dialogue. Name is the owning user
// identifier written to the sign-up table.
type User struct {
	ID   string
	Name string
}

// Result is what a workflow step tells the user
type Result struct {
	State   State
	Message string
	// Registration is the existing record for EditConfirm and RemoveConfirm,
	// or the new record once Confirmed
	Registration *db.Registration
	// EventDate is set when identity collection starts
	EventDate time.Time
	// Err carries the cause of a Failed or rejected step
	Err error
}

type session struct {
	state    State
	existing *db.Registration
	cancel   context.CancelFunc
}

// WorkflowOptions tunes waits and the clock
type WorkflowOptions struct {
	// ChoiceTimeout bounds how long a role or bracket prompt waits for an answer
	ChoiceTimeout time.Duration
	// CleanupDelay is how long confirmation prompts stay visible
	CleanupDelay time.Duration
	Now          func() time.Time
}

// Workflow drives sign-up, edit and removal dialogues. Each user has at most
// one session; sessions are independent of each other.
type Workflow struct {
	store     db.RegistrationStore
	resolver  RealmResolver
	tokens    TokenSource
	profiles  ProfileFetcher
	presenter Presenter
	calendar  *schedule.Calendar
	metrics   *metrics.Metrics
	logger    *zap.Logger
	opts      WorkflowOptions

	mu       sync.Mutex
	sessions map[string]*session
	pending  map[string]*pendingChoice
}

// NewWorkflow creates a workflow. m may be nil.
func NewWorkflow(
	store db.RegistrationStore,
	resolver RealmResolver,
	tokens TokenSource,
	profiles ProfileFetcher,
	presenter Presenter,
	calendar *schedule.Calendar,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts WorkflowOptions,
) *Workflow {
	if opts.ChoiceTimeout <= 0 {
		opts.ChoiceTimeout = 3 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Workflow{
		store:     store,
		resolver:  resolver,
		tokens:    tokens,
		profiles:  profiles,
		presenter: presenter,
		calendar:  calendar,
		metrics:   m,
		logger:    logger,
		opts:      opts,
		sessions:  make(map[string]*session),
		pending:   make(map[string]*pendingChoice),
	}
}

// State returns the user's current dialogue state
func (w *Workflow) State(user User) State {
	w.mu.Lock()
	defer w.mu.Unlock()
	if s, ok := w.sessions[user.ID]; ok {
		return s.state
	}
	return Idle
}

// Cancel abandons the user's dialogue. A sign-up waiting on a prompt stops
// without persisting.
func (w *Workflow) Cancel(user User) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.endLocked(user)
}

// Submit starts a sign-up: the user's existing registration, if any, is
// offered for editing; otherwise identity collection begins.
func (w *Workflow) Submit(ctx context.Context, user User) Result {
	w.mu.Lock()
	w.endLocked(user)
	w.sessions[user.ID] = &session{state: DuplicateCheck}
	w.mu.Unlock()

	w.logger.Debug("Sign-up started", zap.String("user", user.Name))
	return w.duplicateCheck(ctx, user, "")
}

// ConfirmEdit answers the edit prompt. Yes removes the existing registration
// and restarts the sign-up; no keeps it.
func (w *Workflow) ConfirmEdit(ctx context.Context, user User, yes bool) Result {
	s, err := w.expect(user, EditConfirm)
	if err != nil {
		return Result{State: w.State(user), Err: err}
	}

	if !yes {
		w.end(user)
		w.metrics.WorkflowOutcome("edit", "kept")
		return Result{State: Idle, Message: "Thanks for registering!", Registration: s.existing}
	}

	existing := s.existing
	outcome, err := w.store.Remove(ctx, existing.Character, existing.Realm, user.Name, w.opts.Now())
	if err != nil || outcome != db.Removed {
		if err == nil {
			err = fmt.Errorf("registration %s-%s not found for removal", existing.Character, existing.Realm)
		}
		w.logger.Error("Failed to remove registration for edit",
			zap.String("user", user.Name),
			zap.String("character", existing.Character),
			zap.Error(err))
		w.fail(user, "edit")
		return Result{
			State:   Failed,
			Message: "An error occurred while trying to remove your registration. Please try again.",
			Err:     err,
		}
	}

	w.setState(user, Removed)
	w.metrics.WorkflowOutcome("edit", "removed")
	w.setState(user, DuplicateCheck)

	prefix := fmt.Sprintf("Your registration for **%s**-**%s** has been successfully removed. ",
		existing.Character, existing.Realm)
	return w.duplicateCheck(ctx, user, prefix)
}

// BeginRemove starts a removal: the user's registration is offered for
// confirmation, or the dialogue ends when there is none.
func (w *Workflow) BeginRemove(ctx context.Context, user User) Result {
	w.mu.Lock()
	w.endLocked(user)
	w.sessions[user.ID] = &session{state: DuplicateCheck}
	w.mu.Unlock()

	existing, err := w.store.FindByUser(ctx, user.Name)
	if err != nil {
		w.logger.Error("Failed to look up registration", zap.String("user", user.Name), zap.Error(err))
		w.fail(user, "remove")
		return Result{
			State:   Failed,
			Message: "There was an error looking up your registration. Please try again later.",
			Err:     err,
		}
	}

	if existing == nil {
		w.end(user)
		w.metrics.WorkflowOutcome("remove", "not_found")
		return Result{State: Idle, Message: "No registration found for you."}
	}

	w.mu.Lock()
	if s, ok := w.sessions[user.ID]; ok {
		s.state = RemoveConfirm
		s.existing = existing
	}
	w.mu.Unlock()

	return Result{
		State: RemoveConfirm,
		Message: fmt.Sprintf("You are currently signed up with %s-%s, do you want to remove this registration?",
			existing.Character, existing.Realm),
		Registration: existing,
	}
}

// ConfirmRemove answers the removal prompt
func (w *Workflow) ConfirmRemove(ctx context.Context, user User, yes bool) Result {
	s, err := w.expect(user, RemoveConfirm)
	if err != nil {
		return Result{State: w.State(user), Err: err}
	}

	if !yes {
		w.end(user)
		w.metrics.WorkflowOutcome("remove", "kept")
		return Result{State: Idle, Message: "Your registration has not been removed.", Registration: s.existing}
	}

	existing := s.existing
	outcome, err := w.store.Remove(ctx, existing.Character, existing.Realm, user.Name, w.opts.Now())
	if err != nil {
		w.logger.Error("Failed to remove registration",
			zap.String("user", user.Name),
			zap.String("character", existing.Character),
			zap.Error(err))
		w.fail(user, "remove")
		return Result{
			State:   Failed,
			Message: "An error occurred while trying to remove your registration. Please try again.",
			Err:     err,
		}
	}

	w.end(user)
	if outcome == db.RemoveNotFound {
		w.metrics.WorkflowOutcome("remove", "not_found")
		return Result{State: Idle, Message: "No registration found for you."}
	}

	w.metrics.WorkflowOutcome("remove", "removed")
	return Result{
		State:        Removed,
		Message:      fmt.Sprintf("Your registration for **%s**-**%s** has been removed.", existing.Character, existing.Realm),
		Registration: existing,
	}
}

// duplicateCheck looks up the user's registration and branches to EditConfirm
// or CollectingIdentity. prefix is prepended to the message.
func (w *Workflow) duplicateCheck(ctx context.Context, user User, prefix string) Result {
	existing, err := w.store.FindByUser(ctx, user.Name)
	if err != nil {
		w.logger.Error("Failed to check existing registration", zap.String("user", user.Name), zap.Error(err))
		w.fail(user, "signup")
		return Result{
			State:   Failed,
			Message: prefix + "There was an error looking up your registration. Please try again later.",
			Err:     err,
		}
	}

	w.mu.Lock()
	s, ok := w.sessions[user.ID]
	if !ok {
		w.mu.Unlock()
		return Result{State: Idle, Err: ErrNoSession}
	}
	if existing != nil {
		s.state = EditConfirm
		s.existing = existing
	} else {
		s.state = CollectingIdentity
		s.existing = nil
	}
	w.mu.Unlock()

	if existing != nil {
		return Result{
			State: EditConfirm,
			Message: prefix + fmt.Sprintf("Looks like you are already signed up with %s-%s! Do you want to remove this character and edit your registration?",
				existing.Character, existing.Realm),
			Registration: existing,
		}
	}

	eventDate := w.calendar.EventDate(w.opts.Now())
	return Result{
		State:     CollectingIdentity,
		Message:   prefix + fmt.Sprintf("You are signing up for the key event on **%s**.", eventDate.Format("Jan 02")),
		EventDate: eventDate,
	}
}

// expect returns the user's session when it is in the wanted state
func (w *Workflow) expect(user User, want State) (*session, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, ok := w.sessions[user.ID]
	if !ok {
		return nil, ErrNoSession
	}
	if s.state != want {
		return nil, fmt.Errorf("%w: %s", ErrWrongState, s.state)
	}
	return s, nil
}

func (w *Workflow) setState(user User, state State) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if s, ok := w.sessions[user.ID]; ok {
		s.state = state
	}
}

func (w *Workflow) fail(user User, flow string) {
	w.end(user)
	w.metrics.WorkflowOutcome(flow, "failed")
}

func (w *Workflow) end(user User) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.endLocked(user)
}

func (w *Workflow) endLocked(user User) {
	s, ok := w.sessions[user.ID]
	if !ok {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	delete(w.sessions, user.ID)
}
