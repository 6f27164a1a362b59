package services

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChoiceKind names the selection a prompt asks for
type ChoiceKind string

const (
	ChoiceRole    ChoiceKind = "role"
	ChoiceBracket ChoiceKind = "bracket"
)

// ChoiceRequest asks the presentation layer to show a single-choice prompt.
// The answer is delivered with Workflow.Answer using ID.
type ChoiceRequest struct {
	ID      string
	User    User
	Kind    ChoiceKind
	Options []string
}

var (
	// ErrUnknownChoice is returned for answers to prompts that are no longer pending
	ErrUnknownChoice = errors.New("choice is no longer pending")
	// ErrInvalidOption is returned for answers outside the offered options
	ErrInvalidOption = errors.New("option not offered")
)

type pendingChoice struct {
	userID  string
	options []string
	reply   chan string
}

// Answer delivers the user's selection for a pending prompt. Only the first
// answer counts.
func (w *Workflow) Answer(requestID, userID, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.pending[requestID]
	if !ok || p.userID != userID {
		return ErrUnknownChoice
	}
	if !slices.Contains(p.options, value) {
		return ErrInvalidOption
	}

	select {
	case p.reply <- value:
	default:
	}
	return nil
}

// awaitChoice shows a prompt and waits for the answer. An unanswered prompt
// yields "" once ChoiceTimeout passes; a cancelled ctx returns its error.
func (w *Workflow) awaitChoice(ctx context.Context, user User, kind ChoiceKind, options []string) (string, error) {
	req := ChoiceRequest{
		ID:      uuid.New().String(),
		User:    user,
		Kind:    kind,
		Options: options,
	}

	p := &pendingChoice{userID: user.ID, options: options, reply: make(chan string, 1)}
	w.mu.Lock()
	w.pending[req.ID] = p
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		delete(w.pending, req.ID)
		w.mu.Unlock()
		w.presenter.ReleaseChoice(req.ID)
	}()

	if err := w.presenter.RequestChoice(ctx, req); err != nil {
		w.logger.Warn("Failed to show choice prompt, leaving it unset",
			zap.String("user", user.Name),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return "", nil
	}

	timer := time.NewTimer(w.opts.ChoiceTimeout)
	defer timer.Stop()

	select {
	case value := <-p.reply:
		return value, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		w.logger.Info("Choice prompt timed out, leaving it unset",
			zap.String("user", user.Name),
			zap.String("kind", string(kind)))
		return "", nil
	}
}
