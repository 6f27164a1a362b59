package discordbot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/dndguild/keyevent-bot/pkg/core/services"
)

// maxButtonsPerRow is Discord's limit on components in one action row
const maxButtonsPerRow = 5

var promptText = map[services.ChoiceKind]string{
	services.ChoiceRole:    "Please select your Role:",
	services.ChoiceBracket: "Please select your Key Range:",
}

type pendingPrompt struct {
	userID  string
	options []string
}

// Prompter shows workflow choice prompts as ephemeral followups of the
// user's registration form submission and removes them afterwards
type Prompter struct {
	session Session
	logger  *zap.Logger

	mu           sync.Mutex
	interactions map[string]*discordgo.Interaction
	messages     map[string][]string
	choices      map[string]pendingPrompt
}

var _ services.Presenter = (*Prompter)(nil)

func NewPrompter(session Session, logger *zap.Logger) *Prompter {
	return &Prompter{
		session:      session,
		logger:       logger,
		interactions: make(map[string]*discordgo.Interaction),
		messages:     make(map[string][]string),
		choices:      make(map[string]pendingPrompt),
	}
}

// Track makes i the interaction prompts for userID are sent under
func (p *Prompter) Track(userID string, i *discordgo.Interaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interactions[userID] = i
	p.messages[userID] = nil
}

// Remember marks a followup message for removal by CapturePrompts
func (p *Prompter) Remember(userID string, msg *discordgo.Message) {
	if msg == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages[userID] = append(p.messages[userID], msg.ID)
}

// RequestChoice sends one button per option
func (p *Prompter) RequestChoice(ctx context.Context, req services.ChoiceRequest) error {
	p.mu.Lock()
	i, ok := p.interactions[req.User.ID]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("no interaction to prompt user %s", req.User.Name)
	}

	text, ok := promptText[req.Kind]
	if !ok {
		text = "Please select an option:"
	}

	// Registered before sending so an immediate click resolves
	p.mu.Lock()
	p.choices[req.ID] = pendingPrompt{userID: req.User.ID, options: req.Options}
	p.mu.Unlock()

	msg, err := p.session.FollowupMessageCreate(i, true, &discordgo.WebhookParams{
		Content:    text,
		Components: choiceRows(req.ID, req.Options),
		Flags:      discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		p.mu.Lock()
		delete(p.choices, req.ID)
		p.mu.Unlock()
		return fmt.Errorf("failed to send %s prompt: %w", req.Kind, err)
	}

	p.mu.Lock()
	if msg != nil {
		p.messages[req.User.ID] = append(p.messages[req.User.ID], msg.ID)
	}
	p.mu.Unlock()
	return nil
}

// Choice decodes a choice button id into the request id and selected option
func (p *Prompter) Choice(customID string) (requestID, value string, ok bool) {
	rest, found := strings.CutPrefix(customID, choicePrefix)
	if !found {
		return "", "", false
	}
	requestID, indexStr, found := strings.Cut(rest, ":")
	if !found {
		return "", "", false
	}
	index, err := strconv.Atoi(indexStr)
	if err != nil {
		return "", "", false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	prompt, ok := p.choices[requestID]
	if !ok || index < 0 || index >= len(prompt.options) {
		return "", "", false
	}
	return requestID, prompt.options[index], true
}

// ReleaseChoice forgets a finished request; its buttons stop resolving
func (p *Prompter) ReleaseChoice(requestID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.choices, requestID)
}

// CapturePrompts snapshots the form response and prompts currently tracked
// for user. The returned func deletes them, and stops tracking the user
// unless a newer form submission has been tracked since.
func (p *Prompter) CapturePrompts(user services.User) func() {
	p.mu.Lock()
	i := p.interactions[user.ID]
	messages := append([]string(nil), p.messages[user.ID]...)
	p.mu.Unlock()

	return func() {
		if i == nil {
			return
		}

		p.mu.Lock()
		if p.interactions[user.ID] == i {
			delete(p.interactions, user.ID)
			delete(p.messages, user.ID)
		}
		p.mu.Unlock()

		for _, id := range messages {
			if err := p.session.FollowupMessageDelete(i, id); err != nil {
				p.logger.Warn("Message was not found for deletion", zap.String("message", id), zap.Error(err))
			}
		}
		if err := p.session.InteractionResponseDelete(i); err != nil {
			p.logger.Warn("Form response was not found for deletion", zap.String("user", user.Name), zap.Error(err))
		}
	}
}

func choiceRows(requestID string, options []string) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	var row discordgo.ActionsRow
	for idx, opt := range options {
		row.Components = append(row.Components, discordgo.Button{
			Label:    opt,
			Style:    discordgo.PrimaryButton,
			CustomID: fmt.Sprintf("%s%s:%d", choicePrefix, requestID, idx),
		})
		if len(row.Components) == maxButtonsPerRow {
			rows = append(rows, row)
			row = discordgo.ActionsRow{}
		}
	}
	if len(row.Components) > 0 {
		rows = append(rows, row)
	}
	return rows
}
