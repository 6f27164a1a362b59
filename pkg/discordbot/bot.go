// Package discordbot is the Discord front end of the sign-up workflow: the
// /dnd menu, the registration modal, role and key range prompts, and the
// /mplus voice channel commands.
package discordbot

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/dndguild/keyevent-bot/pkg/core/schedule"
	"github.com/dndguild/keyevent-bot/pkg/core/services"
	"github.com/dndguild/keyevent-bot/pkg/db"
)

// Session is the subset of *discordgo.Session the bot uses
type Session interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseDelete(interaction *discordgo.Interaction, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageDelete(interaction *discordgo.Interaction, messageID string, options ...discordgo.RequestOption) error
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

var _ Session = (*discordgo.Session)(nil)

// Custom ids of components and modals
const (
	idSignup      = "dnd:signup"
	idRemove      = "dnd:remove"
	idInfo        = "dnd:info"
	idForm        = "dnd:form"
	idEditYes     = "dnd:edit:yes"
	idEditNo      = "dnd:edit:no"
	idRemoveYes   = "dnd:remove:yes"
	idRemoveNo    = "dnd:remove:no"
	idIdentity    = "dnd:identity"
	idCharacter   = "character"
	idRealm       = "realm"
	idNotes       = "notes"
	choicePrefix  = "choice:"
	expiredNotice = "Your registration session has expired. Please use /dnd to start again."
)

// Options configures the bot's static behaviour
type Options struct {
	InfoLink string
	// IsAllowedRole reports whether a guild role name may manage channels.
	// Nil allows only the guild owner.
	IsAllowedRole func(name string) bool
}

// Bot routes Discord interactions to the registration workflow
type Bot struct {
	ctx      context.Context
	session  Session
	workflow *services.Workflow
	store    db.RegistrationStore
	prompter *Prompter
	calendar *schedule.Calendar
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a bot. ctx bounds every workflow call made from a handler.
func New(
	ctx context.Context,
	session Session,
	workflow *services.Workflow,
	store db.RegistrationStore,
	prompter *Prompter,
	calendar *schedule.Calendar,
	opts Options,
	logger *zap.Logger,
) *Bot {
	return &Bot{
		ctx:      ctx,
		session:  session,
		workflow: workflow,
		store:    store,
		prompter: prompter,
		calendar: calendar,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// Commands returns the application commands the bot registers
func Commands() []*discordgo.ApplicationCommand {
	minNumber := float64(11)
	return []*discordgo.ApplicationCommand{
		{
			Name:        "dnd",
			Description: "Open M+ registration menu",
		},
		{
			Name:        "mplus",
			Description: "Mythic Plus admin commands",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
					Name:        "channels",
					Description: "Manage Key Event voice channels",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "add",
							Description: "Add temporary Mythic Plus voice channels (11 and up)",
							Options: []*discordgo.ApplicationCommandOption{
								{
									Type:        discordgo.ApplicationCommandOptionInteger,
									Name:        "number",
									Description: "Highest channel number to create",
									Required:    true,
									MinValue:    &minNumber,
								},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "remove",
							Description: "Remove temporary Mythic Plus voice channels (11 and up)",
						},
					},
				},
			},
		},
	}
}

// HandleInteraction is registered with discordgo's AddHandler
func (b *Bot) HandleInteraction(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
	b.handle(ic.Interaction)
}

func (b *Bot) handle(i *discordgo.Interaction) {
	user, ok := interactionUser(i)
	if !ok {
		b.logger.Warn("Interaction without a user", zap.String("interaction", i.ID))
		return
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		switch i.ApplicationCommandData().Name {
		case "dnd":
			b.showMenu(i)
		case "mplus":
			b.handleMplus(i)
		}
	case discordgo.InteractionMessageComponent:
		b.handleComponent(i, user)
	case discordgo.InteractionModalSubmit:
		if i.ModalSubmitData().CustomID == idIdentity {
			b.handleIdentity(i, user)
		}
	}
}

func (b *Bot) handleComponent(i *discordgo.Interaction, user services.User) {
	customID := i.MessageComponentData().CustomID
	switch customID {
	case idSignup:
		b.startSignup(i, user)
	case idForm:
		b.openForm(i, user)
	case idEditYes, idEditNo:
		b.confirmEdit(i, user, customID == idEditYes)
	case idRemove:
		b.startRemove(i, user)
	case idRemoveYes, idRemoveNo:
		b.confirmRemove(i, user, customID == idRemoveYes)
	case idInfo:
		b.eventInfo(i)
	default:
		if strings.HasPrefix(customID, choicePrefix) {
			b.answerChoice(i, user, customID)
		}
	}
}

func interactionUser(i *discordgo.Interaction) (services.User, bool) {
	u := i.User
	if i.Member != nil && i.Member.User != nil {
		u = i.Member.User
	}
	if u == nil {
		return services.User{}, false
	}
	return services.User{ID: u.ID, Name: u.Username}, true
}

func (b *Bot) reply(i *discordgo.Interaction, content string, components ...discordgo.MessageComponent) {
	b.respond(i, discordgo.InteractionResponseChannelMessageWithSource, content, components)
}

// update replaces the message the clicked component belongs to
func (b *Bot) update(i *discordgo.Interaction, content string, components ...discordgo.MessageComponent) {
	b.respond(i, discordgo.InteractionResponseUpdateMessage, content, components)
}

func (b *Bot) respond(i *discordgo.Interaction, kind discordgo.InteractionResponseType, content string, components []discordgo.MessageComponent) {
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	err := b.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: kind,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: components,
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.logger.Error("Failed to respond to interaction", zap.String("interaction", i.ID), zap.Error(err))
	}
}

func (b *Bot) followup(i *discordgo.Interaction, content string, components ...discordgo.MessageComponent) *discordgo.Message {
	msg, err := b.session.FollowupMessageCreate(i, true, &discordgo.WebhookParams{
		Content:    content,
		Components: components,
		Flags:      discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		b.logger.Error("Failed to send followup", zap.String("interaction", i.ID), zap.Error(err))
		return nil
	}
	return msg
}

func buttonRow(buttons ...discordgo.Button) discordgo.ActionsRow {
	row := discordgo.ActionsRow{}
	for _, btn := range buttons {
		row.Components = append(row.Components, btn)
	}
	return row
}

func yesNoRow(yesID, noID string) discordgo.ActionsRow {
	return buttonRow(
		discordgo.Button{Label: "Yes", Style: discordgo.DangerButton, CustomID: yesID},
		discordgo.Button{Label: "No", Style: discordgo.SecondaryButton, CustomID: noID},
	)
}
