package discordbot

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/dndguild/keyevent-bot/pkg/core/services"
)

const startPrompt = "Click the button below to start the registration process:"

func (b *Bot) showMenu(i *discordgo.Interaction) {
	b.reply(i, "Please choose an option:", buttonRow(
		discordgo.Button{Label: "Sign Up for M+ Event", Style: discordgo.SuccessButton, CustomID: idSignup},
		discordgo.Button{Label: "Remove Signup", Style: discordgo.DangerButton, CustomID: idRemove},
		discordgo.Button{Label: "M+ Event Info", Style: discordgo.SecondaryButton, CustomID: idInfo},
	))
}

func (b *Bot) startSignup(i *discordgo.Interaction, user services.User) {
	result := b.workflow.Submit(b.ctx, user)
	switch result.State {
	case services.CollectingIdentity:
		b.showForm(i, result.EventDate.Format("Jan 02"))
	case services.EditConfirm:
		b.reply(i, result.Message, yesNoRow(idEditYes, idEditNo))
	default:
		b.reply(i, result.Message)
	}
}

func (b *Bot) openForm(i *discordgo.Interaction, user services.User) {
	if b.workflow.State(user) != services.CollectingIdentity {
		b.update(i, expiredNotice)
		return
	}
	b.showForm(i, b.calendar.EventDate(b.now()).Format("Jan 02"))
}

func (b *Bot) showForm(i *discordgo.Interaction, eventDate string) {
	err := b.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: idIdentity,
			Title:    fmt.Sprintf("Registration Form (%s)", eventDate),
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  idCharacter,
						Label:     "Character Name (include special characters)",
						Style:     discordgo.TextInputShort,
						Required:  true,
						MaxLength: 12,
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  idRealm,
						Label:     "Realm (double check your realm!)",
						Style:     discordgo.TextInputShort,
						Required:  true,
						MaxLength: 40,
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  idNotes,
						Label:     "Special Requests (optional)",
						Style:     discordgo.TextInputParagraph,
						Required:  false,
						MaxLength: 500,
					},
				}},
			},
		},
	})
	if err != nil {
		b.logger.Error("Failed to open registration form", zap.String("interaction", i.ID), zap.Error(err))
	}
}

// handleIdentity runs the rest of the sign-up. It blocks until the role and
// key range prompts are answered or time out.
func (b *Bot) handleIdentity(i *discordgo.Interaction, user services.User) {
	values := modalValues(i.ModalSubmitData())
	input := services.IdentityInput{
		Character: values[idCharacter],
		Realm:     values[idRealm],
		Notes:     values[idNotes],
	}

	b.reply(i, fmt.Sprintf("Thank you, %s! Looking up %s on %s...", user.Name, input.Character, input.Realm))
	b.prompter.Track(user.ID, i)

	result := b.workflow.CompleteIdentity(b.ctx, user, input)
	switch {
	case result.State == services.CollectingIdentity:
		b.prompter.Remember(user.ID, b.followup(i, result.Message+"\n"+startPrompt, startButtonRow()))
	case errors.Is(result.Err, services.ErrNoSession), errors.Is(result.Err, services.ErrWrongState):
		b.followup(i, expiredNotice)
	case result.Message != "":
		b.followup(i, result.Message)
	}
}

func (b *Bot) confirmEdit(i *discordgo.Interaction, user services.User, yes bool) {
	result := b.workflow.ConfirmEdit(b.ctx, user, yes)
	switch {
	case errors.Is(result.Err, services.ErrNoSession), errors.Is(result.Err, services.ErrWrongState):
		b.update(i, expiredNotice)
	case result.State == services.CollectingIdentity:
		b.update(i, result.Message+"\n"+startPrompt, startButtonRow())
	default:
		b.update(i, result.Message)
	}
}

func (b *Bot) startRemove(i *discordgo.Interaction, user services.User) {
	result := b.workflow.BeginRemove(b.ctx, user)
	if result.State == services.RemoveConfirm {
		b.reply(i, result.Message, yesNoRow(idRemoveYes, idRemoveNo))
		return
	}
	b.reply(i, result.Message)
}

func (b *Bot) confirmRemove(i *discordgo.Interaction, user services.User, yes bool) {
	result := b.workflow.ConfirmRemove(b.ctx, user, yes)
	if errors.Is(result.Err, services.ErrNoSession) || errors.Is(result.Err, services.ErrWrongState) {
		b.update(i, expiredNotice)
		return
	}
	b.update(i, result.Message)
}

func (b *Bot) eventInfo(i *discordgo.Interaction) {
	info, err := services.EventInfo(b.ctx, b.store, b.opts.InfoLink)
	if err != nil {
		b.logger.Error("Failed to load event info", zap.Error(err))
		b.reply(i, "Event information is unavailable right now. Please try again later.")
		return
	}
	b.reply(i, info.Message())
}

func (b *Bot) answerChoice(i *discordgo.Interaction, user services.User, customID string) {
	requestID, value, ok := b.prompter.Choice(customID)
	if !ok {
		b.update(i, "This selection has expired.")
		return
	}

	if err := b.workflow.Answer(requestID, user.ID, value); err != nil {
		b.logger.Info("Choice not accepted",
			zap.String("user", user.Name),
			zap.String("request", requestID),
			zap.Error(err))
		b.update(i, "This selection has expired.")
		return
	}
	b.update(i, fmt.Sprintf("You selected %s!", value))
}

func startButtonRow() discordgo.ActionsRow {
	return buttonRow(discordgo.Button{Label: "Start Registration", Style: discordgo.PrimaryButton, CustomID: idForm})
}

// modalValues collects text input values keyed by custom id
func modalValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	values := make(map[string]string)
	for _, c := range data.Components {
		var inner []discordgo.MessageComponent
		switch row := c.(type) {
		case *discordgo.ActionsRow:
			inner = row.Components
		case discordgo.ActionsRow:
			inner = row.Components
		}
		for _, ic := range inner {
			switch input := ic.(type) {
			case *discordgo.TextInput:
				values[input.CustomID] = input.Value
			case discordgo.TextInput:
				values[input.CustomID] = input.Value
			}
		}
	}
	return values
}
