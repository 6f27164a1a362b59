package discordbot

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	keyEventCategory   = "Key Event"
	voiceChannelPrefix = "Mythic Plus "
	// Channels up to this number are permanent and never touched
	staticChannels = 10
)

func (b *Bot) handleMplus(i *discordgo.Interaction) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 || data.Options[0].Name != "channels" || len(data.Options[0].Options) == 0 {
		return
	}
	sub := data.Options[0].Options[0]

	allowed, err := b.mayManageChannels(i)
	if err != nil {
		b.logger.Error("Failed to check channel permissions", zap.Error(err))
		b.reply(i, "Could not check your permissions. Please try again later.")
		return
	}
	if !allowed {
		b.reply(i, "You don't have permission to use this command.")
		return
	}

	err = b.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		b.logger.Error("Failed to defer channel command", zap.Error(err))
		return
	}

	switch sub.Name {
	case "add":
		var number int
		for _, opt := range sub.Options {
			if opt.Name == "number" {
				number = int(opt.IntValue())
			}
		}
		b.followup(i, b.addChannels(i.GuildID, number))
	case "remove":
		b.followup(i, b.removeChannels(i.GuildID))
	}
}

// mayManageChannels allows the guild owner and members holding an allowed role
func (b *Bot) mayManageChannels(i *discordgo.Interaction) (bool, error) {
	if i.Member == nil || i.GuildID == "" {
		return false, nil
	}

	guild, err := b.session.Guild(i.GuildID)
	if err != nil {
		return false, fmt.Errorf("failed to get guild: %w", err)
	}
	if i.Member.User != nil && i.Member.User.ID == guild.OwnerID {
		return true, nil
	}

	if b.opts.IsAllowedRole == nil {
		return false, nil
	}

	roles, err := b.session.GuildRoles(i.GuildID)
	if err != nil {
		return false, fmt.Errorf("failed to get guild roles: %w", err)
	}
	for _, role := range roles {
		if slices.Contains(i.Member.Roles, role.ID) && b.opts.IsAllowedRole(role.Name) {
			return true, nil
		}
	}
	return false, nil
}

func (b *Bot) addChannels(guildID string, number int) string {
	if number <= staticChannels {
		return "Number must be greater than 10 to avoid modifying static channels."
	}

	channels, err := b.session.GuildChannels(guildID)
	if err != nil {
		b.logger.Error("Failed to list channels", zap.Error(err))
		return "Could not list the server's channels. Please try again later."
	}

	category := findCategory(channels)
	if category == nil {
		category, err = b.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
			Name: keyEventCategory,
			Type: discordgo.ChannelTypeGuildCategory,
		})
		if err != nil {
			b.logger.Error("Failed to create category", zap.Error(err))
			return "Could not create the Key Event category."
		}
	}

	var created []string
	for _, name := range missingVoiceChannels(channels, number) {
		_, err := b.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
			Name:     name,
			Type:     discordgo.ChannelTypeGuildVoice,
			ParentID: category.ID,
		})
		if err != nil {
			b.logger.Error("Failed to create voice channel", zap.String("channel", name), zap.Error(err))
			continue
		}
		created = append(created, name)
	}

	b.logger.Info("Created voice channels", zap.Strings("channels", created))
	return fmt.Sprintf("Created %d channel(s): %s", len(created), joinOrNone(created))
}

func (b *Bot) removeChannels(guildID string) string {
	channels, err := b.session.GuildChannels(guildID)
	if err != nil {
		b.logger.Error("Failed to list channels", zap.Error(err))
		return "Could not list the server's channels. Please try again later."
	}

	category := findCategory(channels)
	if category == nil {
		return "No category named 'Key Event' found."
	}

	var deleted []string
	for _, ch := range temporaryVoiceChannels(channels, category.ID) {
		if _, err := b.session.ChannelDelete(ch.ID); err != nil {
			b.logger.Error("Failed to delete voice channel", zap.String("channel", ch.Name), zap.Error(err))
			continue
		}
		deleted = append(deleted, ch.Name)
	}

	b.logger.Info("Removed voice channels", zap.Strings("channels", deleted))
	return fmt.Sprintf("Removed %d channel(s): %s", len(deleted), joinOrNone(deleted))
}

func findCategory(channels []*discordgo.Channel) *discordgo.Channel {
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildCategory && ch.Name == keyEventCategory {
			return ch
		}
	}
	return nil
}

// missingVoiceChannels names the channels 11..number that no voice channel
// in the guild already uses
func missingVoiceChannels(channels []*discordgo.Channel, number int) []string {
	existing := make(map[string]bool)
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildVoice {
			existing[ch.Name] = true
		}
	}

	var missing []string
	for n := staticChannels + 1; n <= number; n++ {
		name := voiceChannelPrefix + strconv.Itoa(n)
		if !existing[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

// temporaryVoiceChannels returns the numbered voice channels above the
// static range inside the category
func temporaryVoiceChannels(channels []*discordgo.Channel, categoryID string) []*discordgo.Channel {
	var result []*discordgo.Channel
	for _, ch := range channels {
		if ch.Type != discordgo.ChannelTypeGuildVoice || ch.ParentID != categoryID {
			continue
		}
		if n, ok := channelNumber(ch.Name); ok && n > staticChannels {
			result = append(result, ch)
		}
	}
	return result
}

func channelNumber(name string) (int, bool) {
	suffix, found := strings.CutPrefix(name, voiceChannelPrefix)
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return n, true
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, ", ")
}
