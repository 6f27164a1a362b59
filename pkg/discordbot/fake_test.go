package discordbot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/dndguild/keyevent-bot/pkg/clients/blizzardclient"
	"github.com/dndguild/keyevent-bot/pkg/core/model"
	"github.com/dndguild/keyevent-bot/pkg/db"
)

// fakeSession implements Session and records every call
type fakeSession struct {
	mu               sync.Mutex
	responses        []*discordgo.InteractionResponse
	followups        chan *discordgo.WebhookParams
	deletedFollowups []string
	deletedResponses int
	nextID           int

	ownerID    string
	roles      []*discordgo.Role
	channels   []*discordgo.Channel
	created    []discordgo.GuildChannelCreateData
	deletedIDs []string
}

func newFakeSession() *fakeSession {
	return &fakeSession{followups: make(chan *discordgo.WebhookParams, 20), ownerID: "owner"}
}

func (f *fakeSession) InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeSession) InteractionResponseDelete(i *discordgo.Interaction, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedResponses++
	return nil
}

func (f *fakeSession) FollowupMessageCreate(i *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	f.nextID++
	id := fmt.Sprintf("msg-%d", f.nextID)
	f.mu.Unlock()
	f.followups <- data
	return &discordgo.Message{ID: id, Content: data.Content}, nil
}

func (f *fakeSession) FollowupMessageDelete(i *discordgo.Interaction, messageID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedFollowups = append(f.deletedFollowups, messageID)
	return nil
}

func (f *fakeSession) Guild(guildID string, _ ...discordgo.RequestOption) (*discordgo.Guild, error) {
	return &discordgo.Guild{ID: guildID, OwnerID: f.ownerID}, nil
}

func (f *fakeSession) GuildRoles(guildID string, _ ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	return f.roles, nil
}

func (f *fakeSession) GuildChannels(guildID string, _ ...discordgo.RequestOption) ([]*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*discordgo.Channel(nil), f.channels...), nil
}

func (f *fakeSession) GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	ch := &discordgo.Channel{ID: fmt.Sprintf("ch-%d", f.nextID), Name: data.Name, Type: data.Type, ParentID: data.ParentID}
	f.created = append(f.created, data)
	f.channels = append(f.channels, ch)
	return ch, nil
}

func (f *fakeSession) ChannelDelete(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedIDs = append(f.deletedIDs, channelID)
	return &discordgo.Channel{ID: channelID}, nil
}

func (f *fakeSession) lastResponse() *discordgo.InteractionResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.responses) == 0 {
		return nil
	}
	return f.responses[len(f.responses)-1]
}

func (f *fakeSession) nextFollowup() (*discordgo.WebhookParams, error) {
	select {
	case p := <-f.followups:
		return p, nil
	case <-time.After(5 * time.Second):
		return nil, errors.New("no followup sent")
	}
}

// memStore implements db.RegistrationStore in memory
type memStore struct {
	mu   sync.Mutex
	rows []db.Registration
}

func (m *memStore) FindByUser(ctx context.Context, userID string) (*db.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.DiscordUser == userID {
			reg := r
			return &reg, nil
		}
	}
	return nil, nil
}

func (m *memStore) Append(ctx context.Context, reg *db.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *reg)
	return nil
}

func (m *memStore) Remove(ctx context.Context, character, realm, userID string, now time.Time) (db.RemoveOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.Character == character && r.Realm == realm && r.DiscordUser == userID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return db.Removed, nil
		}
	}
	return db.RemoveNotFound, nil
}

func (m *memStore) Rotate(ctx context.Context, now time.Time) (db.RotateOutcome, error) {
	return db.RotateSkipped, nil
}

func (m *memStore) ListRegistrations(ctx context.Context) ([]db.RegistrationRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := make([]db.RegistrationRow, len(m.rows))
	for i, r := range m.rows {
		rows[i] = db.RegistrationRow{Index: i, Registration: r}
	}
	return rows, nil
}

func (m *memStore) UpdateStats(ctx context.Context, index int, stats model.CharacterStats) error {
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type staticTokens struct{}

func (staticTokens) AccessToken(ctx context.Context) (string, error) { return "token", nil }

type staticProfiles struct{}

func (staticProfiles) GetProfile(ctx context.Context, realmSlug, realmName, character, token string) blizzardclient.Profile {
	class := "Mage"
	ilvl := 639
	return blizzardclient.Profile{Class: &class, ItemLevel: &ilvl, RealmName: realmName}
}
