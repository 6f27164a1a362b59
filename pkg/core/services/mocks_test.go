package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dndguild/keyevent-bot/pkg/clients/blizzardclient"
	"github.com/dndguild/keyevent-bot/pkg/core/model"
	"github.com/dndguild/keyevent-bot/pkg/core/realm"
	"github.com/dndguild/keyevent-bot/pkg/db"
)

// mockStore implements db.RegistrationStore in memory
type mockStore struct {
	mu          sync.Mutex
	rows        []db.Registration
	removed     []db.RemovedRegistration
	updates     map[int]model.CharacterStats
	findErr     error
	appendErr   error
	removeErr   error
	rotateErr   error
	updateErr   error
	rotateCalls []time.Time
}

func (m *mockStore) FindByUser(ctx context.Context, userID string) (*db.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, r := range m.rows {
		if r.DiscordUser == userID {
			reg := r
			return &reg, nil
		}
	}
	return nil, nil
}

func (m *mockStore) Append(ctx context.Context, reg *db.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.rows = append(m.rows, *reg)
	return nil
}

func (m *mockStore) Remove(ctx context.Context, character, realmName, userID string, now time.Time) (db.RemoveOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removeErr != nil {
		return db.RemoveNotFound, m.removeErr
	}
	for i, r := range m.rows {
		if r.Character == character && r.Realm == realmName && r.DiscordUser == userID {
			m.removed = append(m.removed, r.Archive(now.Format(model.TimestampLayout)))
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return db.Removed, nil
		}
	}
	return db.RemoveNotFound, nil
}

func (m *mockStore) Rotate(ctx context.Context, now time.Time) (db.RotateOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotateCalls = append(m.rotateCalls, now)
	if m.rotateErr != nil {
		return db.RotateSkipped, m.rotateErr
	}
	if now.Weekday() != time.Friday {
		return db.RotateSkipped, nil
	}
	return db.Rotated, nil
}

func (m *mockStore) ListRegistrations(ctx context.Context) ([]db.RegistrationRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	rows := make([]db.RegistrationRow, len(m.rows))
	for i, r := range m.rows {
		rows[i] = db.RegistrationRow{Index: i, Registration: r}
	}
	return rows, nil
}

func (m *mockStore) UpdateStats(ctx context.Context, index int, stats model.CharacterStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if m.updates == nil {
		m.updates = make(map[int]model.CharacterStats)
	}
	m.updates[index] = stats
	return nil
}

func (m *mockStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// mockTokens implements TokenSource
type mockTokens struct {
	token string
	err   error
}

func (m *mockTokens) AccessToken(ctx context.Context) (string, error) {
	return m.token, m.err
}

// mockProfiles implements ProfileFetcher, keyed by lower-case character name
type mockProfiles struct {
	mu       sync.Mutex
	profiles map[string]blizzardclient.Profile
	calls    []string
}

func (m *mockProfiles) GetProfile(ctx context.Context, realmSlug, realmName, character, token string) blizzardclient.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, realmSlug+"/"+character)
	if p, ok := m.profiles[character]; ok {
		p.RealmName = realmName
		return p
	}
	return blizzardclient.Profile{RealmName: realmName}
}

// mockPresenter implements Presenter. Answers are given synchronously
// through the workflow; a kind missing from answers is never answered.
type mockPresenter struct {
	mu       sync.Mutex
	workflow *Workflow
	answers  map[ChoiceKind]string
	err      error
	requests []ChoiceRequest
	cleared  []string
	released []string
	// shown receives each request after it is recorded
	shown chan ChoiceRequest
}

func (m *mockPresenter) RequestChoice(ctx context.Context, req ChoiceRequest) error {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	answer, ok := m.answers[req.Kind]
	w := m.workflow
	err := m.err
	m.mu.Unlock()

	if m.shown != nil {
		m.shown <- req
	}
	if err != nil {
		return err
	}
	if ok {
		return w.Answer(req.ID, req.User.ID, answer)
	}
	return nil
}

func (m *mockPresenter) ReleaseChoice(requestID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = append(m.released, requestID)
}

func (m *mockPresenter) CapturePrompts(user User) func() {
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.cleared = append(m.cleared, user.ID)
	}
}

func (m *mockPresenter) requestIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.requests))
	for i, r := range m.requests {
		ids[i] = r.ID
	}
	return ids
}

func (m *mockPresenter) requestKinds() []ChoiceKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]ChoiceKind, len(m.requests))
	for i, r := range m.requests {
		kinds[i] = r.Kind
	}
	return kinds
}

func testResolver() *realm.Resolver {
	return realm.NewResolver([]realm.Entry{
		{Name: "Stormrage", Slug: "stormrage"},
		{Name: "Area 52", Slug: "area-52"},
		{Name: "Tichondrius", Slug: "tichondrius"},
	})
}

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func floatPtr(f float64) *float64 { return &f }

func jainaProfile() blizzardclient.Profile {
	return blizzardclient.Profile{
		Class:      strPtr("Mage"),
		ItemLevel:  intPtr(639),
		Rating:     floatPtr(2450.46),
		HighestKey: strPtr("12"),
	}
}

var errBoom = errors.New("boom")
