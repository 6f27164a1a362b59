package blizzardclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasttemplate"
	"go.uber.org/zap"

	"github.com/dndguild/keyevent-bot/pkg/core/model"
)

// requestTimeout bounds each profile API call
const requestTimeout = 10 * time.Second

// maxErrorBody caps how much of a failed response is logged
const maxErrorBody = 512

// Profile is the character data gathered from the profile API. A nil field
// means the stage that provides it failed. RealmName is always set.
type Profile struct {
	Class      *string
	ItemLevel  *int
	Rating     *float64
	HighestKey *string
	RealmName  string
}

// Stats converts the API-derived values to sheet cells. Unknown values are
// left empty.
func (p Profile) Stats() model.CharacterStats {
	var stats model.CharacterStats
	if p.ItemLevel != nil {
		stats.ItemLevel = strconv.Itoa(*p.ItemLevel)
	}
	if p.Rating != nil {
		stats.Rating = strconv.FormatFloat(*p.Rating, 'f', 1, 64)
	}
	if p.HighestKey != nil {
		stats.HighestKey = *p.HighestKey
	}
	return stats
}

// Known reports whether the character attributes stage succeeded
func (p Profile) Known() bool {
	return p.Class != nil || p.ItemLevel != nil
}

type characterResponse struct {
	CharacterClass *struct {
		Name string `json:"name"`
	} `json:"character_class"`
	EquippedItemLevel *int `json:"equipped_item_level"`
}

type mythicProfileResponse struct {
	MythicRating *struct {
		Rating float64 `json:"rating"`
	} `json:"mythic_rating"`
	BestRuns []struct {
		KeystoneLevel int `json:"keystone_level"`
	} `json:"best_runs"`
}

// Client fetches character profiles from the Blizzard game-data API
type Client struct {
	httpClient *http.Client
	character  *fasttemplate.Template
	mythic     *fasttemplate.Template
	logger     *zap.Logger
}

// NewClient creates a profile client. The URL templates use {realm} and
// {character_name} placeholders. A nil httpClient uses a client with a 10
// second timeout.
func NewClient(characterURL, mythicURL string, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	character, err := fasttemplate.NewTemplate(characterURL, "{", "}")
	if err != nil {
		return nil, fmt.Errorf("invalid character URL template: %w", err)
	}
	mythic, err := fasttemplate.NewTemplate(mythicURL, "{", "}")
	if err != nil {
		return nil, fmt.Errorf("invalid mythic profile URL template: %w", err)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}

	return &Client{
		httpClient: httpClient,
		character:  character,
		mythic:     mythic,
		logger:     logger,
	}, nil
}

// URLs returns the character and mythic profile URLs for a character
func (c *Client) URLs(realmSlug, character string) (string, string) {
	values := map[string]interface{}{
		"realm":          url.PathEscape(realmSlug),
		"character_name": url.PathEscape(strings.ToLower(character)),
	}
	return c.character.ExecuteString(values), c.mythic.ExecuteString(values)
}

// GetProfile fetches the character attributes and, only if that succeeds,
// the mythic keystone profile. Failures are logged and leave the fields of
// the failing stage nil; they are never returned to the caller.
func (c *Client) GetProfile(ctx context.Context, realmSlug, realmName, character, token string) Profile {
	profile := Profile{RealmName: realmName}
	characterURL, mythicURL := c.URLs(realmSlug, character)

	c.logger.Info("Fetching character data",
		zap.String("character", character),
		zap.String("realm", realmSlug))

	var charData characterResponse
	if err := c.getJSON(ctx, characterURL, token, &charData); err != nil {
		c.logger.Error("Error retrieving character data",
			zap.String("character", character),
			zap.String("realm", realmSlug),
			zap.Error(err))
		return profile
	}

	if charData.CharacterClass != nil && charData.CharacterClass.Name != "" {
		class := charData.CharacterClass.Name
		profile.Class = &class
	}
	profile.ItemLevel = charData.EquippedItemLevel

	var mythicData mythicProfileResponse
	if err := c.getJSON(ctx, mythicURL, token, &mythicData); err != nil {
		c.logger.Error("Failed to fetch Mythic+ profile",
			zap.String("character", character),
			zap.String("realm", realmSlug),
			zap.Error(err))
		return profile
	}

	if mythicData.MythicRating != nil {
		rating := mythicData.MythicRating.Rating
		profile.Rating = &rating
	}
	highest := highestKey(mythicData)
	profile.HighestKey = &highest

	return profile
}

// highestKey is the best keystone level across best runs, or N/A without runs
func highestKey(data mythicProfileResponse) string {
	if len(data.BestRuns) == 0 {
		return model.NotAvailable
	}
	best := 0
	for _, run := range data.BestRuns {
		if run.KeystoneLevel > best {
			best = run.KeystoneLevel
		}
	}
	return strconv.Itoa(best)
}

func (c *Client) getJSON(ctx context.Context, target, token string, result interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
