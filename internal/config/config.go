package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

const (
	StorageSheets   = "sheets"
	StoragePostgres = "postgres"
)

// Defaults applied to fields left empty in the config file
const (
	DefaultWorksheet        = "General Info"
	DefaultRemovedWorksheet = "Removed Signups"
	DefaultTimeZone         = "America/New_York"
	DefaultOAuthURL         = "https://oauth.battle.net/token"
	DefaultCharacterURL     = "https://us.api.blizzard.com/profile/wow/character/{realm}/{character_name}?namespace=profile-us&locale=en_US"
	DefaultMythicURL        = "https://us.api.blizzard.com/profile/wow/character/{realm}/{character_name}/mythic-keystone-profile/season/15?namespace=profile-us&locale=en_US"
	DefaultRotationRRule    = "FREQ=WEEKLY;BYDAY=FR;BYHOUR=18;BYMINUTE=0;BYSECOND=0"
	DefaultRefreshRRule     = "FREQ=DAILY;BYHOUR=0;BYMINUTE=0;BYSECOND=0"
	DefaultChoiceTimeout    = 3 * time.Minute
	DefaultCleanupDelay     = 5 * time.Second
	DefaultMetricsAddr      = ":9102"
)

// DefaultAllowedRoles may run the channel management commands
var DefaultAllowedRoles = []string{"Mythic+ Leader", "Raid Leader", "Moderator", "Admin"}

// Config represents the application configuration
type Config struct {
	SpreadsheetID    string        `yaml:"spreadsheetID" validate:"required"`
	Worksheet        string        `yaml:"worksheet" validate:"required"`
	RemovedWorksheet string        `yaml:"removedWorksheet" validate:"required,nefield=Worksheet"`
	TimeZone         string        `yaml:"timeZone" validate:"required"`
	OAuthURL         string        `yaml:"oauthURL" validate:"required,url"`
	CharacterURL     string        `yaml:"characterURL" validate:"required"`
	MythicProfileURL string        `yaml:"mythicProfileURL" validate:"required"`
	EventInfoLink    string        `yaml:"eventInfoLink,omitempty" validate:"omitempty,url"`
	Storage          string        `yaml:"storage" validate:"required,oneof=sheets postgres"`
	AllowedRoles     []string      `yaml:"allowedRoles,omitempty" validate:"dive,required"`
	GuildID          string        `yaml:"guildID,omitempty"`
	ChoiceTimeout    time.Duration `yaml:"choiceTimeout" validate:"min=0"`
	CleanupDelay     time.Duration `yaml:"cleanupDelay" validate:"min=0"`
	MetricsAddr      string        `yaml:"metricsAddr,omitempty"`
	SchedulerEnabled bool          `yaml:"schedulerEnabled"`
	RotationRRule    string        `yaml:"rotationRRule" validate:"required"`
	RefreshRRule     string        `yaml:"refreshRRule" validate:"required"`
	RefreshRate      float64       `yaml:"refreshRate,omitempty" validate:"min=0"`
	LogLevel         string        `yaml:"logLevel,omitempty" validate:"omitempty,oneof=debug info warn error"`

	Secrets Secrets `yaml:"-" validate:"-"`
}

// Secrets are read from the environment, never from the config file
type Secrets struct {
	DiscordToken      string `envconfig:"DISCORD_BOT_TOKEN" validate:"required"`
	ClientID          string `envconfig:"CLIENT_ID" validate:"required"`
	ClientSecret      string `envconfig:"CLIENT_SECRET" validate:"required"`
	GoogleCredentials string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS" validate:"required"`
	DatabaseURL       string `envconfig:"DATABASE_URL"`

	// Endpoint overrides, kept for deployments that configured them via env
	OAuthURL         string `envconfig:"OAUTH_URL"`
	CharacterURL     string `envconfig:"CHARACTER_URL"`
	MythicProfileURL string `envconfig:"MYTHIC_PROFILE_URL"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadWithEnv loads the config file and secrets for an environment.
// env="test" reads keyevent_config.test.yaml and dnd-bot-test.env.
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		return nil, err
	}

	// A missing env file is fine: the variables may already be exported
	_ = godotenv.Load(envFileName(env))

	if err := LoadSecrets(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadSecrets fills cfg.Secrets from the process environment and applies endpoint overrides
func LoadSecrets(cfg *Config) error {
	if err := envconfig.Process("", &cfg.Secrets); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	if cfg.Secrets.OAuthURL != "" {
		cfg.OAuthURL = cfg.Secrets.OAuthURL
	}
	if cfg.Secrets.CharacterURL != "" {
		cfg.CharacterURL = cfg.Secrets.CharacterURL
	}
	if cfg.Secrets.MythicProfileURL != "" {
		cfg.MythicProfileURL = cfg.Secrets.MythicProfileURL
	}

	return nil
}

// Validate validates the configuration struct, the time zone and the rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := time.LoadLocation(cfg.TimeZone); err != nil {
		return fmt.Errorf("invalid timeZone %q: %w", cfg.TimeZone, err)
	}

	if _, err := rrule.StrToRRule(cfg.RotationRRule); err != nil {
		return fmt.Errorf("invalid rrule in rotationRRule: %w", err)
	}
	if _, err := rrule.StrToRRule(cfg.RefreshRRule); err != nil {
		return fmt.Errorf("invalid rrule in refreshRRule: %w", err)
	}

	return nil
}

// ValidateSecrets checks the secrets needed to run the bot.
// DATABASE_URL is only required when storage is postgres.
func ValidateSecrets(cfg *Config) error {
	if err := validate.Struct(cfg.Secrets); err != nil {
		return fmt.Errorf("secrets validation failed: %w", err)
	}
	if cfg.Storage == StoragePostgres && cfg.Secrets.DatabaseURL == "" {
		return fmt.Errorf("secrets validation failed: DATABASE_URL is required for postgres storage")
	}
	return nil
}

// Location returns the reference time zone for cutoff and rotation rules
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		// Validate has already rejected unknown zones
		return time.UTC
	}
	return loc
}

// IsAllowedRole reports whether a guild role name may run admin commands
func (c *Config) IsAllowedRole(name string) bool {
	for _, r := range c.AllowedRoles {
		if r == name {
			return true
		}
	}
	return false
}

func applyDefaults(cfg *Config) {
	if cfg.Worksheet == "" {
		cfg.Worksheet = DefaultWorksheet
	}
	if cfg.RemovedWorksheet == "" {
		cfg.RemovedWorksheet = DefaultRemovedWorksheet
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = DefaultTimeZone
	}
	if cfg.OAuthURL == "" {
		cfg.OAuthURL = DefaultOAuthURL
	}
	if cfg.CharacterURL == "" {
		cfg.CharacterURL = DefaultCharacterURL
	}
	if cfg.MythicProfileURL == "" {
		cfg.MythicProfileURL = DefaultMythicURL
	}
	if cfg.Storage == "" {
		cfg.Storage = StorageSheets
	}
	if len(cfg.AllowedRoles) == 0 {
		cfg.AllowedRoles = append([]string(nil), DefaultAllowedRoles...)
	}
	if cfg.ChoiceTimeout == 0 {
		cfg.ChoiceTimeout = DefaultChoiceTimeout
	}
	if cfg.CleanupDelay == 0 {
		cfg.CleanupDelay = DefaultCleanupDelay
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = DefaultMetricsAddr
	}
	if cfg.RotationRRule == "" {
		cfg.RotationRRule = DefaultRotationRRule
	}
	if cfg.RefreshRRule == "" {
		cfg.RefreshRRule = DefaultRefreshRRule
	}
	if cfg.RefreshRate == 0 {
		cfg.RefreshRate = 2
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func envFileName(env string) string {
	return "dnd-bot-" + env + ".env"
}

// findConfigFile searches for keyevent_config.<env>.yaml in current directory and home directory
func findConfigFile(env string) (string, error) {
	configFileName := "keyevent_config.yaml"
	if env != "" {
		configFileName = "keyevent_config." + env + ".yaml"
	}

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file %s not found in current directory or home directory", configFileName)
}
