package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Placeholder values shipped in the sample config. They load successfully
// and are reported as configuration errors when a component needs them.
const (
	ReviewChannelPlaceholder = "REPLACE_WITH_YOUR_REVIEW_CHANNEL_ID"
	VerifiedRolePlaceholder  = "REPLACE_WITH_YOUR_VERIFIED_ROLE_ID"
)

const (
	DefaultStepTimeout     = 300 * time.Second
	DefaultEvidenceTimeout = 600 * time.Second
	DefaultClaimRetention  = 24 * time.Hour
)

type Config struct {
	ListenAddr        string          `yaml:"listen_addr" env:"AGEGATE_LISTEN_ADDR"`
	OpsToken          string          `yaml:"ops_token" env:"AGEGATE_OPS_TOKEN"`
	Discord           DiscordConfig   `yaml:"discord"`
	MinAccountAgeDays int             `yaml:"min_account_age_days" env:"AGEGATE_MIN_ACCOUNT_AGE_DAYS"`
	ReviewChannelID   string          `yaml:"review_channel_id" env:"AGEGATE_REVIEW_CHANNEL_ID"`
	VerifiedRoleID    string          `yaml:"verified_role_id" env:"AGEGATE_VERIFIED_ROLE_ID"`
	Interview         InterviewConfig `yaml:"interview"`
	ClaimRetention    time.Duration   `yaml:"claim_retention" env:"AGEGATE_CLAIM_RETENTION"`
	Logging           LoggingConfig   `yaml:"logging"`
}

type DiscordConfig struct {
	Token   string `yaml:"token" env:"AGEGATE_DISCORD_TOKEN"`
	GuildID string `yaml:"guild_id" env:"AGEGATE_DISCORD_GUILD_ID"`
}

// InterviewConfig bounds interview timing. A negative StartsPerSecond turns
// start throttling off; zero takes the default.
type InterviewConfig struct {
	StepTimeout     time.Duration `yaml:"step_timeout" env:"AGEGATE_STEP_TIMEOUT"`
	EvidenceTimeout time.Duration `yaml:"evidence_timeout" env:"AGEGATE_EVIDENCE_TIMEOUT"`
	StartsPerSecond float64       `yaml:"starts_per_second" env:"AGEGATE_STARTS_PER_SECOND"`
	StartBurst      int           `yaml:"start_burst" env:"AGEGATE_START_BURST"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"AGEGATE_LOG_LEVEL"`
	Format string `yaml:"format" env:"AGEGATE_LOG_FORMAT"`
}

// Load reads the YAML file at path, expands ${VAR} references, overlays
// AGEGATE_* environment variables and validates the result.
func Load(path string) (Config, error) {
	// #nosec G304 -- path is operator-provided config path.
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	expanded := os.ExpandEnv(string(raw))
	expanded = strings.ReplaceAll(expanded, "\r\n", "\n")

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, err
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

// FromEnv builds a config from AGEGATE_* variables only.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

func (c *Config) applyDefaults() {
	if c.Interview.StepTimeout == 0 {
		c.Interview.StepTimeout = DefaultStepTimeout
	}
	if c.Interview.EvidenceTimeout == 0 {
		c.Interview.EvidenceTimeout = DefaultEvidenceTimeout
	}
	if c.Interview.StartsPerSecond == 0 {
		c.Interview.StartsPerSecond = 2
	}
	if c.Interview.StartBurst == 0 {
		c.Interview.StartBurst = 5
	}
	if c.ClaimRetention == 0 {
		c.ClaimRetention = DefaultClaimRetention
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("discord.token is required")
	}
	if c.MinAccountAgeDays < 0 {
		return fmt.Errorf("min_account_age_days must not be negative")
	}
	if c.ReviewChannelID == "" {
		return fmt.Errorf("review_channel_id is required")
	}
	if c.VerifiedRoleID == "" {
		return fmt.Errorf("verified_role_id is required")
	}
	if c.Interview.StepTimeout < 0 || c.Interview.EvidenceTimeout < 0 {
		return fmt.Errorf("interview timeouts must not be negative")
	}
	if c.Interview.StartBurst < 0 {
		return fmt.Errorf("interview.start_burst must not be negative")
	}
	if c.ClaimRetention < 0 {
		return fmt.Errorf("claim_retention must not be negative")
	}
	return nil
}

// Unconfigured lists the id keys still holding their placeholder value.
func (c Config) Unconfigured() []string {
	var keys []string
	if c.ReviewChannelID == ReviewChannelPlaceholder {
		keys = append(keys, "review_channel_id")
	}
	if c.VerifiedRoleID == VerifiedRolePlaceholder {
		keys = append(keys, "verified_role_id")
	}
	return keys
}
