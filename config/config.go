package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// ReversalMode selects how credits are unwound when a resolved bet is
// reverted or deleted.
type ReversalMode string

const (
	// ReversalModeStake debits winners and credits losers the bet's stake amount.
	ReversalModeStake ReversalMode = "stake"
	// ReversalModePayout debits winners exactly the payout they received.
	ReversalModePayout ReversalMode = "payout"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// HTTP configuration
	HTTPPort    int
	MetricsPort int
	JWTSecret   string

	// Betting configuration
	MinParticipantsForActive int
	ReversalMode             ReversalMode

	// Notification sinks, both optional
	DiscordToken     string
	DiscordChannelID string
	NATSURL          string

	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables, after merging an
// optional .env file into the process environment.
func load() (*Config, error) {
	// Missing .env is the normal case outside local development
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		HTTPPort:    8080,
		MetricsPort: 9090,
		JWTSecret:   os.Getenv("JWT_SECRET"),

		MinParticipantsForActive: 2,
		ReversalMode:             ReversalModeStake,

		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
		NATSURL:          os.Getenv("NATS_URL"),

		LogLevel:    os.Getenv("LOG_LEVEL"),
		Environment: os.Getenv("ENVIRONMENT"),
	}

	if port := os.Getenv("HTTP_PORT"); port != "" {
		parsed, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid HTTP_PORT %q: %w", port, err)
		}
		config.HTTPPort = parsed
	}
	if port := os.Getenv("METRICS_PORT"); port != "" {
		parsed, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid METRICS_PORT %q: %w", port, err)
		}
		config.MetricsPort = parsed
	}
	if threshold := os.Getenv("MIN_PARTICIPANTS_FOR_ACTIVE"); threshold != "" {
		parsed, err := strconv.Atoi(threshold)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("MIN_PARTICIPANTS_FOR_ACTIVE must be a positive integer, got %q", threshold)
		}
		config.MinParticipantsForActive = parsed
	}
	if mode := os.Getenv("SETTLEMENT_REVERSAL_MODE"); mode != "" {
		parsed, err := ParseReversalMode(mode)
		if err != nil {
			return nil, err
		}
		config.ReversalMode = parsed
	}

	if config.LogLevel == "" {
		config.LogLevel = "info"
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
		if config.DiscordToken != "" && config.DiscordChannelID == "" {
			return nil, fmt.Errorf("DISCORD_CHANNEL_ID is required when DISCORD_TOKEN is set")
		}
	}

	return config, nil
}

// ParseReversalMode validates a reversal mode name.
func ParseReversalMode(s string) (ReversalMode, error) {
	switch ReversalMode(strings.ToLower(strings.TrimSpace(s))) {
	case ReversalModeStake:
		return ReversalModeStake, nil
	case ReversalModePayout:
		return ReversalModePayout, nil
	default:
		return "", fmt.Errorf("unknown settlement reversal mode %q", s)
	}
}

// DiscordEnabled reports whether the Discord notification sink is configured.
func (c *Config) DiscordEnabled() bool {
	return c.DiscordToken != "" && c.DiscordChannelID != ""
}

// NATSEnabled reports whether the NATS notification sink is configured.
func (c *Config) NATSEnabled() bool {
	return c.NATSURL != ""
}
