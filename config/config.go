package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
)

// Hanabi supports between two and five players.
const (
	minSeats = 2
	maxSeats = 5
)

// AIParams holds the parameters for one bot profile (name and behavior).
type AIParams struct {
	Name       string `json:"name"`
	DelayMinMS int    `json:"delay_min_ms"`
	DelayMaxMS int    `json:"delay_max_ms"`
	HintChance int    `json:"hint_chance"` // 0-100, probability to give a useful hint instead of discarding
}

// Config holds all configurable server parameters.
type Config struct {
	WSPort        int `json:"ws_port"`
	MaxNameLength int `json:"max_name_length"`

	// MinPlayers is the number of ready players required before dealing; MaxPlayers caps a lobby.
	MinPlayers int `json:"min_players"`
	MaxPlayers int `json:"max_players"`

	// TurnLimitSec is the per-turn deadline; 0 disables it. On expiry the turn-holder passes.
	TurnLimitSec         int `json:"turn_limit_sec"`
	TurnCountdownShowSec int `json:"turn_countdown_show_sec"`

	// MessagesPerSecond and MessageBurst rate-limit inbound messages per connection.
	MessagesPerSecond int `json:"messages_per_second"`
	MessageBurst      int `json:"message_burst"`

	// AIFillSec is how long a match short of MinPlayers waits before bots fill
	// the empty seats; 0 disables bots.
	AIFillSec int `json:"ai_fill_sec"`

	// AIProfiles lists available bots, seated in order.
	AIProfiles []AIParams `json:"ai_profiles"`

	DatabaseURL string `json:"database_url"`
	AuthBaseURL string `json:"auth_base_url"`
	LogLevel    string `json:"log_level"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		WSPort:               8080,
		MaxNameLength:        24,
		MinPlayers:           2,
		MaxPlayers:           5,
		TurnLimitSec:         0,
		TurnCountdownShowSec: 10,
		MessagesPerSecond:    10,
		MessageBurst:         20,
		AIFillSec:            0,
		AIProfiles: []AIParams{
			{Name: "Iris", DelayMinMS: 800, DelayMaxMS: 2000, HintChance: 90},
			{Name: "Ember", DelayMinMS: 500, DelayMaxMS: 1200, HintChance: 70},
			{Name: "Lumen", DelayMinMS: 600, DelayMaxMS: 1800, HintChance: 50},
		},
		LogLevel: "info",
	}
}

// Load reads configuration from an optional config.json file,
// then applies environment variable overrides. Fields not set
// in either source retain their default values.
func Load() *Config {
	cfg := Defaults()

	if f, err := os.Open("config.json"); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			slog.Warn("failed to parse config.json", "tag", "config", "err", err)
		}
	}

	overrideInt(&cfg.WSPort, "WS_PORT")
	overrideInt(&cfg.MaxNameLength, "MAX_NAME_LENGTH")
	overrideInt(&cfg.MinPlayers, "MIN_PLAYERS")
	overrideInt(&cfg.MaxPlayers, "MAX_PLAYERS")
	overrideInt(&cfg.TurnLimitSec, "TURN_LIMIT_SEC")
	overrideInt(&cfg.TurnCountdownShowSec, "TURN_COUNTDOWN_SHOW_SEC")
	overrideInt(&cfg.MessagesPerSecond, "MESSAGES_PER_SECOND")
	overrideInt(&cfg.MessageBurst, "MESSAGE_BURST")
	overrideInt(&cfg.AIFillSec, "AI_FILL_SEC")
	if len(cfg.AIProfiles) > 0 {
		overrideString(&cfg.AIProfiles[0].Name, "AI_NAME")
		overrideInt(&cfg.AIProfiles[0].DelayMinMS, "AI_DELAY_MIN_MS")
		overrideInt(&cfg.AIProfiles[0].DelayMaxMS, "AI_DELAY_MAX_MS")
		overrideInt(&cfg.AIProfiles[0].HintChance, "AI_HINT_CHANCE")
	}
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.AuthBaseURL, "AUTH_BASE_URL")
	overrideString(&cfg.LogLevel, "LOG_LEVEL")

	cfg.Validate()
	return cfg
}

// Validate clamps values that would make a match unplayable.
func (c *Config) Validate() {
	c.MinPlayers = clamp(c.MinPlayers, minSeats, maxSeats)
	c.MaxPlayers = clamp(c.MaxPlayers, minSeats, maxSeats)
	if c.MaxPlayers < c.MinPlayers {
		c.MaxPlayers = c.MinPlayers
	}
	if c.TurnLimitSec < 0 {
		c.TurnLimitSec = 0
	}
	if c.MaxNameLength < 1 {
		c.MaxNameLength = 24
	}
	if c.AIFillSec < 0 {
		c.AIFillSec = 0
	}
	if c.MessageBurst < 1 {
		c.MessageBurst = 1
	}
}

// SlogLevel maps LogLevel to a slog.Level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			slog.Warn("invalid value for env override", "tag", "config", "key", envKey, "value", val)
		}
	}
}

func overrideString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}
