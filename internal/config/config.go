package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the stage
type Config struct {
	Models ModelsConfig
	Avatar AvatarConfig
	Drama  DramaConfig
	Layout LayoutConfig
	Redis  RedisConfig
	HTTP   HTTPConfig
	Log    LogConfig
}

// ModelsConfig describes where embodiment models come from
type ModelsConfig struct {
	BaseModelURL string            `env:"STAGE_BASE_MODEL_URL"`
	BaseClips    map[string]string `env:"STAGE_BASE_CLIPS" envSeparator:"," envKeyValSeparator:"="`
	FetchTimeout time.Duration     `env:"STAGE_FETCH_TIMEOUT" envDefault:"30s"`
	MaxModelSize int64             `env:"STAGE_MAX_MODEL_BYTES" envDefault:"67108864"`
}

// AvatarConfig holds movement, animation and sizing tunables
type AvatarConfig struct {
	WalkSpeed        float64 `env:"STAGE_WALK_SPEED" envDefault:"2.5"`
	ArrivalEpsilon   float64 `env:"STAGE_ARRIVAL_EPSILON" envDefault:"0.05"`
	CrossfadeSeconds float64 `env:"STAGE_CROSSFADE_SECONDS" envDefault:"0.3"`
	DefaultHeight    float64 `env:"STAGE_DEFAULT_HEIGHT" envDefault:"1.7"`
	MinHeight        float64 `env:"STAGE_MIN_HEIGHT" envDefault:"0.5"`
	MaxHeight        float64 `env:"STAGE_MAX_HEIGHT" envDefault:"3.0"`
	MinScale         float64 `env:"STAGE_MIN_SCALE" envDefault:"0.01"`
	MaxScale         float64 `env:"STAGE_MAX_SCALE" envDefault:"100"`
}

// DramaConfig holds overwrite choreography tunables
type DramaConfig struct {
	StrikeThreshold float64       `env:"STAGE_STRIKE_THRESHOLD" envDefault:"1.2"`
	MaxWait         time.Duration `env:"STAGE_STRIKE_MAX_WAIT" envDefault:"6s"`
	RecoverDelay    time.Duration `env:"STAGE_RECOVER_DELAY" envDefault:"1200ms"`

	// CancelStrikeOnReassign drops a queued strike when the attacker moves to another role
	CancelStrikeOnReassign bool `env:"STAGE_CANCEL_STRIKE_ON_REASSIGN" envDefault:"false"`
}

// LayoutConfig points at the stage layout file
type LayoutConfig struct {
	File            string  `env:"STAGE_LAYOUT_FILE"`
	GatheringRadius float64 `env:"STAGE_GATHERING_RADIUS" envDefault:"1.6"`
}

// RedisConfig holds Redis configuration for the shared model cache
type RedisConfig struct {
	URL     string        `env:"REDIS_URL"`
	BlobTTL time.Duration `env:"STAGE_MODEL_CACHE_TTL" envDefault:"24h"`
}

// HTTPConfig holds the debug server configuration
type HTTPConfig struct {
	Addr     string `env:"STAGE_HTTP_ADDR" envDefault:":8088"`
	TickRate int    `env:"STAGE_TICK_RATE" envDefault:"60"`
}

// LogConfig controls the slog handler
type LogConfig struct {
	Level  string `env:"STAGE_LOG_LEVEL" envDefault:"info"`
	Format string `env:"STAGE_LOG_FORMAT" envDefault:"text"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.HTTP.TickRate <= 0 {
		cfg.HTTP.TickRate = 60
	}

	return cfg, nil
}

// SlogLevel maps the configured level name onto a slog.Level
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
