package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

// Config is the root server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	LeasePeriod    time.Duration `mapstructure:"lease_period"`
	MaxSessions    int           `mapstructure:"max_sessions"`
}

// LoggingConfig controls the zap logger built at startup.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig holds the optional stats sink connection. An empty URL
// disables persistence entirely.
type DatabaseConfig struct {
	URL           string        `mapstructure:"url"`
	MaxConns      int32         `mapstructure:"max_conns"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// GameConfig tunes room pacing and limits. Tests zero the delays.
type GameConfig struct {
	ForcedDrawDelay    time.Duration `mapstructure:"forced_draw_delay"`
	VoluntaryDrawDelay time.Duration `mapstructure:"voluntary_draw_delay"`
	TurnDelay          time.Duration `mapstructure:"turn_delay"`
	InactivityLimit    int           `mapstructure:"inactivity_limit"`
	HandSize           int           `mapstructure:"hand_size"`
	MaxPlayers         int           `mapstructure:"max_players"`
}

// Load reads the YAML file at path on top of built-in defaults. A missing
// file is not an error; the defaults stand alone.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.lease_period", "5m")
	v.SetDefault("server.max_sessions", 1000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.flush_interval", "30s")

	v.SetDefault("game.forced_draw_delay", "400ms")
	v.SetDefault("game.voluntary_draw_delay", "800ms")
	v.SetDefault("game.turn_delay", "400ms")
	v.SetDefault("game.inactivity_limit", 300)
	v.SetDefault("game.hand_size", 7)
	v.SetDefault("game.max_players", 4)

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Game.MaxPlayers < 2 || c.Game.MaxPlayers > 4 {
		return fmt.Errorf("game.max_players must be between 2 and 4, got %d", c.Game.MaxPlayers)
	}
	if c.Game.HandSize < 1 {
		return fmt.Errorf("game.hand_size must be positive, got %d", c.Game.HandSize)
	}
	if c.Game.InactivityLimit < 1 {
		return fmt.Errorf("game.inactivity_limit must be positive, got %d", c.Game.InactivityLimit)
	}
	return nil
}
