// Package config provides Viper-based configuration loading for the
// tug-of-war servers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// GameConfig holds game-server settings: the player-facing TCP listener
// and the per-room round parameters.
type GameConfig struct {
	// Host is the bind address for the game TCP listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the game listener.
	Port int `mapstructure:"port"`
	// ReadTimeout is the per-read timeout; expiry triggers a liveness probe.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the per-write timeout for client connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// TickInterval is the countdown tick period for an active round.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// RoundSeconds is the countdown value a fresh round starts from.
	RoundSeconds int `mapstructure:"round_seconds"`
	// RestartDelay is the pause between a round ending and the automatic
	// restart attempt.
	RestartDelay time.Duration `mapstructure:"restart_delay"`
	// BarLimit is the winning bar magnitude; the bar is clamped to
	// [-BarLimit, BarLimit].
	BarLimit int `mapstructure:"bar_limit"`
	// DefaultRoom is the room joined by clients that do not name one.
	DefaultRoom string `mapstructure:"default_room"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (g GameConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

// LobbyConfig holds lobby-tier settings: the lobby TCP listener, the static
// backend list, and room bookkeeping parameters.
type LobbyConfig struct {
	// Host is the bind address for the lobby TCP listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the lobby listener.
	Port int `mapstructure:"port"`
	// WriteTimeout is the per-write timeout for lobby connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// Backends is the static list of game-server addresses ("host:port").
	// Order matters: least-load ties break toward earlier entries.
	Backends []string `mapstructure:"backends"`
	// MaxPlayers is the room capacity.
	MaxPlayers int `mapstructure:"max_players"`
	// RoomRetention is how long an empty room survives before the sweep
	// removes it.
	RoomRetention time.Duration `mapstructure:"room_retention"`
	// SweepInterval is the period of the expired-room sweep.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	// StatusInterval is the period of the occupancy summary log line.
	StatusInterval time.Duration `mapstructure:"status_interval"`
}

// Addr returns the "host:port" listen address.
func (l LobbyConfig) Addr() string {
	return fmt.Sprintf("%s:%d", l.Host, l.Port)
}

// HTTPConfig holds the status/dashboard HTTP server settings.
type HTTPConfig struct {
	// Host is the bind address for the HTTP listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the HTTP listener.
	Port int `mapstructure:"port"`
}

// Addr returns the "host:port" listen address.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// BalancerConfig holds the byte-forwarding load balancer settings.
type BalancerConfig struct {
	// Host is the bind address for the balancer listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the balancer listener.
	Port int `mapstructure:"port"`
	// Backends is the list of game-server addresses to forward to.
	Backends []string `mapstructure:"backends"`
}

// Addr returns the "host:port" listen address.
func (b BalancerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", b.Host, b.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// File, when non-empty, routes output to a size-rotated log file
	// instead of stderr.
	File string `mapstructure:"file"`
	// MaxSizeMB is the rotation threshold for File, in megabytes.
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files to retain.
	MaxBackups int `mapstructure:"max_backups"`
	// MaxAgeDays is the retention age for rotated files, in days.
	MaxAgeDays int `mapstructure:"max_age_days"`
}

// Config is the top-level application configuration shared by all binaries.
type Config struct {
	Game     GameConfig     `mapstructure:"game"`
	Lobby    LobbyConfig    `mapstructure:"lobby"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Balancer BalancerConfig `mapstructure:"balancer"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLobby(c.Lobby); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validatePort("http.port", c.HTTP.Port); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateBalancer(c.Balancer); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validatePort(key string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be 1-65535, got %d", key, port)
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if err := validatePort("game.port", g.Port); err != nil {
		errs = append(errs, err.Error())
	}
	if g.ReadTimeout < 0 {
		errs = append(errs, "game.read_timeout must not be negative")
	}
	if g.WriteTimeout < 0 {
		errs = append(errs, "game.write_timeout must not be negative")
	}
	if g.TickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("game.tick_interval must be positive, got %s", g.TickInterval))
	}
	if g.RoundSeconds < 1 {
		errs = append(errs, fmt.Sprintf("game.round_seconds must be >= 1, got %d", g.RoundSeconds))
	}
	if g.RestartDelay < 0 {
		errs = append(errs, "game.restart_delay must not be negative")
	}
	if g.BarLimit < 1 {
		errs = append(errs, fmt.Sprintf("game.bar_limit must be >= 1, got %d", g.BarLimit))
	}
	if g.DefaultRoom == "" {
		errs = append(errs, "game.default_room must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLobby(l LobbyConfig) error {
	var errs []string
	if err := validatePort("lobby.port", l.Port); err != nil {
		errs = append(errs, err.Error())
	}
	if len(l.Backends) == 0 {
		errs = append(errs, "lobby.backends must list at least one game server address")
	}
	for i, b := range l.Backends {
		if !strings.Contains(b, ":") {
			errs = append(errs, fmt.Sprintf("lobby.backends[%d] must be host:port, got %q", i, b))
		}
	}
	if l.MaxPlayers < 2 {
		errs = append(errs, fmt.Sprintf("lobby.max_players must be >= 2, got %d", l.MaxPlayers))
	}
	if l.RoomRetention <= 0 {
		errs = append(errs, fmt.Sprintf("lobby.room_retention must be positive, got %s", l.RoomRetention))
	}
	if l.SweepInterval <= 0 {
		errs = append(errs, fmt.Sprintf("lobby.sweep_interval must be positive, got %s", l.SweepInterval))
	}
	if l.StatusInterval <= 0 {
		errs = append(errs, fmt.Sprintf("lobby.status_interval must be positive, got %s", l.StatusInterval))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateBalancer(b BalancerConfig) error {
	var errs []string
	if err := validatePort("balancer.port", b.Port); err != nil {
		errs = append(errs, err.Error())
	}
	if len(b.Backends) == 0 {
		errs = append(errs, "balancer.backends must list at least one game server address")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	if l.File != "" {
		if l.MaxSizeMB < 1 {
			return fmt.Errorf("logging.max_size_mb must be >= 1 when logging.file is set, got %d", l.MaxSizeMB)
		}
		if l.MaxBackups < 0 {
			return fmt.Errorf("logging.max_backups must not be negative, got %d", l.MaxBackups)
		}
		if l.MaxAgeDays < 0 {
			return fmt.Errorf("logging.max_age_days must not be negative, got %d", l.MaxAgeDays)
		}
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with TUGOFWAR_ prefix
	v.SetEnvPrefix("TUGOFWAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the built-in configuration, matching what Load produces
// when the file sets nothing.
//
// Postcondition: Returns a Config that passes Validate.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// The default keys mirror the struct tags, so this cannot fail.
	_ = v.Unmarshal(&cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("game.host", "0.0.0.0")
	v.SetDefault("game.port", 55555)
	v.SetDefault("game.read_timeout", "30s")
	v.SetDefault("game.write_timeout", "10s")
	v.SetDefault("game.tick_interval", "1s")
	v.SetDefault("game.round_seconds", 60)
	v.SetDefault("game.restart_delay", "5s")
	v.SetDefault("game.bar_limit", 50)
	v.SetDefault("game.default_room", "room_1")

	v.SetDefault("lobby.host", "0.0.0.0")
	v.SetDefault("lobby.port", 55554)
	v.SetDefault("lobby.write_timeout", "10s")
	v.SetDefault("lobby.backends", []string{"127.0.0.1:55555"})
	v.SetDefault("lobby.max_players", 4)
	v.SetDefault("lobby.room_retention", "10m")
	v.SetDefault("lobby.sweep_interval", "60s")
	v.SetDefault("lobby.status_interval", "30s")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)

	v.SetDefault("balancer.host", "0.0.0.0")
	v.SetDefault("balancer.port", 55550)
	v.SetDefault("balancer.backends", []string{"127.0.0.1:55555"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 7)
}
