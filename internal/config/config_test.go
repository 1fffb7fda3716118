package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		Game: GameConfig{
			Host:         "0.0.0.0",
			Port:         55555,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 10 * time.Second,
			TickInterval: time.Second,
			RoundSeconds: 60,
			RestartDelay: 5 * time.Second,
			BarLimit:     50,
			DefaultRoom:  "room_1",
		},
		Lobby: LobbyConfig{
			Host:           "0.0.0.0",
			Port:           55554,
			WriteTimeout:   10 * time.Second,
			Backends:       []string{"127.0.0.1:55555"},
			MaxPlayers:     4,
			RoomRetention:  10 * time.Minute,
			SweepInterval:  time.Minute,
			StatusInterval: 30 * time.Second,
		},
		HTTP: HTTPConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Balancer: BalancerConfig{
			Host:     "0.0.0.0",
			Port:     55550,
			Backends: []string{"127.0.0.1:55555"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "0.0.0.0:55555", cfg.Game.Addr())
	assert.Equal(t, 4, cfg.Lobby.MaxPlayers)
	assert.Equal(t, 10*time.Minute, cfg.Lobby.RoomRetention)
}

func TestValidate_GamePort(t *testing.T) {
	cfg := validConfig()
	cfg.Game.Port = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game.port")
}

func TestValidate_TickInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Game.TickInterval = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game.tick_interval")
}

func TestValidate_BarLimit(t *testing.T) {
	cfg := validConfig()
	cfg.Game.BarLimit = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game.bar_limit")
}

func TestValidate_EmptyBackends(t *testing.T) {
	cfg := validConfig()
	cfg.Lobby.Backends = nil
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lobby.backends")
}

func TestValidate_MalformedBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Lobby.Backends = []string{"not-an-address"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lobby.backends[0]")
}

func TestValidate_MaxPlayers(t *testing.T) {
	cfg := validConfig()
	cfg.Lobby.MaxPlayers = 1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lobby.max_players")
}

func TestValidate_LoggingLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestValidate_LoggingFileRotation(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.File = "app.log"
	cfg.Logging.MaxSizeMB = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.max_size_mb")
}

func TestValidate_CollectsMultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Game.Port = -1
	cfg.Logging.Format = "xml"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game.port")
	assert.Contains(t, err.Error(), "logging.format")
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
game:
  port: 56000
  round_seconds: 30
lobby:
  backends:
    - "10.0.0.1:55556"
    - "10.0.0.2:55557"
logging:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 56000, cfg.Game.Port)
	assert.Equal(t, 30, cfg.Game.RoundSeconds)
	assert.Equal(t, []string{"10.0.0.1:55556", "10.0.0.2:55557"}, cfg.Lobby.Backends)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched keys fall back to defaults.
	assert.Equal(t, 50, cfg.Game.BarLimit)
	assert.Equal(t, time.Second, cfg.Game.TickInterval)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("game:\n  port: 99999\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game.port")
}

func TestValidate_PortRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := validConfig()
		port := rapid.IntRange(-1000, 70000).Draw(t, "port")
		cfg.Game.Port = port
		err := cfg.Validate()
		if port >= 1 && port <= 65535 {
			if err != nil {
				t.Fatalf("port %d should be valid: %v", port, err)
			}
		} else if err == nil {
			t.Fatalf("port %d should be rejected", port)
		}
	})
}
