package gameserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/openarcade/tugofwar/internal/testutil"
	"github.com/openarcade/tugofwar/internal/transport"
)

// startGameServer brings up a full backend on an ephemeral port and returns
// its address.
func startGameServer(t *testing.T, readTimeout time.Duration) string {
	t.Helper()
	logger := zaptest.NewLogger(t)

	cfg := testGameConfig()
	rooms := NewRoomManager(cfg, logger)
	t.Cleanup(rooms.Close)

	acceptor := transport.NewAcceptor(transport.ListenerConfig{
		Addr:         "127.0.0.1:0",
		ReadTimeout:  readTimeout,
		WriteTimeout: time.Second,
	}, NewHandler(rooms, logger), logger)
	go func() {
		_ = acceptor.ListenAndServe()
	}()
	require.Eventually(t, func() bool { return acceptor.Addr() != "" },
		time.Second, 5*time.Millisecond)
	t.Cleanup(acceptor.Stop)

	return acceptor.Addr()
}

func TestHandlerJoinAssignsTeams(t *testing.T) {
	addr := startGameServer(t, 5*time.Second)

	c1 := testutil.NewClient(t, addr)
	c1.SendCommand("JOIN_GAME")
	msg := c1.ReadUntilCommand("TEAM_ASSIGNED", time.Second)
	assert.Equal(t, "left", msg["team"])

	c2 := testutil.NewClient(t, addr)
	c2.SendCommand("JOIN_GAME")
	msg = c2.ReadUntilCommand("TEAM_ASSIGNED", time.Second)
	assert.Equal(t, "right", msg["team"])
}

func TestHandlerFullRound(t *testing.T) {
	addr := startGameServer(t, 5*time.Second)

	c1 := testutil.NewClient(t, addr)
	c1.SendCommand("JOIN_GAME")
	c1.ReadUntilCommand("TEAM_ASSIGNED", time.Second)

	c2 := testutil.NewClient(t, addr)
	c2.SendCommand("JOIN_GAME")
	c2.ReadUntilCommand("TEAM_ASSIGNED", time.Second)

	c1.SendCommand("START_GAME")
	update := c1.ReadUntilCommand("GAME_UPDATE", time.Second)
	for update["game_active"] != true {
		update = c1.ReadUntilCommand("GAME_UPDATE", time.Second)
	}
	assert.Equal(t, float64(60), update["timer"])

	// The first joiner is on the left team; the press shows up in the
	// next periodic update.
	c1.SendCommand("PRESS_LEFT")
	deadline := time.Now().Add(2 * time.Second)
	for {
		update = c2.ReadUntilCommand("GAME_UPDATE", time.Second)
		if update["bar_position"] == float64(-1) {
			break
		}
		require.True(t, time.Now().Before(deadline), "press never reflected in updates")
	}
}

func TestHandlerStartWithoutJoin(t *testing.T) {
	addr := startGameServer(t, 5*time.Second)

	c := testutil.NewClient(t, addr)
	c.SendCommand("START_GAME")
	msg := c.ReadUntilCommand("GAME_ERROR", time.Second)
	assert.Equal(t, "join a game first", msg["message"])
}

func TestHandlerStartWithOneTeamEmpty(t *testing.T) {
	addr := startGameServer(t, 5*time.Second)

	c := testutil.NewClient(t, addr)
	c.SendCommand("JOIN_GAME")
	c.ReadUntilCommand("TEAM_ASSIGNED", time.Second)

	c.SendCommand("START_GAME")
	c.ReadUntilCommand("GAME_ERROR", time.Second)
}

func TestHandlerIgnoresUnknownCommands(t *testing.T) {
	addr := startGameServer(t, 5*time.Second)

	// Garbage is dropped and the connection keeps working.
	c := testutil.NewClient(t, addr)
	c.SendCommand("FIRE_MISSILES")
	c.SendRaw("this is not json")
	c.SendCommand("JOIN_GAME")
	c.ReadUntilCommand("TEAM_ASSIGNED", time.Second)
}

func TestHandlerPingsIdleClients(t *testing.T) {
	addr := startGameServer(t, 50*time.Millisecond)

	c := testutil.NewClient(t, addr)
	c.SendCommand("JOIN_GAME")
	c.ReadUntilCommand("TEAM_ASSIGNED", time.Second)
	c.ReadUntilCommand("PING", time.Second)
}

func TestHandlerSeparateRooms(t *testing.T) {
	addr := startGameServer(t, 5*time.Second)

	c1 := testutil.NewClient(t, addr)
	c1.Send(map[string]string{"command": "JOIN_GAME", "room_id": "room_a"})
	msg := c1.ReadUntilCommand("TEAM_ASSIGNED", time.Second)
	assert.Equal(t, "left", msg["team"])

	// A different room assigns independently: its first joiner is left too.
	c2 := testutil.NewClient(t, addr)
	c2.Send(map[string]string{"command": "JOIN_GAME", "room_id": "room_b"})
	msg = c2.ReadUntilCommand("TEAM_ASSIGNED", time.Second)
	assert.Equal(t, "left", msg["team"])
}
