package protocol

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClientCommand_Known(t *testing.T) {
	cases := []struct {
		line string
		want Command
	}{
		{`{"command":"JOIN_GAME"}`, CmdJoinGame},
		{`{"command":"JOIN_GAME","room_id":"room_3"}`, CmdJoinGame},
		{`{"command":"PRESS_LEFT"}`, CmdPressLeft},
		{`{"command":"PRESS_RIGHT"}`, CmdPressRight},
		{`{"command":"START_GAME"}`, CmdStartGame},
	}
	for _, tc := range cases {
		cmd, err := DecodeClientCommand([]byte(tc.line))
		require.NoError(t, err, "line %s", tc.line)
		assert.Equal(t, tc.want, cmd.Command)
	}
}

func TestDecodeClientCommand_RoomID(t *testing.T) {
	cmd, err := DecodeClientCommand([]byte(`{"command":"JOIN_GAME","room_id":"room_7"}`))
	require.NoError(t, err)
	assert.Equal(t, "room_7", cmd.RoomID)
}

func TestDecodeClientCommand_Unknown(t *testing.T) {
	_, err := DecodeClientCommand([]byte(`{"command":"TELEPORT"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestDecodeClientCommand_ServerCommandRejected(t *testing.T) {
	// Server-to-client vocabulary is not accepted inbound.
	_, err := DecodeClientCommand([]byte(`{"command":"GAME_UPDATE"}`))
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestDecodeClientCommand_Malformed(t *testing.T) {
	_, err := DecodeClientCommand([]byte(`not json at all`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownCommand)
}

func TestEncode_NewlineTerminated(t *testing.T) {
	data, err := Encode(NewPing())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "\n"))
	assert.Equal(t, 1, strings.Count(string(data), "\n"))
}

func TestEncode_GameUpdateFields(t *testing.T) {
	data, err := Encode(NewGameUpdate(-3, 42, 2, 1, true, WinnerNone))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "GAME_UPDATE", m["command"])
	assert.Equal(t, float64(-3), m["bar_position"])
	assert.Equal(t, float64(42), m["timer"])
	assert.Equal(t, float64(2), m["left_count"])
	assert.Equal(t, float64(1), m["right_count"])
	assert.Equal(t, true, m["game_active"])
	// Undecided rounds omit the winner field entirely.
	_, present := m["winner"]
	assert.False(t, present)
}

func TestEncode_GameEndCarriesWinner(t *testing.T) {
	data, err := Encode(NewGameEnd(WinnerLeft, -50))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "GAME_END", m["command"])
	assert.Equal(t, "LEFT", m["winner"])
	assert.Equal(t, float64(-50), m["bar_position"])
}

func TestEncode_LobbyMessages(t *testing.T) {
	data, err := Encode(NewJoinGameServer("10.0.0.5", 55556, "room_2"))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "JOIN_GAME_SERVER", m["command"])
	assert.Equal(t, "10.0.0.5", m["server_ip"])
	assert.Equal(t, float64(55556), m["server_port"])
	assert.Equal(t, "room_2", m["room_id"])

	data, err = Encode(NewRoomStatus("room_2", 3, 4))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "ROOM_STATUS", m["command"])
	assert.Equal(t, float64(3), m["players_count"])
	assert.Equal(t, float64(4), m["max_players"])
}
