package gameserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/openarcade/tugofwar/internal/config"
)

func testGameConfig() config.GameConfig {
	return config.GameConfig{
		Host:         "127.0.0.1",
		Port:         0,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		TickInterval: 10 * time.Millisecond,
		RoundSeconds: 60,
		RestartDelay: time.Hour,
		BarLimit:     50,
		DefaultRoom:  "room_1",
	}
}

func TestRoomManagerCreatesOnFirstUse(t *testing.T) {
	m := NewRoomManager(testGameConfig(), zaptest.NewLogger(t))
	defer m.Close()

	s := m.GetOrCreate("room_7")
	require.NotNil(t, s)
	assert.Equal(t, "room_7", s.ID())

	// Same room returns the same session.
	assert.Same(t, s, m.GetOrCreate("room_7"))
}

func TestRoomManagerEmptyIDUsesDefaultRoom(t *testing.T) {
	m := NewRoomManager(testGameConfig(), zaptest.NewLogger(t))
	defer m.Close()

	s := m.GetOrCreate("")
	require.NotNil(t, s)
	assert.Equal(t, "room_1", s.ID())
	assert.Same(t, s, m.GetOrCreate("room_1"))
}

func TestRoomManagerSnapshotsSorted(t *testing.T) {
	m := NewRoomManager(testGameConfig(), zaptest.NewLogger(t))
	defer m.Close()

	m.GetOrCreate("room_2")
	m.GetOrCreate("room_1")
	m.GetOrCreate("room_3")

	snaps := m.Snapshots()
	require.Len(t, snaps, 3)
	assert.Equal(t, "room_1", snaps[0].RoomID)
	assert.Equal(t, "room_2", snaps[1].RoomID)
	assert.Equal(t, "room_3", snaps[2].RoomID)
}

func TestRoomManagerCloseRejectsNewRooms(t *testing.T) {
	m := NewRoomManager(testGameConfig(), zaptest.NewLogger(t))
	m.GetOrCreate("room_1")
	m.Close()

	assert.Nil(t, m.GetOrCreate("room_2"))
	// Close is idempotent.
	m.Close()
}
