// Package gameserver hosts the TCP game backend: a room manager owning one
// game session per room and the per-connection handler that speaks the
// line-JSON protocol with clients.
package gameserver

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openarcade/tugofwar/internal/config"
	"github.com/openarcade/tugofwar/internal/game"
)

// RoomManager owns the sessions of all rooms hosted by this backend.
// Sessions are created on first join and each runs its own countdown
// goroutine until the manager closes.
type RoomManager struct {
	settings    game.Settings
	tick        time.Duration
	defaultRoom string
	logger      *zap.Logger

	mu     sync.Mutex
	rooms  map[string]*game.Session
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// NewRoomManager creates a manager with per-room settings taken from cfg.
//
// Precondition: cfg must be validated; logger must be non-nil.
// Postcondition: Returns a RoomManager with no rooms.
func NewRoomManager(cfg config.GameConfig, logger *zap.Logger) *RoomManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &RoomManager{
		settings: game.Settings{
			RoundSeconds: cfg.RoundSeconds,
			RestartDelay: cfg.RestartDelay,
			BarLimit:     cfg.BarLimit,
		},
		tick:        cfg.TickInterval,
		defaultRoom: cfg.DefaultRoom,
		logger:      logger,
		rooms:       make(map[string]*game.Session),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// GetOrCreate returns the session for roomID, creating and starting its
// countdown goroutine on first use. An empty roomID selects the backend's
// default room.
//
// Postcondition: Returns a running session, or nil when the manager is closed.
func (m *RoomManager) GetOrCreate(roomID string) *game.Session {
	if roomID == "" {
		roomID = m.defaultRoom
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	if s, ok := m.rooms[roomID]; ok {
		return s
	}

	s := game.NewSession(roomID, m.settings, m.logger)
	m.rooms[roomID] = s
	m.logger.Info("room created", zap.String("room", roomID))

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		s.Run(m.ctx, m.tick)
	}()
	return s
}

// Snapshots returns the state of every room, ordered by room ID.
func (m *RoomManager) Snapshots() []game.Snapshot {
	m.mu.Lock()
	sessions := make([]*game.Session, 0, len(m.rooms))
	for _, s := range m.rooms {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	out := make([]game.Snapshot, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

// Close stops every session's countdown and tears the sessions down.
//
// Postcondition: All room goroutines have exited.
func (m *RoomManager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	sessions := make([]*game.Session, 0, len(m.rooms))
	for _, s := range m.rooms {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	m.cancel()
	for _, s := range sessions {
		s.Close()
	}
	m.wg.Wait()
	m.logger.Info("room manager stopped")
}
