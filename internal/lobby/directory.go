// Package lobby implements the matchmaking tier: a directory of rooms
// across the known game backends, the assignment policy that places each
// arriving player, and the connection handler that hands players their
// backend address.
package lobby

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openarcade/tugofwar/internal/config"
)

// RoomState is the lobby-side lifecycle state of a room.
type RoomState string

const (
	RoomWaiting RoomState = "WAITING"
	RoomPlaying RoomState = "PLAYING"
)

// ErrRoomFull reports an assignment that raced with a room filling up.
var ErrRoomFull = errors.New("room full")

// Backend is one game-server instance the lobby can place rooms on.
type Backend struct {
	Host string
	Port int
}

// Addr returns the backend's "host:port" address.
func (b Backend) Addr() string {
	return net.JoinHostPort(b.Host, strconv.Itoa(b.Port))
}

func parseBackends(addrs []string) ([]Backend, error) {
	backends := make([]Backend, 0, len(addrs))
	for _, addr := range addrs {
		host, portStr, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("parsing backend %q: %w", addr, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("parsing backend port %q: %w", addr, err)
		}
		backends = append(backends, Backend{Host: host, Port: port})
	}
	return backends, nil
}

// Room is one match instance tracked by the lobby, pinned to a backend.
type Room struct {
	ID        string
	Backend   Backend
	Players   map[string]struct{}
	State     RoomState
	CreatedAt time.Time
}

// Assignment is the outcome of placing one player.
type Assignment struct {
	PlayerID     string
	RoomID       string
	Backend      Backend
	PlayersCount int
	MaxPlayers   int
}

// RoomInfo is a read-only view of one room for status reporting.
type RoomInfo struct {
	RoomID       string    `json:"room_id"`
	Backend      string    `json:"backend"`
	PlayersCount int       `json:"players_count"`
	MaxPlayers   int       `json:"max_players"`
	State        RoomState `json:"state"`
	CreatedAt    time.Time `json:"created_at"`
}

// Directory tracks every room across every backend. All reads and writes
// are serialized under a single lock; no room-session lock is ever taken
// while it is held.
type Directory struct {
	backends   []Backend
	maxPlayers int
	retention  time.Duration
	logger     *zap.Logger

	// now is replaceable for sweep tests.
	now func() time.Time

	mu       sync.Mutex
	rooms    map[string]*Room
	order    []string
	nextRoom int
}

// NewDirectory creates a directory over the backends named in cfg.
//
// Precondition: cfg must be validated; logger must be non-nil.
// Postcondition: Returns an empty Directory, or an error if a backend
// address cannot be parsed.
func NewDirectory(cfg config.LobbyConfig, logger *zap.Logger) (*Directory, error) {
	backends, err := parseBackends(cfg.Backends)
	if err != nil {
		return nil, err
	}
	return &Directory{
		backends:   backends,
		maxPlayers: cfg.MaxPlayers,
		retention:  cfg.RoomRetention,
		logger:     logger,
		now:        time.Now,
		rooms:      make(map[string]*Room),
		nextRoom:   1,
	}, nil
}

// LeastLoadedBackend returns the backend hosting the fewest rooms; ties
// break toward earlier entries in the configured backend list.
func (d *Directory) LeastLoadedBackend() Backend {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.leastLoadedBackendLocked()
}

func (d *Directory) leastLoadedBackendLocked() Backend {
	load := make(map[Backend]int, len(d.backends))
	for _, room := range d.rooms {
		load[room.Backend]++
	}

	best := d.backends[0]
	for _, b := range d.backends[1:] {
		if load[b] < load[best] {
			best = b
		}
	}
	return best
}

// createRoomLocked allocates the next room id on the least-loaded backend.
func (d *Directory) createRoomLocked() *Room {
	room := &Room{
		ID:        fmt.Sprintf("room_%d", d.nextRoom),
		Backend:   d.leastLoadedBackendLocked(),
		Players:   make(map[string]struct{}),
		State:     RoomWaiting,
		CreatedAt: d.now(),
	}
	d.nextRoom++
	d.rooms[room.ID] = room
	d.order = append(d.order, room.ID)

	d.logger.Info("room created",
		zap.String("room", room.ID),
		zap.String("backend", room.Backend.Addr()),
	)
	return room
}

// findOrCreateRoomLocked returns the first waiting room with space, in
// creation order, creating one when none qualifies.
func (d *Directory) findOrCreateRoomLocked() *Room {
	for _, id := range d.order {
		room := d.rooms[id]
		if room.State == RoomWaiting && len(room.Players) < d.maxPlayers {
			return room
		}
	}
	return d.createRoomLocked()
}

// Assign places the player into a room, creating one if needed, and returns
// the room plus its backend address. A capacity race is retried once
// against a fresh lookup.
//
// Postcondition: playerID is a member of exactly one room.
func (d *Directory) Assign(playerID string) (Assignment, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room := d.findOrCreateRoomLocked()
	if len(room.Players) >= d.maxPlayers {
		room = d.findOrCreateRoomLocked()
		if len(room.Players) >= d.maxPlayers {
			return Assignment{}, fmt.Errorf("assigning %s: %w", playerID, ErrRoomFull)
		}
	}
	room.Players[playerID] = struct{}{}

	d.logger.Info("player assigned",
		zap.String("player", playerID),
		zap.String("room", room.ID),
		zap.String("backend", room.Backend.Addr()),
		zap.Int("players", len(room.Players)),
	)
	return Assignment{
		PlayerID:     playerID,
		RoomID:       room.ID,
		Backend:      room.Backend,
		PlayersCount: len(room.Players),
		MaxPlayers:   d.maxPlayers,
	}, nil
}

// Release removes the player from the room. Unknown rooms and players are
// tolerated.
func (d *Directory) Release(roomID, playerID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[roomID]
	if !ok {
		return
	}
	delete(room.Players, playerID)
}

// SweepExpiredRooms removes rooms that are both empty and older than the
// retention window, returning how many were removed. Rooms with players
// survive regardless of age.
func (d *Directory) SweepExpiredRooms() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := d.now().Add(-d.retention)
	kept := d.order[:0]
	removed := 0
	for _, id := range d.order {
		room := d.rooms[id]
		if len(room.Players) == 0 && room.CreatedAt.Before(cutoff) {
			delete(d.rooms, id)
			removed++
			d.logger.Info("room expired",
				zap.String("room", id),
				zap.Duration("age", d.now().Sub(room.CreatedAt)),
			)
			continue
		}
		kept = append(kept, id)
	}
	d.order = kept
	return removed
}

// Rooms returns a view of every room in creation order.
func (d *Directory) Rooms() []RoomInfo {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]RoomInfo, 0, len(d.order))
	for _, id := range d.order {
		room := d.rooms[id]
		out = append(out, RoomInfo{
			RoomID:       room.ID,
			Backend:      room.Backend.Addr(),
			PlayersCount: len(room.Players),
			MaxPlayers:   d.maxPlayers,
			State:        room.State,
			CreatedAt:    room.CreatedAt,
		})
	}
	return out
}

// Counts returns the number of rooms and the total players across them.
func (d *Directory) Counts() (rooms, players int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, room := range d.rooms {
		players += len(room.Players)
	}
	return len(d.rooms), players
}
