package game

import "github.com/openarcade/tugofwar/internal/protocol"

// Channel is the write capability a session holds for one player. Send must
// not block on network I/O; implementations enqueue and report failure when
// the peer is gone or hopelessly behind.
type Channel interface {
	Send(msg protocol.Outbound) error
}

// Player is one connected client inside a room.
type Player struct {
	// ID is the opaque per-connection identifier, unique within the room.
	ID string
	// Team is the side the player pulls for.
	Team protocol.Team
	// Channel is where events for this player are written.
	Channel Channel
}

// Registry tracks the players of a single room and owns the team-balancing
// policy. It is not safe for concurrent use: the owning Session serializes
// every call under its lock, which also makes the tie-break below atomic
// with the insertion.
type Registry struct {
	players map[string]*Player
}

// NewRegistry creates an empty player registry.
func NewRegistry() *Registry {
	return &Registry{players: make(map[string]*Player)}
}

// Register assigns the player to the team with fewer members and records it.
// On a tie the current total player count decides: even totals go left, odd
// totals go right.
//
// Precondition: no player with the same ID is registered.
// Postcondition: the player is stored with the returned team.
func (r *Registry) Register(id string, ch Channel) protocol.Team {
	left, right := r.TeamCounts()

	var team protocol.Team
	switch {
	case left < right:
		team = protocol.TeamLeft
	case right < left:
		team = protocol.TeamRight
	default:
		if len(r.players)%2 == 0 {
			team = protocol.TeamLeft
		} else {
			team = protocol.TeamRight
		}
	}

	r.players[id] = &Player{ID: id, Team: team, Channel: ch}
	return team
}

// Remove deletes the player if present. Unknown IDs are a no-op.
func (r *Registry) Remove(id string) {
	delete(r.players, id)
}

// Get returns the player with the given ID.
func (r *Registry) Get(id string) (*Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

// TeamCounts returns the current team sizes.
func (r *Registry) TeamCounts() (left, right int) {
	for _, p := range r.players {
		if p.Team == protocol.TeamLeft {
			left++
		} else {
			right++
		}
	}
	return left, right
}

// Len returns the total number of registered players.
func (r *Registry) Len() int {
	return len(r.players)
}

// Each calls fn for every registered player.
func (r *Registry) Each(fn func(*Player)) {
	for _, p := range r.players {
		fn(p)
	}
}
