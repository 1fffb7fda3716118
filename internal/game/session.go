package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openarcade/tugofwar/internal/protocol"
)

// ErrTeamsEmpty reports a start attempt while a team has no players.
var ErrTeamsEmpty = errors.New("need players on both teams")

// ErrSessionClosed reports an operation on a torn-down session.
var ErrSessionClosed = errors.New("session closed")

// Settings are the round parameters of a session.
type Settings struct {
	// RoundSeconds is the countdown a fresh round starts from.
	RoundSeconds int
	// RestartDelay is the pause before the automatic restart attempt after
	// a round ends.
	RestartDelay time.Duration
	// BarLimit is the winning bar magnitude.
	BarLimit int
}

// DefaultSettings returns the classic 60-second, bar-to-50 round.
func DefaultSettings() Settings {
	return Settings{
		RoundSeconds: 60,
		RestartDelay: 5 * time.Second,
		BarLimit:     50,
	}
}

// Snapshot is the read-only view of a session handed to the status server.
type Snapshot struct {
	RoomID       string          `json:"room_id"`
	BarPosition  int             `json:"bar_position"`
	Timer        int             `json:"timer"`
	LeftCount    int             `json:"left_count"`
	RightCount   int             `json:"right_count"`
	GameActive   bool            `json:"game_active"`
	Winner       protocol.Winner `json:"winner"`
	TotalClients int             `json:"total_clients"`
}

// Session is the authoritative state machine of one room. Every state
// transition — join, leave, press, start, tick, round end — runs under the
// session's lock, so operations within a room are strictly serialized while
// distinct rooms never contend.
//
// Broadcasts only enqueue to player channels; the lock is never held across
// network I/O.
type Session struct {
	id       string
	settings Settings
	logger   *zap.Logger

	mu       sync.Mutex
	state    State
	registry *Registry
	restart  *RestartTimer
	closed   bool
}

// NewSession creates an idle session for the given room.
//
// Precondition: settings must have RoundSeconds >= 1 and BarLimit >= 1;
// logger must be non-nil.
// Postcondition: Returns a Session in the waiting state with no players.
func NewSession(roomID string, settings Settings, logger *zap.Logger) *Session {
	return &Session{
		id:       roomID,
		settings: settings,
		logger:   logger.With(zap.String("room", roomID)),
		registry: NewRegistry(),
	}
}

// ID returns the room identifier.
func (s *Session) ID() string { return s.id }

// Join registers the player, sends its TEAM_ASSIGNED event, and broadcasts
// the updated state. Joining twice with the same ID is idempotent and
// returns the already-assigned team.
//
// Postcondition: the player is registered and knows its team.
func (s *Session) Join(playerID string, ch Channel) protocol.Team {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.registry.Get(playerID); ok {
		return p.Team
	}

	team := s.registry.Register(playerID, ch)
	s.logger.Info("player joined",
		zap.String("player", playerID),
		zap.String("team", string(team)),
	)

	if err := ch.Send(protocol.NewTeamAssigned(team)); err != nil {
		// The player vanished between accept and registration.
		s.registry.Remove(playerID)
		s.logger.Warn("dropping player on team-assignment send",
			zap.String("player", playerID),
			zap.Error(err),
		)
	}
	s.broadcastStateLocked()
	return team
}

// Leave removes the player and broadcasts the updated counts. Unknown IDs
// are tolerated.
func (s *Session) Leave(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.registry.Get(playerID); !ok {
		return
	}
	s.registry.Remove(playerID)
	s.logger.Info("player left", zap.String("player", playerID))
	s.broadcastStateLocked()
}

// Start begins a new round. It fails with ErrTeamsEmpty — emitting a single
// GAME_ERROR broadcast and leaving the state untouched — if either team has
// no players.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return s.startLocked()
}

func (s *Session) startLocked() error {
	left, right := s.registry.TeamCounts()
	if left == 0 || right == 0 {
		s.logger.Debug("start rejected",
			zap.Int("left", left),
			zap.Int("right", right),
		)
		s.deliverLocked(protocol.NewGameError("need players on both teams to start"))
		return ErrTeamsEmpty
	}

	s.state.Reset(s.settings.RoundSeconds)
	s.logger.Info("round started",
		zap.Int("left", left),
		zap.Int("right", right),
		zap.Int("seconds", s.settings.RoundSeconds),
	)
	s.broadcastStateLocked()
	return nil
}

// Press applies one button press from the given player toward the given
// direction. Presses outside an active round, from unknown players, or
// toward the opposing side are silently dropped.
func (s *Session) Press(playerID string, direction protocol.Team) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Active {
		return
	}
	p, ok := s.registry.Get(playerID)
	if !ok || p.Team != direction {
		return
	}

	if direction == protocol.TeamLeft {
		s.state.BarPosition--
	} else {
		s.state.BarPosition++
	}
	s.state.BarPosition = clamp(s.state.BarPosition, s.settings.BarLimit)

	switch {
	case s.state.BarPosition <= -s.settings.BarLimit:
		s.endRoundLocked(protocol.WinnerLeft)
	case s.state.BarPosition >= s.settings.BarLimit:
		s.endRoundLocked(protocol.WinnerRight)
	}
}

// Tick advances the countdown by one second. When it reaches zero the
// winner is resolved by the sign of the bar: negative left, positive right,
// zero a draw. While the round stays active every tick also broadcasts the
// current state.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || !s.state.Active {
		return
	}

	s.state.TimerSeconds--
	if s.state.TimerSeconds <= 0 {
		s.state.TimerSeconds = 0
		switch {
		case s.state.BarPosition < 0:
			s.endRoundLocked(protocol.WinnerLeft)
		case s.state.BarPosition > 0:
			s.endRoundLocked(protocol.WinnerRight)
		default:
			s.endRoundLocked(protocol.WinnerDraw)
		}
		return
	}
	s.broadcastStateLocked()
}

// endRoundLocked finishes the round and schedules the automatic restart
// attempt. Callers hold the session lock.
func (s *Session) endRoundLocked(winner protocol.Winner) {
	s.state.Active = false
	s.state.Winner = winner
	s.logger.Info("round ended",
		zap.String("winner", string(winner)),
		zap.Int("bar_position", s.state.BarPosition),
	)
	s.deliverLocked(protocol.NewGameEnd(winner, s.state.BarPosition))

	if s.restart != nil {
		s.restart.Stop()
	}
	s.restart = NewRestartTimer(s.settings.RestartDelay, func() {
		// A failed restart (teams emptied meanwhile) is a clean no-op.
		if err := s.Start(); err != nil {
			s.logger.Debug("automatic restart skipped", zap.Error(err))
		}
	})
}

// Run drives the countdown, invoking Tick once per interval until the
// context is cancelled.
func (s *Session) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Close tears the session down: the pending restart (if any) is cancelled
// and later operations on the session become no-ops.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.state.Active = false
	if s.restart != nil {
		s.restart.Stop()
		s.restart = nil
	}
}

// Snapshot returns the read-only view for the status server.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	left, right := s.registry.TeamCounts()
	return Snapshot{
		RoomID:       s.id,
		BarPosition:  s.state.BarPosition,
		Timer:        s.state.TimerSeconds,
		LeftCount:    left,
		RightCount:   right,
		GameActive:   s.state.Active,
		Winner:       s.state.Winner,
		TotalClients: s.registry.Len(),
	}
}

// broadcastStateLocked sends a GAME_UPDATE with the current state and
// counts; callers hold the session lock.
func (s *Session) broadcastStateLocked() {
	left, right := s.registry.TeamCounts()
	update := protocol.NewGameUpdate(
		s.state.BarPosition,
		s.state.TimerSeconds,
		left, right,
		s.state.Active,
		s.state.Winner,
	)
	if removed := s.deliverLocked(update); removed > 0 {
		// Dead peers changed the counts; tell the survivors once. Failures
		// in this second pass only remove, they do not cascade further.
		left, right = s.registry.TeamCounts()
		s.deliverLocked(protocol.NewGameUpdate(
			s.state.BarPosition,
			s.state.TimerSeconds,
			left, right,
			s.state.Active,
			s.state.Winner,
		))
	}
}

// deliverLocked enqueues msg to every player, removing those whose channel
// rejects the write. Returns the number of players removed.
func (s *Session) deliverLocked(msg protocol.Outbound) int {
	var dead []string
	s.registry.Each(func(p *Player) {
		if err := p.Channel.Send(msg); err != nil {
			dead = append(dead, p.ID)
		}
	})
	for _, id := range dead {
		s.registry.Remove(id)
		s.logger.Warn("dropping unreachable player", zap.String("player", id))
	}
	return len(dead)
}
