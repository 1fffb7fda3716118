// Package game implements the per-room tug-of-war state machine: the shared
// bar, the countdown, team membership, and the round lifecycle.
package game

import "github.com/openarcade/tugofwar/internal/protocol"

// State is the mutable per-room game state. It is owned by a Session and
// must only be touched under the session's lock.
type State struct {
	// BarPosition is the contested value, always within [-limit, limit].
	BarPosition int
	// TimerSeconds is the remaining round time, never negative.
	TimerSeconds int
	// Active reports whether a round is in progress.
	Active bool
	// Winner is the outcome of the last finished round.
	Winner protocol.Winner
}

// Reset restores the state to the start-of-round values: centered bar,
// full countdown, active, no winner.
func (s *State) Reset(roundSeconds int) {
	s.BarPosition = 0
	s.TimerSeconds = roundSeconds
	s.Active = true
	s.Winner = protocol.WinnerNone
}

// clamp bounds v to [-limit, limit].
func clamp(v, limit int) int {
	if v < -limit {
		return -limit
	}
	if v > limit {
		return limit
	}
	return v
}
