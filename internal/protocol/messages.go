// Package protocol defines the newline-delimited JSON wire vocabulary spoken
// between clients, the lobby, and the game servers. Every message is a JSON
// object carrying a "command" field; the command set is closed and anything
// outside it is rejected at the boundary.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Command identifies a wire message kind.
type Command string

// Client → game server.
const (
	CmdJoinGame   Command = "JOIN_GAME"
	CmdPressLeft  Command = "PRESS_LEFT"
	CmdPressRight Command = "PRESS_RIGHT"
	CmdStartGame  Command = "START_GAME"
)

// Game server → client.
const (
	CmdTeamAssigned Command = "TEAM_ASSIGNED"
	CmdGameUpdate   Command = "GAME_UPDATE"
	CmdGameEnd      Command = "GAME_END"
	CmdGameError    Command = "GAME_ERROR"
	CmdPing         Command = "PING"
)

// Lobby → client.
const (
	CmdLobbyWelcome   Command = "LOBBY_WELCOME"
	CmdJoinGameServer Command = "JOIN_GAME_SERVER"
	CmdRoomStatus     Command = "ROOM_STATUS"
	CmdLobbyError     Command = "LOBBY_ERROR"
)

// Team is a wire-level team name.
type Team string

const (
	TeamLeft  Team = "left"
	TeamRight Team = "right"
)

// Winner is the outcome of a round. The zero value means the round is
// still undecided and is omitted from update payloads.
type Winner string

const (
	WinnerNone  Winner = ""
	WinnerLeft  Winner = "LEFT"
	WinnerRight Winner = "RIGHT"
	WinnerDraw  Winner = "DRAW"
)

// ErrUnknownCommand reports a syntactically valid message whose command is
// outside the client vocabulary.
var ErrUnknownCommand = errors.New("unknown command")

// ClientCommand is any inbound message from a game client. RoomID is only
// meaningful on JOIN_GAME and may be empty, in which case the server's
// default room is used.
type ClientCommand struct {
	Command Command `json:"command"`
	RoomID  string  `json:"room_id,omitempty"`
}

// DecodeClientCommand parses one wire line into a ClientCommand and checks
// the command against the closed client vocabulary.
//
// Postcondition: Returns a ClientCommand with a known Command, or an error
// (wrapping ErrUnknownCommand for out-of-vocabulary commands).
func DecodeClientCommand(line []byte) (ClientCommand, error) {
	var cmd ClientCommand
	if err := json.Unmarshal(line, &cmd); err != nil {
		return ClientCommand{}, fmt.Errorf("decoding client command: %w", err)
	}
	switch cmd.Command {
	case CmdJoinGame, CmdPressLeft, CmdPressRight, CmdStartGame:
		return cmd, nil
	default:
		return ClientCommand{}, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Command)
	}
}

// Outbound is implemented by every server-to-client message.
type Outbound interface {
	Kind() Command
}

// TeamAssigned tells a freshly registered player which team it is on.
type TeamAssigned struct {
	Command Command `json:"command"`
	Team    Team    `json:"team"`
}

// NewTeamAssigned builds a TEAM_ASSIGNED message.
func NewTeamAssigned(team Team) TeamAssigned {
	return TeamAssigned{Command: CmdTeamAssigned, Team: team}
}

// Kind returns the message command.
func (m TeamAssigned) Kind() Command { return m.Command }

// GameUpdate is the periodic broadcast of a room's observable state.
type GameUpdate struct {
	Command     Command `json:"command"`
	BarPosition int     `json:"bar_position"`
	Timer       int     `json:"timer"`
	LeftCount   int     `json:"left_count"`
	RightCount  int     `json:"right_count"`
	GameActive  bool    `json:"game_active"`
	Winner      Winner  `json:"winner,omitempty"`
}

// NewGameUpdate builds a GAME_UPDATE message.
func NewGameUpdate(barPosition, timer, leftCount, rightCount int, active bool, winner Winner) GameUpdate {
	return GameUpdate{
		Command:     CmdGameUpdate,
		BarPosition: barPosition,
		Timer:       timer,
		LeftCount:   leftCount,
		RightCount:  rightCount,
		GameActive:  active,
		Winner:      winner,
	}
}

// Kind returns the message command.
func (m GameUpdate) Kind() Command { return m.Command }

// GameEnd is the terminal event of a round.
type GameEnd struct {
	Command     Command `json:"command"`
	Winner      Winner  `json:"winner"`
	BarPosition int     `json:"bar_position"`
}

// NewGameEnd builds a GAME_END message.
func NewGameEnd(winner Winner, barPosition int) GameEnd {
	return GameEnd{Command: CmdGameEnd, Winner: winner, BarPosition: barPosition}
}

// Kind returns the message command.
func (m GameEnd) Kind() Command { return m.Command }

// GameError reports a rejected operation, e.g. starting with an empty team.
type GameError struct {
	Command Command `json:"command"`
	Message string  `json:"message"`
}

// NewGameError builds a GAME_ERROR message.
func NewGameError(message string) GameError {
	return GameError{Command: CmdGameError, Message: message}
}

// Kind returns the message command.
func (m GameError) Kind() Command { return m.Command }

// Ping is the liveness probe sent to idle connections. No reply is required.
type Ping struct {
	Command Command `json:"command"`
}

// NewPing builds a PING message.
func NewPing() Ping { return Ping{Command: CmdPing} }

// Kind returns the message command.
func (m Ping) Kind() Command { return m.Command }

// LobbyWelcome greets a client that connected to the lobby tier.
type LobbyWelcome struct {
	Command Command `json:"command"`
	Message string  `json:"message"`
}

// NewLobbyWelcome builds a LOBBY_WELCOME message.
func NewLobbyWelcome(message string) LobbyWelcome {
	return LobbyWelcome{Command: CmdLobbyWelcome, Message: message}
}

// Kind returns the message command.
func (m LobbyWelcome) Kind() Command { return m.Command }

// JoinGameServer directs a client to the game server hosting its room.
type JoinGameServer struct {
	Command    Command `json:"command"`
	ServerIP   string  `json:"server_ip"`
	ServerPort int     `json:"server_port"`
	RoomID     string  `json:"room_id"`
}

// NewJoinGameServer builds a JOIN_GAME_SERVER message.
func NewJoinGameServer(serverIP string, serverPort int, roomID string) JoinGameServer {
	return JoinGameServer{
		Command:    CmdJoinGameServer,
		ServerIP:   serverIP,
		ServerPort: serverPort,
		RoomID:     roomID,
	}
}

// Kind returns the message command.
func (m JoinGameServer) Kind() Command { return m.Command }

// RoomStatus reports a room's occupancy to a lobby client.
type RoomStatus struct {
	Command      Command `json:"command"`
	RoomID       string  `json:"room_id"`
	PlayersCount int     `json:"players_count"`
	MaxPlayers   int     `json:"max_players"`
}

// NewRoomStatus builds a ROOM_STATUS message.
func NewRoomStatus(roomID string, playersCount, maxPlayers int) RoomStatus {
	return RoomStatus{
		Command:      CmdRoomStatus,
		RoomID:       roomID,
		PlayersCount: playersCount,
		MaxPlayers:   maxPlayers,
	}
}

// Kind returns the message command.
func (m RoomStatus) Kind() Command { return m.Command }

// LobbyError reports a lobby-side failure to the client.
type LobbyError struct {
	Command Command `json:"command"`
	Message string  `json:"message"`
}

// NewLobbyError builds a LOBBY_ERROR message.
func NewLobbyError(message string) LobbyError {
	return LobbyError{Command: CmdLobbyError, Message: message}
}

// Kind returns the message command.
func (m LobbyError) Kind() Command { return m.Command }

// Encode marshals an outbound message and appends the line terminator.
//
// Postcondition: Returns a newline-terminated JSON encoding of msg.
func Encode(msg Outbound) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", msg.Kind(), err)
	}
	return append(data, '\n'), nil
}
