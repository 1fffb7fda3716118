package gameserver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/openarcade/tugofwar/internal/game"
	"github.com/openarcade/tugofwar/internal/protocol"
	"github.com/openarcade/tugofwar/internal/transport"
)

const outboxBufferSize = 64

// Handler runs the message loop of one game client: decoding inbound
// commands, routing them to the player's room, and draining the player's
// outbox onto the wire.
type Handler struct {
	rooms  *RoomManager
	logger *zap.Logger
}

// NewHandler creates a connection handler backed by the given room manager.
func NewHandler(rooms *RoomManager, logger *zap.Logger) *Handler {
	return &Handler{rooms: rooms, logger: logger}
}

// clientID derives a player identifier from the connection's remote address
// and the connect time, unique enough across reconnects from one host.
func clientID(conn *transport.Conn) string {
	return fmt.Sprintf("%s_%d", conn.RemoteAddr(), time.Now().UnixMilli())
}

// HandleSession services one client connection until it disconnects or the
// server shuts down. The connection's read timeout doubles as the idle
// interval: a quiet client gets a PING probe instead of a hangup.
func (h *Handler) HandleSession(ctx context.Context, conn *transport.Conn) error {
	playerID := clientID(conn)
	logger := h.logger.With(zap.String("player", playerID))

	outbox := transport.NewOutbox(playerID, outboxBufferSize)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range outbox.Events() {
			if err := conn.WriteMessage(msg); err != nil {
				logger.Debug("write failed", zap.Error(err))
				// Unblock the read loop so the session tears down.
				conn.Close()
				return
			}
		}
	}()

	var session *game.Session
	defer func() {
		if session != nil {
			session.Leave(playerID)
		}
		outbox.Close()
		<-writerDone
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := conn.ReadLine()
		if err != nil {
			if transport.IsTimeout(err) {
				// Idle client: probe it and keep reading. A dead peer
				// surfaces as a write failure on the probe.
				if perr := outbox.Send(protocol.NewPing()); perr != nil {
					return perr
				}
				continue
			}
			return nil
		}
		if len(line) == 0 {
			continue
		}

		// Malformed lines and out-of-vocabulary commands are logged and
		// ignored; the connection stays open.
		cmd, err := protocol.DecodeClientCommand(line)
		if err != nil {
			logger.Debug("ignoring command", zap.Error(err))
			continue
		}

		switch cmd.Command {
		case protocol.CmdJoinGame:
			if session != nil {
				continue
			}
			session = h.rooms.GetOrCreate(cmd.RoomID)
			if session == nil {
				return nil
			}
			session.Join(playerID, outbox)

		case protocol.CmdPressLeft:
			if session != nil {
				session.Press(playerID, protocol.TeamLeft)
			}

		case protocol.CmdPressRight:
			if session != nil {
				session.Press(playerID, protocol.TeamRight)
			}

		case protocol.CmdStartGame:
			if session == nil {
				if serr := outbox.Send(protocol.NewGameError("join a game first")); serr != nil {
					return serr
				}
				continue
			}
			// A failed start already broadcast its GAME_ERROR.
			if err := session.Start(); err != nil {
				logger.Debug("start rejected", zap.Error(err))
			}
		}
	}
}
