package lobby

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openarcade/tugofwar/internal/protocol"
	"github.com/openarcade/tugofwar/internal/transport"
)

// Handler services one lobby connection: greet, assign a room, hand the
// client its backend address, and close. Lobby connections are short-lived;
// the client reconnects to the game tier with the room it was given.
type Handler struct {
	dir    *Directory
	logger *zap.Logger
}

// NewHandler creates a lobby connection handler over the given directory.
func NewHandler(dir *Directory, logger *zap.Logger) *Handler {
	return &Handler{dir: dir, logger: logger}
}

// HandleSession runs the lobby exchange for one client. No inbound payload
// is required; connecting is the request.
func (h *Handler) HandleSession(ctx context.Context, conn *transport.Conn) error {
	if err := conn.WriteMessage(protocol.NewLobbyWelcome("welcome to the tug of war lobby")); err != nil {
		return err
	}

	playerID := uuid.NewString()
	assignment, err := h.dir.Assign(playerID)
	if err != nil {
		h.logger.Warn("assignment failed",
			zap.String("player", playerID),
			zap.Error(err),
		)
		return conn.WriteMessage(protocol.NewLobbyError("no room available, try again"))
	}

	if err := conn.WriteMessage(protocol.NewJoinGameServer(
		assignment.Backend.Host,
		assignment.Backend.Port,
		assignment.RoomID,
	)); err != nil {
		// The client never learned its room; free the seat.
		h.dir.Release(assignment.RoomID, playerID)
		return err
	}

	return conn.WriteMessage(protocol.NewRoomStatus(
		assignment.RoomID,
		assignment.PlayersCount,
		assignment.MaxPlayers,
	))
}
