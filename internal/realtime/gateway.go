package realtime

import (
	"log/slog"

	"github.com/mcoot/battlecode-go/internal/model"
)

// Gateway is the sole path by which coordinators talk to clients. It
// delivers named events to a single connection, to every connection a
// user holds, or to every connection in a match room. Delivery is
// best-effort: a send to a closed connection is dropped, not an error.
type Gateway struct {
	conns  *ConnectionRegistry
	rooms  *RoomRegistry
	logger *slog.Logger
}

// NewGateway creates a Gateway over the given registries
func NewGateway(conns *ConnectionRegistry, rooms *RoomRegistry, logger *slog.Logger) *Gateway {
	return &Gateway{
		conns:  conns,
		rooms:  rooms,
		logger: logger.With(slog.String("component", "gateway")),
	}
}

// ToConnection sends an event to one connection
func (g *Gateway) ToConnection(conn Connection, ev Event) {
	if conn == nil {
		return
	}
	if err := conn.Send(ev); err != nil {
		g.logger.Debug("event dropped",
			slog.String("event", ev.Name),
			slog.String("conn_id", string(conn.ID())))
	}
}

// ToUser sends an event to every connection the user holds
func (g *Gateway) ToUser(userID model.UserID, ev Event) {
	for _, conn := range g.conns.ConnectionsOf(userID) {
		g.ToConnection(conn, ev)
	}
}

// ToRoom sends an event to every connection in a match's room
func (g *Gateway) ToRoom(matchID model.MatchID, ev Event) {
	for _, conn := range g.rooms.MembersOf(matchID) {
		g.ToConnection(conn, ev)
	}
}
