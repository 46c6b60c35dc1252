package realtime

import "github.com/mcoot/battlecode-go/internal/model"

// ConnectionID uniquely identifies one live transport channel
type ConnectionID string

// Connection is one live channel belonging to a user identity. A user
// may hold several simultaneously (multiple tabs or devices).
//
// Send is best-effort: sending to a closed connection is a no-op for
// callers, never a fault.
type Connection interface {
	ID() ConnectionID
	UserID() model.UserID
	Send(ev Event) error
	Close()
}
