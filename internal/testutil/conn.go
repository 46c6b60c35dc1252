package testutil

import (
	"errors"
	"sync"

	"github.com/mcoot/battlecode-go/internal/model"
	"github.com/mcoot/battlecode-go/internal/realtime"
)

// RecordingConn is an in-memory realtime.Connection that records every
// event sent to it. Use it in coordinator tests in place of a real
// websocket.
type RecordingConn struct {
	id     realtime.ConnectionID
	userID model.UserID

	mu     sync.Mutex
	events []realtime.Event
	closed bool
}

var _ realtime.Connection = (*RecordingConn)(nil)

// NewRecordingConn creates a RecordingConn with the given identity.
func NewRecordingConn(id realtime.ConnectionID, userID model.UserID) *RecordingConn {
	return &RecordingConn{id: id, userID: userID}
}

func (c *RecordingConn) ID() realtime.ConnectionID {
	return c.id
}

func (c *RecordingConn) UserID() model.UserID {
	return c.userID
}

func (c *RecordingConn) Send(ev realtime.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection closed")
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *RecordingConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Closed reports whether Close has been called.
func (c *RecordingConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Events returns a copy of everything sent so far.
func (c *RecordingConn) Events() []realtime.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]realtime.Event, len(c.events))
	copy(out, c.events)
	return out
}

// EventNames returns the names of everything sent so far, in order.
func (c *RecordingConn) EventNames() []string {
	var names []string
	for _, ev := range c.Events() {
		names = append(names, ev.Name)
	}
	return names
}
