package realtime

import (
	"errors"
	"sync"

	"github.com/mcoot/battlecode-go/internal/model"
)

// fakeConn is an in-memory Connection for registry and gateway tests
type fakeConn struct {
	id     ConnectionID
	userID model.UserID

	mu     sync.Mutex
	events []Event
	closed bool
}

var _ Connection = (*fakeConn)(nil)

func newFakeConn(id ConnectionID, userID model.UserID) *fakeConn {
	return &fakeConn{id: id, userID: userID}
}

func (c *fakeConn) ID() ConnectionID {
	return c.id
}

func (c *fakeConn) UserID() model.UserID {
	return c.userID
}

func (c *fakeConn) Send(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection closed")
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]Event, len(c.events))
	copy(result, c.events)
	return result
}

func (c *fakeConn) EventNames() []string {
	var names []string
	for _, ev := range c.Events() {
		names = append(names, ev.Name)
	}
	return names
}
