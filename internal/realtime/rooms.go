package realtime

import (
	"sync"

	"github.com/mcoot/battlecode-go/internal/model"
)

// RoomQuorum is the member count at which a room's synchronized
// countdown may begin.
const RoomQuorum = 2

// RoomRegistry maps a match to the set of connections subscribed to
// its broadcast group. A connection belongs to at most one room at a
// time; joining a new room leaves the previous one.
type RoomRegistry struct {
	mu     sync.Mutex
	rooms  map[model.MatchID]map[ConnectionID]Connection
	byConn map[ConnectionID]model.MatchID
}

// NewRoomRegistry creates an empty RoomRegistry
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:  make(map[model.MatchID]map[ConnectionID]Connection),
		byConn: make(map[ConnectionID]model.MatchID),
	}
}

// Join adds a connection to a room and returns the new member count
// plus whether the membership actually changed. Joining a room the
// connection is already in is a no-op reported as unchanged. The
// returned count is atomic with the join, so exactly one
// membership-changing caller observes the count reaching RoomQuorum.
func (r *RoomRegistry) Join(matchID model.MatchID, conn Connection) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byConn[conn.ID()]; ok && prev != matchID {
		r.leaveLocked(conn.ID(), prev)
	}

	room, ok := r.rooms[matchID]
	if !ok {
		room = make(map[ConnectionID]Connection)
		r.rooms[matchID] = room
	}
	_, already := room[conn.ID()]
	room[conn.ID()] = conn
	r.byConn[conn.ID()] = matchID
	return len(room), !already
}

// Leave removes a connection from whichever room contains it. It
// returns the affected room, the remaining members of that room, and
// whether the connection was in a room at all. A room dropping to zero
// members is torn down.
func (r *RoomRegistry) Leave(connID ConnectionID) (model.MatchID, []Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matchID, ok := r.byConn[connID]
	if !ok {
		return "", nil, false
	}
	r.leaveLocked(connID, matchID)

	var remaining []Connection
	for _, c := range r.rooms[matchID] {
		remaining = append(remaining, c)
	}
	return matchID, remaining, true
}

// MembersOf returns a snapshot of the connections in a room
func (r *RoomRegistry) MembersOf(matchID model.MatchID) []Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[matchID]
	if !ok {
		return nil
	}
	result := make([]Connection, 0, len(room))
	for _, c := range room {
		result = append(result, c)
	}
	return result
}

// Close tears down a room, removing every member
func (r *RoomRegistry) Close(matchID model.MatchID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for connID := range r.rooms[matchID] {
		delete(r.byConn, connID)
	}
	delete(r.rooms, matchID)
}

func (r *RoomRegistry) leaveLocked(connID ConnectionID, matchID model.MatchID) {
	room, ok := r.rooms[matchID]
	if !ok {
		delete(r.byConn, connID)
		return
	}
	delete(room, connID)
	delete(r.byConn, connID)
	if len(room) == 0 {
		delete(r.rooms, matchID)
	}
}
