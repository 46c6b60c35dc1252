// Package ready tracks per-match readiness declarations and detects
// the moment both participants have declared.
package ready

import (
	"sync"

	"github.com/mcoot/battlecode-go/internal/model"
)

// Quorum is how many distinct ready declarations complete a match.
const Quorum = 2

// Status is the outcome of a readiness declaration.
type Status int

const (
	// Pending means the match is still waiting on the other participant.
	Pending Status = iota
	// QuorumReached means this declaration completed the quorum. It is
	// reported to exactly one caller per round; the round's state is
	// cleared in the same step.
	QuorumReached
)

// Tracker records which users have declared ready per match. Marking
// ready is idempotent per user, and reaching quorum atomically clears
// the round so a later round can start fresh.
type Tracker struct {
	mu    sync.Mutex
	ready map[model.MatchID]map[model.UserID]struct{}
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		ready: make(map[model.MatchID]map[model.UserID]struct{}),
	}
}

// MarkReady records the user's readiness for the match. When the
// declaration brings the count of distinct ready users to Quorum, the
// match's state is cleared and QuorumReached is returned; every other
// call (including repeats from the same user) returns Pending.
func (t *Tracker) MarkReady(matchID model.MatchID, userID model.UserID) Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	users, ok := t.ready[matchID]
	if !ok {
		users = make(map[model.UserID]struct{})
		t.ready[matchID] = users
	}
	users[userID] = struct{}{}

	if len(users) >= Quorum {
		delete(t.ready, matchID)
		return QuorumReached
	}
	return Pending
}

// Clear discards any readiness state for the match. Used when a match
// ends or is torn down mid-round.
func (t *Tracker) Clear(matchID model.MatchID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.ready, matchID)
}
