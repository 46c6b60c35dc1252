// Package queue implements the free-for-all waiting queue: users who
// asked for "any opponent" sit here until two of them can be paired.
package queue

import (
	"container/list"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/battlecode-go/internal/dependencies/clock"
	"github.com/mcoot/battlecode-go/internal/model"
	"github.com/mcoot/battlecode-go/internal/storage"
)

// DefaultStaleness is how long a mode-specific waiting match may sit
// without an opponent before the queue sweeps it away.
const DefaultStaleness = 60 * time.Second

// Status is the outcome of an enqueue attempt.
type Status int

const (
	// Added means the user was placed at the back of the queue.
	Added Status = iota
	// AlreadyQueued means the user already had an entry and nothing changed.
	AlreadyQueued
)

// WaitingQueue is a FIFO of users waiting for a free-for-all opponent.
// Each user can hold at most one entry. All operations are safe for
// concurrent use; pairing pops both entries under a single lock so two
// concurrent pair attempts can never claim the same user.
type WaitingQueue struct {
	storage   storage.Store
	clock     clock.Clock
	logger    *slog.Logger
	staleness time.Duration

	mu      sync.Mutex
	entries *list.List                         // of *model.WaitingEntry, oldest at front
	byUser  map[model.UserID]*list.Element
}

// New creates an empty WaitingQueue. A non-positive staleness falls
// back to DefaultStaleness.
func New(storage storage.Store, clock clock.Clock, logger *slog.Logger, staleness time.Duration) *WaitingQueue {
	if staleness <= 0 {
		staleness = DefaultStaleness
	}
	return &WaitingQueue{
		storage:   storage,
		clock:     clock,
		logger:    logger,
		staleness: staleness,
		entries:   list.New(),
		byUser:    make(map[model.UserID]*list.Element),
	}
}

// Enqueue adds the user to the back of the queue. If the user is
// already queued the existing entry keeps its position and
// AlreadyQueued is returned.
func (q *WaitingQueue) Enqueue(userID model.UserID, displayName string) Status {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.byUser[userID]; ok {
		return AlreadyQueued
	}

	entry := &model.WaitingEntry{
		UserID:      userID,
		DisplayName: displayName,
		EnqueuedAt:  q.clock.Now(),
	}
	q.byUser[userID] = q.entries.PushBack(entry)
	return Added
}

// Remove drops the user's entry, if any. Returns whether an entry was
// removed.
func (q *WaitingQueue) Remove(userID model.UserID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	elem, ok := q.byUser[userID]
	if !ok {
		return false
	}
	q.entries.Remove(elem)
	delete(q.byUser, userID)
	return true
}

// Contains reports whether the user currently has a queue entry.
func (q *WaitingQueue) Contains(userID model.UserID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.byUser[userID]
	return ok
}

// Len returns the number of queued users.
func (q *WaitingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.entries.Len()
}

// TryPairOldest attempts to claim the two oldest queued users as a
// pair. Before pairing it sweeps stale mode-specific waiting matches
// from storage so abandoned lobbies do not accumulate; sweep failures
// are logged and do not block pairing. Returns ok=false when fewer
// than two users are queued.
func (q *WaitingQueue) TryPairOldest(ctx context.Context) (first, second *model.WaitingEntry, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := q.clock.Now().Add(-q.staleness)
	removed, err := q.storage.DeleteOrphanMatches(ctx, cutoff)
	if err != nil {
		q.logger.Warn("failed to sweep stale waiting matches", slog.Any("error", err))
	} else if removed > 0 {
		q.logger.Info("swept stale waiting matches", slog.Int("count", removed))
	}

	if q.entries.Len() < 2 {
		return nil, nil, false
	}

	first = q.pop()
	second = q.pop()
	return first, second, true
}

// pop removes and returns the front entry. Caller must hold q.mu.
func (q *WaitingQueue) pop() *model.WaitingEntry {
	elem := q.entries.Front()
	entry := elem.Value.(*model.WaitingEntry)
	q.entries.Remove(elem)
	delete(q.byUser, entry.UserID)
	return entry
}
