package model

import "time"

// WaitingEntry is one user awaiting an opponent in the free-for-all queue.
// At most one entry exists per user at any time.
type WaitingEntry struct {
	UserID      UserID
	DisplayName string
	EnqueuedAt  time.Time
}
