package model

import "time"

// MatchID uniquely identifies a match
type MatchID string

// MatchStatus represents the lifecycle state of a match
type MatchStatus string

const (
	MatchStatusWaiting  MatchStatus = "waiting"  // Player1 waiting for an opponent
	MatchStatusRunning  MatchStatus = "running"  // Both players bound, battle in progress
	MatchStatusFinished MatchStatus = "finished" // All problems exhausted
	MatchStatusDraw     MatchStatus = "draw"     // Finished with equal scores
)

// Match represents one contest session between exactly two participants
type Match struct {
	ID       MatchID
	Player1  UserID
	Player2  UserID // empty until an opponent is bound
	Status   MatchStatus
	Mode     string // difficulty mode requested at pairing time
	Language string

	Player1Score   int
	Player2Score   int
	Player1Correct int
	Player2Correct int

	StartedAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasBothPlayers reports whether both participants are bound
func (m *Match) HasBothPlayers() bool {
	return m.Player1 != "" && m.Player2 != ""
}

// IsParticipant reports whether the given user is one of the two players
func (m *Match) IsParticipant(id UserID) bool {
	return id != "" && (m.Player1 == id || m.Player2 == id)
}

// Opponent returns the other participant, if both are bound
func (m *Match) Opponent(id UserID) (UserID, bool) {
	switch id {
	case m.Player1:
		if m.Player2 != "" {
			return m.Player2, true
		}
	case m.Player2:
		return m.Player1, true
	}
	return "", false
}

// RoomID returns the broadcast group name for this match
func (m *Match) RoomID() string {
	return "match_" + string(m.ID)
}
