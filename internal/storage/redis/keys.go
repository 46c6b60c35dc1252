package redis

import (
	"fmt"

	"github.com/mcoot/battlecode-go/internal/model"
)

// Key prefix for all battle-related data
const keyPrefix = "bcode"

// Key generation functions for each entity type

// userKey returns the Redis key for a User
func userKey(id model.UserID) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, id)
}

// registeredUserKey returns the Redis key for a RegisteredUser
func registeredUserKey(userID model.UserID) string {
	return fmt.Sprintf("%s:registered_user:%s", keyPrefix, userID)
}

// usernameIndexKey returns the Redis key for the username -> user_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// matchKey returns the Redis key for a Match
func matchKey(id model.MatchID) string {
	return fmt.Sprintf("%s:match:%s", keyPrefix, id)
}

// waitingMatchesKey returns the Redis key for the ZSET of Waiting
// matches, scored by creation time (unix seconds)
func waitingMatchesKey() string {
	return fmt.Sprintf("%s:idx:waiting_matches", keyPrefix)
}

// problemKey returns the Redis key for a Problem
func problemKey(id model.ProblemID) string {
	return fmt.Sprintf("%s:problem:%s", keyPrefix, id)
}

// problemsForMatchKey returns the Redis key for the ZSET of a match's
// problems, scored by problem order
func problemsForMatchKey(matchID model.MatchID) string {
	return fmt.Sprintf("%s:idx:problems_for_match:%s", keyPrefix, matchID)
}

// submissionsForMatchKey returns the Redis key for the LIST of a
// match's submissions, in submission order
func submissionsForMatchKey(matchID model.MatchID) string {
	return fmt.Sprintf("%s:submissions_for_match:%s", keyPrefix, matchID)
}
