package realtime

// Server-to-client event names
const (
	EventNotify         = "notify"
	EventMatchFound     = "match-found"
	EventStartCountdown = "start-countdown"
	EventNextProblem    = "next-problem"
	EventStartBattle    = "start-battle"
	EventMatchFinished  = "match-finished"
	EventRedirect       = "redirect"
)

// Event is a named message delivered to clients. Payloads are small
// JSON objects; clients switch on Name.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data,omitempty"`
}

// Notify builds an informational toast event
func Notify(message string) Event {
	return Event{Name: EventNotify, Data: map[string]string{"message": message}}
}

// MatchFound instructs a client to navigate into the match
func MatchFound(matchID string) Event {
	return Event{Name: EventMatchFound, Data: map[string]string{"match_id": matchID}}
}

// StartCountdown tells a room both participants are ready
func StartCountdown() Event {
	return Event{Name: EventStartCountdown}
}

// NextProblem tells a room to switch to a new problem. Index is the
// problem's 1-based position in the match's ordered problem list.
func NextProblem(problemID string, index int) Event {
	return Event{Name: EventNextProblem, Data: map[string]any{
		"problem_id": problemID,
		"index":      index,
	}}
}

// StartBattle tells a client that free-queue pairing succeeded
func StartBattle(roomID, opponentName string) Event {
	return Event{Name: EventStartBattle, Data: map[string]string{
		"room_id":       roomID,
		"opponent_name": opponentName,
	}}
}

// MatchFinished tells a room there are no more problems
func MatchFinished() Event {
	return Event{Name: EventMatchFinished}
}

// Redirect tells a client to navigate to a URL
func Redirect(url string) Event {
	return Event{Name: EventRedirect, Data: map[string]string{"url": url}}
}
