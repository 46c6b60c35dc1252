package response

import (
	"time"

	"github.com/mcoot/battlecode-go/internal/model"
	"github.com/mcoot/battlecode-go/internal/services/auth"
	"github.com/mcoot/battlecode-go/internal/services/match"
)

// User represents a user in API responses
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// UserFromModel converts a model.User to a response User
func UserFromModel(u *model.User) User {
	return User{
		ID:          string(u.ID),
		DisplayName: u.DisplayName,
		IsGuest:     u.IsGuest,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	User         User   `json:"user"`
	SessionToken string `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		User:         UserFromModel(&s.User),
		SessionToken: s.Token,
	}
}

// Match represents a match in API responses
type Match struct {
	ID        string     `json:"id"`
	Player1   string     `json:"player1"`
	Player2   string     `json:"player2,omitempty"`
	Status    string     `json:"status"`
	Mode      string     `json:"mode"`
	Language  string     `json:"language"`
	RoomID    string     `json:"room_id"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// MatchFromModel converts a model.Match to a response Match
func MatchFromModel(m *model.Match) Match {
	var startedAt *time.Time
	if !m.StartedAt.IsZero() {
		t := m.StartedAt
		startedAt = &t
	}
	return Match{
		ID:        string(m.ID),
		Player1:   string(m.Player1),
		Player2:   string(m.Player2),
		Status:    string(m.Status),
		Mode:      m.Mode,
		Language:  m.Language,
		RoomID:    m.RoomID(),
		StartedAt: startedAt,
		CreatedAt: m.CreatedAt,
	}
}

// Problem represents a problem in API responses
type Problem struct {
	ID           string `json:"id"`
	MatchID      string `json:"match_id"`
	Order        int    `json:"order"`
	Language     string `json:"language"`
	Title        string `json:"title"`
	Tag          string `json:"tag,omitempty"`
	Description  string `json:"description"`
	InputFormat  string `json:"input_format"`
	OutputFormat string `json:"output_format"`
	SampleInput  string `json:"sample_input"`
	SampleOutput string `json:"sample_output"`
	Difficulty   string `json:"difficulty"`
}

// ProblemFromModel converts a model.Problem to a response Problem
func ProblemFromModel(p *model.Problem) Problem {
	return Problem{
		ID:           string(p.ID),
		MatchID:      string(p.MatchID),
		Order:        p.Order,
		Language:     p.Language,
		Title:        p.Title,
		Tag:          p.Tag,
		Description:  p.Description,
		InputFormat:  p.InputFormat,
		OutputFormat: p.OutputFormat,
		SampleInput:  p.SampleInput,
		SampleOutput: p.SampleOutput,
		Difficulty:   p.Difficulty,
	}
}

// ProblemList wraps a match's ordered problem set
type ProblemList struct {
	Problems []Problem `json:"problems"`
}

// ProblemListFromModels converts a slice of model problems
func ProblemListFromModels(problems []*model.Problem) ProblemList {
	out := ProblemList{Problems: make([]Problem, len(problems))}
	for i, p := range problems {
		out.Problems[i] = ProblemFromModel(p)
	}
	return out
}

// Submission represents a judged submission in API responses
type Submission struct {
	ID              string    `json:"id"`
	Result          string    `json:"result"`
	Analysis        string    `json:"analysis,omitempty"`
	ExecutionTimeMs int       `json:"execution_time_ms"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

// SubmissionFromModel converts a model.Submission to a response Submission
func SubmissionFromModel(s *model.Submission) *Submission {
	if s == nil {
		return nil
	}
	return &Submission{
		ID:              string(s.ID),
		Result:          string(s.Result),
		Analysis:        s.Analysis,
		ExecutionTimeMs: s.ExecutionTimeMs,
		SubmittedAt:     s.SubmittedAt,
	}
}

// ProblemResult is one row of the match result view
type ProblemResult struct {
	Problem         Problem     `json:"problem"`
	MySubmission    *Submission `json:"my_submission,omitempty"`
	Correct         bool        `json:"correct"`
	OpponentCorrect bool        `json:"opponent_correct"`
}

// MatchResult is the end-of-match result view
type MatchResult struct {
	Match          Match           `json:"match"`
	Player1Name    string          `json:"player1_name"`
	Player2Name    string          `json:"player2_name"`
	Player1Correct int             `json:"player1_correct"`
	Player2Correct int             `json:"player2_correct"`
	WinnerName     string          `json:"winner_name,omitempty"`
	IsDraw         bool            `json:"is_draw"`
	Problems       []ProblemResult `json:"problems"`
}

// MatchResultFromSummary converts a match result summary
func MatchResultFromSummary(s *match.Summary) MatchResult {
	out := MatchResult{
		Match:          MatchFromModel(s.Match),
		Player1Name:    s.Player1Name,
		Player2Name:    s.Player2Name,
		Player1Correct: s.Player1Correct,
		Player2Correct: s.Player2Correct,
		WinnerName:     s.WinnerName,
		IsDraw:         s.IsDraw,
		Problems:       make([]ProblemResult, len(s.Problems)),
	}
	for i, pr := range s.Problems {
		out.Problems[i] = ProblemResult{
			Problem:         ProblemFromModel(pr.Problem),
			MySubmission:    SubmissionFromModel(pr.MySubmission),
			Correct:         pr.Correct,
			OpponentCorrect: pr.OpponentCorrect,
		}
	}
	return out
}
