package model

import "time"

// SubmissionID uniquely identifies a submission
type SubmissionID string

// SubmissionResult is the judged outcome of a submission
type SubmissionResult string

const (
	ResultCorrect  SubmissionResult = "Correct"
	ResultWrong    SubmissionResult = "Wrong"
	ResultError    SubmissionResult = "Error"
	ResultTimeout  SubmissionResult = "Timeout"
	ResultNoAnswer SubmissionResult = "NoAnswer" // deadline passed with no code submitted
)

// Submission is one judged attempt at a problem by a participant.
// Progression only ever considers the latest submission per participant.
type Submission struct {
	ID              SubmissionID
	MatchID         MatchID
	ProblemID       ProblemID
	UserID          UserID
	Code            string
	Language        string
	Result          SubmissionResult
	Output          string
	ErrorMessage    string
	Analysis        string
	ExecutionTimeMs int
	SubmittedAt     time.Time
}

// IsCorrect reports whether this submission was judged correct
func (s *Submission) IsCorrect() bool {
	return s.Result == ResultCorrect
}
