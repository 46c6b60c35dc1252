package storage

import (
	"context"
	"time"

	"github.com/mcoot/battlecode-go/internal/model"
)

// Store defines the interface for data persistence
type Store interface {
	// User operations
	SaveUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
	DeleteUser(ctx context.Context, id model.UserID) error

	// Registered user operations
	SaveRegisteredUser(ctx context.Context, ru *model.RegisteredUser) error
	GetRegisteredUser(ctx context.Context, userID model.UserID) (*model.RegisteredUser, error)
	GetRegisteredUserByUsername(ctx context.Context, username string) (*model.RegisteredUser, error)

	// Match operations
	SaveMatch(ctx context.Context, match *model.Match) error
	GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error)
	DeleteMatch(ctx context.Context, id model.MatchID) error

	// FindWaitingMatch returns a Waiting match with the given mode and
	// language whose player one is not the excluded user, oldest first
	FindWaitingMatch(ctx context.Context, mode, language string, exclude model.UserID) (*model.Match, error)

	// WaitingMatchesFor returns all Waiting matches owned solely by the
	// given user (used for disconnect cleanup)
	WaitingMatchesFor(ctx context.Context, userID model.UserID) ([]*model.Match, error)

	// DeleteOrphanMatches removes Waiting matches created before the
	// cutoff, along with their problems and submissions, and returns
	// how many matches were removed
	DeleteOrphanMatches(ctx context.Context, olderThan time.Time) (int, error)

	// IncrementScore atomically bumps the score and correct-answer
	// counters of the given participant. Never a blind overwrite of the
	// whole match row.
	IncrementScore(ctx context.Context, matchID model.MatchID, userID model.UserID) error

	// Problem operations
	SaveProblem(ctx context.Context, problem *model.Problem) error
	GetProblem(ctx context.Context, id model.ProblemID) (*model.Problem, error)
	ListProblems(ctx context.Context, matchID model.MatchID) ([]*model.Problem, error)
	DeleteProblemsForMatch(ctx context.Context, matchID model.MatchID) error

	// Submission operations
	SaveSubmission(ctx context.Context, sub *model.Submission) error
	ListSubmissions(ctx context.Context, matchID model.MatchID) ([]*model.Submission, error)

	// LatestSubmissions returns each participant's most recent
	// submission for the given problem
	LatestSubmissions(ctx context.Context, matchID model.MatchID, problemID model.ProblemID) (map[model.UserID]*model.Submission, error)

	DeleteSubmissionsForMatch(ctx context.Context, matchID model.MatchID) error
}
