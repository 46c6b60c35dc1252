// Package match handles in-battle operations: code submission and
// judging, live scores, and the end-of-match result summary.
package match

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mcoot/battlecode-go/internal/dependencies/clock"
	"github.com/mcoot/battlecode-go/internal/dependencies/random"
	"github.com/mcoot/battlecode-go/internal/model"
	"github.com/mcoot/battlecode-go/internal/services/judge"
	"github.com/mcoot/battlecode-go/internal/services/progression"
	"github.com/mcoot/battlecode-go/internal/storage"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Service orchestrates submissions and match queries.
type Service struct {
	storage     storage.Store
	judge       judge.Judge
	progression *progression.Coordinator
	clock       clock.Clock
	random      random.Random
	logger      *slog.Logger
}

// NewService creates a Service.
func NewService(storage storage.Store, judge judge.Judge, prog *progression.Coordinator, clock clock.Clock, random random.Random, logger *slog.Logger) *Service {
	return &Service{
		storage:     storage,
		judge:       judge,
		progression: prog,
		clock:       clock,
		random:      random,
		logger:      logger,
	}
}

// SubmitOutcome is what the submitting client is told.
type SubmitOutcome struct {
	IsCorrect       bool   `json:"is_correct"`
	AlreadyAnswered bool   `json:"already_answered"`
	Result          string `json:"result"`
	Message         string `json:"message"`
	Analysis        string `json:"analysis,omitempty"`
}

// SubmitCode judges a submission and records it. An empty code body
// means the problem timer expired with nothing written: a single
// NoAnswer record is kept and the problem is treated as timed out.
// A participant who has already answered correctly is short-circuited
// without touching the judge.
func (s *Service) SubmitCode(ctx context.Context, userID model.UserID, matchID model.MatchID, problemID model.ProblemID, code, language string) (*SubmitOutcome, error) {
	match, err := s.storage.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.IsParticipant(userID) {
		return nil, model.ErrNotParticipant
	}
	if match.Status == model.MatchStatusFinished || match.Status == model.MatchStatusDraw {
		return nil, model.ErrMatchFinished
	}

	problem, err := s.storage.GetProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if problem.MatchID != matchID {
		return nil, model.ErrProblemNotFound
	}

	mine, err := s.submissionsBy(ctx, matchID, problemID, userID)
	if err != nil {
		return nil, err
	}
	for _, sub := range mine {
		if sub.IsCorrect() {
			return &SubmitOutcome{
				IsCorrect:       true,
				AlreadyAnswered: true,
				Result:          string(model.ResultCorrect),
				Message:         "You already solved this one, wait for your opponent or the timer",
			}, nil
		}
	}

	if strings.TrimSpace(code) == "" {
		return s.submitNoAnswer(ctx, match, problem, userID, language, len(mine) > 0)
	}

	// The judge call can take many seconds; nothing is held across it.
	verdict := s.judge.Judge(ctx, code, problem, language)

	if verdict.IsCorrect {
		if err := s.storage.IncrementScore(ctx, matchID, userID); err != nil {
			return nil, err
		}
	}

	sub := &model.Submission{
		ID:              s.newSubmissionID(),
		MatchID:         matchID,
		ProblemID:       problemID,
		UserID:          userID,
		Code:            code,
		Language:        language,
		Result:          verdict.SubmissionResult(),
		Output:          verdict.Output,
		ErrorMessage:    verdict.ErrorMessage,
		Analysis:        verdict.Analysis,
		ExecutionTimeMs: verdict.ExecutionTimeMs,
		SubmittedAt:     s.clock.Now(),
	}
	if err := s.storage.SaveSubmission(ctx, sub); err != nil {
		return nil, err
	}

	if err := s.progression.Evaluate(ctx, matchID, problemID, false); err != nil {
		s.logger.Warn("progression evaluation failed after submission",
			slog.String("match_id", string(matchID)),
			slog.Any("error", err),
		)
	}

	message := "Wrong answer, try again"
	if verdict.IsCorrect {
		message = "Correct! Wait for your opponent or the timer"
	}
	return &SubmitOutcome{
		IsCorrect: verdict.IsCorrect,
		Result:    string(sub.Result),
		Message:   message,
		Analysis:  verdict.Analysis,
	}, nil
}

func (s *Service) submitNoAnswer(ctx context.Context, match *model.Match, problem *model.Problem, userID model.UserID, language string, hasSubmitted bool) (*SubmitOutcome, error) {
	if !hasSubmitted {
		sub := &model.Submission{
			ID:          s.newSubmissionID(),
			MatchID:     match.ID,
			ProblemID:   problem.ID,
			UserID:      userID,
			Language:    language,
			Result:      model.ResultNoAnswer,
			Analysis:    "No answer before the timer expired",
			SubmittedAt: s.clock.Now(),
		}
		if err := s.storage.SaveSubmission(ctx, sub); err != nil {
			return nil, err
		}
	}

	if err := s.progression.Evaluate(ctx, match.ID, problem.ID, true); err != nil {
		s.logger.Warn("progression evaluation failed on timeout",
			slog.String("match_id", string(match.ID)),
			slog.Any("error", err),
		)
	}

	return &SubmitOutcome{
		IsCorrect: false,
		Result:    string(model.ResultNoAnswer),
		Message:   "Time is up with no answer",
	}, nil
}

// Scores are the live per-player correct counts shown during a battle.
type Scores struct {
	Player1 int `json:"player1_score"`
	Player2 int `json:"player2_score"`
}

// Scores returns the current correct-answer counts.
func (s *Service) Scores(ctx context.Context, matchID model.MatchID) (*Scores, error) {
	match, err := s.storage.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return &Scores{Player1: match.Player1Correct, Player2: match.Player2Correct}, nil
}

// ProblemDetail returns one problem, verifying it belongs to the match.
func (s *Service) ProblemDetail(ctx context.Context, matchID model.MatchID, problemID model.ProblemID) (*model.Problem, error) {
	problem, err := s.storage.GetProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if problem.MatchID != matchID {
		return nil, model.ErrProblemNotFound
	}
	return problem, nil
}

// ForceNext skips past a problem. Only participants may skip.
func (s *Service) ForceNext(ctx context.Context, userID model.UserID, matchID model.MatchID, problemID model.ProblemID) error {
	match, err := s.storage.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if !match.IsParticipant(userID) {
		return model.ErrNotParticipant
	}
	return s.progression.Advance(ctx, matchID, problemID)
}

// ProblemResult is one row of the result summary, from the requesting
// participant's point of view.
type ProblemResult struct {
	Problem         *model.Problem    `json:"problem"`
	MySubmission    *model.Submission `json:"my_submission,omitempty"`
	Correct         bool              `json:"correct"`
	OpponentCorrect bool              `json:"opponent_correct"`
}

// Summary is the end-of-match result view.
type Summary struct {
	Match          *model.Match    `json:"match"`
	Player1Name    string          `json:"player1_name"`
	Player2Name    string          `json:"player2_name"`
	Player1Correct int             `json:"player1_correct"`
	Player2Correct int             `json:"player2_correct"`
	WinnerName     string          `json:"winner_name,omitempty"`
	IsDraw         bool            `json:"is_draw"`
	Problems       []ProblemResult `json:"problems"`
}

// Result builds the result summary for a participant. Correctness is
// recomputed from each participant's latest submission per problem, so
// the summary agrees with what progression actually saw.
func (s *Service) Result(ctx context.Context, userID model.UserID, matchID model.MatchID) (*Summary, error) {
	match, err := s.storage.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.IsParticipant(userID) {
		return nil, model.ErrNotParticipant
	}

	problems, err := s.storage.ListProblems(ctx, matchID)
	if err != nil {
		return nil, err
	}

	opponent, _ := match.Opponent(userID)

	summary := &Summary{Match: match}
	p1Correct, p2Correct := 0, 0
	for _, problem := range problems {
		latest, err := s.storage.LatestSubmissions(ctx, matchID, problem.ID)
		if err != nil {
			return nil, err
		}

		mine := latest[userID]
		theirs := latest[opponent]
		summary.Problems = append(summary.Problems, ProblemResult{
			Problem:         problem,
			MySubmission:    mine,
			Correct:         mine != nil && mine.IsCorrect(),
			OpponentCorrect: theirs != nil && theirs.IsCorrect(),
		})

		if sub := latest[match.Player1]; sub != nil && sub.IsCorrect() {
			p1Correct++
		}
		if sub := latest[match.Player2]; sub != nil && sub.IsCorrect() {
			p2Correct++
		}
	}
	summary.Player1Correct = p1Correct
	summary.Player2Correct = p2Correct

	summary.Player1Name = s.displayName(ctx, match.Player1)
	summary.Player2Name = s.displayName(ctx, match.Player2)

	switch {
	case p1Correct > p2Correct:
		summary.WinnerName = summary.Player1Name
	case p2Correct > p1Correct:
		summary.WinnerName = summary.Player2Name
	default:
		summary.IsDraw = true
	}
	return summary, nil
}

func (s *Service) displayName(ctx context.Context, userID model.UserID) string {
	if userID == "" {
		return ""
	}
	user, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return string(userID)
	}
	return user.DisplayName
}

func (s *Service) submissionsBy(ctx context.Context, matchID model.MatchID, problemID model.ProblemID, userID model.UserID) ([]*model.Submission, error) {
	all, err := s.storage.ListSubmissions(ctx, matchID)
	if err != nil {
		return nil, err
	}
	var mine []*model.Submission
	for _, sub := range all {
		if sub.ProblemID == problemID && sub.UserID == userID {
			mine = append(mine, sub)
		}
	}
	return mine, nil
}

func (s *Service) newSubmissionID() model.SubmissionID {
	return model.SubmissionID(fmt.Sprintf("sub_%s", s.random.String(12, idAlphabet)))
}
