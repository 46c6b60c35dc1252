package problems

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/battlecode-go/internal/dependencies/clock"
	"github.com/mcoot/battlecode-go/internal/dependencies/random"
	"github.com/mcoot/battlecode-go/internal/model"
	"github.com/mcoot/battlecode-go/internal/storage"
)

// PerMatch is the number of problems a match plays through.
const PerMatch = 3

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Service generates and persists a match's problem set.
type Service struct {
	storage   storage.Store
	generator Generator
	clock     clock.Clock
	random    random.Random
	logger    *slog.Logger
}

// NewService creates a Service.
func NewService(storage storage.Store, generator Generator, clock clock.Clock, random random.Random, logger *slog.Logger) *Service {
	return &Service{
		storage:   storage,
		generator: generator,
		clock:     clock,
		random:    random,
		logger:    logger,
	}
}

// GenerateForMatch generates the match's problems and stores them with
// contiguous 1-based orders. At most PerMatch problems are kept even if
// the generator over-delivers.
func (s *Service) GenerateForMatch(ctx context.Context, matchID model.MatchID, difficulty, language string) ([]*model.Problem, error) {
	drafts, err := s.generator.Generate(ctx, PerMatch, difficulty, language)
	if err != nil {
		return nil, err
	}
	if len(drafts) > PerMatch {
		drafts = drafts[:PerMatch]
	}

	now := s.clock.Now()
	problems := make([]*model.Problem, 0, len(drafts))
	for i, draft := range drafts {
		problem := &model.Problem{
			ID:           model.ProblemID(fmt.Sprintf("prob_%s", s.random.String(12, idAlphabet))),
			MatchID:      matchID,
			Order:        i + 1,
			Language:     language,
			Title:        draft.Title,
			Tag:          draft.Tag,
			Description:  draft.Description,
			InputFormat:  draft.InputFormat,
			OutputFormat: draft.OutputFormat,
			SampleInput:  draft.SampleInput,
			SampleOutput: draft.SampleOutput,
			Difficulty:   draft.Difficulty,
			CreatedAt:    now,
		}
		if err := s.storage.SaveProblem(ctx, problem); err != nil {
			return nil, fmt.Errorf("saving problem %d: %w", problem.Order, err)
		}
		problems = append(problems, problem)
	}

	s.logger.Info("generated problem set",
		slog.String("match_id", string(matchID)),
		slog.Int("count", len(problems)),
	)
	return problems, nil
}

// ForMatch returns the match's problems in play order, or
// ErrProblemsNotReady when generation has not completed yet.
func (s *Service) ForMatch(ctx context.Context, matchID model.MatchID) ([]*model.Problem, error) {
	problems, err := s.storage.ListProblems(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if len(problems) == 0 {
		return nil, model.ErrProblemsNotReady
	}
	return problems, nil
}
