// Package progression decides when a match moves from one problem to
// the next and when it ends.
//
// A problem is complete when both participants' latest submissions are
// correct, or when the problem timer expires (whichever comes first).
// Completion is evaluated after every submission and on timer expiry;
// the per-match high-water mark guarantees a problem is advanced past
// at most once even when both triggers race.
package progression

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/battlecode-go/internal/dependencies/clock"
	"github.com/mcoot/battlecode-go/internal/model"
	"github.com/mcoot/battlecode-go/internal/realtime"
	"github.com/mcoot/battlecode-go/internal/storage"
)

// DefaultCountdownDelay is the pause between announcing the next
// problem and starting its countdown, giving clients time to switch
// views first.
const DefaultCountdownDelay = time.Second

// Coordinator advances matches through their problem sets.
type Coordinator struct {
	storage        storage.Store
	gateway        *realtime.Gateway
	clock          clock.Clock
	logger         *slog.Logger
	countdownDelay time.Duration

	mu       sync.Mutex
	advanced map[model.MatchID]int // highest problem order already advanced past
}

// NewCoordinator creates a Coordinator. A non-positive countdownDelay
// sends the countdown in the same call as the problem switch, which
// tests rely on.
func NewCoordinator(storage storage.Store, gateway *realtime.Gateway, clock clock.Clock, logger *slog.Logger, countdownDelay time.Duration) *Coordinator {
	return &Coordinator{
		storage:        storage,
		gateway:        gateway,
		clock:          clock,
		logger:         logger,
		countdownDelay: countdownDelay,
		advanced:       make(map[model.MatchID]int),
	}
}

// Evaluate checks whether the given problem is complete and, if so,
// advances the match. timeUp forces completion regardless of
// submission state. Evaluating a finished match is a no-op.
func (c *Coordinator) Evaluate(ctx context.Context, matchID model.MatchID, problemID model.ProblemID, timeUp bool) error {
	match, err := c.storage.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if match.Status == model.MatchStatusFinished || match.Status == model.MatchStatusDraw {
		return nil
	}
	if !match.HasBothPlayers() {
		return model.ErrMatchNotReady
	}

	problems, err := c.storage.ListProblems(ctx, matchID)
	if err != nil {
		return err
	}
	current := -1
	for i, p := range problems {
		if p.ID == problemID {
			current = i
			break
		}
	}
	if current < 0 {
		return model.ErrProblemNotFound
	}

	if !timeUp {
		latest, err := c.storage.LatestSubmissions(ctx, matchID, problemID)
		if err != nil {
			return err
		}
		p1 := latest[match.Player1]
		p2 := latest[match.Player2]
		if p1 == nil || p2 == nil || !p1.IsCorrect() || !p2.IsCorrect() {
			return nil
		}
	}

	return c.advance(ctx, match, problems, problems[current].Order)
}

// Advance forces the match past the given problem without checking
// submissions. Used by the owner's skip operation.
func (c *Coordinator) Advance(ctx context.Context, matchID model.MatchID, problemID model.ProblemID) error {
	return c.Evaluate(ctx, matchID, problemID, true)
}

func (c *Coordinator) advance(ctx context.Context, match *model.Match, problems []*model.Problem, order int) error {
	c.mu.Lock()
	if c.advanced[match.ID] >= order {
		c.mu.Unlock()
		return nil
	}
	c.advanced[match.ID] = order
	c.mu.Unlock()

	// Order is 1-based, so problems[order] is the one after this one.
	if order < len(problems) {
		next := problems[order]
		c.logger.Info("advancing to next problem",
			slog.String("match_id", string(match.ID)),
			slog.Int("order", next.Order),
		)
		c.gateway.ToRoom(match.ID, realtime.NextProblem(string(next.ID), next.Order))
		c.scheduleCountdown(match.ID)
		return nil
	}

	return c.finish(ctx, match)
}

// scheduleCountdown sends the countdown after the configured delay so
// clients render the new problem before the timer starts.
func (c *Coordinator) scheduleCountdown(matchID model.MatchID) {
	if c.countdownDelay <= 0 {
		c.gateway.ToRoom(matchID, realtime.StartCountdown())
		return
	}
	go func() {
		time.Sleep(c.countdownDelay)
		c.gateway.ToRoom(matchID, realtime.StartCountdown())
	}()
}

func (c *Coordinator) finish(ctx context.Context, match *model.Match) error {
	if match.Player1Correct == match.Player2Correct {
		match.Status = model.MatchStatusDraw
	} else {
		match.Status = model.MatchStatusFinished
	}
	match.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveMatch(ctx, match); err != nil {
		return err
	}

	c.logger.Info("match finished",
		slog.String("match_id", string(match.ID)),
		slog.String("status", string(match.Status)),
	)
	c.gateway.ToRoom(match.ID, realtime.MatchFinished())

	c.mu.Lock()
	delete(c.advanced, match.ID)
	c.mu.Unlock()
	return nil
}

// Forget drops any advancement state for the match. Called when a
// match is torn down without finishing.
func (c *Coordinator) Forget(matchID model.MatchID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.advanced, matchID)
}
