// Package matchmaking pairs users into matches, both through the
// mode-specific join-or-create flow and through the free-for-all
// waiting queue.
package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/battlecode-go/internal/dependencies/clock"
	"github.com/mcoot/battlecode-go/internal/dependencies/random"
	"github.com/mcoot/battlecode-go/internal/model"
	"github.com/mcoot/battlecode-go/internal/realtime"
	"github.com/mcoot/battlecode-go/internal/services/problems"
	"github.com/mcoot/battlecode-go/internal/services/progression"
	"github.com/mcoot/battlecode-go/internal/services/queue"
	"github.com/mcoot/battlecode-go/internal/services/ready"
	"github.com/mcoot/battlecode-go/internal/storage"
)

// Free-queue pairings have no mode selection, so matches created from
// the queue use these defaults.
const (
	DefaultQueueDifficulty = "Easy"
	DefaultQueueLanguage   = "python"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Coordinator owns match creation: the mode flow (Start/CancelWaiting)
// and the free-queue flow (JoinQueue), plus disconnect cleanup.
type Coordinator struct {
	storage  storage.Store
	queue    *queue.WaitingQueue
	conns    *realtime.ConnectionRegistry
	rooms    *realtime.RoomRegistry
	gateway  *realtime.Gateway
	problems *problems.Service
	ready    *ready.Tracker
	prog     *progression.Coordinator
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(
	storage storage.Store,
	waiting *queue.WaitingQueue,
	conns *realtime.ConnectionRegistry,
	rooms *realtime.RoomRegistry,
	gateway *realtime.Gateway,
	problemSvc *problems.Service,
	readyTracker *ready.Tracker,
	prog *progression.Coordinator,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		storage:  storage,
		queue:    waiting,
		conns:    conns,
		rooms:    rooms,
		gateway:  gateway,
		problems: problemSvc,
		ready:    readyTracker,
		prog:     prog,
		clock:    clock,
		random:   random,
		logger:   logger,
	}
}

// Start is the mode flow: join the oldest compatible waiting match, or
// create a new waiting one. When a join completes the pairing, the
// problem set is generated before anyone is told the match is on; a
// generation failure reverts the match to waiting so the owner keeps
// their spot.
func (c *Coordinator) Start(ctx context.Context, userID model.UserID, difficulty, language string) (*model.Match, error) {
	existing, err := c.storage.FindWaitingMatch(ctx, difficulty, language, userID)
	if err == nil {
		return c.joinWaiting(ctx, existing, userID, difficulty, language)
	}
	if !errors.Is(err, model.ErrMatchNotFound) {
		return nil, err
	}

	now := c.clock.Now()
	match := &model.Match{
		ID:        c.newMatchID(),
		Player1:   userID,
		Status:    model.MatchStatusWaiting,
		Mode:      difficulty,
		Language:  language,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.storage.SaveMatch(ctx, match); err != nil {
		return nil, err
	}

	c.logger.Info("created waiting match",
		slog.String("match_id", string(match.ID)),
		slog.String("mode", difficulty),
		slog.String("language", language),
	)
	return match, nil
}

func (c *Coordinator) joinWaiting(ctx context.Context, match *model.Match, userID model.UserID, difficulty, language string) (*model.Match, error) {
	now := c.clock.Now()
	match.Player2 = userID
	match.Status = model.MatchStatusRunning
	match.StartedAt = now
	match.UpdatedAt = now
	if err := c.storage.SaveMatch(ctx, match); err != nil {
		return nil, err
	}

	if _, err := c.problems.GenerateForMatch(ctx, match.ID, difficulty, language); err != nil {
		c.logger.Error("problem generation failed, reverting match to waiting",
			slog.String("match_id", string(match.ID)),
			slog.Any("error", err),
		)
		match.Player2 = ""
		match.Status = model.MatchStatusWaiting
		match.StartedAt = time.Time{}
		match.UpdatedAt = c.clock.Now()
		if saveErr := c.storage.SaveMatch(ctx, match); saveErr != nil {
			c.logger.Error("failed to revert match",
				slog.String("match_id", string(match.ID)),
				slog.Any("error", saveErr),
			)
		}
		return nil, err
	}

	c.gateway.ToUser(match.Player1, realtime.MatchFound(string(match.ID)))
	c.gateway.ToUser(match.Player2, realtime.MatchFound(string(match.ID)))

	c.logger.Info("paired waiting match",
		slog.String("match_id", string(match.ID)),
		slog.String("player1", string(match.Player1)),
		slog.String("player2", string(match.Player2)),
	)
	return match, nil
}

// CancelWaiting removes a waiting match. Only the owner may cancel,
// and only before an opponent is bound.
func (c *Coordinator) CancelWaiting(ctx context.Context, userID model.UserID, matchID model.MatchID) error {
	match, err := c.storage.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if match.Player1 != userID {
		return model.ErrNotMatchOwner
	}
	if match.Status != model.MatchStatusWaiting {
		return model.ErrMatchNotWaiting
	}
	return c.discardMatch(ctx, matchID)
}

// JoinQueue is the free-for-all flow: the user joins the waiting queue
// and a pairing attempt runs immediately.
func (c *Coordinator) JoinQueue(ctx context.Context, userID model.UserID, displayName string) {
	switch c.queue.Enqueue(userID, displayName) {
	case queue.AlreadyQueued:
		c.gateway.ToUser(userID, realtime.Notify("You are already in the queue, hang tight"))
		return
	case queue.Added:
		c.gateway.ToUser(userID, realtime.Notify("Joined the queue, waiting for an opponent"))
	}
	c.tryPair(ctx)
}

// LeaveQueue removes the user's queue entry, if any.
func (c *Coordinator) LeaveQueue(userID model.UserID) bool {
	return c.queue.Remove(userID)
}

func (c *Coordinator) tryPair(ctx context.Context) {
	first, second, ok := c.queue.TryPairOldest(ctx)
	if !ok {
		return
	}

	now := c.clock.Now()
	match := &model.Match{
		ID:        c.newMatchID(),
		Player1:   first.UserID,
		Player2:   second.UserID,
		Status:    model.MatchStatusRunning,
		Mode:      DefaultQueueDifficulty,
		Language:  DefaultQueueLanguage,
		StartedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.storage.SaveMatch(ctx, match); err != nil {
		// Both users are already out of the queue; let them re-queue
		// rather than leaving them stuck in a half-created match.
		c.logger.Error("failed to save paired match", slog.Any("error", err))
		c.gateway.ToUser(first.UserID, realtime.Notify("Pairing failed, please rejoin the queue"))
		c.gateway.ToUser(second.UserID, realtime.Notify("Pairing failed, please rejoin the queue"))
		return
	}

	c.logger.Info("paired from queue",
		slog.String("match_id", string(match.ID)),
		slog.String("player1", string(first.UserID)),
		slog.String("player2", string(second.UserID)),
	)

	battleURL := fmt.Sprintf("/battle/%s", match.ID)
	c.gateway.ToUser(first.UserID, realtime.Redirect(battleURL))
	c.gateway.ToUser(second.UserID, realtime.Redirect(battleURL))

	// Merge every connection of both users into the match room, then
	// tell each side who they are up against.
	firstConns := c.conns.ConnectionsOf(first.UserID)
	secondConns := c.conns.ConnectionsOf(second.UserID)
	for _, conn := range firstConns {
		c.rooms.Join(match.ID, conn)
	}
	for _, conn := range secondConns {
		c.rooms.Join(match.ID, conn)
	}
	for _, conn := range firstConns {
		c.gateway.ToConnection(conn, realtime.StartBattle(match.RoomID(), second.DisplayName))
	}
	for _, conn := range secondConns {
		c.gateway.ToConnection(conn, realtime.StartBattle(match.RoomID(), first.DisplayName))
	}

	go c.generateForPairedMatch(match.ID)
}

// generateForPairedMatch runs problem generation for a queue pairing
// off the pairing path. If the match was torn down while generation
// ran (a disconnect, typically), the generated problems are discarded.
func (c *Coordinator) generateForPairedMatch(matchID model.MatchID) {
	ctx := context.Background()
	if _, err := c.problems.GenerateForMatch(ctx, matchID, DefaultQueueDifficulty, DefaultQueueLanguage); err != nil {
		c.logger.Error("problem generation failed for queue pairing",
			slog.String("match_id", string(matchID)),
			slog.Any("error", err),
		)
		c.gateway.ToRoom(matchID, realtime.Notify("Could not prepare problems, the match has been cancelled"))
		if err := c.discardMatch(ctx, matchID); err != nil {
			c.logger.Error("failed to discard match after generation failure",
				slog.String("match_id", string(matchID)),
				slog.Any("error", err),
			)
		}
		c.rooms.Close(matchID)
		return
	}

	match, err := c.storage.GetMatch(ctx, matchID)
	if err != nil || match.Status != model.MatchStatusRunning {
		c.logger.Warn("match gone or no longer running after generation, discarding problems",
			slog.String("match_id", string(matchID)),
		)
		_ = c.storage.DeleteProblemsForMatch(ctx, matchID)
		return
	}
}

// HandleDisconnect cleans up after a connection drops: the connection
// is deregistered, the user leaves the queue, the user's room peers are
// told the battle is over, the battle's readiness and progression
// state is dropped, and any waiting matches the user owned are
// discarded.
func (c *Coordinator) HandleDisconnect(ctx context.Context, conn realtime.Connection) {
	userID := conn.UserID()
	c.conns.Remove(conn)
	c.queue.Remove(userID)

	if matchID, remaining, ok := c.rooms.Leave(conn.ID()); ok {
		for _, peer := range remaining {
			c.gateway.ToConnection(peer, realtime.Notify("Your opponent disconnected, the battle is over"))
		}
		if len(remaining) > 0 {
			c.rooms.Close(matchID)
		}
		// The battle is over either way; a stale ready declaration or
		// advancement high-water mark must not leak into a later round.
		c.ready.Clear(matchID)
		c.prog.Forget(matchID)
	}

	waiting, err := c.storage.WaitingMatchesFor(ctx, userID)
	if err != nil {
		c.logger.Warn("failed to list waiting matches on disconnect",
			slog.String("user_id", string(userID)),
			slog.Any("error", err),
		)
		return
	}
	for _, match := range waiting {
		if err := c.discardMatch(ctx, match.ID); err != nil {
			c.logger.Warn("failed to discard waiting match on disconnect",
				slog.String("match_id", string(match.ID)),
				slog.Any("error", err),
			)
		}
	}
}

// discardMatch removes a match and everything hanging off it,
// including any readiness and progression state.
func (c *Coordinator) discardMatch(ctx context.Context, matchID model.MatchID) error {
	c.ready.Clear(matchID)
	c.prog.Forget(matchID)
	if err := c.storage.DeleteSubmissionsForMatch(ctx, matchID); err != nil {
		return err
	}
	if err := c.storage.DeleteProblemsForMatch(ctx, matchID); err != nil {
		return err
	}
	return c.storage.DeleteMatch(ctx, matchID)
}

func (c *Coordinator) newMatchID() model.MatchID {
	return model.MatchID(fmt.Sprintf("m_%s", c.random.String(12, idAlphabet)))
}
