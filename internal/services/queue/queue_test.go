package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/battlecode-go/internal/dependencies/mocks"
	"github.com/mcoot/battlecode-go/internal/model"
	"github.com/mcoot/battlecode-go/internal/storage/memory"
	"github.com/mcoot/battlecode-go/internal/testutil"
)

type QueueSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	queue   *WaitingQueue
	ctx     context.Context
}

func TestQueueSuite(t *testing.T) {
	suite.Run(t, new(QueueSuite))
}

func (s *QueueSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.queue = New(s.storage, s.clock, testutil.NopLogger(), 0)
	s.ctx = context.Background()
}

func (s *QueueSuite) TestEnqueueIsIdempotentPerUser() {
	s.Equal(Added, s.queue.Enqueue("user-1", "Alice"))
	s.Equal(AlreadyQueued, s.queue.Enqueue("user-1", "Alice"))
	s.Equal(1, s.queue.Len())
}

func (s *QueueSuite) TestRemove() {
	s.queue.Enqueue("user-1", "Alice")

	s.True(s.queue.Remove("user-1"))
	s.False(s.queue.Remove("user-1"))
	s.Equal(0, s.queue.Len())
	s.False(s.queue.Contains("user-1"))
}

func (s *QueueSuite) TestTryPairOldestNeedsTwo() {
	s.queue.Enqueue("user-1", "Alice")

	_, _, ok := s.queue.TryPairOldest(s.ctx)
	s.False(ok)
	s.Equal(1, s.queue.Len())
}

func (s *QueueSuite) TestTryPairOldestPopsFIFO() {
	s.queue.Enqueue("user-1", "Alice")
	s.clock.Advance(time.Second)
	s.queue.Enqueue("user-2", "Bob")
	s.clock.Advance(time.Second)
	s.queue.Enqueue("user-3", "Carol")

	first, second, ok := s.queue.TryPairOldest(s.ctx)
	s.Require().True(ok)
	s.Equal(model.UserID("user-1"), first.UserID)
	s.Equal(model.UserID("user-2"), second.UserID)
	s.Equal(1, s.queue.Len())
	s.True(s.queue.Contains("user-3"))
}

func (s *QueueSuite) TestTryPairOldestSweepsStaleWaitingMatches() {
	stale := &model.Match{
		ID:        "match-stale",
		Player1:   "user-9",
		Status:    model.MatchStatusWaiting,
		Mode:      "Easy",
		Language:  "python",
		CreatedAt: s.clock.Now().Add(-2 * time.Minute),
	}
	s.Require().NoError(s.storage.SaveMatch(s.ctx, stale))

	s.queue.Enqueue("user-1", "Alice")
	_, _, ok := s.queue.TryPairOldest(s.ctx)
	s.False(ok)

	_, err := s.storage.GetMatch(s.ctx, "match-stale")
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *QueueSuite) TestTryPairOldestKeepsFreshWaitingMatches() {
	fresh := &model.Match{
		ID:        "match-fresh",
		Player1:   "user-9",
		Status:    model.MatchStatusWaiting,
		Mode:      "Easy",
		Language:  "python",
		CreatedAt: s.clock.Now().Add(-30 * time.Second),
	}
	s.Require().NoError(s.storage.SaveMatch(s.ctx, fresh))

	s.queue.TryPairOldest(s.ctx)

	_, err := s.storage.GetMatch(s.ctx, "match-fresh")
	s.NoError(err)
}

func (s *QueueSuite) TestConcurrentPairingClaimsEachUserOnce() {
	for _, id := range []model.UserID{"user-1", "user-2", "user-3", "user-4"} {
		s.queue.Enqueue(id, string(id))
	}

	var mu sync.Mutex
	claimed := make(map[model.UserID]int)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, second, ok := s.queue.TryPairOldest(s.ctx)
			if !ok {
				return
			}
			mu.Lock()
			claimed[first.UserID]++
			claimed[second.UserID]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	s.Len(claimed, 4)
	for id, n := range claimed {
		s.Equalf(1, n, "user %s claimed %d times", id, n)
	}
	s.Equal(0, s.queue.Len())
}
