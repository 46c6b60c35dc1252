package progression

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/battlecode-go/internal/dependencies/mocks"
	"github.com/mcoot/battlecode-go/internal/model"
	"github.com/mcoot/battlecode-go/internal/realtime"
	"github.com/mcoot/battlecode-go/internal/storage/memory"
	"github.com/mcoot/battlecode-go/internal/testutil"
)

type ProgressionSuite struct {
	suite.Suite
	storage *memory.Storage
	rooms   *realtime.RoomRegistry
	coord   *Coordinator
	ctx     context.Context

	conn1 *testutil.RecordingConn
	conn2 *testutil.RecordingConn
}

func TestProgressionSuite(t *testing.T) {
	suite.Run(t, new(ProgressionSuite))
}

func (s *ProgressionSuite) SetupTest() {
	logger := testutil.NopLogger()
	s.storage = memory.New()
	conns := realtime.NewConnectionRegistry()
	s.rooms = realtime.NewRoomRegistry()
	gateway := realtime.NewGateway(conns, s.rooms, logger)
	clock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.coord = NewCoordinator(s.storage, gateway, clock, logger, 0)
	s.ctx = context.Background()

	s.conn1 = testutil.NewRecordingConn("conn-1", "user-1")
	s.conn2 = testutil.NewRecordingConn("conn-2", "user-2")
	s.rooms.Join("match-1", s.conn1)
	s.rooms.Join("match-1", s.conn2)

	match := &model.Match{
		ID:       "match-1",
		Player1:  "user-1",
		Player2:  "user-2",
		Status:   model.MatchStatusRunning,
		Mode:     "Easy",
		Language: "python",
	}
	s.Require().NoError(s.storage.SaveMatch(s.ctx, match))

	for i, id := range []model.ProblemID{"prob-1", "prob-2", "prob-3"} {
		s.Require().NoError(s.storage.SaveProblem(s.ctx, &model.Problem{
			ID: id, MatchID: "match-1", Order: i + 1,
		}))
	}
}

func (s *ProgressionSuite) submit(id model.SubmissionID, problemID model.ProblemID, userID model.UserID, result model.SubmissionResult) {
	s.Require().NoError(s.storage.SaveSubmission(s.ctx, &model.Submission{
		ID: id, MatchID: "match-1", ProblemID: problemID, UserID: userID, Result: result,
	}))
}

func (s *ProgressionSuite) TestNoAdvanceWhileOneStillWrong() {
	s.submit("sub-1", "prob-1", "user-1", model.ResultCorrect)
	s.submit("sub-2", "prob-1", "user-2", model.ResultWrong)

	s.Require().NoError(s.coord.Evaluate(s.ctx, "match-1", "prob-1", false))
	s.Empty(s.conn1.EventNames())
}

func (s *ProgressionSuite) TestNoAdvanceWhileOneSilent() {
	s.submit("sub-1", "prob-1", "user-1", model.ResultCorrect)

	s.Require().NoError(s.coord.Evaluate(s.ctx, "match-1", "prob-1", false))
	s.Empty(s.conn1.EventNames())
}

func (s *ProgressionSuite) TestBothCorrectAdvances() {
	s.submit("sub-1", "prob-1", "user-1", model.ResultCorrect)
	s.submit("sub-2", "prob-1", "user-2", model.ResultCorrect)

	s.Require().NoError(s.coord.Evaluate(s.ctx, "match-1", "prob-1", false))

	for _, conn := range []*testutil.RecordingConn{s.conn1, s.conn2} {
		names := conn.EventNames()
		s.Equal([]string{realtime.EventNextProblem, realtime.EventStartCountdown}, names)
	}

	events := s.conn1.Events()
	data := events[0].Data.(map[string]any)
	s.Equal("prob-2", data["problem_id"])
	s.Equal(2, data["index"])
}

func (s *ProgressionSuite) TestLatestSubmissionWins() {
	s.submit("sub-1", "prob-1", "user-1", model.ResultCorrect)
	s.submit("sub-2", "prob-1", "user-1", model.ResultWrong)
	s.submit("sub-3", "prob-1", "user-2", model.ResultCorrect)

	s.Require().NoError(s.coord.Evaluate(s.ctx, "match-1", "prob-1", false))
	s.Empty(s.conn1.EventNames())
}

func (s *ProgressionSuite) TestTimeUpAdvancesRegardless() {
	s.Require().NoError(s.coord.Evaluate(s.ctx, "match-1", "prob-1", true))

	s.Equal([]string{realtime.EventNextProblem, realtime.EventStartCountdown}, s.conn1.EventNames())
}

func (s *ProgressionSuite) TestAdvanceIsExactlyOncePerProblem() {
	s.submit("sub-1", "prob-1", "user-1", model.ResultCorrect)
	s.submit("sub-2", "prob-1", "user-2", model.ResultCorrect)

	// Both-correct and time-up race; only one trigger advances.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		timeUp := i == 0
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.coord.Evaluate(s.ctx, "match-1", "prob-1", timeUp)
		}()
	}
	wg.Wait()

	s.Equal([]string{realtime.EventNextProblem, realtime.EventStartCountdown}, s.conn1.EventNames())
}

func (s *ProgressionSuite) TestLastProblemFinishesMatch() {
	s.Require().NoError(s.coord.Evaluate(s.ctx, "match-1", "prob-1", true))
	s.Require().NoError(s.coord.Evaluate(s.ctx, "match-1", "prob-2", true))

	s.Require().NoError(s.storage.IncrementScore(s.ctx, "match-1", "user-1"))
	s.Require().NoError(s.coord.Evaluate(s.ctx, "match-1", "prob-3", true))

	names := s.conn1.EventNames()
	s.Equal(realtime.EventMatchFinished, names[len(names)-1])

	match, err := s.storage.GetMatch(s.ctx, "match-1")
	s.Require().NoError(err)
	s.Equal(model.MatchStatusFinished, match.Status)
}

func (s *ProgressionSuite) TestEqualScoresEndInDraw() {
	s.Require().NoError(s.coord.Evaluate(s.ctx, "match-1", "prob-1", true))
	s.Require().NoError(s.coord.Evaluate(s.ctx, "match-1", "prob-2", true))
	s.Require().NoError(s.coord.Evaluate(s.ctx, "match-1", "prob-3", true))

	match, err := s.storage.GetMatch(s.ctx, "match-1")
	s.Require().NoError(err)
	s.Equal(model.MatchStatusDraw, match.Status)
}

func (s *ProgressionSuite) TestEvaluateFinishedMatchIsNoOp() {
	match, err := s.storage.GetMatch(s.ctx, "match-1")
	s.Require().NoError(err)
	match.Status = model.MatchStatusFinished
	s.Require().NoError(s.storage.SaveMatch(s.ctx, match))

	s.Require().NoError(s.coord.Evaluate(s.ctx, "match-1", "prob-1", true))
	s.Empty(s.conn1.EventNames())
}

func (s *ProgressionSuite) TestEvaluateWithoutOpponentIsRejected() {
	solo := &model.Match{
		ID: "match-2", Player1: "user-1", Status: model.MatchStatusWaiting,
		Mode: "Easy", Language: "python",
	}
	s.Require().NoError(s.storage.SaveMatch(s.ctx, solo))
	s.Require().NoError(s.storage.SaveProblem(s.ctx, &model.Problem{
		ID: "prob-solo", MatchID: "match-2", Order: 1,
	}))

	err := s.coord.Evaluate(s.ctx, "match-2", "prob-solo", true)
	s.ErrorIs(err, model.ErrMatchNotReady)
}

func (s *ProgressionSuite) TestUnknownProblemRejected() {
	err := s.coord.Evaluate(s.ctx, "match-1", "prob-x", true)
	s.ErrorIs(err, model.ErrProblemNotFound)
}

func (s *ProgressionSuite) TestUnknownMatchRejected() {
	err := s.coord.Evaluate(s.ctx, "missing", "prob-1", true)
	s.ErrorIs(err, model.ErrMatchNotFound)
}
