package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/battlecode-go/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *StorageSuite) match(id model.MatchID, status model.MatchStatus, createdAt time.Time) *model.Match {
	return &model.Match{
		ID:        id,
		Player1:   "user-1",
		Player2:   "user-2",
		Status:    status,
		Mode:      "Easy",
		Language:  "python",
		CreatedAt: createdAt,
	}
}

// User tests

func (s *StorageSuite) TestSaveAndGetUser() {
	user := &model.User{ID: "user-1", DisplayName: "Alice", IsGuest: true}
	s.Require().NoError(s.storage.SaveUser(s.ctx, user))

	got, err := s.storage.GetUser(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal("Alice", got.DisplayName)
}

func (s *StorageSuite) TestGetMissingUser() {
	_, err := s.storage.GetUser(s.ctx, "missing")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *StorageSuite) TestRegisteredUserUsernameIndex() {
	ru := &model.RegisteredUser{UserID: "user-1", Username: "alice", PasswordHash: "hash"}
	s.Require().NoError(s.storage.SaveRegisteredUser(s.ctx, ru))

	got, err := s.storage.GetRegisteredUserByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.UserID("user-1"), got.UserID)

	_, err = s.storage.GetRegisteredUserByUsername(s.ctx, "bob")
	s.ErrorIs(err, model.ErrUserNotFound)
}

// Match tests

func (s *StorageSuite) TestSaveAndGetMatch() {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.storage.SaveMatch(s.ctx, s.match("match-1", model.MatchStatusRunning, now)))

	got, err := s.storage.GetMatch(s.ctx, "match-1")
	s.Require().NoError(err)
	s.Equal(model.MatchStatusRunning, got.Status)
}

func (s *StorageSuite) TestFindWaitingMatchPrefersOldest() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	newer := s.match("match-new", model.MatchStatusWaiting, base.Add(time.Minute))
	newer.Player1 = "user-3"
	older := s.match("match-old", model.MatchStatusWaiting, base)
	older.Player1 = "user-4"
	s.Require().NoError(s.storage.SaveMatch(s.ctx, newer))
	s.Require().NoError(s.storage.SaveMatch(s.ctx, older))

	got, err := s.storage.FindWaitingMatch(s.ctx, "Easy", "python", "user-9")
	s.Require().NoError(err)
	s.Equal(model.MatchID("match-old"), got.ID)
}

func (s *StorageSuite) TestFindWaitingMatchExcludesRequester() {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := s.match("match-1", model.MatchStatusWaiting, now)
	m.Player1 = "user-1"
	s.Require().NoError(s.storage.SaveMatch(s.ctx, m))

	_, err := s.storage.FindWaitingMatch(s.ctx, "Easy", "python", "user-1")
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *StorageSuite) TestFindWaitingMatchFiltersModeAndLanguage() {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := s.match("match-1", model.MatchStatusWaiting, now)
	s.Require().NoError(s.storage.SaveMatch(s.ctx, m))

	_, err := s.storage.FindWaitingMatch(s.ctx, "Hard", "python", "user-9")
	s.ErrorIs(err, model.ErrMatchNotFound)

	_, err = s.storage.FindWaitingMatch(s.ctx, "Easy", "go", "user-9")
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *StorageSuite) TestDeleteOrphanMatchesRemovesOldWaiting() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	stale := s.match("match-stale", model.MatchStatusWaiting, base.Add(-2*time.Minute))
	fresh := s.match("match-fresh", model.MatchStatusWaiting, base)
	running := s.match("match-running", model.MatchStatusRunning, base.Add(-2*time.Minute))
	s.Require().NoError(s.storage.SaveMatch(s.ctx, stale))
	s.Require().NoError(s.storage.SaveMatch(s.ctx, fresh))
	s.Require().NoError(s.storage.SaveMatch(s.ctx, running))

	removed, err := s.storage.DeleteOrphanMatches(s.ctx, base.Add(-time.Minute))
	s.Require().NoError(err)
	s.Equal(1, removed)

	_, err = s.storage.GetMatch(s.ctx, "match-stale")
	s.ErrorIs(err, model.ErrMatchNotFound)

	_, err = s.storage.GetMatch(s.ctx, "match-fresh")
	s.NoError(err)
	_, err = s.storage.GetMatch(s.ctx, "match-running")
	s.NoError(err)
}

func (s *StorageSuite) TestDeleteOrphanMatchesRemovesDependents() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	stale := s.match("match-stale", model.MatchStatusWaiting, base.Add(-2*time.Minute))
	s.Require().NoError(s.storage.SaveMatch(s.ctx, stale))
	s.Require().NoError(s.storage.SaveProblem(s.ctx, &model.Problem{ID: "prob-1", MatchID: "match-stale", Order: 1}))
	s.Require().NoError(s.storage.SaveSubmission(s.ctx, &model.Submission{ID: "sub-1", MatchID: "match-stale", ProblemID: "prob-1", UserID: "user-1"}))

	_, err := s.storage.DeleteOrphanMatches(s.ctx, base.Add(-time.Minute))
	s.Require().NoError(err)

	_, err = s.storage.GetProblem(s.ctx, "prob-1")
	s.ErrorIs(err, model.ErrProblemNotFound)

	subs, err := s.storage.ListSubmissions(s.ctx, "match-stale")
	s.Require().NoError(err)
	s.Empty(subs)
}

func (s *StorageSuite) TestIncrementScorePerPlayer() {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.storage.SaveMatch(s.ctx, s.match("match-1", model.MatchStatusRunning, now)))

	s.Require().NoError(s.storage.IncrementScore(s.ctx, "match-1", "user-1"))
	s.Require().NoError(s.storage.IncrementScore(s.ctx, "match-1", "user-2"))
	s.Require().NoError(s.storage.IncrementScore(s.ctx, "match-1", "user-2"))

	got, err := s.storage.GetMatch(s.ctx, "match-1")
	s.Require().NoError(err)
	s.Equal(1, got.Player1Score)
	s.Equal(1, got.Player1Correct)
	s.Equal(2, got.Player2Score)
	s.Equal(2, got.Player2Correct)
}

func (s *StorageSuite) TestIncrementScoreRejectsNonParticipant() {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.storage.SaveMatch(s.ctx, s.match("match-1", model.MatchStatusRunning, now)))

	err := s.storage.IncrementScore(s.ctx, "match-1", "user-9")
	s.ErrorIs(err, model.ErrNotParticipant)
}

// Problem tests

func (s *StorageSuite) TestListProblemsOrdered() {
	s.Require().NoError(s.storage.SaveProblem(s.ctx, &model.Problem{ID: "prob-2", MatchID: "match-1", Order: 2}))
	s.Require().NoError(s.storage.SaveProblem(s.ctx, &model.Problem{ID: "prob-1", MatchID: "match-1", Order: 1}))
	s.Require().NoError(s.storage.SaveProblem(s.ctx, &model.Problem{ID: "prob-3", MatchID: "match-1", Order: 3}))
	s.Require().NoError(s.storage.SaveProblem(s.ctx, &model.Problem{ID: "other", MatchID: "match-2", Order: 1}))

	problems, err := s.storage.ListProblems(s.ctx, "match-1")
	s.Require().NoError(err)
	s.Require().Len(problems, 3)
	s.Equal(model.ProblemID("prob-1"), problems[0].ID)
	s.Equal(model.ProblemID("prob-2"), problems[1].ID)
	s.Equal(model.ProblemID("prob-3"), problems[2].ID)
}

// Submission tests

func (s *StorageSuite) TestLatestSubmissionsPicksLastPerUser() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.storage.SaveSubmission(s.ctx, &model.Submission{
		ID: "sub-1", MatchID: "match-1", ProblemID: "prob-1", UserID: "user-1",
		Result: model.ResultWrong, SubmittedAt: base,
	}))
	s.Require().NoError(s.storage.SaveSubmission(s.ctx, &model.Submission{
		ID: "sub-2", MatchID: "match-1", ProblemID: "prob-1", UserID: "user-1",
		Result: model.ResultCorrect, SubmittedAt: base.Add(time.Minute),
	}))
	s.Require().NoError(s.storage.SaveSubmission(s.ctx, &model.Submission{
		ID: "sub-3", MatchID: "match-1", ProblemID: "prob-2", UserID: "user-1",
		Result: model.ResultWrong, SubmittedAt: base.Add(2 * time.Minute),
	}))

	latest, err := s.storage.LatestSubmissions(s.ctx, "match-1", "prob-1")
	s.Require().NoError(err)
	s.Require().Len(latest, 1)
	s.Equal(model.SubmissionID("sub-2"), latest["user-1"].ID)
}
