package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/battlecode-go/internal/model"
	"github.com/mcoot/battlecode-go/internal/storage"
)

// Storage is an in-memory implementation of the store interface
type Storage struct {
	mu sync.RWMutex

	users           map[model.UserID]*model.User
	registeredUsers map[model.UserID]*model.RegisteredUser
	usernameIndex   map[string]model.UserID
	matches         map[model.MatchID]*model.Match
	problems        map[model.ProblemID]*model.Problem
	// submissions kept in append order per match; the latest entry per
	// user wins even when timestamps tie
	submissions map[model.MatchID][]*model.Submission
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		users:           make(map[model.UserID]*model.User),
		registeredUsers: make(map[model.UserID]*model.RegisteredUser),
		usernameIndex:   make(map[string]model.UserID),
		matches:         make(map[model.MatchID]*model.Match),
		problems:        make(map[model.ProblemID]*model.Problem),
		submissions:     make(map[model.MatchID][]*model.Submission),
	}
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

func (s *Storage) DeleteUser(ctx context.Context, id model.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

// Registered user operations

func (s *Storage) SaveRegisteredUser(ctx context.Context, ru *model.RegisteredUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registeredUsers[ru.UserID] = ru
	s.usernameIndex[ru.Username] = ru.UserID
	return nil
}

func (s *Storage) GetRegisteredUser(ctx context.Context, userID model.UserID) (*model.RegisteredUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ru, ok := s.registeredUsers[userID]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return ru, nil
}

func (s *Storage) GetRegisteredUserByUsername(ctx context.Context, username string) (*model.RegisteredUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	ru, ok := s.registeredUsers[userID]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return ru, nil
}

// Match operations

func (s *Storage) SaveMatch(ctx context.Context, match *model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[match.ID] = match
	return nil
}

func (s *Storage) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	match, ok := s.matches[id]
	if !ok {
		return nil, model.ErrMatchNotFound
	}
	return match, nil
}

func (s *Storage) DeleteMatch(ctx context.Context, id model.MatchID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteMatchLocked(id)
	return nil
}

func (s *Storage) FindWaitingMatch(ctx context.Context, mode, language string, exclude model.UserID) (*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var oldest *model.Match
	for _, m := range s.matches {
		if m.Status != model.MatchStatusWaiting || m.Mode != mode || m.Language != language {
			continue
		}
		if m.Player1 == exclude {
			continue
		}
		if oldest == nil || m.CreatedAt.Before(oldest.CreatedAt) {
			oldest = m
		}
	}
	if oldest == nil {
		return nil, model.ErrMatchNotFound
	}
	return oldest, nil
}

func (s *Storage) WaitingMatchesFor(ctx context.Context, userID model.UserID) ([]*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.Match
	for _, m := range s.matches {
		if m.Status == model.MatchStatusWaiting && (m.Player1 == userID || m.Player2 == userID) {
			result = append(result, m)
		}
	}
	return result, nil
}

func (s *Storage) DeleteOrphanMatches(ctx context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, m := range s.matches {
		if m.Status == model.MatchStatusWaiting && m.CreatedAt.Before(olderThan) {
			s.deleteMatchLocked(id)
			removed++
		}
	}
	return removed, nil
}

func (s *Storage) IncrementScore(ctx context.Context, matchID model.MatchID, userID model.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	match, ok := s.matches[matchID]
	if !ok {
		return model.ErrMatchNotFound
	}
	switch userID {
	case match.Player1:
		match.Player1Score++
		match.Player1Correct++
	case match.Player2:
		match.Player2Score++
		match.Player2Correct++
	default:
		return model.ErrNotParticipant
	}
	return nil
}

// deleteMatchLocked removes a match and its dependent records
func (s *Storage) deleteMatchLocked(id model.MatchID) {
	delete(s.matches, id)
	delete(s.submissions, id)
	for pid, p := range s.problems {
		if p.MatchID == id {
			delete(s.problems, pid)
		}
	}
}

// Problem operations

func (s *Storage) SaveProblem(ctx context.Context, problem *model.Problem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.problems[problem.ID] = problem
	return nil
}

func (s *Storage) GetProblem(ctx context.Context, id model.ProblemID) (*model.Problem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	problem, ok := s.problems[id]
	if !ok {
		return nil, model.ErrProblemNotFound
	}
	return problem, nil
}

func (s *Storage) ListProblems(ctx context.Context, matchID model.MatchID) ([]*model.Problem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.Problem
	for _, p := range s.problems {
		if p.MatchID == matchID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Order < result[j].Order
	})
	return result, nil
}

func (s *Storage) DeleteProblemsForMatch(ctx context.Context, matchID model.MatchID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for pid, p := range s.problems {
		if p.MatchID == matchID {
			delete(s.problems, pid)
		}
	}
	return nil
}

// Submission operations

func (s *Storage) SaveSubmission(ctx context.Context, sub *model.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions[sub.MatchID] = append(s.submissions[sub.MatchID], sub)
	return nil
}

func (s *Storage) ListSubmissions(ctx context.Context, matchID model.MatchID) ([]*model.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := s.submissions[matchID]
	result := make([]*model.Submission, len(subs))
	copy(result, subs)
	return result, nil
}

func (s *Storage) LatestSubmissions(ctx context.Context, matchID model.MatchID, problemID model.ProblemID) (map[model.UserID]*model.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[model.UserID]*model.Submission)
	for _, sub := range s.submissions[matchID] {
		if sub.ProblemID == problemID {
			latest[sub.UserID] = sub
		}
	}
	return latest, nil
}

func (s *Storage) DeleteSubmissionsForMatch(ctx context.Context, matchID model.MatchID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.submissions, matchID)
	return nil
}
