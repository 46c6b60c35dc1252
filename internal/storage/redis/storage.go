package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/battlecode-go/internal/model"
	"github.com/mcoot/battlecode-go/internal/storage"
)

// incrementScoreRetries bounds the optimistic retry loop in IncrementScore
const incrementScoreRetries = 5

// Storage is a Redis-backed implementation of the store interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	// Apply TTL only for guest users
	var ttl time.Duration
	if user.IsGuest {
		ttl = s.cfg.GuestUserTTL
	}
	return s.client.Set(ctx, userKey(user.ID), data, ttl).Err()
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	data, err := s.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Storage) DeleteUser(ctx context.Context, id model.UserID) error {
	return s.client.Del(ctx, userKey(id)).Err()
}

// Registered user operations

func (s *Storage) SaveRegisteredUser(ctx context.Context, ru *model.RegisteredUser) error {
	data, err := json.Marshal(ru)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, registeredUserKey(ru.UserID), data, 0) // No TTL
	pipe.Set(ctx, usernameIndexKey(ru.Username), string(ru.UserID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRegisteredUser(ctx context.Context, userID model.UserID) (*model.RegisteredUser, error) {
	data, err := s.client.Get(ctx, registeredUserKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	var ru model.RegisteredUser
	if err := json.Unmarshal(data, &ru); err != nil {
		return nil, err
	}
	return &ru, nil
}

func (s *Storage) GetRegisteredUserByUsername(ctx context.Context, username string) (*model.RegisteredUser, error) {
	userID, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return s.GetRegisteredUser(ctx, model.UserID(userID))
}

// Match operations

func (s *Storage) SaveMatch(ctx context.Context, match *model.Match) error {
	data, err := json.Marshal(match)
	if err != nil {
		return err
	}

	// The waiting index must track status transitions atomically with
	// the record write
	pipe := s.client.Pipeline()
	pipe.Set(ctx, matchKey(match.ID), data, s.cfg.MatchTTL)
	if match.Status == model.MatchStatusWaiting {
		pipe.ZAdd(ctx, waitingMatchesKey(), redis.Z{
			Score:  float64(match.CreatedAt.Unix()),
			Member: string(match.ID),
		})
	} else {
		pipe.ZRem(ctx, waitingMatchesKey(), string(match.ID))
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	data, err := s.client.Get(ctx, matchKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrMatchNotFound
		}
		return nil, err
	}

	var match model.Match
	if err := json.Unmarshal(data, &match); err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *Storage) DeleteMatch(ctx context.Context, id model.MatchID) error {
	if err := s.DeleteProblemsForMatch(ctx, id); err != nil {
		return err
	}
	if err := s.DeleteSubmissionsForMatch(ctx, id); err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, matchKey(id))
	pipe.ZRem(ctx, waitingMatchesKey(), string(id))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) FindWaitingMatch(ctx context.Context, mode, language string, exclude model.UserID) (*model.Match, error) {
	// Oldest waiting matches first
	ids, err := s.client.ZRange(ctx, waitingMatchesKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		match, err := s.GetMatch(ctx, model.MatchID(id))
		if errors.Is(err, model.ErrMatchNotFound) {
			// Record expired under the index entry; drop the entry
			s.client.ZRem(ctx, waitingMatchesKey(), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		if match.Status != model.MatchStatusWaiting {
			continue
		}
		if match.Mode == mode && match.Language == language && match.Player1 != exclude {
			return match, nil
		}
	}
	return nil, model.ErrMatchNotFound
}

func (s *Storage) WaitingMatchesFor(ctx context.Context, userID model.UserID) ([]*model.Match, error) {
	ids, err := s.client.ZRange(ctx, waitingMatchesKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	var result []*model.Match
	for _, id := range ids {
		match, err := s.GetMatch(ctx, model.MatchID(id))
		if errors.Is(err, model.ErrMatchNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if match.Status == model.MatchStatusWaiting && (match.Player1 == userID || match.Player2 == userID) {
			result = append(result, match)
		}
	}
	return result, nil
}

func (s *Storage) DeleteOrphanMatches(ctx context.Context, olderThan time.Time) (int, error) {
	cutoff := "(" + strconv.FormatInt(olderThan.Unix(), 10)
	ids, err := s.client.ZRangeByScore(ctx, waitingMatchesKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: cutoff,
	}).Result()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		if err := s.DeleteMatch(ctx, model.MatchID(id)); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (s *Storage) IncrementScore(ctx context.Context, matchID model.MatchID, userID model.UserID) error {
	key := matchKey(matchID)

	// Optimistic read-modify-write of the participant's counters only;
	// a concurrent increment from the opponent retries rather than
	// being overwritten
	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return model.ErrMatchNotFound
		}
		if err != nil {
			return err
		}

		var match model.Match
		if err := json.Unmarshal(data, &match); err != nil {
			return err
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

		updated, err := json.Marshal(&match)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, s.cfg.MatchTTL)
			return nil
		})
		return err
	}

	for i := 0; i < incrementScoreRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return redis.TxFailedErr
}

// Problem operations

func (s *Storage) SaveProblem(ctx context.Context, problem *model.Problem) error {
	data, err := json.Marshal(problem)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, problemKey(problem.ID), data, s.cfg.ProblemTTL)
	pipe.ZAdd(ctx, problemsForMatchKey(problem.MatchID), redis.Z{
		Score:  float64(problem.Order),
		Member: string(problem.ID),
	})
	pipe.Expire(ctx, problemsForMatchKey(problem.MatchID), s.cfg.ProblemTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetProblem(ctx context.Context, id model.ProblemID) (*model.Problem, error) {
	data, err := s.client.Get(ctx, problemKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrProblemNotFound
		}
		return nil, err
	}

	var problem model.Problem
	if err := json.Unmarshal(data, &problem); err != nil {
		return nil, err
	}
	return &problem, nil
}

func (s *Storage) ListProblems(ctx context.Context, matchID model.MatchID) ([]*model.Problem, error) {
	// ZSET scored by problem order gives the ascending traversal
	ids, err := s.client.ZRange(ctx, problemsForMatchKey(matchID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	var result []*model.Problem
	for _, id := range ids {
		problem, err := s.GetProblem(ctx, model.ProblemID(id))
		if errors.Is(err, model.ErrProblemNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result = append(result, problem)
	}
	return result, nil
}

func (s *Storage) DeleteProblemsForMatch(ctx context.Context, matchID model.MatchID) error {
	ids, err := s.client.ZRange(ctx, problemsForMatchKey(matchID), 0, -1).Result()
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	for _, id := range ids {
		pipe.Del(ctx, problemKey(model.ProblemID(id)))
	}
	pipe.Del(ctx, problemsForMatchKey(matchID))
	_, err = pipe.Exec(ctx)
	return err
}

// Submission operations

func (s *Storage) SaveSubmission(ctx context.Context, sub *model.Submission) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, submissionsForMatchKey(sub.MatchID), data)
	pipe.Expire(ctx, submissionsForMatchKey(sub.MatchID), s.cfg.SubmissionTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListSubmissions(ctx context.Context, matchID model.MatchID) ([]*model.Submission, error) {
	items, err := s.client.LRange(ctx, submissionsForMatchKey(matchID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	result := make([]*model.Submission, 0, len(items))
	for _, item := range items {
		var sub model.Submission
		if err := json.Unmarshal([]byte(item), &sub); err != nil {
			return nil, err
		}
		result = append(result, &sub)
	}
	return result, nil
}

func (s *Storage) LatestSubmissions(ctx context.Context, matchID model.MatchID, problemID model.ProblemID) (map[model.UserID]*model.Submission, error) {
	subs, err := s.ListSubmissions(ctx, matchID)
	if err != nil {
		return nil, err
	}

	// List order is submission order, so the last entry per user wins
	latest := make(map[model.UserID]*model.Submission)
	for _, sub := range subs {
		if sub.ProblemID == problemID {
			latest[sub.UserID] = sub
		}
	}
	return latest, nil
}

func (s *Storage) DeleteSubmissionsForMatch(ctx context.Context, matchID model.MatchID) error {
	return s.client.Del(ctx, submissionsForMatchKey(matchID)).Err()
}
