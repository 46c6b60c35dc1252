package factory

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/battlecode-go/internal/dependencies/clock"
	"github.com/mcoot/battlecode-go/internal/dependencies/random"
	"github.com/mcoot/battlecode-go/internal/realtime"
	"github.com/mcoot/battlecode-go/internal/services/ai"
	"github.com/mcoot/battlecode-go/internal/services/auth"
	"github.com/mcoot/battlecode-go/internal/services/judge"
	"github.com/mcoot/battlecode-go/internal/services/match"
	"github.com/mcoot/battlecode-go/internal/services/matchmaking"
	"github.com/mcoot/battlecode-go/internal/services/problems"
	"github.com/mcoot/battlecode-go/internal/services/progression"
	"github.com/mcoot/battlecode-go/internal/services/queue"
	"github.com/mcoot/battlecode-go/internal/services/ready"
	"github.com/mcoot/battlecode-go/internal/storage"
	"github.com/mcoot/battlecode-go/internal/storage/memory"
	redisstorage "github.com/mcoot/battlecode-go/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Store

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Realtime plumbing
	Connections *realtime.ConnectionRegistry
	Rooms       *realtime.RoomRegistry
	Gateway     *realtime.Gateway

	// Services
	AuthService    *auth.Service
	ProblemService *problems.Service
	Progression    *progression.Coordinator
	Matchmaker     *matchmaking.Coordinator
	MatchService   *match.Service
	ReadyTracker   *ready.Tracker
	WaitingQueue   *queue.WaitingQueue
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// AIConfig holds settings for the problem generator and judge backend
	AIConfig ai.Config
	// QueueStaleness overrides how long a waiting match may sit unclaimed
	// before the pairing sweep discards it (optional)
	QueueStaleness time.Duration
	// CountdownDelay overrides the pause between announcing the next
	// problem and starting its countdown (optional)
	CountdownDelay time.Duration
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Store
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	aiClient := ai.NewClient(cfg.AIConfig)
	generator := problems.NewAIGenerator(aiClient)
	judgeSvc := judge.NewAIJudge(aiClient, logger)

	countdownDelay := cfg.CountdownDelay
	if countdownDelay == 0 {
		countdownDelay = progression.DefaultCountdownDelay
	}

	return newWithDependencies(deps{
		store:          store,
		clock:          clk,
		random:         rnd,
		authCfg:        authCfg,
		generator:      generator,
		judge:          judgeSvc,
		queueStaleness: cfg.QueueStaleness,
		countdownDelay: countdownDelay,
		logger:         logger,
	}), nil
}

// deps carries the pieces newWithDependencies wires together. Tests
// construct it directly with mocks and stubs.
type deps struct {
	store          storage.Store
	clock          clock.Clock
	random         random.Random
	authCfg        auth.Config
	generator      problems.Generator
	judge          judge.Judge
	queueStaleness time.Duration
	countdownDelay time.Duration
	logger         *slog.Logger
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(d deps) *App {
	conns := realtime.NewConnectionRegistry()
	rooms := realtime.NewRoomRegistry()
	gateway := realtime.NewGateway(conns, rooms, d.logger)

	waiting := queue.New(d.store, d.clock, d.logger, d.queueStaleness)
	readyTracker := ready.NewTracker()

	problemSvc := problems.NewService(d.store, d.generator, d.clock, d.random, d.logger)
	prog := progression.NewCoordinator(d.store, gateway, d.clock, d.logger, d.countdownDelay)
	matchmaker := matchmaking.NewCoordinator(d.store, waiting, conns, rooms, gateway, problemSvc, readyTracker, prog, d.clock, d.random, d.logger)
	matchSvc := match.NewService(d.store, d.judge, prog, d.clock, d.random, d.logger)
	authSvc := auth.New(d.store, d.clock, d.authCfg)

	return &App{
		Storage:        d.store,
		Clock:          d.clock,
		Random:         d.random,
		Connections:    conns,
		Rooms:          rooms,
		Gateway:        gateway,
		AuthService:    authSvc,
		ProblemService: problemSvc,
		Progression:    prog,
		Matchmaker:     matchmaker,
		MatchService:   matchSvc,
		ReadyTracker:   readyTracker,
		WaitingQueue:   waiting,
	}
}
