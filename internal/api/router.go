package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/battlecode-go/internal/api/handler"
	"github.com/mcoot/battlecode-go/internal/api/middleware"
	"github.com/mcoot/battlecode-go/internal/dependencies/random"
	"github.com/mcoot/battlecode-go/internal/realtime"
	"github.com/mcoot/battlecode-go/internal/services/auth"
	"github.com/mcoot/battlecode-go/internal/services/match"
	"github.com/mcoot/battlecode-go/internal/services/matchmaking"
	"github.com/mcoot/battlecode-go/internal/services/problems"
	"github.com/mcoot/battlecode-go/internal/services/ready"
	"github.com/mcoot/battlecode-go/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	Storage        storage.Store
	AuthService    *auth.Service
	Matchmaker     *matchmaking.Coordinator
	MatchService   *match.Service
	ProblemService *problems.Service
	Connections    *realtime.ConnectionRegistry
	Rooms          *realtime.RoomRegistry
	Gateway        *realtime.Gateway
	ReadyTracker   *ready.Tracker
	Random         random.Random
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	userHandler := handler.NewUserHandler(cfg.AuthService)
	matchHandler := handler.NewMatchHandler(cfg.Storage, cfg.Matchmaker, cfg.MatchService, cfg.ProblemService)
	wsHandler := handler.NewWSHandler(cfg.Storage, cfg.Connections, cfg.Rooms, cfg.Gateway, cfg.Matchmaker, cfg.ReadyTracker, cfg.Random, cfg.Logger)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// User routes (no auth required for creating users/logging in)
	api.HandleFunc("/users/guest", userHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/users/register", userHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/users/login", userHandler.Login).Methods(http.MethodPost)

	// Protected user routes
	userProtected := api.PathPrefix("/users").Subrouter()
	userProtected.Use(authMiddleware)
	userProtected.HandleFunc("/me", userHandler.GetMe).Methods(http.MethodGet)

	// Match routes (all require auth)
	matches := api.PathPrefix("/matches").Subrouter()
	matches.Use(authMiddleware)
	matches.HandleFunc("", matchHandler.Start).Methods(http.MethodPost)
	matches.HandleFunc("/{match_id}", matchHandler.Get).Methods(http.MethodGet)
	matches.HandleFunc("/{match_id}/cancel", matchHandler.Cancel).Methods(http.MethodPost)
	matches.HandleFunc("/{match_id}/scores", matchHandler.Scores).Methods(http.MethodGet)
	matches.HandleFunc("/{match_id}/result", matchHandler.Result).Methods(http.MethodGet)
	matches.HandleFunc("/{match_id}/problems", matchHandler.ListProblems).Methods(http.MethodGet)
	matches.HandleFunc("/{match_id}/problems/{problem_id}", matchHandler.GetProblem).Methods(http.MethodGet)
	matches.HandleFunc("/{match_id}/problems/{problem_id}/submissions", matchHandler.Submit).Methods(http.MethodPost)
	matches.HandleFunc("/{match_id}/problems/{problem_id}/next", matchHandler.Next).Methods(http.MethodPost)

	// Websocket endpoint (auth via bearer token or token query param)
	ws := api.PathPrefix("/ws").Subrouter()
	ws.Use(authMiddleware)
	ws.HandleFunc("", wsHandler.Serve).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
