package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/battlecode-go/internal/api/apierr"
	"github.com/mcoot/battlecode-go/internal/api/middleware"
	"github.com/mcoot/battlecode-go/internal/api/request"
	"github.com/mcoot/battlecode-go/internal/api/response"
	"github.com/mcoot/battlecode-go/internal/model"
	"github.com/mcoot/battlecode-go/internal/services/match"
	"github.com/mcoot/battlecode-go/internal/services/matchmaking"
	"github.com/mcoot/battlecode-go/internal/services/problems"
	"github.com/mcoot/battlecode-go/internal/storage"
)

// MatchHandler handles match-related endpoints
type MatchHandler struct {
	storage    storage.Store
	matchmaker *matchmaking.Coordinator
	matches    *match.Service
	problems   *problems.Service
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(store storage.Store, matchmaker *matchmaking.Coordinator, matches *match.Service, problemSvc *problems.Service) *MatchHandler {
	return &MatchHandler{
		storage:    store,
		matchmaker: matchmaker,
		matches:    matches,
		problems:   problemSvc,
	}
}

// Start handles POST /api/v1/matches
func (h *MatchHandler) Start(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.StartMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Difficulty == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("difficulty is required"))
		return
	}
	if req.Language == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("language is required"))
		return
	}

	m, err := h.matchmaker.Start(r.Context(), user.ID, req.Difficulty, req.Language)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	status := http.StatusCreated
	if m.Status == model.MatchStatusRunning {
		status = http.StatusOK
	}
	response.JSON(w, status, response.MatchFromModel(m))
}

// Get handles GET /api/v1/matches/{match_id}
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.storage.GetMatch(r.Context(), matchID(r))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.MatchFromModel(m))
}

// Cancel handles POST /api/v1/matches/{match_id}/cancel
func (h *MatchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	if err := h.matchmaker.CancelWaiting(r.Context(), user.ID, matchID(r)); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// Scores handles GET /api/v1/matches/{match_id}/scores
func (h *MatchHandler) Scores(w http.ResponseWriter, r *http.Request) {
	scores, err := h.matches.Scores(r.Context(), matchID(r))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, scores)
}

// Result handles GET /api/v1/matches/{match_id}/result
func (h *MatchHandler) Result(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	summary, err := h.matches.Result(r.Context(), user.ID, matchID(r))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.MatchResultFromSummary(summary))
}

// ListProblems handles GET /api/v1/matches/{match_id}/problems
func (h *MatchHandler) ListProblems(w http.ResponseWriter, r *http.Request) {
	list, err := h.problems.ForMatch(r.Context(), matchID(r))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ProblemListFromModels(list))
}

// GetProblem handles GET /api/v1/matches/{match_id}/problems/{problem_id}
func (h *MatchHandler) GetProblem(w http.ResponseWriter, r *http.Request) {
	problem, err := h.matches.ProblemDetail(r.Context(), matchID(r), problemID(r))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ProblemFromModel(problem))
}

// Submit handles POST /api/v1/matches/{match_id}/problems/{problem_id}/submissions
func (h *MatchHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.SubmitCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Language == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("language is required"))
		return
	}

	outcome, err := h.matches.SubmitCode(r.Context(), user.ID, matchID(r), problemID(r), req.Code, req.Language)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, outcome)
}

// Next handles POST /api/v1/matches/{match_id}/problems/{problem_id}/next
func (h *MatchHandler) Next(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	if err := h.matches.ForceNext(r.Context(), user.ID, matchID(r), problemID(r)); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.NoContent(w)
}

func matchID(r *http.Request) model.MatchID {
	return model.MatchID(mux.Vars(r)["match_id"])
}

func problemID(r *http.Request) model.ProblemID {
	return model.ProblemID(mux.Vars(r)["problem_id"])
}
