package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/battlecode-go/internal/model"
	"github.com/mcoot/battlecode-go/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeMatchNotFound      = "MATCH_NOT_FOUND"
	CodeMatchNotWaiting    = "MATCH_NOT_WAITING"
	CodeMatchFinished      = "MATCH_FINISHED"
	CodeMatchNotReady      = "MATCH_NOT_READY"
	CodeNotParticipant     = "NOT_PARTICIPANT"
	CodeNotMatchOwner      = "NOT_MATCH_OWNER"
	CodeAlreadyQueued      = "ALREADY_QUEUED"
	CodeProblemNotFound    = "PROBLEM_NOT_FOUND"
	CodeNoProblems         = "NO_PROBLEMS"
	CodeProblemsNotReady   = "PROBLEMS_NOT_READY"
	CodeUsernameExists     = "USERNAME_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeUserNotFound, "User not found"}}
	case errors.Is(err, model.ErrMatchNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeMatchNotFound, "Match not found"}}
	case errors.Is(err, model.ErrMatchNotWaiting):
		return &httpError{http.StatusConflict, APIError{CodeMatchNotWaiting, "Match is no longer waiting for an opponent"}}
	case errors.Is(err, model.ErrMatchFinished):
		return &httpError{http.StatusConflict, APIError{CodeMatchFinished, "Match has already finished"}}
	case errors.Is(err, model.ErrMatchNotReady):
		return &httpError{http.StatusConflict, APIError{CodeMatchNotReady, "Match does not have both participants yet"}}
	case errors.Is(err, model.ErrNotParticipant):
		return &httpError{http.StatusForbidden, APIError{CodeNotParticipant, "You are not a participant in this match"}}
	case errors.Is(err, model.ErrNotMatchOwner):
		return &httpError{http.StatusForbidden, APIError{CodeNotMatchOwner, "Only the match owner can perform this action"}}
	case errors.Is(err, model.ErrAlreadyQueued):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyQueued, "You are already in the waiting queue"}}
	case errors.Is(err, model.ErrProblemNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeProblemNotFound, "Problem not found"}}
	case errors.Is(err, model.ErrNoProblems):
		return &httpError{http.StatusConflict, APIError{CodeNoProblems, "No problems could be generated"}}
	case errors.Is(err, model.ErrProblemsNotReady):
		return &httpError{http.StatusConflict, APIError{CodeProblemsNotReady, "Problems are still being generated"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	case errors.Is(err, auth.ErrUsernameExists):
		return &httpError{http.StatusConflict, APIError{CodeUsernameExists, "Username already exists"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
