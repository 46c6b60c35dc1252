package model

import "errors"

// Common errors used across the application
var (
	// User errors
	ErrUserNotFound = errors.New("user not found")

	// Match errors
	ErrMatchNotFound   = errors.New("match not found")
	ErrMatchNotWaiting = errors.New("match is not waiting for an opponent")
	ErrMatchFinished   = errors.New("match is already finished")
	ErrMatchNotReady   = errors.New("match does not have both players bound")
	ErrNotParticipant  = errors.New("user is not a participant in this match")
	ErrNotMatchOwner   = errors.New("only player one may perform this action")

	// Queue errors
	ErrAlreadyQueued = errors.New("user is already in the waiting queue")

	// Problem errors
	ErrProblemNotFound  = errors.New("problem not found")
	ErrNoProblems       = errors.New("match has no problems generated yet")
	ErrProblemsNotReady = errors.New("problems are still being generated")

	// Submission errors
	ErrSubmissionNotFound = errors.New("submission not found")
)
