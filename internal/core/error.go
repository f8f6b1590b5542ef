package core

import (
	"errors"
	"fmt"
)

var (
	// ErrParse marks malformed position or move text
	ErrParse = errors.New("parse error")

	// ErrIllegalMove marks move text that is malformed or not legal in the position
	ErrIllegalMove = fmt.Errorf("%w: illegal move", ErrParse)

	// ErrNoLegalMove is returned when a search is requested on a finished position
	ErrNoLegalMove = errors.New("no legal move")

	ErrSessionNotFound = errors.New("session not found")
	ErrQueueFull       = errors.New("queue is full")
	ErrShuttingDown    = errors.New("shutting down")
	ErrUnavailable     = errors.New("service unavailable")
)

// Error codes
const (
	ErrCodeSessionNotFound   = "SESSION_NOT_FOUND"
	ErrCodeInvalidMove       = "INVALID_MOVE"
	ErrCodeInvalidFEN        = "INVALID_FEN"
	ErrCodeGameOver          = "GAME_OVER"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeInvalidContent    = "INVALID_CONTENT_TYPE"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeResourceLimit     = "RESOURCE_LIMIT"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
)
