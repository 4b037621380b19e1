package server

import "errors"

// Console errors
var (
	ErrServerNotRunning     = errors.New("console is not running")
	ErrServerAlreadyRunning = errors.New("console is already running")
	ErrUnauthorized         = errors.New("invalid console token")
	ErrInvalidMessage       = errors.New("invalid message")
	ErrUnknownCommand       = errors.New("unknown command")
	ErrListenerFailed       = errors.New("failed to create listener")
	ErrRateLimited          = errors.New("rate limit exceeded")
)
