package gameerrors

import "errors"

// Session sentinel errors. Shared by game, sessions and ws so callers can
// match with errors.Is without importing each other.
var (
	ErrSessionOver     = errors.New("session is over")
	ErrNotStarted      = errors.New("session not started")
	ErrAlreadyStarted  = errors.New("session already started")
	ErrSessionNotFound = errors.New("session not found")
	ErrNoSession       = errors.New("no active session for this client")
)
