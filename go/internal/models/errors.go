package models

import "errors"

// ErrInvalidState is returned when a draw state fails shape validation
var ErrInvalidState = errors.New("invalid draw state")

// ErrSessionNotFound is returned when a session does not exist
var ErrSessionNotFound = errors.New("session not found")
