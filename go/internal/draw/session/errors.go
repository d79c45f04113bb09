package session

import "errors"

// ErrInvalidRequest is returned when a request is malformed
var ErrInvalidRequest = errors.New("invalid request")
