package session

import "errors"

// ErrNotFound is returned when a lookup matches no session row.
var ErrNotFound = errors.New("session: not found")
