package identity

import "errors"

// ErrNotFound indicates no durable record exists for the user id.
var ErrNotFound = errors.New("identity: record not found")
