package storage

import "errors"

var (
	ErrNotFound    = errors.New("storage: not found")
	ErrInvalidCID  = errors.New("storage: invalid cid")
	ErrCIDMismatch = errors.New("storage: cid mismatch")
	ErrImmutable   = errors.New("storage: immutable object mismatch")
	ErrNoBackends  = errors.New("storage: no backends configured")
	// ErrRejected is returned by stores that validate content before accepting it.
	ErrRejected    = errors.New("storage: object rejected")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
