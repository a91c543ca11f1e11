package authz

import "errors"

var (
	ErrNotFound         = errors.New("authz: not found")
	ErrDuplicateGrant   = errors.New("authz: duplicate grant")
	ErrInvalidGrant     = errors.New("authz: invalid grant")
	ErrExpired          = errors.New("authz: session expired")
	ErrNoActiveRole     = errors.New("authz: no active role")
	ErrStoreUnavailable = errors.New("authz: store unavailable")
	ErrInvalidInput     = errors.New("authz: invalid input")
)
