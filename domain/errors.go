package domain

import "errors"

var (
	ErrSessionNotFound    = errors.New("session-not-found")
	ErrDuplicateCode      = errors.New("duplicate-session-code")
	ErrUnexpectedDatabase = errors.New("unexpected-database-error")
)
