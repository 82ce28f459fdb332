package sessions

import "errors"

var ErrValidation = errors.New("validation-error")

var (
	ErrInvalidRequestFormatStr = "bad-request-format"
	ErrSessionNotFoundStr      = "session-not-found"
	ErrServerTimeoutStr        = "server-timeout"
	ErrUnknownStr              = "unknown-error"
)
