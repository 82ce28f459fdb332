package room

import "errors"

var (
	ErrNotAParticipant         = errors.New("not-a-participant")
	ErrNotAMember              = errors.New("not-a-member")
	ErrNotHost                 = errors.New("not-host")
	ErrInvalidRequest          = errors.New("invalid-request")
	ErrMalformedPersistedState = errors.New("malformed-persisted-state")
)

var (
	ErrSendBufferFull = errors.New("send-buffer-full")
	ErrRateLimited    = errors.New("rate-limited")
)

var callerErrors = []error{ErrNotAParticipant, ErrNotAMember, ErrNotHost, ErrInvalidRequest, ErrRateLimited}

// errorCode maps an operation error to the code reported to the client.
func errorCode(err error) string {
	for _, e := range callerErrors {
		if errors.Is(err, e) {
			return e.Error()
		}
	}
	return "unknown-error"
}
