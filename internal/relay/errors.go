package relay

import "errors"

// Relay error taxonomy. DuplicateConnection is an invariant violation and
// drops the connection; everything else is recoverable and reported back
// to the originating connection only.
var (
	ErrDuplicateConnection = errors.New("duplicate connection id")
	ErrInvalidIdentity     = errors.New("identity is empty")
	ErrUnknownSession      = errors.New("unknown session")
	ErrNotJoined           = errors.New("session has not joined")
	ErrEmptyMessage        = errors.New("message body is empty")
	ErrMessageTooLong      = errors.New("message body exceeds maximum length")
)

// ErrorCode maps a relay error to the stable code carried by outbound
// error events. Unrecognized errors map to "internal".
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateConnection):
		return "duplicate_connection"
	case errors.Is(err, ErrInvalidIdentity):
		return "invalid_identity"
	case errors.Is(err, ErrUnknownSession):
		return "unknown_session"
	case errors.Is(err, ErrNotJoined):
		return "not_joined"
	case errors.Is(err, ErrEmptyMessage):
		return "empty_message"
	case errors.Is(err, ErrMessageTooLong):
		return "message_too_long"
	default:
		return "internal"
	}
}
