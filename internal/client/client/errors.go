package client

import (
	"encoding/json"
	"errors"
	"net/http"
)

var (
	// ErrNetwork replaces any failure to reach the server at all,
	// including timeouts. Its text is the user-facing message.
	ErrNetwork = errors.New("Network error. Please check your connection.")

	// ErrSessionExpired matches a 401 from any endpoint via errors.Is.
	// By the time callers see it the transport has already emitted the
	// session-expired event.
	ErrSessionExpired = errors.New("session expired")
)

// DefaultErrorMessage is used when a non-2xx response carries no
// recognizable message payload.
const DefaultErrorMessage = "An error occurred"

// StatusError is a non-2xx server response normalized to a single
// human-readable message.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string { return e.Message }

func (e *StatusError) Is(target error) bool {
	return target == ErrSessionExpired && e.Code == http.StatusUnauthorized
}

type errorPayload struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

// normalizeMessage extracts the server-supplied "detail" field, falling
// back to "message", falling back to DefaultErrorMessage.
func normalizeMessage(body []byte) string {
	var p errorPayload
	if err := json.Unmarshal(body, &p); err == nil {
		if p.Detail != "" {
			return p.Detail
		}
		if p.Message != "" {
			return p.Message
		}
	}
	return DefaultErrorMessage
}
