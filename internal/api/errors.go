package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"finance-client/internal/wire"
)

var (
	// ErrUnauthorized matches any 401 response.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound matches any 404 response.
	ErrNotFound = errors.New("not found")
)

// Error is a non-2xx response from the backend.
type Error struct {
	Status    int
	Message   string
	RequestID string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Unwrap lets errors.Is match ErrUnauthorized and ErrNotFound.
func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// Message returns the server-provided message carried by err, or err's text.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// errorMessage pulls the human readable message out of an error body. The
// backend uses {"error": ...}; other iterations answer {"message": ...}.
func errorMessage(status int, body []byte) string {
	if o, err := wire.Decode(body); err == nil {
		for _, key := range []string{"error", "message"} {
			if msg := o.String(key); msg != "" {
				return msg
			}
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 && !strings.HasPrefix(text, "{") {
		return text
	}
	return strings.ToLower(http.StatusText(status))
}
