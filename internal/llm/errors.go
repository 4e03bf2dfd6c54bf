package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrTurnInProgress is returned when a send arrives while a turn is running.
	ErrTurnInProgress = errors.New("a turn is already in progress")

	// ErrNoChoices is returned when the endpoint answers without content.
	ErrNoChoices = errors.New("no response choices found")

	// ErrUnknownProvider is returned by NewCompleter for unsupported providers.
	ErrUnknownProvider = errors.New("unknown provider")
)

// APIError is a non-2xx response from the completion endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}
