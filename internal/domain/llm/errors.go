package llm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")

	// ErrVideoUnavailable is returned when a finished video job carries no media URI.
	ErrVideoUnavailable = errors.New("video unavailable")
	// ErrVideoPollExhausted is returned when a video job is still pending after the poll budget.
	ErrVideoPollExhausted = errors.New("video poll exhausted")
)

func InvalidArgument(msg string) error {
	if msg == "" {
		return ErrInvalidArgument
	}
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

func NotFound(msg string) error {
	if msg == "" {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %s", ErrNotFound, msg)
}

// RequireText rejects empty and whitespace-only input.
func RequireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return InvalidArgument(field + " is required")
	}
	return nil
}
