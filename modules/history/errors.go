package history

import "errors"

// Sentinel errors for history operations.
var (
	// ErrMessageNotFound is returned when the requested message does not exist.
	ErrMessageNotFound = errors.New("message not found")

	// ErrEmptyMessage is returned when a message is empty after trimming.
	ErrEmptyMessage = errors.New("message cannot be empty")

	// ErrMessageTooLong is returned when a message exceeds 1000 characters.
	ErrMessageTooLong = errors.New("message too long (max 1000 characters)")
)
