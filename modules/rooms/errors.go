package rooms

import "errors"

// Sentinel errors for room operations.
var (
	// ErrRoomNotFound is returned when the requested room does not exist.
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomExists is returned when creating a room whose name is taken.
	ErrRoomExists = errors.New("room already exists")

	// ErrInvalidRoomName is returned when a room name fails validation
	// after normalization.
	ErrInvalidRoomName = errors.New("room name can only contain lowercase letters, numbers, and hyphens")

	// ErrInvalidDescription is returned when a description exceeds the limit.
	ErrInvalidDescription = errors.New("description cannot exceed 200 characters")
)
