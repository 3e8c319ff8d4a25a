package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// MessageSentEvent is emitted by the history module after a message is
// durably stored.
type MessageSentEvent struct {
	MessageID string    `json:"message_id"`
	Room      string    `json:"room"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// RoomCreatedEvent is emitted when a public room is created.
type RoomCreatedEvent struct {
	Room        string    `json:"room"`
	DisplayName string    `json:"display_name"`
	CreatedBy   string    `json:"created_by"`
	Timestamp   time.Time `json:"timestamp"`
}

// PrivateRoomCreatedEvent is emitted when a private room is created. The
// invite code is included so the creator can be notified.
type PrivateRoomCreatedEvent struct {
	Room        string    `json:"room"`
	DisplayName string    `json:"display_name"`
	CreatedBy   string    `json:"created_by"`
	InviteCode  string    `json:"invite_code"`
	Timestamp   time.Time `json:"timestamp"`
}

// Event definitions for the chat domain.
var (
	MessageSentV1 = helper.EventDefinition[MessageSentEvent](
		"history",
		"MessageSent",
		"v1",
	)

	RoomCreatedV1 = helper.EventDefinition[RoomCreatedEvent](
		"rooms",
		"RoomCreated",
		"v1",
	)

	PrivateRoomCreatedV1 = helper.EventDefinition[PrivateRoomCreatedEvent](
		"rooms",
		"PrivateRoomCreated",
		"v1",
	)
)
