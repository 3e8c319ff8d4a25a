package history

import (
	"time"
)

// Message types.
const (
	TypeText   = "text"
	TypeSystem = "system"
)

// Message is a persisted chat message.
type Message struct {
	ID           string    `gorm:"primarykey;size:36" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Room         string    `gorm:"size:50;not null;default:general;index:idx_room_timestamp" json:"room"`
	Username     string    `gorm:"size:50;not null" json:"username"`
	Text         string    `gorm:"size:1000;not null" json:"text"`
	MessageType  string    `gorm:"size:16;not null;default:text" json:"messageType"`
	ConnectionID string    `gorm:"size:64" json:"-"`
	Timestamp    time.Time `gorm:"not null;index:idx_room_timestamp" json:"timestamp"`
}

// TableName returns the table name for the Message model.
func (Message) TableName() string {
	return "messages"
}
