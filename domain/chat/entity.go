package chat

import "time"

// Session binds one live connection to an identity and a room.
type Session struct {
	ConnectionID string    `json:"id"`
	Username     string    `json:"username"`
	Room         string    `json:"room"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// RosterEntry is one row of a room's online-user roster.
type RosterEntry struct {
	ConnectionID string    `json:"id"`
	Username     string    `json:"username"`
	Room         string    `json:"room"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// Message is the wire view of an accepted, persisted chat message.
type Message struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Room      string    `json:"room"`
}

// Room is the public view of a chat room's metadata.
type Room struct {
	Name         string    `json:"name"`
	DisplayName  string    `json:"displayName"`
	Description  string    `json:"description,omitempty"`
	IsPrivate    bool      `json:"isPrivate"`
	MessageCount int64     `json:"messageCount"`
	MemberCount  int       `json:"memberCount,omitempty"`
	InviteCode   string    `json:"inviteCode,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
