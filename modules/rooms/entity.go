package rooms

import (
	"time"
)

// Member roles.
const (
	RoleMember    = "member"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// Room is the persisted metadata for a chat room.
type Room struct {
	ID             string    `gorm:"primarykey;size:36" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Name           string    `gorm:"size:50;not null;uniqueIndex" json:"name"`
	DisplayName    string    `gorm:"size:50;not null" json:"display_name"`
	Description    string    `gorm:"size:200" json:"description"`
	IsPrivate      bool      `gorm:"not null;default:false" json:"is_private"`
	InviteCode     string    `gorm:"size:8;index" json:"invite_code,omitempty"`
	PasswordHash   string    `gorm:"size:60" json:"-"`
	CreatedBy      string    `gorm:"size:50;not null" json:"created_by"`
	MaxUsers       int       `gorm:"not null;default:100" json:"max_users"`
	MessageCount   int64     `gorm:"not null;default:0" json:"message_count"`
	LastActivityAt time.Time `json:"last_activity_at"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
}

// TableName returns the table name for the Room model.
func (Room) TableName() string {
	return "rooms"
}

// Member records a username's membership in a private room.
type Member struct {
	ID       uint      `gorm:"primarykey" json:"id"`
	RoomID   string    `gorm:"size:36;not null;uniqueIndex:idx_room_member" json:"room_id"`
	Username string    `gorm:"size:50;not null;uniqueIndex:idx_room_member" json:"username"`
	Role     string    `gorm:"size:16;not null;default:member" json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// TableName returns the table name for the Member model.
func (Member) TableName() string {
	return "room_members"
}
