package rooms

import "time"

// CreateRoomRequest is the request for the rooms.create service.
type CreateRoomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPrivate   bool   `json:"isPrivate,omitempty"`
	Password    string `json:"password,omitempty"`
	CreatedBy   string `json:"createdBy"`
}

// RoomView is the room shape returned to callers. InviteCode is only
// populated for the creator of a private room.
type RoomView struct {
	Name           string    `json:"name"`
	DisplayName    string    `json:"displayName"`
	Description    string    `json:"description,omitempty"`
	IsPrivate      bool      `json:"isPrivate"`
	MessageCount   int64     `json:"messageCount"`
	MemberCount    int64     `json:"memberCount,omitempty"`
	InviteCode     string    `json:"inviteCode,omitempty"`
	CreatedBy      string    `json:"createdBy,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	LastActivityAt time.Time `json:"lastActivity"`
}

// CreateRoomResponse is the response for the rooms.create service.
type CreateRoomResponse struct {
	Room RoomView `json:"room"`
}

// GetRoomRequest is the request for the rooms.get service.
type GetRoomRequest struct {
	Name string `json:"name"`
}

// GetRoomByInviteRequest is the request for the rooms.get-by-invite service.
type GetRoomByInviteRequest struct {
	InviteCode string `json:"inviteCode"`
}

// GetRoomResponse is the response for the rooms.get and
// rooms.get-by-invite services.
type GetRoomResponse struct {
	Room RoomView `json:"room"`
}

// ListRoomsRequest is the request for the rooms.list service. Username,
// when set, is used to compute CanJoin on private rooms.
type ListRoomsRequest struct {
	Username       string `json:"username,omitempty"`
	IncludePrivate bool   `json:"includePrivate,omitempty"`
}

// RoomSummary is one row of a room listing.
type RoomSummary struct {
	Name           string    `json:"name"`
	DisplayName    string    `json:"displayName"`
	Description    string    `json:"description,omitempty"`
	IsPrivate      bool      `json:"isPrivate"`
	MessageCount   int64     `json:"messageCount"`
	CanJoin        bool      `json:"canJoin"`
	LastActivityAt time.Time `json:"lastActivity"`
}

// ListRoomsResponse is the response for the rooms.list service.
type ListRoomsResponse struct {
	Rooms []RoomSummary `json:"rooms"`
	Total int           `json:"totalRooms"`
}

// AuthorizeJoinRequest is the request for the rooms.authorize-join service.
type AuthorizeJoinRequest struct {
	Room       string `json:"room"`
	Username   string `json:"username"`
	InviteCode string `json:"inviteCode,omitempty"`
	Password   string `json:"password,omitempty"`
}

// AuthorizeJoinResponse is the response for the rooms.authorize-join
// service. Room carries the normalized name the caller should use.
type AuthorizeJoinResponse struct {
	CanJoin bool   `json:"canJoin"`
	Reason  string `json:"reason,omitempty"`
	Room    string `json:"room"`
}
