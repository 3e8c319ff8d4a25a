package history

import "time"

// MessageView is the message shape returned to callers.
type MessageView struct {
	ID          string    `json:"id"`
	Room        string    `json:"room"`
	Username    string    `json:"username"`
	Text        string    `json:"text"`
	MessageType string    `json:"messageType"`
	Timestamp   time.Time `json:"timestamp"`
}

// AppendMessageRequest is the request for the history.append service.
type AppendMessageRequest struct {
	Room         string `json:"room"`
	Username     string `json:"username"`
	Text         string `json:"text"`
	MessageType  string `json:"messageType,omitempty"`
	ConnectionID string `json:"connectionId,omitempty"`
}

// AppendMessageResponse is the response for the history.append service.
type AppendMessageResponse struct {
	Message MessageView `json:"message"`
}

// ListMessagesRequest is the request for the history.list service.
type ListMessagesRequest struct {
	Room  string `json:"room"`
	Page  int    `json:"page,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// Pagination describes the page position within a room's history.
type Pagination struct {
	CurrentPage   int   `json:"currentPage"`
	TotalPages    int   `json:"totalPages"`
	TotalMessages int64 `json:"totalMessages"`
	HasNextPage   bool  `json:"hasNextPage"`
	HasPrevPage   bool  `json:"hasPrevPage"`
}

// ListMessagesResponse is the response for the history.list service.
type ListMessagesResponse struct {
	Messages   []MessageView `json:"messages"`
	Room       string        `json:"room"`
	Pagination Pagination    `json:"pagination"`
}

// RecentMessagesRequest is the request for the history.recent service.
type RecentMessagesRequest struct {
	Room string `json:"room"`
}

// RecentMessagesResponse is the response for the history.recent service.
type RecentMessagesResponse struct {
	Messages []MessageView `json:"messages"`
	Count    int           `json:"count"`
}

// StatsRequest is the request for the history.stats service.
type StatsRequest struct {
	Room string `json:"room"`
}

// StatsResponse is the response for the history.stats service.
type StatsResponse struct {
	TotalMessages   int64      `json:"totalMessages"`
	UniqueUserCount int        `json:"uniqueUserCount"`
	UniqueUsers     []string   `json:"uniqueUsers"`
	FirstMessage    *time.Time `json:"firstMessage"`
	LastMessage     *time.Time `json:"lastMessage"`
}

// DeleteMessageRequest is the request for the history.delete service.
type DeleteMessageRequest struct {
	ID string `json:"id"`
}

// DeleteMessageResponse is the response for the history.delete service.
type DeleteMessageResponse struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}
