package history

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-monolith/mono"
	"github.com/google/uuid"

	"github.com/example/room-chat-server/events"
)

const (
	defaultRoom  = "general"
	defaultLimit = 50
	maxLimit     = 100

	// recentWindow is how far back the recent view reaches.
	recentWindow = 24 * time.Hour
)

// appendMessage handles the history.append service request. The message
// is stored before the MessageSent event fires, so consumers only ever
// see durable messages.
func (m *Module) appendMessage(ctx context.Context, req AppendMessageRequest, _ *mono.Msg) (AppendMessageResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return AppendMessageResponse{}, errors.New("username is required")
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return AppendMessageResponse{}, ErrEmptyMessage
	}
	if len(text) > 1000 {
		return AppendMessageResponse{}, ErrMessageTooLong
	}

	room := strings.TrimSpace(req.Room)
	if room == "" {
		room = defaultRoom
	}

	messageType := req.MessageType
	if messageType == "" {
		messageType = TypeText
	}

	msg := &Message{
		ID:           uuid.New().String(),
		Room:         room,
		Username:     username,
		Text:         text,
		MessageType:  messageType,
		ConnectionID: req.ConnectionID,
		Timestamp:    time.Now(),
	}

	if err := m.repo.Append(msg); err != nil {
		return AppendMessageResponse{}, err
	}

	if err := m.cache.InvalidateRoom(ctx, room); err != nil {
		slog.Warn("Failed to invalidate history cache", "room", room, "error", err)
	}

	m.publishMessageSent(msg)

	return AppendMessageResponse{Message: messageView(msg)}, nil
}

func (m *Module) publishMessageSent(msg *Message) {
	if m.eventBus == nil {
		return
	}
	event := events.MessageSentEvent{
		MessageID: msg.ID,
		Room:      msg.Room,
		Username:  msg.Username,
		Timestamp: msg.Timestamp,
	}
	if err := events.MessageSentV1.Publish(m.eventBus, event, nil); err != nil {
		slog.Warn("Failed to publish MessageSent event", "messageId", msg.ID, "error", err)
	}
}

// listMessages handles the history.list service request, serving cached
// pages when possible. A cache failure falls back to the database.
func (m *Module) listMessages(ctx context.Context, req ListMessagesRequest, _ *mono.Msg) (ListMessagesResponse, error) {
	room := strings.TrimSpace(req.Room)
	if room == "" {
		room = defaultRoom
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	key := pageKey(room, page, limit)
	var cached ListMessagesResponse
	if hit, err := m.cache.Get(ctx, key, &cached); err != nil {
		slog.Warn("History cache read failed", "room", room, "error", err)
	} else if hit {
		return cached, nil
	}

	messages, total, err := m.repo.List(room, page, limit)
	if err != nil {
		return ListMessagesResponse{}, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	resp := ListMessagesResponse{
		Messages: messageViews(messages),
		Room:     room,
		Pagination: Pagination{
			CurrentPage:   page,
			TotalPages:    totalPages,
			TotalMessages: total,
			HasNextPage:   page < totalPages,
			HasPrevPage:   page > 1,
		},
	}

	if err := m.cache.Set(ctx, key, resp); err != nil {
		slog.Warn("History cache write failed", "room", room, "error", err)
	}
	return resp, nil
}

// recentMessages handles the history.recent service request.
func (m *Module) recentMessages(_ context.Context, req RecentMessagesRequest, _ *mono.Msg) (RecentMessagesResponse, error) {
	room := strings.TrimSpace(req.Room)
	if room == "" {
		room = defaultRoom
	}

	messages, err := m.repo.Recent(room, time.Now().Add(-recentWindow))
	if err != nil {
		return RecentMessagesResponse{}, err
	}

	return RecentMessagesResponse{
		Messages: messageViews(messages),
		Count:    len(messages),
	}, nil
}

// roomStats handles the history.stats service request.
func (m *Module) roomStats(ctx context.Context, req StatsRequest, _ *mono.Msg) (StatsResponse, error) {
	room := strings.TrimSpace(req.Room)
	if room == "" {
		room = defaultRoom
	}

	key := statsKey(room)
	var cached StatsResponse
	if hit, err := m.cache.Get(ctx, key, &cached); err != nil {
		slog.Warn("Stats cache read failed", "room", room, "error", err)
	} else if hit {
		return cached, nil
	}

	stats, err := m.repo.Stats(room)
	if err != nil {
		return StatsResponse{}, err
	}

	resp := StatsResponse{
		TotalMessages:   stats.TotalMessages,
		UniqueUserCount: len(stats.UniqueUsers),
		UniqueUsers:     stats.UniqueUsers,
		FirstMessage:    stats.FirstMessage,
		LastMessage:     stats.LastMessage,
	}

	if err := m.cache.Set(ctx, key, resp); err != nil {
		slog.Warn("Stats cache write failed", "room", room, "error", err)
	}
	return resp, nil
}

// deleteMessage handles the history.delete service request.
func (m *Module) deleteMessage(ctx context.Context, req DeleteMessageRequest, _ *mono.Msg) (DeleteMessageResponse, error) {
	if req.ID == "" {
		return DeleteMessageResponse{}, errors.New("message id is required")
	}

	msg, err := m.repo.FindByID(req.ID)
	if err != nil {
		return DeleteMessageResponse{Deleted: false, ID: req.ID}, err
	}

	if err := m.repo.Delete(req.ID); err != nil {
		return DeleteMessageResponse{Deleted: false, ID: req.ID}, err
	}

	if err := m.cache.InvalidateRoom(ctx, msg.Room); err != nil {
		slog.Warn("Failed to invalidate history cache", "room", msg.Room, "error", err)
	}

	return DeleteMessageResponse{Deleted: true, ID: req.ID}, nil
}

func messageView(msg *Message) MessageView {
	return MessageView{
		ID:          msg.ID,
		Room:        msg.Room,
		Username:    msg.Username,
		Text:        msg.Text,
		MessageType: msg.MessageType,
		Timestamp:   msg.Timestamp,
	}
}

func messageViews(messages []*Message) []MessageView {
	views := make([]MessageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, messageView(msg))
	}
	return views
}
