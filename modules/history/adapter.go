package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// HistoryPort is the interface other modules use to reach message
// persistence.
type HistoryPort interface {
	Append(ctx context.Context, req AppendMessageRequest) (AppendMessageResponse, error)
	List(ctx context.Context, req ListMessagesRequest) (ListMessagesResponse, error)
	Recent(ctx context.Context, room string) (RecentMessagesResponse, error)
	Stats(ctx context.Context, room string) (StatsResponse, error)
	Delete(ctx context.Context, id string) (DeleteMessageResponse, error)
}

// Adapter implements HistoryPort using the service container.
type Adapter struct {
	container mono.ServiceContainer
}

// NewAdapter creates a new history adapter.
func NewAdapter(container mono.ServiceContainer) *Adapter {
	return &Adapter{container: container}
}

var _ HistoryPort = (*Adapter)(nil)

// Append stores a message and returns it with its durable id.
func (a *Adapter) Append(ctx context.Context, req AppendMessageRequest) (AppendMessageResponse, error) {
	var resp AppendMessageResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "append", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return AppendMessageResponse{}, fmt.Errorf("append request failed: %w", err)
	}
	return resp, nil
}

// List returns one page of a room's history.
func (a *Adapter) List(ctx context.Context, req ListMessagesRequest) (ListMessagesResponse, error) {
	var resp ListMessagesResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "list", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return ListMessagesResponse{}, fmt.Errorf("list request failed: %w", err)
	}
	return resp, nil
}

// Recent returns a room's messages from the last 24 hours.
func (a *Adapter) Recent(ctx context.Context, room string) (RecentMessagesResponse, error) {
	req := RecentMessagesRequest{Room: room}
	var resp RecentMessagesResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "recent", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return RecentMessagesResponse{}, fmt.Errorf("recent request failed: %w", err)
	}
	return resp, nil
}

// Stats returns a room's message statistics.
func (a *Adapter) Stats(ctx context.Context, room string) (StatsResponse, error) {
	req := StatsRequest{Room: room}
	var resp StatsResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "stats", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return StatsResponse{}, fmt.Errorf("stats request failed: %w", err)
	}
	return resp, nil
}

// Delete removes a message by id.
func (a *Adapter) Delete(ctx context.Context, id string) (DeleteMessageResponse, error) {
	req := DeleteMessageRequest{ID: id}
	var resp DeleteMessageResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "delete", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return DeleteMessageResponse{}, fmt.Errorf("delete request failed: %w", err)
	}
	return resp, nil
}
