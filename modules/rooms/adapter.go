package rooms

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// RoomsPort is the interface other modules use to reach room services.
type RoomsPort interface {
	Create(ctx context.Context, req CreateRoomRequest) (CreateRoomResponse, error)
	Get(ctx context.Context, name string) (GetRoomResponse, error)
	GetByInvite(ctx context.Context, inviteCode string) (GetRoomResponse, error)
	List(ctx context.Context, req ListRoomsRequest) (ListRoomsResponse, error)
	AuthorizeJoin(ctx context.Context, req AuthorizeJoinRequest) (AuthorizeJoinResponse, error)
}

// Adapter implements RoomsPort using the service container.
type Adapter struct {
	container mono.ServiceContainer
}

// NewAdapter creates a new rooms adapter.
func NewAdapter(container mono.ServiceContainer) *Adapter {
	return &Adapter{container: container}
}

var _ RoomsPort = (*Adapter)(nil)

// Create creates a room.
func (a *Adapter) Create(ctx context.Context, req CreateRoomRequest) (CreateRoomResponse, error) {
	var resp CreateRoomResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "create", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return CreateRoomResponse{}, fmt.Errorf("create request failed: %w", err)
	}
	return resp, nil
}

// Get retrieves a room by name.
func (a *Adapter) Get(ctx context.Context, name string) (GetRoomResponse, error) {
	req := GetRoomRequest{Name: name}
	var resp GetRoomResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "get", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return GetRoomResponse{}, fmt.Errorf("get request failed: %w", err)
	}
	return resp, nil
}

// GetByInvite retrieves a room by invite code.
func (a *Adapter) GetByInvite(ctx context.Context, inviteCode string) (GetRoomResponse, error) {
	req := GetRoomByInviteRequest{InviteCode: inviteCode}
	var resp GetRoomResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "get-by-invite", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return GetRoomResponse{}, fmt.Errorf("get-by-invite request failed: %w", err)
	}
	return resp, nil
}

// List lists rooms visible to the requesting user.
func (a *Adapter) List(ctx context.Context, req ListRoomsRequest) (ListRoomsResponse, error) {
	var resp ListRoomsResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "list", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return ListRoomsResponse{}, fmt.Errorf("list request failed: %w", err)
	}
	return resp, nil
}

// AuthorizeJoin checks whether an identity may join a room.
func (a *Adapter) AuthorizeJoin(ctx context.Context, req AuthorizeJoinRequest) (AuthorizeJoinResponse, error) {
	var resp AuthorizeJoinResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "authorize-join", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return AuthorizeJoinResponse{}, fmt.Errorf("authorize-join request failed: %w", err)
	}
	return resp, nil
}
