package rooms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-monolith/mono"
	"github.com/google/uuid"

	"github.com/example/room-chat-server/events"
)

// createRoom handles the rooms.create service request.
func (m *Module) createRoom(_ context.Context, req CreateRoomRequest, _ *mono.Msg) (CreateRoomResponse, error) {
	createdBy := strings.TrimSpace(req.CreatedBy)
	if createdBy == "" {
		return CreateRoomResponse{}, errors.New("creator username is required")
	}

	name := NormalizeRoomName(req.Name)
	if err := ValidateRoomName(name); err != nil {
		return CreateRoomResponse{}, err
	}

	description := strings.TrimSpace(req.Description)
	if len(description) > 200 {
		return CreateRoomResponse{}, ErrInvalidDescription
	}

	if _, err := m.repo.FindByName(name); err == nil {
		return CreateRoomResponse{}, ErrRoomExists
	} else if !errors.Is(err, ErrRoomNotFound) {
		return CreateRoomResponse{}, err
	}

	room := &Room{
		ID:             uuid.New().String(),
		Name:           name,
		DisplayName:    strings.TrimSpace(req.Name),
		Description:    description,
		IsPrivate:      req.IsPrivate,
		CreatedBy:      createdBy,
		MaxUsers:       100,
		LastActivityAt: time.Now(),
		IsActive:       true,
	}

	if password := strings.TrimSpace(req.Password); password != "" {
		hash, err := m.hasher.Hash(password)
		if err != nil {
			return CreateRoomResponse{}, fmt.Errorf("failed to hash password: %w", err)
		}
		room.PasswordHash = hash
	}

	if room.IsPrivate {
		code, err := GenerateInviteCode()
		if err != nil {
			return CreateRoomResponse{}, fmt.Errorf("failed to generate invite code: %w", err)
		}
		room.InviteCode = code
	}

	if err := m.repo.Create(room); err != nil {
		return CreateRoomResponse{}, err
	}

	// The creator of a private room administers it.
	if room.IsPrivate {
		if err := m.repo.AddMember(room.ID, createdBy, RoleAdmin); err != nil {
			return CreateRoomResponse{}, err
		}
	}

	m.publishCreated(room)

	view := roomView(room)
	if room.IsPrivate {
		view.InviteCode = room.InviteCode
	}
	return CreateRoomResponse{Room: view}, nil
}

// publishCreated announces the new room. Private rooms are announced to
// the creator only, carrying the invite code.
func (m *Module) publishCreated(room *Room) {
	if m.eventBus == nil {
		return
	}
	if room.IsPrivate {
		event := events.PrivateRoomCreatedEvent{
			Room:        room.Name,
			DisplayName: room.DisplayName,
			CreatedBy:   room.CreatedBy,
			InviteCode:  room.InviteCode,
			Timestamp:   room.CreatedAt,
		}
		if err := events.PrivateRoomCreatedV1.Publish(m.eventBus, event, nil); err != nil {
			slog.Warn("Failed to publish PrivateRoomCreated event", "room", room.Name, "error", err)
		}
		return
	}

	event := events.RoomCreatedEvent{
		Room:        room.Name,
		DisplayName: room.DisplayName,
		CreatedBy:   room.CreatedBy,
		Timestamp:   room.CreatedAt,
	}
	if err := events.RoomCreatedV1.Publish(m.eventBus, event, nil); err != nil {
		slog.Warn("Failed to publish RoomCreated event", "room", room.Name, "error", err)
	}
}

// getRoom handles the rooms.get service request.
func (m *Module) getRoom(_ context.Context, req GetRoomRequest, _ *mono.Msg) (GetRoomResponse, error) {
	name := NormalizeRoomName(req.Name)
	if name == "" {
		return GetRoomResponse{}, errors.New("room name is required")
	}

	room, err := m.repo.FindByName(name)
	if err != nil {
		return GetRoomResponse{}, err
	}

	view := roomView(room)
	if count, err := m.repo.MemberCount(room.ID); err == nil {
		view.MemberCount = count
	}
	return GetRoomResponse{Room: view}, nil
}

// getRoomByInvite handles the rooms.get-by-invite service request. It
// lets a holder of an invite code preview the room before joining.
func (m *Module) getRoomByInvite(_ context.Context, req GetRoomByInviteRequest, _ *mono.Msg) (GetRoomResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.InviteCode))
	if !IsValidInviteCode(code) {
		return GetRoomResponse{}, ErrRoomNotFound
	}

	room, err := m.repo.FindByInviteCode(code)
	if err != nil {
		return GetRoomResponse{}, err
	}

	view := roomView(room)
	if count, err := m.repo.MemberCount(room.ID); err == nil {
		view.MemberCount = count
	}
	return GetRoomResponse{Room: view}, nil
}

// listRooms handles the rooms.list service request.
func (m *Module) listRooms(_ context.Context, req ListRoomsRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	rooms, err := m.repo.FindAll()
	if err != nil {
		return ListRoomsResponse{}, err
	}

	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		canJoin := !room.IsPrivate
		if room.IsPrivate && req.Username != "" {
			isMember, err := m.repo.IsMember(room.ID, req.Username)
			if err != nil {
				return ListRoomsResponse{}, err
			}
			canJoin = isMember
		}

		// Hide private rooms the caller cannot enter unless asked for.
		if room.IsPrivate && !canJoin && !req.IncludePrivate {
			continue
		}

		summaries = append(summaries, RoomSummary{
			Name:           room.Name,
			DisplayName:    room.DisplayName,
			Description:    room.Description,
			IsPrivate:      room.IsPrivate,
			MessageCount:   room.MessageCount,
			CanJoin:        canJoin,
			LastActivityAt: room.LastActivityAt,
		})
	}

	return ListRoomsResponse{Rooms: summaries, Total: len(summaries)}, nil
}

// authorizeJoin handles the rooms.authorize-join service request. Rooms
// with no metadata row behave as public: chat history alone never gates
// entry.
func (m *Module) authorizeJoin(_ context.Context, req AuthorizeJoinRequest, _ *mono.Msg) (AuthorizeJoinResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return AuthorizeJoinResponse{}, errors.New("username is required")
	}

	name := NormalizeRoomName(req.Room)
	if err := ValidateRoomName(name); err != nil {
		return AuthorizeJoinResponse{}, err
	}

	room, err := m.repo.FindByName(name)
	if errors.Is(err, ErrRoomNotFound) {
		return AuthorizeJoinResponse{CanJoin: true, Room: name}, nil
	}
	if err != nil {
		return AuthorizeJoinResponse{}, err
	}

	decision, err := m.guard.AuthorizeJoin(room, username, req.InviteCode, req.Password)
	if err != nil {
		return AuthorizeJoinResponse{}, err
	}

	if decision.CanJoin {
		if err := m.repo.TouchActivity(room.ID, time.Now()); err != nil {
			slog.Warn("Failed to update room activity", "room", room.Name, "error", err)
		}
	}

	return AuthorizeJoinResponse{
		CanJoin: decision.CanJoin,
		Reason:  decision.Reason,
		Room:    room.Name,
	}, nil
}

// roomView converts a Room entity to its external shape. The invite code
// is deliberately left out; create is the only path that reveals it.
func roomView(room *Room) RoomView {
	return RoomView{
		Name:           room.Name,
		DisplayName:    room.DisplayName,
		Description:    room.Description,
		IsPrivate:      room.IsPrivate,
		MessageCount:   room.MessageCount,
		CreatedBy:      room.CreatedBy,
		CreatedAt:      room.CreatedAt,
		LastActivityAt: room.LastActivityAt,
	}
}
