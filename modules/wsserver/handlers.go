package wsserver

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/room-chat-server/modules/history"
	"github.com/example/room-chat-server/modules/rooms"
)

// Handlers contains the REST handlers.
type Handlers struct {
	rooms     rooms.RoomsPort
	history   history.HistoryPort
	startedAt time.Time
	logger    *slog.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(roomsPort rooms.RoomsPort, historyPort history.HistoryPort) *Handlers {
	return &Handlers{
		rooms:     roomsPort,
		history:   historyPort,
		startedAt: time.Now(),
		logger:    slog.Default(),
	}
}

// HealthCheck handles GET /api/health.
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// ListRooms handles GET /api/rooms.
func (h *Handlers) ListRooms(c *fiber.Ctx) error {
	resp, err := h.rooms.List(c.UserContext(), rooms.ListRoomsRequest{
		Username:       c.Query("username"),
		IncludePrivate: c.QueryBool("includePrivate", false),
	})
	if err != nil {
		h.logger.Error("Failed to list rooms", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch rooms")
	}

	return ok(c, fiber.Map{
		"rooms":      resp.Rooms,
		"totalRooms": resp.Total,
	})
}

// CreateRoomRequest is the JSON body for POST /api/rooms.
type CreateRoomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPrivate   bool   `json:"isPrivate,omitempty"`
	Password    string `json:"password,omitempty"`
	CreatedBy   string `json:"createdBy"`
}

// CreateRoom handles POST /api/rooms.
func (h *Handlers) CreateRoom(c *fiber.Ctx) error {
	var req CreateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" {
		return fail(c, fiber.StatusBadRequest, "Room name is required")
	}
	if strings.TrimSpace(req.CreatedBy) == "" {
		return fail(c, fiber.StatusBadRequest, "Creator username is required")
	}

	resp, err := h.rooms.Create(c.UserContext(), rooms.CreateRoomRequest{
		Name:        req.Name,
		Description: req.Description,
		IsPrivate:   req.IsPrivate,
		Password:    req.Password,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		return h.handleServiceError(c, err, "Failed to create room")
	}

	h.seedWelcomeMessage(c, resp.Room)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"room": resp.Room},
	})
}

// seedWelcomeMessage writes the room's initial system message. Failure
// here never fails the creation.
func (h *Handlers) seedWelcomeMessage(c *fiber.Ctx, room rooms.RoomView) {
	welcome := "Welcome to " + room.DisplayName + "!"
	if room.IsPrivate {
		welcome += " This is a private room."
	}
	if room.Description != "" {
		welcome += " " + room.Description
	} else {
		welcome += " Start chatting!"
	}

	_, err := h.history.Append(c.UserContext(), history.AppendMessageRequest{
		Room:        room.Name,
		Username:    "System",
		Text:        welcome,
		MessageType: history.TypeSystem,
	})
	if err != nil {
		h.logger.Warn("Failed to seed welcome message", "room", room.Name, "error", err)
	}
}

// JoinRoomRequest is the JSON body for POST /api/rooms/join.
type JoinRoomRequest struct {
	RoomName   string `json:"roomName"`
	Username   string `json:"username"`
	InviteCode string `json:"inviteCode,omitempty"`
	Password   string `json:"password,omitempty"`
}

// JoinRoom handles POST /api/rooms/join.
func (h *Handlers) JoinRoom(c *fiber.Ctx) error {
	var req JoinRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.RoomName == "" || req.Username == "" {
		return fail(c, fiber.StatusBadRequest, "Room name and username are required")
	}

	resp, err := h.rooms.AuthorizeJoin(c.UserContext(), rooms.AuthorizeJoinRequest{
		Room:       req.RoomName,
		Username:   req.Username,
		InviteCode: req.InviteCode,
		Password:   req.Password,
	})
	if err != nil {
		return h.handleServiceError(c, err, "Failed to join room")
	}
	if !resp.CanJoin {
		return fail(c, fiber.StatusForbidden, resp.Reason)
	}

	return ok(c, fiber.Map{
		"room":    resp.Room,
		"message": "Successfully joined " + resp.Room,
	})
}

// RoomByInvite handles GET /api/rooms/invite/:inviteCode.
func (h *Handlers) RoomByInvite(c *fiber.Ctx) error {
	resp, err := h.rooms.GetByInvite(c.UserContext(), c.Params("inviteCode"))
	if err != nil {
		return h.handleServiceError(c, err, "Failed to fetch room information")
	}
	return ok(c, fiber.Map{"room": resp.Room})
}

// ListMessages handles GET /api/messages.
func (h *Handlers) ListMessages(c *fiber.Ctx) error {
	resp, err := h.history.List(c.UserContext(), history.ListMessagesRequest{
		Room:  c.Query("room", "general"),
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", 50),
	})
	if err != nil {
		h.logger.Error("Failed to list messages", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch messages")
	}

	return ok(c, fiber.Map{
		"messages":   resp.Messages,
		"room":       resp.Room,
		"pagination": resp.Pagination,
	})
}

// RecentMessages handles GET /api/messages/recent.
func (h *Handlers) RecentMessages(c *fiber.Ctx) error {
	resp, err := h.history.Recent(c.UserContext(), c.Query("room", "general"))
	if err != nil {
		h.logger.Error("Failed to list recent messages", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch recent messages")
	}

	return ok(c, fiber.Map{
		"messages": resp.Messages,
		"count":    resp.Count,
	})
}

// MessageStats handles GET /api/messages/stats.
func (h *Handlers) MessageStats(c *fiber.Ctx) error {
	resp, err := h.history.Stats(c.UserContext(), c.Query("room", "general"))
	if err != nil {
		h.logger.Error("Failed to compute message stats", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch statistics")
	}
	return ok(c, resp)
}

// DeleteMessage handles DELETE /api/messages/:id.
func (h *Handlers) DeleteMessage(c *fiber.Ctx) error {
	resp, err := h.history.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.handleServiceError(c, err, "Failed to delete message")
	}
	if !resp.Deleted {
		return fail(c, fiber.StatusNotFound, "Message not found")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Message deleted successfully",
	})
}

// handleServiceError maps collaborator errors to HTTP statuses. Service
// errors cross the container as text, so the mapping is by message.
func (h *Handlers) handleServiceError(c *fiber.Ctx, err error, fallback string) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"):
		return fail(c, fiber.StatusNotFound, "Not found")
	case strings.Contains(msg, "already exists"):
		return fail(c, fiber.StatusConflict, "Room already exists")
	case strings.Contains(msg, "can only contain"),
		strings.Contains(msg, "is required"),
		strings.Contains(msg, "cannot exceed"):
		return fail(c, fiber.StatusBadRequest, msg)
	default:
		h.logger.Error("Service call failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, fallback)
	}
}

func ok(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}
