package broadcast

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/room-chat-server/events"
)

// Module owns the WebSocket hub and relays room-lifecycle events from the
// event bus to connected clients.
type Module struct {
	hub       *Hub
	cancelHub context.CancelFunc
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a broadcast module whose hub resolves room membership
// through roster.
func NewModule(roster RosterSource) *Module {
	return &Module{
		hub: NewHub(roster),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "broadcast"
}

// Start launches the hub's run loop.
func (m *Module) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	log.Println("[broadcast] Module started - WebSocket hub running")
	return nil
}

// Stop shuts down the hub and waits for it to drain.
func (m *Module) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait()
	}
	log.Printf("[broadcast] Module stopped - %d clients were connected", clientCount)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// RegisterEventConsumers subscribes to room-lifecycle events.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.RoomCreatedV1, m.handleRoomCreated, m,
	); err != nil {
		return fmt.Errorf("failed to register RoomCreated consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.PrivateRoomCreatedV1, m.handlePrivateRoomCreated, m,
	); err != nil {
		return fmt.Errorf("failed to register PrivateRoomCreated consumer: %w", err)
	}

	log.Println("[broadcast] Registered event consumers: RoomCreated, PrivateRoomCreated")
	return nil
}

func (m *Module) handleRoomCreated(_ context.Context, event events.RoomCreatedEvent, _ *mono.Msg) error {
	log.Printf("[broadcast] Announcing new room %s", event.Room)

	m.hub.ToAll("room_created", map[string]any{
		"room":        event.Room,
		"displayName": event.DisplayName,
		"createdBy":   event.CreatedBy,
		"timestamp":   event.Timestamp,
	})
	return nil
}

// handlePrivateRoomCreated notifies only the creator. The invite code must
// never be broadcast to other clients.
func (m *Module) handlePrivateRoomCreated(_ context.Context, event events.PrivateRoomCreatedEvent, _ *mono.Msg) error {
	log.Printf("[broadcast] Notifying %s of private room %s", event.CreatedBy, event.Room)

	m.hub.ToUser(event.CreatedBy, "private_room_created", map[string]any{
		"room":        event.Room,
		"displayName": event.DisplayName,
		"inviteCode":  event.InviteCode,
		"timestamp":   event.Timestamp,
	})
	return nil
}

// GetHub returns the hub for the WebSocket server module to use.
func (m *Module) GetHub() *Hub {
	return m.hub
}
