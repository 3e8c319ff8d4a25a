package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"

	"github.com/example/room-chat-server/domain/chat"
)

// Envelope is the wire format for every frame sent to a client.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// MessageWriter is the subset of a WebSocket connection the hub needs.
// *websocket.Conn satisfies it.
type MessageWriter interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents a connected WebSocket client.
type Client struct {
	ID   string
	Conn MessageWriter
}

// RosterSource resolves which sessions currently belong to a room or a
// user. Membership is looked up at publish time so the hub never holds
// its own copy of room state.
type RosterSource interface {
	SessionsIn(room string) []chat.Session
	SessionsOf(username string) []chat.Session
}

// outbound is a queued delivery. Exactly one of target, user, or room is
// meaningful; an empty room with no target or user addresses everyone.
type outbound struct {
	room    string
	exclude string
	target  string
	user    string
	env     Envelope
}

// Hub fans envelopes out to WebSocket clients. A single run loop drains
// the publish queue, so deliveries within a room keep their publish order.
type Hub struct {
	clients    map[string]*Client
	roster     RosterSource
	register   chan *Client
	unregister chan string
	publish    chan *outbound
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a hub that resolves room membership through roster.
func NewHub(roster RosterSource) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		roster:     roster,
		register:   make(chan *Client),
		unregister: make(chan string),
		publish:    make(chan *outbound, 256),
		done:       make(chan struct{}),
	}
}

// SetRoster replaces the roster source. Only valid before Run is called.
func (h *Hub) SetRoster(roster RosterSource) {
	h.roster = roster
}

// Run starts the hub's main loop. It accepts a context for graceful shutdown.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("[hub] Shutting down...")
			h.closeAllClients()
			close(h.done)
			return
		case client := <-h.register:
			h.handleRegister(client)
		case id := <-h.unregister:
			h.handleUnregister(id)
		case msg := <-h.publish:
			h.handlePublish(msg)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		_ = client.Conn.Close()
	}
	h.clients = make(map[string]*Client)
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	log.Printf("[hub] Client %s registered", client.ID)
}

func (h *Hub) handleUnregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[id]; ok {
		delete(h.clients, id)
		log.Printf("[hub] Client %s unregistered", id)
	}
}

func (h *Hub) handlePublish(msg *outbound) {
	data, err := json.Marshal(msg.env)
	if err != nil {
		log.Printf("[hub] Failed to marshal %s envelope: %v", msg.env.Event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	switch {
	case msg.target != "":
		if client, ok := h.clients[msg.target]; ok {
			h.sendToClient(client, data)
		}
	case msg.user != "":
		for _, session := range h.roster.SessionsOf(msg.user) {
			if client, ok := h.clients[session.ConnectionID]; ok {
				h.sendToClient(client, data)
			}
		}
	case msg.room != "":
		for _, session := range h.roster.SessionsIn(msg.room) {
			if session.ConnectionID == msg.exclude {
				continue
			}
			if client, ok := h.clients[session.ConnectionID]; ok {
				h.sendToClient(client, data)
			}
		}
	default:
		for _, client := range h.clients {
			h.sendToClient(client, data)
		}
	}
}

// sendToClient writes one frame. A failed write is logged and skipped so a
// dead connection never blocks delivery to the rest of the room.
func (h *Hub) sendToClient(client *Client, data []byte) {
	if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[hub] Failed to send to client %s: %v", client.ID, err)
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(id string) {
	h.unregister <- id
}

// ToRoom delivers an event to every session currently in the room.
func (h *Hub) ToRoom(room, event string, data any) {
	h.publish <- &outbound{room: room, env: Envelope{Event: event, Data: data}}
}

// ToRoomExcept delivers an event to the room, skipping one connection.
func (h *Hub) ToRoomExcept(room, excludeID, event string, data any) {
	h.publish <- &outbound{room: room, exclude: excludeID, env: Envelope{Event: event, Data: data}}
}

// ToConnection delivers an event to a single connection.
func (h *Hub) ToConnection(id, event string, data any) {
	h.publish <- &outbound{target: id, env: Envelope{Event: event, Data: data}}
}

// ToUser delivers an event to every connection a username holds.
func (h *Hub) ToUser(username, event string, data any) {
	h.publish <- &outbound{user: username, env: Envelope{Event: event, Data: data}}
}

// ToAll delivers an event to every connected client.
func (h *Hub) ToAll(event string, data any) {
	h.publish <- &outbound{env: Envelope{Event: event, Data: data}}
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
