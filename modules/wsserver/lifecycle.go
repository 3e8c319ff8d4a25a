package wsserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/example/room-chat-server/domain/chat"
	"github.com/example/room-chat-server/modules/broadcast"
	"github.com/example/room-chat-server/modules/history"
	"github.com/example/room-chat-server/modules/registry"
	"github.com/example/room-chat-server/modules/rooms"
)

// persistTimeout bounds the history call made from send_message.
const persistTimeout = 5 * time.Second

// Connection states. Closed is terminal.
type connState int

const (
	stateUnjoined connState = iota
	stateJoined
	stateClosed
)

// Broadcaster is the hub surface the lifecycle controller uses.
// *broadcast.Hub satisfies it.
type Broadcaster interface {
	Register(client *broadcast.Client)
	Unregister(id string)
	ToRoom(room, event string, data any)
	ToRoomExcept(room, excludeID, event string, data any)
	ToConnection(id, event string, data any)
}

// wsConn is the connection surface the lifecycle controller needs.
// *websocket.Conn satisfies it.
type wsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// inboundEnvelope is the wire format for frames received from a client.
type inboundEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type joinPayload struct {
	Username   string `json:"username"`
	Room       string `json:"room,omitempty"`
	InviteCode string `json:"inviteCode,omitempty"`
	Password   string `json:"password,omitempty"`
}

type messagePayload struct {
	Text string `json:"text"`
	Room string `json:"room,omitempty"`
}

type errorData struct {
	Event     string    `json:"event"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type presenceData struct {
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Room      string    `json:"room"`
}

type typingData struct {
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

// Lifecycle drives the per-connection state machine over the registry,
// typing aggregator, broadcast hub, and collaborator services.
type Lifecycle struct {
	registry *registry.SessionRegistry
	typing   *registry.TypingAggregator
	hub      Broadcaster
	rooms    rooms.RoomsPort
	history  history.HistoryPort
	logger   *slog.Logger
}

// NewLifecycle creates a lifecycle controller.
func NewLifecycle(
	sessions *registry.SessionRegistry,
	typing *registry.TypingAggregator,
	hub Broadcaster,
	roomsPort rooms.RoomsPort,
	historyPort history.HistoryPort,
) *Lifecycle {
	return &Lifecycle{
		registry: sessions,
		typing:   typing,
		hub:      hub,
		rooms:    roomsPort,
		history:  historyPort,
		logger:   slog.Default(),
	}
}

// HandleWebSocket serves one WebSocket connection. Fiber runs it on a
// dedicated goroutine per connection.
func (l *Lifecycle) HandleWebSocket(c *websocket.Conn) {
	l.serve(c)
}

func (l *Lifecycle) serve(conn wsConn) {
	connID := uuid.New().String()
	state := stateUnjoined

	l.hub.Register(&broadcast.Client{ID: connID, Conn: conn})
	l.logger.Info("WebSocket connected", "connectionId", connID)

	defer l.disconnect(conn, connID, &state)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				l.logger.Error("WebSocket read error", "connectionId", connID, "error", err)
			}
			return
		}
		l.dispatch(connID, &state, raw)
	}
}

// dispatch routes one inbound frame. Faults in a handler are contained
// here: they are logged, reported to the offending connection, and never
// reach other connections.
func (l *Lifecycle) dispatch(connID string, state *connState, raw []byte) {
	var env inboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		l.sendError(connID, "message", "Invalid message format")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Recovered from event handler panic",
				"connectionId", connID, "event", env.Event, "panic", r)
			l.sendError(connID, env.Event, "An error occurred")
		}
	}()

	switch env.Event {
	case "user_join":
		l.handleJoin(connID, state, env.Data)
	case "send_message":
		l.handleSendMessage(connID, state, env.Data)
	case "typing_start":
		l.handleTyping(connID, state, true)
	case "typing_stop":
		l.handleTyping(connID, state, false)
	default:
		l.sendError(connID, env.Event, "Unknown event: "+env.Event)
	}
}

func (l *Lifecycle) handleJoin(connID string, state *connState, data json.RawMessage) {
	var req joinPayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			l.sendError(connID, "user_join", "Invalid join payload")
			return
		}
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || len(username) > 50 {
		l.sendError(connID, "user_join", "Username must be 1-50 characters")
		return
	}

	roomName := strings.TrimSpace(req.Room)
	if roomName == "" {
		roomName = "general"
	}
	if len(roomName) > 50 {
		l.sendError(connID, "user_join", "Room name must be less than 50 characters")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	decision, err := l.rooms.AuthorizeJoin(ctx, rooms.AuthorizeJoinRequest{
		Room:       roomName,
		Username:   username,
		InviteCode: req.InviteCode,
		Password:   req.Password,
	})
	if err != nil {
		l.logger.Error("Join authorization failed", "connectionId", connID, "room", roomName, "error", err)
		l.sendError(connID, "user_join", "Failed to join room")
		return
	}
	if !decision.CanJoin {
		l.sendError(connID, "user_join", decision.Reason)
		return
	}
	room := decision.Room

	session, previous := l.registry.Register(connID, username, room)

	// A re-join moves the connection between rooms; the old room sees
	// the departure before the new room sees the arrival.
	if previous != nil && previous.Room != room {
		l.typing.Clear(connID)
		l.announceLeft(*previous)
	}

	l.logger.Info("User joined room", "connectionId", connID, "username", username, "room", room)

	l.hub.ToRoomExcept(room, connID, "user_joined", presenceData{
		Username:  username,
		Message:   username + " joined the chat",
		Timestamp: session.JoinedAt,
		Room:      room,
	})
	l.hub.ToConnection(connID, "online_users", l.registry.RosterOf(room))
	l.hub.ToRoom(room, "users_update", l.registry.RosterOf(room))

	*state = stateJoined
}

func (l *Lifecycle) handleSendMessage(connID string, state *connState, data json.RawMessage) {
	session, ok := l.registry.Get(connID)
	if *state != stateJoined || !ok {
		l.sendError(connID, "send_message", "User not found. Please rejoin the chat.")
		return
	}

	var req messagePayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			l.sendError(connID, "send_message", "Invalid message payload")
			return
		}
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		l.sendError(connID, "send_message", "Message cannot be empty")
		return
	}
	if len(text) > 1000 {
		l.sendError(connID, "send_message", "Message too long (max 1000 characters)")
		return
	}

	room := req.Room
	if room == "" {
		room = session.Room
	}

	// The message is only broadcast once it has a durable id.
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	resp, err := l.history.Append(ctx, history.AppendMessageRequest{
		Room:         room,
		Username:     session.Username,
		Text:         text,
		ConnectionID: connID,
	})
	if err != nil {
		l.logger.Error("Failed to persist message", "connectionId", connID, "room", room, "error", err)
		l.sendError(connID, "send_message", "Failed to save message")
		return
	}

	l.hub.ToRoom(room, "receive_message", resp.Message)
}

func (l *Lifecycle) handleTyping(connID string, state *connState, isTyping bool) {
	session, ok := l.registry.Get(connID)
	if *state != stateJoined || !ok {
		return
	}

	l.typing.SetTyping(session, isTyping)
	l.hub.ToRoomExcept(session.Room, connID, "user_typing", typingData{
		Username: session.Username,
		IsTyping: isTyping,
	})
}

// disconnect closes the connection's session. It is idempotent: a second
// disconnect for the same connection publishes nothing.
func (l *Lifecycle) disconnect(conn wsConn, connID string, state *connState) {
	if *state == stateClosed {
		return
	}
	*state = stateClosed

	l.typing.Clear(connID)
	session, existed := l.registry.Unregister(connID)
	l.hub.Unregister(connID)

	if existed {
		l.logger.Info("User disconnected",
			"connectionId", connID, "username", session.Username, "room", session.Room)
		l.announceLeft(session)
	} else {
		l.logger.Info("WebSocket disconnected", "connectionId", connID)
	}

	_ = conn.Close()
}

// announceLeft tells a room that a session is gone. The session is
// already unregistered, so the roster it publishes excludes the leaver.
func (l *Lifecycle) announceLeft(session chat.Session) {
	l.hub.ToRoom(session.Room, "user_left", presenceData{
		Username:  session.Username,
		Message:   session.Username + " left the chat",
		Timestamp: time.Now(),
		Room:      session.Room,
	})
	l.hub.ToRoom(session.Room, "users_update", l.registry.RosterOf(session.Room))
}

func (l *Lifecycle) sendError(connID, event, message string) {
	l.hub.ToConnection(connID, "error", errorData{
		Event:     event,
		Message:   message,
		Timestamp: time.Now(),
	})
}
