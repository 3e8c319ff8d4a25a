package wsserver

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/room-chat-server/middleware/ratelimit"
	"github.com/example/room-chat-server/modules/history"
	"github.com/example/room-chat-server/modules/registry"
	"github.com/example/room-chat-server/modules/rooms"
)

// Module runs the Fiber HTTP and WebSocket server.
type Module struct {
	app       *fiber.App
	handlers  *Handlers
	lifecycle *Lifecycle
	addr      string

	sessions *registry.SessionRegistry
	typing   *registry.TypingAggregator
	hub      Broadcaster

	roomsPort   rooms.RoomsPort
	historyPort history.HistoryPort
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the server module. The hub and session state are
// injected directly because they are in-process collaborators, not
// container services.
func NewModule(sessions *registry.SessionRegistry, typing *registry.TypingAggregator, hub Broadcaster) *Module {
	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}
	return &Module{
		addr:     ":" + port,
		sessions: sessions,
		typing:   typing,
		hub:      hub,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "ws-server"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"rooms", "history"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "rooms":
		m.roomsPort = rooms.NewAdapter(container)
	case "history":
		m.historyPort = history.NewAdapter(container)
	}
}

// Start initializes and starts the HTTP and WebSocket server.
func (m *Module) Start(_ context.Context) error {
	if m.roomsPort == nil || m.historyPort == nil {
		return fmt.Errorf("rooms and history dependencies not set")
	}

	m.app = fiber.New(fiber.Config{
		AppName:               "room-chat-server",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
	}))

	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:8080"
	}
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	m.handlers = NewHandlers(m.roomsPort, m.historyPort)
	m.lifecycle = NewLifecycle(m.sessions, m.typing, m.hub, m.roomsPort, m.historyPort)

	m.registerRoutes()

	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	log.Printf("[ws-server] Listening on %s", m.addr)
	return nil
}

// Stop gracefully shuts down the server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app != nil {
		if err := m.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}
	log.Println("[ws-server] Server stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.app == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "server not started",
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"addr":     m.addr,
			"sessions": m.sessions.Count(),
		},
	}
}

// registerRoutes sets up all HTTP and WebSocket routes.
func (m *Module) registerRoutes() {
	// WebSocket upgrade middleware
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(m.lifecycle.HandleWebSocket))

	// REST API, rate limited per client IP.
	api := m.app.Group("/api", ratelimit.New(rateLimitOptions()...))
	api.Get("/health", m.handlers.HealthCheck)

	api.Get("/rooms", m.handlers.ListRooms)
	api.Post("/rooms", m.handlers.CreateRoom)
	api.Post("/rooms/join", m.handlers.JoinRoom)
	api.Get("/rooms/invite/:inviteCode", m.handlers.RoomByInvite)

	api.Get("/messages", m.handlers.ListMessages)
	api.Get("/messages/recent", m.handlers.RecentMessages)
	api.Get("/messages/stats", m.handlers.MessageStats)
	api.Delete("/messages/:id", m.handlers.DeleteMessage)
}

func rateLimitOptions() []ratelimit.Option {
	var opts []ratelimit.Option
	if v := os.Getenv("RATE_LIMIT_MAX"); v != "" {
		if max, err := strconv.Atoi(v); err == nil {
			opts = append(opts, ratelimit.WithMaxRequests(max))
		}
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW"); v != "" {
		if window, err := time.ParseDuration(v); err == nil {
			opts = append(opts, ratelimit.WithWindow(window))
		}
	}
	return opts
}

// errorHandler handles errors globally.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}
