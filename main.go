package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/room-chat-server/modules/broadcast"
	"github.com/example/room-chat-server/modules/history"
	"github.com/example/room-chat-server/modules/registry"
	"github.com/example/room-chat-server/modules/rooms"
	"github.com/example/room-chat-server/modules/wsserver"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Room Chat Server - Fiber + WebSocket ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	registryModule := registry.NewModule()
	roomsModule := rooms.NewModule()
	historyModule := history.NewModule()
	broadcastModule := broadcast.NewModule(registryModule.Sessions())
	serverModule := wsserver.NewModule(
		registryModule.Sessions(),
		registryModule.Typing(),
		broadcastModule.GetHub(),
	)

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - registry: In-memory session and typing state
	// - rooms: Room metadata, membership, access control (ServiceProviderModule)
	// - history: Message persistence with Redis caching (ServiceProviderModule)
	// - broadcast: Fan-out hub (EventConsumerModule for room creation events)
	// - ws-server: Fiber HTTP/WebSocket server (depends on rooms, history)
	app.Register(registryModule)
	app.Register(roomsModule)
	app.Register(historyModule)
	app.Register(broadcastModule)
	app.Register(serverModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /api/health                   - Health check")
	log.Println("  GET    /api/rooms                    - List rooms")
	log.Println("  POST   /api/rooms                    - Create a room")
	log.Println("  POST   /api/rooms/join               - Check room access")
	log.Println("  GET    /api/rooms/invite/:inviteCode - Look up a room by invite code")
	log.Println("  GET    /api/messages                 - Paginated message history")
	log.Println("  GET    /api/messages/recent          - Messages from the last 24h")
	log.Println("  GET    /api/messages/stats           - Per-room message statistics")
	log.Println("  DELETE /api/messages/:id             - Delete a message")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Println("  Events: user_join, send_message, typing_start, typing_stop")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
