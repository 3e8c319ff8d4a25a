package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/room-chat-server/events"
)

// Module persists chat messages via GORM + SQLite, with a Redis
// cache-aside layer over history reads.
type Module struct {
	db        *gorm.DB
	repo      *Repository
	cache     *Cache
	eventBus  mono.EventBus
	dbPath    string
	redisAddr string
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new history module.
func NewModule() *Module {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "chat.db"
	}
	return &Module{
		dbPath:    dbPath,
		redisAddr: os.Getenv("REDIS_ADDR"),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "history"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageSentV1.ToBase(),
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "append", json.Unmarshal, json.Marshal, m.appendMessage,
	); err != nil {
		return fmt.Errorf("failed to register append service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list", json.Unmarshal, json.Marshal, m.listMessages,
	); err != nil {
		return fmt.Errorf("failed to register list service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "recent", json.Unmarshal, json.Marshal, m.recentMessages,
	); err != nil {
		return fmt.Errorf("failed to register recent service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "stats", json.Unmarshal, json.Marshal, m.roomStats,
	); err != nil {
		return fmt.Errorf("failed to register stats service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete", json.Unmarshal, json.Marshal, m.deleteMessage,
	); err != nil {
		return fmt.Errorf("failed to register delete service: %w", err)
	}

	log.Printf("[history] Registered services: services.history.{append,list,recent,stats,delete}")
	return nil
}

// Start opens the database, runs migrations, and connects the cache.
// A missing or unreachable Redis leaves the module serving straight
// from the database.
func (m *Module) Start(_ context.Context) error {
	log.Printf("[history] Connecting to SQLite database: %s", m.dbPath)

	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "true" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	m.db = db

	if err := m.db.AutoMigrate(&Message{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.repo = NewRepository(m.db)
	m.connectCache()

	log.Println("[history] Module started successfully")
	return nil
}

func (m *Module) connectCache() {
	if m.redisAddr == "" {
		log.Println("[history] REDIS_ADDR not set, cache disabled")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:         m.redisAddr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[history] Redis unavailable at %s, cache disabled: %v", m.redisAddr, err)
		_ = client.Close()
		return
	}

	m.cache = NewCache(client, "history:", DefaultCacheTTL)
	log.Printf("[history] Connected to Redis at %s", m.redisAddr)
}

// Stop gracefully closes the database and cache connections.
func (m *Module) Stop(_ context.Context) error {
	if err := m.cache.Close(); err != nil {
		log.Printf("[history] Error closing Redis connection: %v", err)
	}

	if m.db == nil {
		return nil
	}

	log.Println("[history] Closing database connection...")

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	log.Println("[history] Database connection closed")
	return nil
}

// Health performs a health check on the history module.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	details := map[string]any{
		"driver":        "sqlite",
		"path":          m.dbPath,
		"cache_enabled": m.cache != nil,
	}
	if m.cache != nil {
		details["cache"] = m.cache.Stats()
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: details,
	}
}
