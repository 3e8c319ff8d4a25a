package history

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&Message{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func seedMessages(t *testing.T, repo *Repository, room string, n int, start time.Time) []*Message {
	t.Helper()

	messages := make([]*Message, 0, n)
	for i := 0; i < n; i++ {
		msg := &Message{
			ID:          uuid.New().String(),
			Room:        room,
			Username:    fmt.Sprintf("user-%d", i%3),
			Text:        fmt.Sprintf("message %d", i),
			MessageType: TypeText,
			Timestamp:   start.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Append(msg); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		messages = append(messages, msg)
	}
	return messages
}

func TestRepository_ListPaginates(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	seedMessages(t, repo, "general", 25, start)

	// Page 1 holds the newest 10, delivered oldest first.
	page, total, err := repo.List("general", 1, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 25 {
		t.Errorf("expected total 25, got %d", total)
	}
	if len(page) != 10 {
		t.Fatalf("expected 10 messages, got %d", len(page))
	}
	if page[0].Text != "message 15" || page[9].Text != "message 24" {
		t.Errorf("expected page [message 15..message 24], got [%s..%s]",
			page[0].Text, page[9].Text)
	}

	// The last page holds the oldest remainder.
	page, _, err = repo.List("general", 3, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page) != 5 {
		t.Fatalf("expected 5 messages on last page, got %d", len(page))
	}
	if page[0].Text != "message 0" {
		t.Errorf("expected oldest message first, got %q", page[0].Text)
	}

	// Past the end is empty, not an error.
	page, _, err = repo.List("general", 4, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page) != 0 {
		t.Errorf("expected empty page past the end, got %d messages", len(page))
	}
}

func TestRepository_ListScopedToRoom(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	start := time.Now().Add(-time.Hour)
	seedMessages(t, repo, "general", 3, start)
	seedMessages(t, repo, "random", 2, start)

	_, total, err := repo.List("general", 1, 50)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 3 {
		t.Errorf("expected 3 messages in general, got %d", total)
	}
}

func TestRepository_RecentWindow(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	now := time.Now()

	old := &Message{
		ID: uuid.New().String(), Room: "general", Username: "alice",
		Text: "old", MessageType: TypeText, Timestamp: now.Add(-25 * time.Hour),
	}
	fresh := &Message{
		ID: uuid.New().String(), Room: "general", Username: "alice",
		Text: "fresh", MessageType: TypeText, Timestamp: now.Add(-time.Hour),
	}
	for _, msg := range []*Message{old, fresh} {
		if err := repo.Append(msg); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	recent, err := repo.Recent("general", now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 1 || recent[0].Text != "fresh" {
		t.Errorf("expected only the fresh message, got %d messages", len(recent))
	}
}

func TestRepository_Stats(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	seedMessages(t, repo, "general", 7, start)

	stats, err := repo.Stats("general")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalMessages != 7 {
		t.Errorf("expected 7 messages, got %d", stats.TotalMessages)
	}
	if len(stats.UniqueUsers) != 3 {
		t.Errorf("expected 3 unique users, got %v", stats.UniqueUsers)
	}
	if stats.FirstMessage == nil || stats.LastMessage == nil {
		t.Fatal("expected message bounds to be set")
	}
	if !stats.LastMessage.After(*stats.FirstMessage) {
		t.Errorf("expected last %v after first %v", stats.LastMessage, stats.FirstMessage)
	}
}

func TestRepository_StatsEmptyRoom(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	stats, err := repo.Stats("empty")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalMessages != 0 || len(stats.UniqueUsers) != 0 {
		t.Errorf("expected zero stats, got %+v", stats)
	}
	if stats.FirstMessage != nil || stats.LastMessage != nil {
		t.Error("expected nil message bounds for empty room")
	}
}

func TestRepository_Delete(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	messages := seedMessages(t, repo, "general", 2, time.Now())

	if err := repo.Delete(messages[0].ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.FindByID(messages[0].ID); !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("expected ErrMessageNotFound after delete, got %v", err)
	}
	if err := repo.Delete(messages[0].ID); !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("expected ErrMessageNotFound on double delete, got %v", err)
	}
}
