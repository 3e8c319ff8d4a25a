package rooms

import (
	"errors"
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

	if err := db.AutoMigrate(&Room{}, &Member{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func testRoom(name string) *Room {
	return &Room{
		ID:             uuid.New().String(),
		Name:           name,
		DisplayName:    name,
		CreatedBy:      "founder",
		MaxUsers:       100,
		LastActivityAt: time.Now(),
		IsActive:       true,
	}
}

func TestRepository_CreateAndFindByName(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	room := testRoom("general")
	if err := repo.Create(room); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, err := repo.FindByName("general")
	if err != nil {
		t.Fatalf("FindByName() error = %v", err)
	}
	if found.ID != room.ID {
		t.Errorf("expected room %s, got %s", room.ID, found.ID)
	}

	if _, err := repo.FindByName("missing"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestRepository_FindByNameSkipsInactive(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	room := testRoom("archived")
	room.IsActive = false
	if err := repo.Create(room); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := repo.FindByName("archived"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound for inactive room, got %v", err)
	}
}

func TestRepository_FindByInviteCode(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	room := testRoom("secret")
	room.IsPrivate = true
	room.InviteCode = "A1B2C3D4"
	if err := repo.Create(room); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, err := repo.FindByInviteCode("A1B2C3D4")
	if err != nil {
		t.Fatalf("FindByInviteCode() error = %v", err)
	}
	if found.Name != "secret" {
		t.Errorf("expected room 'secret', got %q", found.Name)
	}

	if _, err := repo.FindByInviteCode("FFFFFFFF"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestRepository_FindAllOrdersByActivity(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	quiet := testRoom("quiet")
	busy := testRoom("busy")
	busy.MessageCount = 10
	for _, room := range []*Room{quiet, busy} {
		if err := repo.Create(room); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	rooms, err := repo.FindAll()
	if err != nil {
		t.Fatalf("FindAll() error = %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}
	if rooms[0].Name != "busy" {
		t.Errorf("expected busiest room first, got %q", rooms[0].Name)
	}
}

func TestRepository_AddMemberIdempotent(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	room := testRoom("secret")
	if err := repo.Create(room); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.AddMember(room.ID, "alice", RoleAdmin); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	// Re-adding keeps the original row and role.
	if err := repo.AddMember(room.ID, "alice", RoleMember); err != nil {
		t.Fatalf("AddMember() second call error = %v", err)
	}

	count, err := repo.MemberCount(room.ID)
	if err != nil {
		t.Fatalf("MemberCount() error = %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 member, got %d", count)
	}

	isMember, err := repo.IsMember(room.ID, "alice")
	if err != nil {
		t.Fatalf("IsMember() error = %v", err)
	}
	if !isMember {
		t.Error("expected alice to be a member")
	}
}

func TestRepository_RecordMessage(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	room := testRoom("general")
	if err := repo.Create(room); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	at := time.Now().Add(time.Minute)
	if err := repo.RecordMessage("general", at); err != nil {
		t.Fatalf("RecordMessage() error = %v", err)
	}
	if err := repo.RecordMessage("general", at); err != nil {
		t.Fatalf("RecordMessage() error = %v", err)
	}

	found, err := repo.FindByName("general")
	if err != nil {
		t.Fatalf("FindByName() error = %v", err)
	}
	if found.MessageCount != 2 {
		t.Errorf("expected message count 2, got %d", found.MessageCount)
	}

	// A message for a room with no metadata row is not an error.
	if err := repo.RecordMessage("untracked", at); err != nil {
		t.Errorf("RecordMessage() for unknown room error = %v", err)
	}
}
