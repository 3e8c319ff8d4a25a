package rooms

import (
	"testing"

	"github.com/google/uuid"
)

func TestNormalizeRoomName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already normalized", "general", "general"},
		{"uppercase", "General", "general"},
		{"surrounding whitespace", "  dev-talk  ", "dev-talk"},
		{"internal whitespace", "my cool room", "my-cool-room"},
		{"collapsed whitespace", "my   cool\troom", "my-cool-room"},
		{"mixed", "  Team  Updates ", "team-updates"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeRoomName(tt.input); got != tt.want {
				t.Errorf("NormalizeRoomName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateRoomName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "general", false},
		{"with digits and hyphens", "room-42", false},
		{"empty", "", true},
		{"uppercase", "General", true},
		{"underscore", "my_room", true},
		{"too long", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", true},
		{"max length", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRoomName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRoomName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func newTestGuard(t *testing.T) (*Guard, *Repository) {
	t.Helper()
	repo := NewRepository(setupTestDB(t))
	return NewGuard(repo, NewPasswordHasher()), repo
}

func privateRoom(t *testing.T, repo *Repository, password string) *Room {
	t.Helper()
	room := &Room{
		ID:          uuid.New().String(),
		Name:        "secret-club",
		DisplayName: "Secret Club",
		IsPrivate:   true,
		InviteCode:  "A1B2C3D4",
		CreatedBy:   "founder",
		MaxUsers:    100,
		IsActive:    true,
	}
	if password != "" {
		hash, err := NewPasswordHasher().Hash(password)
		if err != nil {
			t.Fatalf("failed to hash password: %v", err)
		}
		room.PasswordHash = hash
	}
	if err := repo.Create(room); err != nil {
		t.Fatalf("failed to create room: %v", err)
	}
	return room
}

func TestGuard_PublicRoomAlwaysAllows(t *testing.T) {
	guard, repo := newTestGuard(t)
	room := &Room{
		ID: uuid.New().String(), Name: "general", DisplayName: "General",
		CreatedBy: "founder", MaxUsers: 100, IsActive: true,
	}
	if err := repo.Create(room); err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	decision, err := guard.AuthorizeJoin(room, "alice", "", "")
	if err != nil {
		t.Fatalf("AuthorizeJoin() error = %v", err)
	}
	if !decision.CanJoin {
		t.Error("expected public room to allow join")
	}
}

func TestGuard_RecordedMemberAllows(t *testing.T) {
	guard, repo := newTestGuard(t)
	room := privateRoom(t, repo, "")
	if err := repo.AddMember(room.ID, "alice", RoleMember); err != nil {
		t.Fatalf("failed to add member: %v", err)
	}

	decision, err := guard.AuthorizeJoin(room, "alice", "", "")
	if err != nil {
		t.Fatalf("AuthorizeJoin() error = %v", err)
	}
	if !decision.CanJoin {
		t.Errorf("expected member to be allowed, got reason %q", decision.Reason)
	}
}

func TestGuard_InviteCodePromotesMembership(t *testing.T) {
	guard, repo := newTestGuard(t)
	room := privateRoom(t, repo, "")

	decision, err := guard.AuthorizeJoin(room, "alice", "a1b2c3d4", "")
	if err != nil {
		t.Fatalf("AuthorizeJoin() error = %v", err)
	}
	if !decision.CanJoin {
		t.Fatalf("expected invite code to be accepted, got reason %q", decision.Reason)
	}

	// Promotion persists: a second join needs no credential.
	decision, err = guard.AuthorizeJoin(room, "alice", "", "")
	if err != nil {
		t.Fatalf("AuthorizeJoin() error = %v", err)
	}
	if !decision.CanJoin {
		t.Error("expected promoted member to rejoin without credentials")
	}
}

func TestGuard_PasswordPromotesMembership(t *testing.T) {
	guard, repo := newTestGuard(t)
	room := privateRoom(t, repo, "hunter2")

	decision, err := guard.AuthorizeJoin(room, "bob", "", "hunter2")
	if err != nil {
		t.Fatalf("AuthorizeJoin() error = %v", err)
	}
	if !decision.CanJoin {
		t.Fatalf("expected password to be accepted, got reason %q", decision.Reason)
	}

	isMember, err := repo.IsMember(room.ID, "bob")
	if err != nil {
		t.Fatalf("IsMember() error = %v", err)
	}
	if !isMember {
		t.Error("expected password join to record membership")
	}
}

func TestGuard_DeniesWithoutCredentials(t *testing.T) {
	guard, repo := newTestGuard(t)
	room := privateRoom(t, repo, "hunter2")

	tests := []struct {
		name       string
		inviteCode string
		password   string
	}{
		{"nothing supplied", "", ""},
		{"wrong invite code", "FFFFFFFF", ""},
		{"wrong password", "", "letmein"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := guard.AuthorizeJoin(room, "mallory", tt.inviteCode, tt.password)
			if err != nil {
				t.Fatalf("AuthorizeJoin() error = %v", err)
			}
			if decision.CanJoin {
				t.Fatal("expected join to be denied")
			}
			if decision.Reason != "Private room - invite code or password required" {
				t.Errorf("unexpected deny reason %q", decision.Reason)
			}

			// A failed attempt must not leave a membership behind.
			isMember, err := repo.IsMember(room.ID, "mallory")
			if err != nil {
				t.Fatalf("IsMember() error = %v", err)
			}
			if isMember {
				t.Error("denied join must not promote membership")
			}
		})
	}
}
