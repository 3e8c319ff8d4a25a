package rooms

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides access to room and membership storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new room repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create saves a new room to the database.
func (r *Repository) Create(room *Room) error {
	if err := r.db.Create(room).Error; err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

// FindByName retrieves an active room by its normalized name.
func (r *Repository) FindByName(name string) (*Room, error) {
	var room Room
	err := r.db.First(&room, "name = ? AND is_active = ?", name, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return &room, nil
}

// FindByInviteCode retrieves an active private room by invite code.
func (r *Repository) FindByInviteCode(code string) (*Room, error) {
	var room Room
	err := r.db.First(&room, "invite_code = ? AND is_private = ? AND is_active = ?",
		code, true, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room by invite code: %w", err)
	}
	return &room, nil
}

// FindAll retrieves all active rooms, most active first.
func (r *Repository) FindAll() ([]*Room, error) {
	var rooms []*Room
	err := r.db.
		Where("is_active = ?", true).
		Order("message_count DESC, name ASC").
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find rooms: %w", err)
	}
	return rooms, nil
}

// AddMember records a membership, keeping the existing row (and role) if
// the user already belongs to the room.
func (r *Repository) AddMember(roomID, username, role string) error {
	member := Member{
		RoomID:   roomID,
		Username: username,
		Role:     role,
		JoinedAt: time.Now(),
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "username"}},
		DoNothing: true,
	}).Create(&member).Error
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// IsMember reports whether the username is a recorded member of the room.
func (r *Repository) IsMember(roomID, username string) (bool, error) {
	var count int64
	err := r.db.Model(&Member{}).
		Where("room_id = ? AND username = ?", roomID, username).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return count > 0, nil
}

// MemberCount returns the number of recorded members of the room.
func (r *Repository) MemberCount(roomID string) (int64, error) {
	var count int64
	err := r.db.Model(&Member{}).
		Where("room_id = ?", roomID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

// RecordMessage bumps the room's message counter and activity timestamp.
// Messages in rooms without a metadata row are ignored.
func (r *Repository) RecordMessage(name string, at time.Time) error {
	err := r.db.Model(&Room{}).
		Where("name = ?", name).
		Updates(map[string]any{
			"message_count":    gorm.Expr("message_count + 1"),
			"last_activity_at": at,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to record message activity: %w", err)
	}
	return nil
}

// TouchActivity refreshes the room's activity timestamp.
func (r *Repository) TouchActivity(roomID string, at time.Time) error {
	err := r.db.Model(&Room{}).
		Where("id = ?", roomID).
		Update("last_activity_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to update room activity: %w", err)
	}
	return nil
}
