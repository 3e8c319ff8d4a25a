package history

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// RoomStats aggregates message statistics for a room.
type RoomStats struct {
	TotalMessages int64      `json:"totalMessages"`
	UniqueUsers   []string   `json:"uniqueUsers"`
	FirstMessage  *time.Time `json:"firstMessage"`
	LastMessage   *time.Time `json:"lastMessage"`
}

// Repository provides access to message storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new message repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Append saves a new message to the database.
func (r *Repository) Append(msg *Message) error {
	if err := r.db.Create(msg).Error; err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

// List returns one page of a room's history, oldest first within the
// page, paginating from the newest message backwards. It also returns
// the room's total message count.
func (r *Repository) List(room string, page, limit int) ([]*Message, int64, error) {
	var total int64
	if err := r.db.Model(&Message{}).Where("room = ?", room).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	var messages []*Message
	err := r.db.
		Where("room = ?", room).
		Order("timestamp DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}

	// Newest-first pagination, oldest-first payload.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, total, nil
}

// Recent returns a room's messages since the cutoff, oldest first.
func (r *Repository) Recent(room string, since time.Time) ([]*Message, error) {
	var messages []*Message
	err := r.db.
		Where("room = ? AND timestamp >= ?", room, since).
		Order("timestamp ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent messages: %w", err)
	}
	return messages, nil
}

// FindByID retrieves a message by its ID.
func (r *Repository) FindByID(id string) (*Message, error) {
	var msg Message
	if err := r.db.First(&msg, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to find message: %w", err)
	}
	return &msg, nil
}

// Delete removes a message by ID.
func (r *Repository) Delete(id string) error {
	result := r.db.Delete(&Message{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// Stats computes a room's message statistics.
func (r *Repository) Stats(room string) (*RoomStats, error) {
	stats := &RoomStats{UniqueUsers: make([]string, 0)}

	err := r.db.Model(&Message{}).
		Where("room = ?", room).
		Count(&stats.TotalMessages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}
	if stats.TotalMessages == 0 {
		return stats, nil
	}

	err = r.db.Model(&Message{}).
		Where("room = ?", room).
		Distinct("username").
		Order("username ASC").
		Pluck("username", &stats.UniqueUsers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to collect users: %w", err)
	}

	var bounds struct {
		First *time.Time
		Last  *time.Time
	}
	err = r.db.Model(&Message{}).
		Select("MIN(timestamp) AS first, MAX(timestamp) AS last").
		Where("room = ?", room).
		Scan(&bounds).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute message bounds: %w", err)
	}
	stats.FirstMessage = bounds.First
	stats.LastMessage = bounds.Last

	return stats, nil
}
