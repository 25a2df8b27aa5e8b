package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/KiiTuNp/SUPERvote/internal/domain/entities"
	"github.com/KiiTuNp/SUPERvote/internal/domain/repositories"
)

// roomRepository implements the RoomRepository interface
type roomRepository struct {
	db *gorm.DB
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db *gorm.DB) repositories.RoomRepository {
	return &roomRepository{db: db}
}

// Create creates a new room
func (r *roomRepository) Create(ctx context.Context, room *entities.Room) error {
	return translateError(r.db.WithContext(ctx).Create(room).Error)
}

// FindByID retrieves a room by its code
func (r *roomRepository) FindByID(ctx context.Context, id string) (*entities.Room, error) {
	var room entities.Room
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&room).Error

	if err != nil {
		return nil, translateError(err)
	}
	return &room, nil
}

// Touch bumps last activity without ever moving it backwards
func (r *roomRepository) Touch(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entities.Room{}).
		Where("id = ? AND last_activity < ?", id, at).
		Update("last_activity", at).Error
}

// FindExpired lists active rooms idle since before cutoff
func (r *roomRepository) FindExpired(ctx context.Context, cutoff time.Time) ([]*entities.Room, error) {
	var rooms []*entities.Room
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND last_activity < ?", true, cutoff).
		Order("last_activity ASC").
		Find(&rooms).Error
	return rooms, err
}

// DeleteIdle deletes a room still idle at cutoff; child rows cascade
func (r *roomRepository) DeleteIdle(ctx context.Context, id string, cutoff time.Time) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND last_activity < ?", id, cutoff).
		Delete(&entities.Room{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrStaleState
	}
	return nil
}

// Delete deletes a room
func (r *roomRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Room{}).Error
}
