package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/KiiTuNp/SUPERvote/internal/domain/entities"
	"github.com/KiiTuNp/SUPERvote/internal/domain/repositories"
)

// pollRepository implements the PollRepository interface
type pollRepository struct {
	db *gorm.DB
}

// NewPollRepository creates a new poll repository
func NewPollRepository(db *gorm.DB) repositories.PollRepository {
	return &pollRepository{db: db}
}

// Create creates a new poll
func (r *pollRepository) Create(ctx context.Context, poll *entities.Poll) error {
	return translateError(r.db.WithContext(ctx).Create(poll).Error)
}

// FindByID retrieves a poll by ID
func (r *pollRepository) FindByID(ctx context.Context, id string) (*entities.Poll, error) {
	var poll entities.Poll
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&poll).Error

	if err != nil {
		return nil, translateError(err)
	}
	return &poll, nil
}

// FindByRoomID retrieves polls of a room
func (r *pollRepository) FindByRoomID(ctx context.Context, roomID string) ([]*entities.Poll, error) {
	var polls []*entities.Poll
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at ASC").
		Find(&polls).Error
	return polls, err
}

// FindDue lists active polls whose timer ran out
func (r *pollRepository) FindDue(ctx context.Context, now time.Time) ([]*entities.Poll, error) {
	var polls []*entities.Poll
	err := r.db.WithContext(ctx).
		Where("status = ? AND ends_at IS NOT NULL AND ends_at <= ?", entities.PollStatusActive, now).
		Order("ends_at ASC").
		Find(&polls).Error
	return polls, err
}

// UpdateStatus writes the status fields guarded by the previous status
func (r *pollRepository) UpdateStatus(ctx context.Context, poll *entities.Poll, from entities.PollStatus) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Poll{}).
		Where("id = ? AND status = ?", poll.ID, from).
		Updates(map[string]interface{}{
			"status":      poll.Status,
			"started_at":  poll.StartedAt,
			"ends_at":     poll.EndsAt,
			"stopped_at":  poll.StoppedAt,
			"stop_reason": poll.StopReason,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrStaleState
	}
	return nil
}

// DeleteByRoomID deletes every poll of a room
func (r *pollRepository) DeleteByRoomID(ctx context.Context, roomID string) (int64, error) {
	result := r.db.WithContext(ctx).Where("room_id = ?", roomID).Delete(&entities.Poll{})
	return result.RowsAffected, result.Error
}
