package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/KiiTuNp/SUPERvote/internal/domain/entities"
	"github.com/KiiTuNp/SUPERvote/internal/domain/repositories"
)

// participantRepository implements the ParticipantRepository interface
type participantRepository struct {
	db *gorm.DB
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(db *gorm.DB) repositories.ParticipantRepository {
	return &participantRepository{db: db}
}

// Create creates a new participant record
func (r *participantRepository) Create(ctx context.Context, participant *entities.Participant) error {
	return translateError(r.db.WithContext(ctx).Create(participant).Error)
}

// FindByID retrieves a participant by ID
func (r *participantRepository) FindByID(ctx context.Context, id string) (*entities.Participant, error) {
	var participant entities.Participant
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&participant).Error

	if err != nil {
		return nil, translateError(err)
	}
	return &participant, nil
}

// FindByToken retrieves a participant by its secret token
func (r *participantRepository) FindByToken(ctx context.Context, token string) (*entities.Participant, error) {
	var participant entities.Participant
	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		First(&participant).Error

	if err != nil {
		return nil, translateError(err)
	}
	return &participant, nil
}

// FindByRoomID retrieves participants in a room
func (r *participantRepository) FindByRoomID(ctx context.Context, roomID string, status *entities.ApprovalStatus) ([]*entities.Participant, error) {
	var participants []*entities.Participant
	query := r.db.WithContext(ctx).Where("room_id = ?", roomID)
	if status != nil {
		query = query.Where("approval_status = ?", *status)
	}
	err := query.Order("joined_at ASC").Find(&participants).Error
	return participants, err
}

// CountByStatus counts participants per approval status
func (r *participantRepository) CountByStatus(ctx context.Context, roomID string) (map[entities.ApprovalStatus]int64, error) {
	var rows []struct {
		ApprovalStatus entities.ApprovalStatus
		Count          int64
	}
	err := r.db.WithContext(ctx).
		Model(&entities.Participant{}).
		Select("approval_status, COUNT(*) AS count").
		Where("room_id = ?", roomID).
		Group("approval_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[entities.ApprovalStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.ApprovalStatus] = row.Count
	}
	return counts, nil
}

// UpdateApproval updates the approval status if it is still from
func (r *participantRepository) UpdateApproval(ctx context.Context, id string, from, to entities.ApprovalStatus) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Participant{}).
		Where("id = ? AND approval_status = ?", id, from).
		Update("approval_status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrStaleState
	}
	return nil
}

// DeleteByRoomID deletes every participant of a room
func (r *participantRepository) DeleteByRoomID(ctx context.Context, roomID string) (int64, error) {
	result := r.db.WithContext(ctx).Where("room_id = ?", roomID).Delete(&entities.Participant{})
	return result.RowsAffected, result.Error
}
