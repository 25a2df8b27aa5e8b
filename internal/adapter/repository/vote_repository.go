package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/KiiTuNp/SUPERvote/internal/domain/entities"
	"github.com/KiiTuNp/SUPERvote/internal/domain/repositories"
)

// voteRepository implements the VoteRepository interface
type voteRepository struct {
	db *gorm.DB
}

// NewVoteRepository creates a new vote repository
func NewVoteRepository(db *gorm.DB) repositories.VoteRepository {
	return &voteRepository{db: db}
}

// Create inserts a vote; idx_votes_poll_participant rejects a second one
func (r *voteRepository) Create(ctx context.Context, vote *entities.Vote) error {
	return translateError(r.db.WithContext(ctx).Create(vote).Error)
}

// CountByOption counts votes per option of a poll
func (r *voteRepository) CountByOption(ctx context.Context, pollID string) (map[string]int64, error) {
	var rows []struct {
		OptionID string
		Count    int64
	}
	err := r.db.WithContext(ctx).
		Model(&entities.Vote{}).
		Select("option_id, COUNT(*) AS count").
		Where("poll_id = ?", pollID).
		Group("option_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.OptionID] = row.Count
	}
	return counts, nil
}

// CountByPoll counts votes per poll of a room
func (r *voteRepository) CountByPoll(ctx context.Context, roomID string) (map[string]int64, error) {
	var rows []struct {
		PollID string
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&entities.Vote{}).
		Select("poll_id, COUNT(*) AS count").
		Where("room_id = ?", roomID).
		Group("poll_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.PollID] = row.Count
	}
	return counts, nil
}

// DeleteByRoomID deletes every vote of a room
func (r *voteRepository) DeleteByRoomID(ctx context.Context, roomID string) (int64, error) {
	result := r.db.WithContext(ctx).Where("room_id = ?", roomID).Delete(&entities.Vote{})
	return result.RowsAffected, result.Error
}
