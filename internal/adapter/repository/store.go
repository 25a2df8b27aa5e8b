package repository

import (
	"gorm.io/gorm"

	"github.com/KiiTuNp/SUPERvote/internal/domain/repositories"
)

type store struct {
	rooms        repositories.RoomRepository
	participants repositories.ParticipantRepository
	polls        repositories.PollRepository
	votes        repositories.VoteRepository
}

// NewStore creates the postgres backed store
func NewStore(db *gorm.DB) repositories.Store {
	return &store{
		rooms:        NewRoomRepository(db),
		participants: NewParticipantRepository(db),
		polls:        NewPollRepository(db),
		votes:        NewVoteRepository(db),
	}
}

func (s *store) Rooms() repositories.RoomRepository               { return s.rooms }
func (s *store) Participants() repositories.ParticipantRepository { return s.participants }
func (s *store) Polls() repositories.PollRepository               { return s.polls }
func (s *store) Votes() repositories.VoteRepository               { return s.votes }
