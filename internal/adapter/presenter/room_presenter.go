package presenter

import (
	"github.com/KiiTuNp/SUPERvote/internal/adapter/dto/room"
	"github.com/KiiTuNp/SUPERvote/internal/domain/entities"
	roomUsecase "github.com/KiiTuNp/SUPERvote/internal/usecase/room"
)

// ToRoomResponse converts a Room entity to RoomResponse DTO
func ToRoomResponse(r *entities.Room) *room.RoomResponse {
	if r == nil {
		return nil
	}

	return &room.RoomResponse{
		ID:            r.ID,
		OrganizerName: r.OrganizerName,
		IsActive:      r.IsActive,
		CreatedAt:     r.CreatedAt,
		LastActivity:  r.LastActivity,
	}
}

// ToRoomStatusResponse converts the room status read model
func ToRoomStatusResponse(s *roomUsecase.RoomStatus) *room.RoomStatusResponse {
	if s == nil {
		return nil
	}

	return &room.RoomStatusResponse{
		Room: ToRoomResponse(s.Room),
		Participants: room.ParticipantCounts{
			Pending:  s.Participants.Pending,
			Approved: s.Participants.Approved,
			Denied:   s.Participants.Denied,
			Total:    s.Participants.Total,
		},
		Polls: room.PollCounts{
			Created:   s.Polls.Created,
			Active:    s.Polls.Active,
			Completed: s.Polls.Completed,
			Cancelled: s.Polls.Cancelled,
			Total:     s.Polls.Total,
		},
		ConnectedClients: s.ConnectedClients,
	}
}

// ToParticipantResponse converts a Participant entity. The token is left out.
func ToParticipantResponse(p *entities.Participant) *room.ParticipantResponse {
	if p == nil {
		return nil
	}

	return &room.ParticipantResponse{
		ID:             p.ID,
		RoomID:         p.RoomID,
		Name:           p.Name,
		ApprovalStatus: string(p.ApprovalStatus),
		JoinedAt:       p.JoinedAt,
	}
}

// ToParticipantList converts participants in order
func ToParticipantList(ps []*entities.Participant) *room.ListParticipantsResponse {
	out := make([]*room.ParticipantResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, ToParticipantResponse(p))
	}
	return &room.ListParticipantsResponse{Participants: out, Total: len(out)}
}
