package room

// CreateRoomRequest represents the request to create a room
type CreateRoomRequest struct {
	OrganizerName string `json:"organizer_name" validate:"required,notblank,max=50"`
	// RoomID is an optional custom code, upper-cased by the service
	RoomID string `json:"room_id,omitempty" validate:"omitempty,alphanum,min=3,max=10"`
}

// JoinRoomRequest represents the request to join a room
type JoinRoomRequest struct {
	ParticipantName string `json:"participant_name" validate:"required,notblank,max=50"`
}

// ListParticipantsRequest represents query parameters for listing participants
type ListParticipantsRequest struct {
	Status string `query:"status" validate:"omitempty,oneof=pending approved denied"`
}
