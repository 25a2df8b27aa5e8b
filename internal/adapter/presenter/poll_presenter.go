package presenter

import (
	"github.com/KiiTuNp/SUPERvote/internal/adapter/dto/poll"
	"github.com/KiiTuNp/SUPERvote/internal/domain/entities"
	pollUsecase "github.com/KiiTuNp/SUPERvote/internal/usecase/poll"
)

// ToPollResponse converts a Poll entity to PollResponse DTO
func ToPollResponse(p *entities.Poll) *poll.PollResponse {
	if p == nil {
		return nil
	}

	options := make([]poll.OptionResponse, 0, len(p.Options))
	for _, opt := range p.Options {
		options = append(options, poll.OptionResponse{ID: opt.ID, Text: opt.Text})
	}

	response := &poll.PollResponse{
		ID:           p.ID,
		RoomID:       p.RoomID,
		Question:     p.Question,
		Options:      options,
		Status:       string(p.Status),
		TimerMinutes: p.TimerMinutes,
		CreatedAt:    p.CreatedAt,
		StartedAt:    p.StartedAt,
		EndsAt:       p.EndsAt,
		StoppedAt:    p.StoppedAt,
	}
	if p.StopReason != nil {
		reason := string(*p.StopReason)
		response.StopReason = &reason
	}
	return response
}

// ToPollList converts poll summaries, keeping creation order
func ToPollList(summaries []*pollUsecase.PollSummary) *poll.ListPollsResponse {
	out := make([]*poll.PollResponse, 0, len(summaries))
	for _, s := range summaries {
		resp := ToPollResponse(s.Poll)
		total := s.TotalVotes
		resp.TotalVotes = &total
		out = append(out, resp)
	}
	return &poll.ListPollsResponse{Polls: out, Total: len(out)}
}

// ToResultsResponse converts a tally
func ToResultsResponse(r *entities.PollResults) *poll.ResultsResponse {
	if r == nil {
		return nil
	}

	results := make([]poll.OptionResultResponse, 0, len(r.Options))
	for _, opt := range r.Options {
		results = append(results, poll.OptionResultResponse{ID: opt.OptionID, Text: opt.Text, Votes: opt.Votes})
	}
	return &poll.ResultsResponse{
		PollID:     r.PollID,
		Question:   r.Question,
		Status:     string(r.Status),
		Results:    results,
		TotalVotes: r.Total,
	}
}
