package entities

import "time"

// Vote records one participant's choice in one poll. (PollID, ParticipantID) is unique.
type Vote struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	PollID        string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_votes_poll_participant" json:"poll_id"`
	ParticipantID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_votes_poll_participant" json:"-"`
	RoomID        string    `gorm:"type:varchar(10);not null;index" json:"room_id"`
	OptionID      string    `gorm:"type:varchar(36);not null" json:"option_id"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}

// TableName specifies the table name for Vote
func (Vote) TableName() string {
	return "votes"
}

// OptionTally is the number of votes one option received
type OptionTally struct {
	OptionID string `json:"option_id"`
	Text     string `json:"text"`
	Votes    int64  `json:"votes"`
}

// PollResults is a tally of a poll in the poll's option order
type PollResults struct {
	PollID   string        `json:"poll_id"`
	Question string        `json:"question"`
	Status   PollStatus    `json:"status"`
	Options  []OptionTally `json:"options"`
	Total    int64         `json:"total"`
}

// Tally builds results for p from per-option counts. Counts for unknown options are ignored
// so the total always matches the listed options.
func Tally(p *Poll, counts map[string]int64) *PollResults {
	res := &PollResults{
		PollID:   p.ID,
		Question: p.Question,
		Status:   p.Status,
		Options:  make([]OptionTally, 0, len(p.Options)),
	}
	for _, opt := range p.Options {
		n := counts[opt.ID]
		res.Options = append(res.Options, OptionTally{OptionID: opt.ID, Text: opt.Text, Votes: n})
		res.Total += n
	}
	return res
}
