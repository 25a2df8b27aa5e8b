package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/KiiTuNp/SUPERvote/internal/domain/entities"
	"github.com/KiiTuNp/SUPERvote/internal/domain/repositories"
)

// Store keeps every aggregate in process memory. A single mutex guards all maps so
// uniqueness checks and inserts are atomic, mirroring the unique indexes of the
// postgres schema.
type Store struct {
	mu sync.RWMutex

	seq          uint64
	rooms        map[string]entities.Room
	participants map[string]participantRecord
	polls        map[string]pollRecord
	votes        map[string]entities.Vote

	tokens    map[string]string // token -> participant id
	names     map[nameKey]string
	ballots   map[ballotKey]string
	roomVotes map[string]map[string]struct{}
}

type participantRecord struct {
	seq uint64
	entities.Participant
}

type pollRecord struct {
	seq uint64
	entities.Poll
}

type nameKey struct{ roomID, name string }

type ballotKey struct{ pollID, participantID string }

var _ repositories.Store = (*Store)(nil)

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		rooms:        make(map[string]entities.Room),
		participants: make(map[string]participantRecord),
		polls:        make(map[string]pollRecord),
		votes:        make(map[string]entities.Vote),
		tokens:       make(map[string]string),
		names:        make(map[nameKey]string),
		ballots:      make(map[ballotKey]string),
		roomVotes:    make(map[string]map[string]struct{}),
	}
}

func (s *Store) Rooms() repositories.RoomRepository               { return roomRepository{s} }
func (s *Store) Participants() repositories.ParticipantRepository { return participantRepository{s} }
func (s *Store) Polls() repositories.PollRepository               { return pollRepository{s} }
func (s *Store) Votes() repositories.VoteRepository               { return voteRepository{s} }

type roomRepository struct{ s *Store }

func (r roomRepository) Create(_ context.Context, room *entities.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.rooms[room.ID]; exists {
		return repositories.ErrDuplicate
	}
	r.s.rooms[room.ID] = *room
	return nil
}

func (r roomRepository) FindByID(_ context.Context, id string) (*entities.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	room, ok := r.s.rooms[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &room, nil
}

func (r roomRepository) Touch(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	room, ok := r.s.rooms[id]
	if !ok || !room.LastActivity.Before(at) {
		return nil
	}
	room.LastActivity = at
	r.s.rooms[id] = room
	return nil
}

func (r roomRepository) FindExpired(_ context.Context, cutoff time.Time) ([]*entities.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var rooms []*entities.Room
	for _, room := range r.s.rooms {
		room := room
		if room.IsExpired(cutoff) {
			rooms = append(rooms, &room)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].LastActivity.Before(rooms[j].LastActivity) })
	return rooms, nil
}

func (r roomRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.rooms, id)
	return nil
}

func (r roomRepository) DeleteIdle(_ context.Context, id string, cutoff time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	room, ok := r.s.rooms[id]
	if !ok || !room.LastActivity.Before(cutoff) {
		return repositories.ErrStaleState
	}
	delete(r.s.rooms, id)
	return nil
}

type participantRepository struct{ s *Store }

func (r participantRepository) Create(_ context.Context, p *entities.Participant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := nameKey{p.RoomID, p.NormalizedName}
	if _, exists := r.s.participants[p.ID]; exists {
		return repositories.ErrDuplicate
	}
	if _, exists := r.s.names[key]; exists {
		return repositories.ErrDuplicate
	}
	if _, exists := r.s.tokens[p.Token]; exists {
		return repositories.ErrDuplicate
	}

	r.s.seq++
	r.s.participants[p.ID] = participantRecord{seq: r.s.seq, Participant: *p}
	r.s.names[key] = p.ID
	r.s.tokens[p.Token] = p.ID
	return nil
}

func (r participantRepository) FindByID(_ context.Context, id string) (*entities.Participant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.participants[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	p := rec.Participant
	return &p, nil
}

func (r participantRepository) FindByToken(ctx context.Context, token string) (*entities.Participant, error) {
	r.s.mu.RLock()
	id, ok := r.s.tokens[token]
	r.s.mu.RUnlock()
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r participantRepository) FindByRoomID(_ context.Context, roomID string, status *entities.ApprovalStatus) ([]*entities.Participant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var recs []participantRecord
	for _, rec := range r.s.participants {
		if rec.RoomID != roomID {
			continue
		}
		if status != nil && rec.ApprovalStatus != *status {
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	out := make([]*entities.Participant, 0, len(recs))
	for _, rec := range recs {
		p := rec.Participant
		out = append(out, &p)
	}
	return out, nil
}

func (r participantRepository) CountByStatus(_ context.Context, roomID string) (map[entities.ApprovalStatus]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[entities.ApprovalStatus]int64)
	for _, rec := range r.s.participants {
		if rec.RoomID == roomID {
			counts[rec.ApprovalStatus]++
		}
	}
	return counts, nil
}

func (r participantRepository) UpdateApproval(_ context.Context, id string, from, to entities.ApprovalStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.participants[id]
	if !ok || rec.ApprovalStatus != from {
		return repositories.ErrStaleState
	}
	rec.ApprovalStatus = to
	r.s.participants[id] = rec
	return nil
}

func (r participantRepository) DeleteByRoomID(_ context.Context, roomID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, rec := range r.s.participants {
		if rec.RoomID != roomID {
			continue
		}
		delete(r.s.participants, id)
		delete(r.s.tokens, rec.Token)
		delete(r.s.names, nameKey{rec.RoomID, rec.NormalizedName})
		n++
	}
	return n, nil
}

type pollRepository struct{ s *Store }

func (r pollRepository) Create(_ context.Context, poll *entities.Poll) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.polls[poll.ID]; exists {
		return repositories.ErrDuplicate
	}
	r.s.seq++
	r.s.polls[poll.ID] = pollRecord{seq: r.s.seq, Poll: *poll}
	return nil
}

func (r pollRepository) FindByID(_ context.Context, id string) (*entities.Poll, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.polls[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	p := rec.Poll
	return &p, nil
}

func (r pollRepository) FindByRoomID(_ context.Context, roomID string) ([]*entities.Poll, error) {
	return r.filter(func(p *entities.Poll) bool { return p.RoomID == roomID }), nil
}

func (r pollRepository) FindDue(_ context.Context, now time.Time) ([]*entities.Poll, error) {
	return r.filter(func(p *entities.Poll) bool { return p.IsDue(now) }), nil
}

func (r pollRepository) filter(keep func(*entities.Poll) bool) []*entities.Poll {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var recs []pollRecord
	for _, rec := range r.s.polls {
		if keep(&rec.Poll) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	out := make([]*entities.Poll, 0, len(recs))
	for _, rec := range recs {
		p := rec.Poll
		out = append(out, &p)
	}
	return out
}

func (r pollRepository) UpdateStatus(_ context.Context, poll *entities.Poll, from entities.PollStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.polls[poll.ID]
	if !ok || rec.Status != from {
		return repositories.ErrStaleState
	}
	rec.Status = poll.Status
	rec.StartedAt = poll.StartedAt
	rec.EndsAt = poll.EndsAt
	rec.StoppedAt = poll.StoppedAt
	rec.StopReason = poll.StopReason
	r.s.polls[poll.ID] = rec
	return nil
}

func (r pollRepository) DeleteByRoomID(_ context.Context, roomID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, rec := range r.s.polls {
		if rec.RoomID == roomID {
			delete(r.s.polls, id)
			n++
		}
	}
	return n, nil
}

type voteRepository struct{ s *Store }

func (r voteRepository) Create(_ context.Context, vote *entities.Vote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := ballotKey{vote.PollID, vote.ParticipantID}
	if _, exists := r.s.ballots[key]; exists {
		return repositories.ErrDuplicate
	}
	if _, exists := r.s.votes[vote.ID]; exists {
		return repositories.ErrDuplicate
	}

	r.s.votes[vote.ID] = *vote
	r.s.ballots[key] = vote.ID
	ids, ok := r.s.roomVotes[vote.RoomID]
	if !ok {
		ids = make(map[string]struct{})
		r.s.roomVotes[vote.RoomID] = ids
	}
	ids[vote.ID] = struct{}{}
	return nil
}

func (r voteRepository) CountByOption(_ context.Context, pollID string) (map[string]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, v := range r.s.votes {
		if v.PollID == pollID {
			counts[v.OptionID]++
		}
	}
	return counts, nil
}

func (r voteRepository) CountByPoll(_ context.Context, roomID string) (map[string]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[string]int64)
	for id := range r.s.roomVotes[roomID] {
		counts[r.s.votes[id].PollID]++
	}
	return counts, nil
}

func (r voteRepository) DeleteByRoomID(_ context.Context, roomID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id := range r.s.roomVotes[roomID] {
		v := r.s.votes[id]
		delete(r.s.votes, id)
		delete(r.s.ballots, ballotKey{v.PollID, v.ParticipantID})
		n++
	}
	delete(r.s.roomVotes, roomID)
	return n, nil
}
