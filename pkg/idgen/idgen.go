package idgen

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

const (
	// RoomIDLength is the length of generated room codes
	RoomIDLength = 8
	// tokenBytes of entropy give a 43 character URL-safe token
	tokenBytes = 32
)

// Generator produces identifiers and participant tokens
type Generator interface {
	NewRoomID() string
	NewEntityID() string
	NewToken() (string, error)
}

// Random generates uuid based ids and crypto/rand tokens
type Random struct{}

// NewRoomID returns the first 8 hex digits of a random uuid, upper-cased
func (Random) NewRoomID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(id[:RoomIDLength])
}

// NewEntityID returns a random uuid
func (Random) NewEntityID() string {
	return uuid.NewString()
}

// NewToken returns a URL-safe base64 token of 32 random bytes
func (Random) NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Sequence generates predictable ids for tests
type Sequence struct {
	n atomic.Int64
	// RoomIDs, when set, are handed out in order before falling back to counters
	RoomIDs []string
	rooms   atomic.Int64
}

// NewRoomID returns the next scripted room id or ROOM<n>
func (s *Sequence) NewRoomID() string {
	i := s.rooms.Add(1) - 1
	if int(i) < len(s.RoomIDs) {
		return s.RoomIDs[i]
	}
	return fmt.Sprintf("ROOM%d", i+1)
}

// NewEntityID returns id-<n>
func (s *Sequence) NewEntityID() string {
	return fmt.Sprintf("id-%d", s.n.Add(1))
}

// NewToken returns token-<n>
func (s *Sequence) NewToken() (string, error) {
	return fmt.Sprintf("token-%d", s.n.Add(1)), nil
}
