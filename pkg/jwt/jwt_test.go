package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrganizerToken_RoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour)

	token, err := m.GenerateOrganizerToken("ABC123", "Alice")
	require.NoError(t, err)

	claims, err := m.ValidateOrganizerToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ABC123", claims.RoomID)
	assert.Equal(t, "Alice", claims.OrganizerName)
	assert.Equal(t, RoleOrganizer, claims.Role)
}

func TestOrganizerToken_Rejections(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager("secret", time.Hour).WithClock(func() time.Time { return now })

	token, err := m.GenerateOrganizerToken("ABC123", "Alice")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewManager("other", time.Hour).ValidateOrganizerToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewManager("secret", time.Hour).WithClock(func() time.Time { return now.Add(2 * time.Hour) })
		_, err := later.ValidateOrganizerToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ValidateOrganizerToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
