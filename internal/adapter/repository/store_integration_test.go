package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KiiTuNp/SUPERvote/internal/domain/entities"
	"github.com/KiiTuNp/SUPERvote/internal/domain/repositories"
	"github.com/KiiTuNp/SUPERvote/internal/infrastructure/database"
)

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("supervote"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	n, err := database.Migrate(db, migrate.Up)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	return db
}

func TestPostgresStore(t *testing.T) {
	db := setupPostgres(t)
	store := NewStore(db)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("room code is unique", func(t *testing.T) {
		require.NoError(t, store.Rooms().Create(ctx, entities.NewRoom("DUP1", "Alice", now)))
		err := store.Rooms().Create(ctx, entities.NewRoom("DUP1", "Eve", now))
		assert.ErrorIs(t, err, repositories.ErrDuplicate)

		_, err = store.Rooms().FindByID(ctx, "MISSING")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("touch never moves backwards", func(t *testing.T) {
		require.NoError(t, store.Rooms().Create(ctx, entities.NewRoom("TOUCH", "Alice", now)))
		require.NoError(t, store.Rooms().Touch(ctx, "TOUCH", now.Add(time.Minute)))
		require.NoError(t, store.Rooms().Touch(ctx, "TOUCH", now.Add(-time.Hour)))

		room, err := store.Rooms().FindByID(ctx, "TOUCH")
		require.NoError(t, err)
		assert.True(t, room.LastActivity.Equal(now.Add(time.Minute)))

		expired, err := store.Rooms().FindExpired(ctx, now.Add(2*time.Minute))
		require.NoError(t, err)
		ids := make([]string, 0, len(expired))
		for _, r := range expired {
			ids = append(ids, r.ID)
		}
		assert.Contains(t, ids, "TOUCH")
	})

	t.Run("participant names are unique per room ignoring case", func(t *testing.T) {
		require.NoError(t, store.Rooms().Create(ctx, entities.NewRoom("NAMES", "Alice", now)))
		require.NoError(t, store.Participants().Create(ctx, entities.NewParticipant("p-names-1", "NAMES", "Bob", "tok-names-1", now)))
		err := store.Participants().Create(ctx, entities.NewParticipant("p-names-2", "NAMES", "  BOB ", "tok-names-2", now))
		assert.ErrorIs(t, err, repositories.ErrDuplicate)

		found, err := store.Participants().FindByToken(ctx, "tok-names-1")
		require.NoError(t, err)
		assert.Equal(t, "p-names-1", found.ID)

		require.NoError(t, store.Participants().UpdateApproval(ctx, "p-names-1", entities.ApprovalStatusPending, entities.ApprovalStatusApproved))
		err = store.Participants().UpdateApproval(ctx, "p-names-1", entities.ApprovalStatusPending, entities.ApprovalStatusDenied)
		assert.ErrorIs(t, err, repositories.ErrStaleState)
	})

	t.Run("poll transitions have a single winner", func(t *testing.T) {
		require.NoError(t, store.Rooms().Create(ctx, entities.NewRoom("POLLS", "Alice", now)))
		timer := 1
		poll := &entities.Poll{
			ID:           "poll-cas",
			RoomID:       "POLLS",
			Question:     "Lunch?",
			Options:      []entities.PollOption{{ID: "o1", Text: "Pizza"}, {ID: "o2", Text: "Sushi"}},
			Status:       entities.PollStatusCreated,
			TimerMinutes: &timer,
			CreatedAt:    now,
		}
		require.NoError(t, store.Polls().Create(ctx, poll))

		started, err := poll.Start(now)
		require.NoError(t, err)
		require.NoError(t, store.Polls().UpdateStatus(ctx, started, entities.PollStatusCreated))
		assert.ErrorIs(t, store.Polls().UpdateStatus(ctx, started, entities.PollStatusCreated), repositories.ErrStaleState)

		due, err := store.Polls().FindDue(ctx, now.Add(59*time.Second))
		require.NoError(t, err)
		assert.Empty(t, due)

		due, err = store.Polls().FindDue(ctx, now.Add(61*time.Second))
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, "poll-cas", due[0].ID)
		assert.Equal(t, "Sushi", due[0].Options[1].Text)
	})

	t.Run("one vote per participant under concurrency", func(t *testing.T) {
		require.NoError(t, store.Rooms().Create(ctx, entities.NewRoom("VOTES", "Alice", now)))
		require.NoError(t, store.Participants().Create(ctx, entities.NewParticipant("p-votes", "VOTES", "Dave", "tok-votes", now)))
		require.NoError(t, store.Polls().Create(ctx, &entities.Poll{
			ID:        "poll-votes",
			RoomID:    "VOTES",
			Question:  "Q?",
			Options:   []entities.PollOption{{ID: "a", Text: "A"}, {ID: "b", Text: "B"}},
			Status:    entities.PollStatusActive,
			CreatedAt: now,
		}))

		var (
			wg        sync.WaitGroup
			successes atomic.Int32
			dups      atomic.Int32
		)
		start := make(chan struct{})
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				err := store.Votes().Create(ctx, &entities.Vote{
					ID:            fmt.Sprintf("vote-%d", i),
					PollID:        "poll-votes",
					ParticipantID: "p-votes",
					RoomID:        "VOTES",
					OptionID:      "a",
					CreatedAt:     now,
				})
				switch {
				case err == nil:
					successes.Add(1)
				case assert.ErrorIs(t, err, repositories.ErrDuplicate):
					dups.Add(1)
				}
			}(i)
		}
		close(start)
		wg.Wait()

		assert.Equal(t, int32(1), successes.Load())
		assert.Equal(t, int32(19), dups.Load())

		counts, err := store.Votes().CountByOption(ctx, "poll-votes")
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"a": 1}, counts)
	})

	t.Run("idle delete re-checks activity and cascades", func(t *testing.T) {
		require.NoError(t, store.Rooms().Create(ctx, entities.NewRoom("IDLE", "Alice", now)))
		require.NoError(t, store.Participants().Create(ctx, entities.NewParticipant("p-idle", "IDLE", "Bob", "tok-idle", now)))
		require.NoError(t, store.Rooms().Touch(ctx, "IDLE", now.Add(time.Hour)))

		err := store.Rooms().DeleteIdle(ctx, "IDLE", now.Add(time.Minute))
		assert.ErrorIs(t, err, repositories.ErrStaleState)
		_, err = store.Rooms().FindByID(ctx, "IDLE")
		require.NoError(t, err)

		require.NoError(t, store.Rooms().DeleteIdle(ctx, "IDLE", now.Add(2*time.Hour)))
		_, err = store.Participants().FindByToken(ctx, "tok-idle")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		assert.ErrorIs(t, store.Rooms().DeleteIdle(ctx, "IDLE", now.Add(2*time.Hour)), repositories.ErrStaleState)
	})

	t.Run("rows referencing a missing parent report not found", func(t *testing.T) {
		err := store.Participants().Create(ctx, entities.NewParticipant("p-orphan", "GONE", "Bob", "tok-orphan", now))
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("room data is removed in dependency order", func(t *testing.T) {
		for _, del := range []func(context.Context, string) (int64, error){
			store.Votes().DeleteByRoomID,
			store.Polls().DeleteByRoomID,
			store.Participants().DeleteByRoomID,
		} {
			_, err := del(ctx, "VOTES")
			require.NoError(t, err)
		}
		require.NoError(t, store.Rooms().Delete(ctx, "VOTES"))

		_, err := store.Rooms().FindByID(ctx, "VOTES")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		_, err = store.Participants().FindByToken(ctx, "tok-votes")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}
