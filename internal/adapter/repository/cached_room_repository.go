package repository

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/KiiTuNp/SUPERvote/internal/domain/entities"
	"github.com/KiiTuNp/SUPERvote/internal/domain/repositories"
	"github.com/KiiTuNp/SUPERvote/internal/infrastructure/cache"
)

// cachedRoomRepository serves FindByID from a cache keyed room:{id}.
// Cache failures fall through to the wrapped repository.
type cachedRoomRepository struct {
	next   repositories.RoomRepository
	cache  cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedRoomRepository wraps next with a read-through cache
func NewCachedRoomRepository(next repositories.RoomRepository, store cache.Store, ttl time.Duration, logger *zap.Logger) repositories.RoomRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedRoomRepository{next: next, cache: store, ttl: ttl, logger: logger.Named("room_cache")}
}

func (r *cachedRoomRepository) Create(ctx context.Context, room *entities.Room) error {
	return r.next.Create(ctx, room)
}

func (r *cachedRoomRepository) FindByID(ctx context.Context, id string) (*entities.Room, error) {
	key := cache.RoomKey(id)
	raw, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("cache.get.failed", zap.String("key", key), zap.Error(err))
	}
	if ok {
		var room entities.Room
		if err := json.Unmarshal(raw, &room); err == nil {
			return &room, nil
		}
	}

	room, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(room); err == nil {
		if err := r.cache.Set(ctx, key, raw, r.ttl); err != nil {
			r.logger.Warn("cache.set.failed", zap.String("key", key), zap.Error(err))
		}
	}
	return room, nil
}

func (r *cachedRoomRepository) Touch(ctx context.Context, id string, at time.Time) error {
	return r.next.Touch(ctx, id, at)
}

func (r *cachedRoomRepository) FindExpired(ctx context.Context, cutoff time.Time) ([]*entities.Room, error) {
	return r.next.FindExpired(ctx, cutoff)
}

func (r *cachedRoomRepository) Delete(ctx context.Context, id string) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, cache.RoomKey(id)); err != nil {
		r.logger.Warn("cache.delete.failed", zap.String("room_id", id), zap.Error(err))
	}
	return nil
}

func (r *cachedRoomRepository) DeleteIdle(ctx context.Context, id string, cutoff time.Time) error {
	if err := r.next.DeleteIdle(ctx, id, cutoff); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, cache.RoomKey(id)); err != nil {
		r.logger.Warn("cache.delete.failed", zap.String("room_id", id), zap.Error(err))
	}
	return nil
}

type cachedStore struct {
	repositories.Store
	rooms repositories.RoomRepository
}

// WithRoomCache returns store with its room repository wrapped in a read-through cache
func WithRoomCache(store repositories.Store, c cache.Store, ttl time.Duration, logger *zap.Logger) repositories.Store {
	return &cachedStore{
		Store: store,
		rooms: NewCachedRoomRepository(store.Rooms(), c, ttl, logger),
	}
}

func (s *cachedStore) Rooms() repositories.RoomRepository { return s.rooms }
