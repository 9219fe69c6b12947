package oauth

import (
	"context"
	"time"

	"github.com/geocoder89/staffhub/internal/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// how long a pending handshake may take before the state expires
const stateTTL = 10 * time.Minute

// StateStore issues one-shot CSRF states for the handshake. Consume is
// destructive: a state can only ever be redeemed once.
type StateStore interface {
	Issue(ctx context.Context) (string, error)
	Consume(ctx context.Context, state string) bool
}

// MemoryStateStore keeps pending states in process. Fine for a single
// instance; multi-instance deployments set REDIS_ADDR instead.
type MemoryStateStore struct {
	states *cache.Cache
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: cache.New(stateTTL)}
}

func (s *MemoryStateStore) Issue(ctx context.Context) (string, error) {
	state := uuid.NewString()
	s.states.Set(state, struct{}{})

	return state, nil
}

func (s *MemoryStateStore) Consume(ctx context.Context, state string) bool {
	_, ok := s.states.Get(state)

	if ok {
		s.states.Delete(state)
	}

	return ok
}

// RedisStateStore shares pending states across instances.
type RedisStateStore struct {
	rdb *redis.Client
}

func NewRedisStateStore(rdb *redis.Client) *RedisStateStore {
	return &RedisStateStore{rdb: rdb}
}

func (s *RedisStateStore) Issue(ctx context.Context) (string, error) {
	state := uuid.NewString()

	err := s.rdb.Set(ctx, stateKey(state), "1", stateTTL).Err()

	if err != nil {
		return "", err
	}

	return state, nil
}

func (s *RedisStateStore) Consume(ctx context.Context, state string) bool {
	// DEL doubles as the existence check, which keeps redemption atomic
	n, err := s.rdb.Del(ctx, stateKey(state)).Result()

	return err == nil && n > 0
}

func stateKey(state string) string {
	return "oauth_state:" + state
}
