package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

type redisStorage struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewRedisStorage keeps sessions for ttl after their last save, which should
// match the refresh token lifetime.
func NewRedisStorage(redisClient *redis.Client, ttl time.Duration) Storage {
	return &redisStorage{redisClient: redisClient, ttl: ttl}
}

func (s *redisStorage) Load(ctx context.Context, id string) (*Session, error) {
	raw, err := s.redisClient.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		// Unreadable entries are treated as signed out.
		return nil, nil
	}
	return &session, nil
}

func (s *redisStorage) Save(ctx context.Context, id string, session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.redisClient.Set(ctx, sessionKeyPrefix+id, raw, s.ttl).Err()
}

func (s *redisStorage) Delete(ctx context.Context, id string) error {
	return s.redisClient.Del(ctx, sessionKeyPrefix+id).Err()
}
