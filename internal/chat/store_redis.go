package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const sessionKeyPrefix = "chat_session:"

// RedisSessionStore persists sessions as JSON blobs with a TTL, so a chat
// survives API restarts but still expires with the visitor.
type RedisSessionStore struct {
	redis  *redis.Client
	tracer trace.Tracer
	ttl    time.Duration
}

// NewRedisSessionStore creates a redis-backed session store.
func NewRedisSessionStore(redisClient *redis.Client, ttl time.Duration) *RedisSessionStore {
	if redisClient == nil {
		panic("chat: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSessionStore{
		redis:  redisClient,
		tracer: otel.Tracer("magnet.internal.chat.sessions"),
		ttl:    ttl,
	}
}

// Get loads and decodes the session for a user.
func (s *RedisSessionStore) Get(ctx context.Context, userID string) (*Session, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}

	ctx, span := s.tracer.Start(ctx, "chat.session.load")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("chat: load session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("chat: decode session: %w", err)
	}
	return &session, nil
}

// Save encodes and persists the session, refreshing its TTL.
func (s *RedisSessionStore) Save(ctx context.Context, session *Session) error {
	if session == nil || session.UserID == "" {
		return ErrInvalidInput
	}

	ctx, span := s.tracer.Start(ctx, "chat.session.save")
	defer span.End()

	data, err := json.Marshal(session)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: encode session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(session.UserID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: persist session: %w", err)
	}
	return nil
}

func sessionKey(userID string) string {
	return sessionKeyPrefix + userID
}
