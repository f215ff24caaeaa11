package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/getvessel/vessel/domain"
	"github.com/redis/go-redis/v9"
)

// expiredTokenGrace keeps expired tokens readable for a while past their
// expiry instead of letting Redis evict them immediately. The workflows want
// to observe an expired token once, delete it as cleanup, and report
// "expired"; after the grace window the outcome degrades to "not found",
// which is the same user-visible message.
const expiredTokenGrace = 24 * time.Hour

// RedisTokenStore implements domain.TokenStore on Redis for deployments that
// keep flow tokens out of the primary database. The single-key DEL is the
// consumption arbiter: Redis executes it atomically, so of two racing
// consumers exactly one observes a deletion.
type RedisTokenStore struct {
	client *redis.Client
	prefix string
}

// NewRedisTokenStore creates a Redis-backed token store.
func NewRedisTokenStore(client *redis.Client, prefix string) *RedisTokenStore {
	if prefix == "" {
		prefix = "vessel:token:"
	}
	return &RedisTokenStore{client: client, prefix: prefix}
}

func (s *RedisTokenStore) tokenKey(ownerID string, typ domain.TokenType, code string) string {
	return s.prefix + ownerID + ":" + string(typ) + ":" + code
}

// indexKey holds the set of outstanding codes per (owner, type), used to
// revoke them in one sweep.
func (s *RedisTokenStore) indexKey(ownerID string, typ domain.TokenType) string {
	return s.prefix + "idx:" + ownerID + ":" + string(typ)
}

func (s *RedisTokenStore) SaveToken(ctx context.Context, token *domain.Token) error {
	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("redis tokens: marshal token: %w", err)
	}

	ttl := time.Until(token.ExpiresAt) + expiredTokenGrace

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.tokenKey(token.OwnerID, token.Type, token.Code), payload, ttl)
	pipe.SAdd(ctx, s.indexKey(token.OwnerID, token.Type), token.Code)
	pipe.Expire(ctx, s.indexKey(token.OwnerID, token.Type), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis tokens: save failed: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) FindToken(ctx context.Context, ownerID, code string, typ domain.TokenType) (*domain.Token, error) {
	payload, err := s.client.Get(ctx, s.tokenKey(ownerID, typ, code)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis tokens: find failed: %w", err)
	}

	var token domain.Token
	if err := json.Unmarshal(payload, &token); err != nil {
		return nil, fmt.Errorf("redis tokens: unmarshal token: %w", err)
	}
	return &token, nil
}

func (s *RedisTokenStore) ConsumeToken(ctx context.Context, token *domain.Token) error {
	// Delete key and index entry together; the DEL result decides the race.
	script := redis.NewScript(`
		local removed = redis.call('DEL', KEYS[1])
		if removed == 1 then
			redis.call('SREM', KEYS[2], ARGV[1])
		end
		return removed
	`)

	keys := []string{
		s.tokenKey(token.OwnerID, token.Type, token.Code),
		s.indexKey(token.OwnerID, token.Type),
	}
	result, err := script.Run(ctx, s.client, keys, token.Code).Result()
	if err != nil {
		return fmt.Errorf("redis tokens: consume failed: %w", err)
	}

	removed, ok := result.(int64)
	if !ok {
		return fmt.Errorf("redis tokens: unexpected result type")
	}
	if removed == 0 {
		return domain.ErrTokenConflict
	}
	return nil
}

func (s *RedisTokenStore) DeleteTokens(ctx context.Context, ownerID string, typ domain.TokenType) error {
	indexKey := s.indexKey(ownerID, typ)

	codes, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("redis tokens: list outstanding failed: %w", err)
	}

	pipe := s.client.Pipeline()
	for _, code := range codes {
		pipe.Del(ctx, s.tokenKey(ownerID, typ, code))
	}
	pipe.Del(ctx, indexKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis tokens: revoke failed: %w", err)
	}
	return nil
}

// DeleteExpiredTokens is a no-op: Redis key TTLs already evict stale tokens
// once the grace window passes.
func (s *RedisTokenStore) DeleteExpiredTokens(ctx context.Context) error {
	return nil
}
