package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-leadtable/core"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const defaultLease = 10 * time.Minute

// completeScript marks a claim done only while the caller still owns it.
var completeScript = goredis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	redis.call('SET', KEYS[1], 'done:' .. ARGV[1], 'PX', ARGV[2])
	return 1
end
return 0
`)

// failScript releases an owned claim, holding it until ARGV[2] (unix ms) when
// a retry time is given.
var failScript = goredis.NewScript(`
if redis.call('GET', KEYS[1]) ~= ARGV[1] then
	return 0
end
local retry_at = tonumber(ARGV[2])
if retry_at > 0 then
	redis.call('SET', KEYS[1], 'retry:' .. ARGV[1])
	redis.call('PEXPIREAT', KEYS[1], retry_at)
else
	redis.call('DEL', KEYS[1])
end
return 1
`)

type ClaimStore struct {
	client goredis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewClaimStore(client goredis.UniversalClient, opts ...Option) (*ClaimStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redisstore: redis client is required")
	}
	cfg := resolveOptions(opts)
	return &ClaimStore{client: client, prefix: cfg.prefix, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *ClaimStore) Claim(ctx context.Context, key string, lease time.Duration) (string, bool, error) {
	if s == nil || s.client == nil {
		return "", false, fmt.Errorf("redisstore: claim store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, core.InvalidConfigurationError("redisstore: claim key is required", nil)
	}
	if lease <= 0 {
		lease = defaultLease
	}
	claimID := uuid.NewString()
	ok, err := s.client.SetNX(ctx, s.claimKey(key), claimID, lease).Result()
	if err != nil {
		return "", false, fmt.Errorf("redisstore: claim: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	owner := s.ownerKey(claimID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, owner, "key", key, "lease_ms", lease.Milliseconds())
	pipe.PExpire(ctx, owner, lease)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", false, fmt.Errorf("redisstore: record claim owner: %w", err)
	}
	return claimID, true, nil
}

func (s *ClaimStore) Complete(ctx context.Context, claimID string) error {
	key, lease, ok, err := s.owner(ctx, claimID)
	if err != nil || !ok {
		return err
	}
	if err := completeScript.Run(ctx, s.client, []string{s.claimKey(key)}, claimID, lease.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("redisstore: complete claim: %w", err)
	}
	return s.client.Del(ctx, s.ownerKey(claimID)).Err()
}

func (s *ClaimStore) Fail(ctx context.Context, claimID string, _ error, retryAt time.Time) error {
	key, _, ok, err := s.owner(ctx, claimID)
	if err != nil || !ok {
		return err
	}
	var retryMS int64
	if !retryAt.IsZero() && retryAt.After(s.now()) {
		retryMS = retryAt.UnixMilli()
	}
	if err := failScript.Run(ctx, s.client, []string{s.claimKey(key)}, claimID, retryMS).Err(); err != nil {
		return fmt.Errorf("redisstore: fail claim: %w", err)
	}
	return s.client.Del(ctx, s.ownerKey(claimID)).Err()
}

func (s *ClaimStore) owner(ctx context.Context, claimID string) (string, time.Duration, bool, error) {
	if s == nil || s.client == nil {
		return "", 0, false, fmt.Errorf("redisstore: claim store is not configured")
	}
	claimID = strings.TrimSpace(claimID)
	if claimID == "" {
		return "", 0, false, core.InvalidConfigurationError("redisstore: claim id is required", nil)
	}
	values, err := s.client.HGetAll(ctx, s.ownerKey(claimID)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", 0, false, nil
		}
		return "", 0, false, fmt.Errorf("redisstore: load claim owner: %w", err)
	}
	key := values["key"]
	if key == "" {
		return "", 0, false, nil
	}
	lease := defaultLease
	if parsed, parseErr := time.ParseDuration(values["lease_ms"] + "ms"); parseErr == nil && parsed > 0 {
		lease = parsed
	}
	return key, lease, true, nil
}

func (s *ClaimStore) claimKey(key string) string {
	return s.prefix + ":claim:" + key
}

func (s *ClaimStore) ownerKey(claimID string) string {
	return s.prefix + ":claim-owner:" + claimID
}

var _ core.IdempotencyClaimStore = (*ClaimStore)(nil)
