package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-leadtable/core"
	goredis "github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "leadtable"

// StaticDataStore keeps each workflow's static data in one Redis hash, so a
// workflow's keys live and expire together.
type StaticDataStore struct {
	client goredis.UniversalClient
	prefix string
}

type Option func(*options)

type options struct {
	prefix string
}

func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		if trimmed := strings.Trim(strings.TrimSpace(prefix), ":"); trimmed != "" {
			o.prefix = trimmed
		}
	}
}

func resolveOptions(opts []Option) options {
	cfg := options{prefix: DefaultKeyPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func NewStaticDataStore(client goredis.UniversalClient, opts ...Option) (*StaticDataStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redisstore: redis client is required")
	}
	cfg := resolveOptions(opts)
	return &StaticDataStore{client: client, prefix: cfg.prefix}, nil
}

func (s *StaticDataStore) Get(ctx context.Context, workflowID, key string) ([]byte, bool, error) {
	hash, field, err := s.address(workflowID, key)
	if err != nil {
		return nil, false, err
	}
	value, err := s.client.HGet(ctx, hash, field).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redisstore: get %s: %w", field, err)
	}
	return value, true, nil
}

func (s *StaticDataStore) Set(ctx context.Context, workflowID, key string, value []byte) error {
	hash, field, err := s.address(workflowID, key)
	if err != nil {
		return err
	}
	if err := s.client.HSet(ctx, hash, field, value).Err(); err != nil {
		return fmt.Errorf("redisstore: set %s: %w", field, err)
	}
	return nil
}

func (s *StaticDataStore) Delete(ctx context.Context, workflowID, key string) error {
	hash, field, err := s.address(workflowID, key)
	if err != nil {
		return err
	}
	if err := s.client.HDel(ctx, hash, field).Err(); err != nil {
		return fmt.Errorf("redisstore: delete %s: %w", field, err)
	}
	return nil
}

func (s *StaticDataStore) Keys(ctx context.Context, workflowID string) ([]string, error) {
	workflowID = strings.TrimSpace(workflowID)
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("redisstore: static data store is not configured")
	}
	if workflowID == "" {
		return nil, core.InvalidConfigurationError("redisstore: workflow id is required", nil)
	}
	return s.client.HKeys(ctx, s.hashKey(workflowID)).Result()
}

func (s *StaticDataStore) address(workflowID, key string) (string, string, error) {
	if s == nil || s.client == nil {
		return "", "", fmt.Errorf("redisstore: static data store is not configured")
	}
	workflowID = strings.TrimSpace(workflowID)
	key = strings.TrimSpace(key)
	if workflowID == "" || key == "" {
		return "", "", core.InvalidConfigurationError("redisstore: workflow id and key are required", nil)
	}
	return s.hashKey(workflowID), key, nil
}

func (s *StaticDataStore) hashKey(workflowID string) string {
	return s.prefix + ":static:" + workflowID
}

var _ core.StaticDataStore = (*StaticDataStore)(nil)
