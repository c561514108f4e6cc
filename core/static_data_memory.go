package core

import (
	"context"
	"strings"
	"sync"
)

type MemoryStaticDataStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

func NewMemoryStaticDataStore() *MemoryStaticDataStore {
	return &MemoryStaticDataStore{data: map[string]map[string][]byte{}}
}

func (s *MemoryStaticDataStore) Get(_ context.Context, workflowID, key string) ([]byte, bool, error) {
	if s == nil {
		return nil, false, InternalError("core: static data store is nil", nil)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[strings.TrimSpace(workflowID)][strings.TrimSpace(key)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (s *MemoryStaticDataStore) Set(_ context.Context, workflowID, key string, value []byte) error {
	if s == nil {
		return InternalError("core: static data store is nil", nil)
	}
	workflowID = strings.TrimSpace(workflowID)
	key = strings.TrimSpace(key)
	if workflowID == "" || key == "" {
		return InvalidConfigurationError("core: workflow id and key are required", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = map[string]map[string][]byte{}
	}
	bucket, ok := s.data[workflowID]
	if !ok {
		bucket = map[string][]byte{}
		s.data[workflowID] = bucket
	}
	bucket[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStaticDataStore) Delete(_ context.Context, workflowID, key string) error {
	if s == nil {
		return InternalError("core: static data store is nil", nil)
	}
	workflowID = strings.TrimSpace(workflowID)
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.data[workflowID]
	if !ok {
		return nil
	}
	delete(bucket, strings.TrimSpace(key))
	if len(bucket) == 0 {
		delete(s.data, workflowID)
	}
	return nil
}
