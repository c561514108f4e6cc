package inbound

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-leadtable/core"
	"github.com/google/uuid"
)

type claimState int

const (
	claimProcessing claimState = iota
	claimRetryable
	claimDone
)

type claim struct {
	id      string
	state   claimState
	lease   time.Duration
	until   time.Time
	retryAt time.Time
}

// InMemoryClaimStore tracks delivery claims in process memory. A completed
// key stays claimed for its lease; a failed key is reclaimable at retryAt.
type InMemoryClaimStore struct {
	mu     sync.Mutex
	byKey  map[string]*claim
	owners map[string]string
	Now    func() time.Time
}

func NewInMemoryClaimStore() *InMemoryClaimStore {
	return &InMemoryClaimStore{
		byKey:  map[string]*claim{},
		owners: map[string]string{},
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *InMemoryClaimStore) Claim(_ context.Context, key string, lease time.Duration) (string, bool, error) {
	if s == nil {
		return "", false, core.InternalError("inbound: claim store is nil", nil)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, core.BadInputError("inbound: idempotency key is required", nil)
	}
	if lease <= 0 {
		lease = DefaultKeyTTL
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(now)

	if current, ok := s.byKey[key]; ok && current.blocks(now) {
		return "", false, nil
	} else if ok {
		delete(s.owners, current.id)
	}

	next := &claim{id: uuid.NewString(), state: claimProcessing, lease: lease, until: now.Add(lease)}
	s.byKey[key] = next
	s.owners[next.id] = key
	return next.id, true, nil
}

func (s *InMemoryClaimStore) Complete(_ context.Context, claimID string) error {
	return s.settle(claimID, func(c *claim, now time.Time) {
		c.state = claimDone
		c.until = now.Add(c.lease)
	})
}

func (s *InMemoryClaimStore) Fail(_ context.Context, claimID string, _ error, retryAt time.Time) error {
	return s.settle(claimID, func(c *claim, now time.Time) {
		if retryAt.IsZero() {
			retryAt = now
		}
		c.state = claimRetryable
		c.retryAt = retryAt.UTC()
		c.until = time.Time{}
	})
}

func (s *InMemoryClaimStore) settle(claimID string, apply func(*claim, time.Time)) error {
	if s == nil {
		return core.InternalError("inbound: claim store is nil", nil)
	}
	claimID = strings.TrimSpace(claimID)
	if claimID == "" {
		return core.BadInputError("inbound: claim id is required", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.owners[claimID]
	if !ok {
		return nil
	}
	delete(s.owners, claimID)
	current, ok := s.byKey[key]
	if !ok || current.id != claimID || current.state != claimProcessing {
		return nil
	}
	apply(current, s.now())
	return nil
}

func (c *claim) blocks(now time.Time) bool {
	switch c.state {
	case claimProcessing, claimDone:
		return now.Before(c.until)
	case claimRetryable:
		return now.Before(c.retryAt)
	}
	return false
}

// sweepLocked drops every claim that no longer blocks its key, including
// abandoned processing leases and lapsed retry windows.
func (s *InMemoryClaimStore) sweepLocked(now time.Time) {
	for key, current := range s.byKey {
		if !current.blocks(now) {
			delete(s.owners, current.id)
			delete(s.byKey, key)
		}
	}
}

func (s *InMemoryClaimStore) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

var _ core.IdempotencyClaimStore = (*InMemoryClaimStore)(nil)
