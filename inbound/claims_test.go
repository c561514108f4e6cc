package inbound

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestInMemoryClaimStore_SweepsExpiredClaimsOfEveryState(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)
	store := NewInMemoryClaimStore()
	store.Now = func() time.Time { return now }

	abandoned, ok, err := store.Claim(ctx, "abandoned", time.Minute)
	if err != nil || !ok {
		t.Fatalf("claim abandoned: ok=%v err=%v", ok, err)
	}
	failed, ok, err := store.Claim(ctx, "failed", time.Minute)
	if err != nil || !ok {
		t.Fatalf("claim failed: ok=%v err=%v", ok, err)
	}
	if err := store.Fail(ctx, failed, errors.New("boom"), now.Add(30*time.Second)); err != nil {
		t.Fatalf("fail: %v", err)
	}
	done, ok, err := store.Claim(ctx, "done", time.Minute)
	if err != nil || !ok {
		t.Fatalf("claim done: ok=%v err=%v", ok, err)
	}
	if err := store.Complete(ctx, done); err != nil {
		t.Fatalf("complete: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, err := store.Claim(ctx, "fresh", time.Minute); err != nil || !ok {
		t.Fatalf("claim fresh: ok=%v err=%v", ok, err)
	}

	if len(store.byKey) != 1 {
		t.Fatalf("expected only the fresh claim to remain, got %d keys", len(store.byKey))
	}
	if len(store.owners) != 1 {
		t.Fatalf("expected only the fresh owner row to remain, got %d", len(store.owners))
	}
	if _, ok := store.owners[abandoned]; ok {
		t.Fatalf("expected abandoned processing claim owner to be swept")
	}

	if err := store.Complete(ctx, abandoned); err != nil {
		t.Fatalf("late complete: %v", err)
	}
	if _, ok := store.byKey["abandoned"]; ok {
		t.Fatalf("late complete must not resurrect a swept claim")
	}
}

func TestInMemoryClaimStore_KeepsLiveClaims(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)
	store := NewInMemoryClaimStore()
	store.Now = func() time.Time { return now }

	if _, ok, _ := store.Claim(ctx, "processing", time.Minute); !ok {
		t.Fatalf("expected processing claim")
	}
	failed, _, _ := store.Claim(ctx, "retry", time.Minute)
	if err := store.Fail(ctx, failed, nil, now.Add(time.Hour)); err != nil {
		t.Fatalf("fail: %v", err)
	}

	now = now.Add(30 * time.Second)
	if _, ok, _ := store.Claim(ctx, "other", time.Minute); !ok {
		t.Fatalf("expected other claim")
	}
	if len(store.byKey) != 3 || len(store.owners) != 2 {
		t.Fatalf("expected live claims to survive the sweep, keys=%d owners=%d", len(store.byKey), len(store.owners))
	}
	if _, ok, _ := store.Claim(ctx, "retry", time.Minute); ok {
		t.Fatalf("retryable claim must block until retryAt")
	}
}
