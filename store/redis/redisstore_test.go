package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goliatone/go-leadtable/core"
	"github.com/goliatone/go-leadtable/inbound"
	goredis "github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestStaticDataStore_HashPerWorkflow(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	store, err := NewStaticDataStore(client, WithKeyPrefix("lt:"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if _, ok, err := store.Get(ctx, "wf_1", "webhook:default"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "wf_1", "webhook:default", []byte(`{"remoteSubscriptionId":"wh_1"}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "wf_1", "options:customers", []byte(`[]`)); err != nil {
		t.Fatalf("set second key: %v", err)
	}

	value, ok, err := store.Get(ctx, "wf_1", "webhook:default")
	if err != nil || !ok || string(value) != `{"remoteSubscriptionId":"wh_1"}` {
		t.Fatalf("unexpected value %q ok=%v err=%v", value, ok, err)
	}
	if got := mr.HGet("lt:static:wf_1", "webhook:default"); got != `{"remoteSubscriptionId":"wh_1"}` {
		t.Fatalf("expected value under workflow hash, got %q", got)
	}
	keys, err := store.Keys(ctx, "wf_1")
	if err != nil || len(keys) != 2 {
		t.Fatalf("expected two keys, got %v (%v)", keys, err)
	}

	if err := store.Delete(ctx, "wf_1", "webhook:default"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "wf_1", "webhook:default"); ok {
		t.Fatalf("expected key to be deleted")
	}
	if err := store.Delete(ctx, "wf_1", "webhook:default"); err != nil {
		t.Fatalf("deleting a missing key must succeed: %v", err)
	}
	if err := store.Set(ctx, "wf_1", "", nil); !core.IsInvalidConfiguration(err) {
		t.Fatalf("expected invalid configuration for empty key, got %v", err)
	}
}

func TestStaticDataStore_ReportsConnectionErrors(t *testing.T) {
	mr, client := setupTestRedis(t)
	store, err := NewStaticDataStore(client)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	mr.SetError("ERR server unavailable")
	if _, _, err := store.Get(context.Background(), "wf_1", "k"); err == nil {
		t.Fatalf("expected redis error to surface")
	}
}

func TestNewStores_RequireClient(t *testing.T) {
	if _, err := NewStaticDataStore(nil); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if _, err := NewClaimStore(nil); err == nil {
		t.Fatalf("expected error for nil client")
	}
}

func TestClaimStore_ClaimCompleteFail(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	store, err := NewClaimStore(client)
	if err != nil {
		t.Fatalf("new claim store: %v", err)
	}

	first, accepted, err := store.Claim(ctx, "webhook:sha256:abc", time.Minute)
	if err != nil || !accepted || first == "" {
		t.Fatalf("expected first claim, got %q accepted=%v err=%v", first, accepted, err)
	}
	if _, accepted, _ := store.Claim(ctx, "webhook:sha256:abc", time.Minute); accepted {
		t.Fatalf("expected in-flight key to be held")
	}

	if err := store.Fail(ctx, first, errors.New("sink offline"), time.Time{}); err != nil {
		t.Fatalf("fail: %v", err)
	}
	second, accepted, err := store.Claim(ctx, "webhook:sha256:abc", time.Minute)
	if err != nil || !accepted || second == first {
		t.Fatalf("expected failed key to be reclaimable, got %q accepted=%v err=%v", second, accepted, err)
	}

	if err := store.Complete(ctx, second); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got, _ := mr.Get("leadtable:claim:webhook:sha256:abc"); got != "done:"+second {
		t.Fatalf("expected completed marker, got %q", got)
	}
	if _, accepted, _ := store.Claim(ctx, "webhook:sha256:abc", time.Minute); accepted {
		t.Fatalf("expected completed key to stay claimed for its lease")
	}
	if err := store.Complete(ctx, first); err != nil {
		t.Fatalf("completing a stale claim must be a no-op: %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if _, accepted, _ := store.Claim(ctx, "webhook:sha256:abc", time.Minute); !accepted {
		t.Fatalf("expected key to be claimable after the lease")
	}
}

func TestClaimStore_DrivesInboundDispatcher(t *testing.T) {
	_, client := setupTestRedis(t)
	store, err := NewClaimStore(client)
	if err != nil {
		t.Fatalf("new claim store: %v", err)
	}
	dispatcher := inbound.NewDispatcher(store)
	calls := 0
	handler := inbound.NewDeliveryHandler(normalizerFunc(func(raw []byte) core.EnrichedEvent {
		calls++
		return core.EnrichedEvent{"raw": string(raw)}
	}), nil, core.NormalizeOptions{})
	if err := dispatcher.Register(handler); err != nil {
		t.Fatalf("register: %v", err)
	}

	req := core.InboundRequest{Surface: inbound.SurfaceWebhook, Body: []byte(`{"leadId":"L1"}`)}
	for range 3 {
		result, err := dispatcher.Dispatch(context.Background(), req)
		if err != nil {
			t.Fatalf("dispatch: %v", err)
		}
		if !result.Accepted {
			t.Fatalf("expected accepted result %#v", result)
		}
	}
	if calls != 1 {
		t.Fatalf("expected a single normalization, got %d", calls)
	}
}

type normalizerFunc func(raw []byte) core.EnrichedEvent

func (f normalizerFunc) NormalizeRaw(_ context.Context, raw []byte, _ core.NormalizeOptions) (core.EnrichedEvent, error) {
	return f(raw), nil
}
