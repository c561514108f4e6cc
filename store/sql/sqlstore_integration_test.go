package sqlstore_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	leadtable "github.com/goliatone/go-leadtable"
	"github.com/goliatone/go-leadtable/core"
	"github.com/goliatone/go-leadtable/inbound"
	leadtablemigrations "github.com/goliatone/go-leadtable/migrations"
	sqlstore "github.com/goliatone/go-leadtable/store/sql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type testPersistenceConfig struct {
	driver string
	server string
}

func (c testPersistenceConfig) GetDebug() bool {
	return false
}

func (c testPersistenceConfig) GetDriver() string {
	return c.driver
}

func (c testPersistenceConfig) GetServer() string {
	return c.server
}

func (c testPersistenceConfig) GetPingTimeout() time.Duration {
	return time.Second
}

func (c testPersistenceConfig) GetOtelIdentifier() string {
	return "go-leadtable-tests"
}

func TestMigrationSmokeApplySQLite(t *testing.T) {
	client := newSQLiteClient(t)

	for _, table := range []string{"leadtable_static_data", "leadtable_inbound_claims"} {
		var tableName string
		if err := client.DB().NewRaw(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
			table,
		).Scan(context.Background(), &tableName); err != nil {
			t.Fatalf("query sqlite master for %s: %v", table, err)
		}
		if tableName != table {
			t.Fatalf("expected %s table, got %q", table, tableName)
		}
	}
}

func TestStaticDataStore_SetGetOverwriteDelete(t *testing.T) {
	ctx := context.Background()
	factory := newFactory(t)
	store := factory.StaticDataStore()

	if _, ok, err := store.Get(ctx, "wf_1", "webhook:default"); err != nil || ok {
		t.Fatalf("expected miss on empty store, got ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "wf_1", "webhook:default", []byte(`{"remoteSubscriptionId":"wh_1"}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "wf_1", "webhook:default", []byte(`{"remoteSubscriptionId":"wh_2"}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := store.Set(ctx, "wf_2", "webhook:default", []byte(`{"remoteSubscriptionId":"wh_9"}`)); err != nil {
		t.Fatalf("set other workflow: %v", err)
	}

	value, ok, err := store.Get(ctx, "wf_1", "webhook:default")
	if err != nil || !ok || string(value) != `{"remoteSubscriptionId":"wh_2"}` {
		t.Fatalf("unexpected value %q ok=%v err=%v", value, ok, err)
	}

	var rows int
	if err := factory.DB().NewRaw("SELECT COUNT(*) FROM leadtable_static_data").Scan(ctx, &rows); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 2 {
		t.Fatalf("expected one row per workflow key, got %d", rows)
	}

	if err := store.Delete(ctx, "wf_1", "webhook:default"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "wf_1", "webhook:default"); ok {
		t.Fatalf("expected value to be deleted")
	}
	if _, ok, _ := store.Get(ctx, "wf_2", "webhook:default"); !ok {
		t.Fatalf("expected other workflow to be untouched")
	}
	if err := store.Delete(ctx, "wf_1", "webhook:default"); err != nil {
		t.Fatalf("deleting a missing key must succeed: %v", err)
	}
	if err := store.Set(ctx, " ", "webhook:default", nil); !core.IsInvalidConfiguration(err) {
		t.Fatalf("expected invalid configuration for empty workflow id, got %v", err)
	}
}

func TestStaticDataStore_BacksServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	factory := newFactory(t)
	api := &stubRemoteAPI{}
	svc, err := leadtable.NewService(leadtable.Config{},
		leadtable.WithRemoteAPI(api),
		leadtable.WithStaticDataStore(factory.StaticDataStore()),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ref := core.WorkflowRef{WorkflowID: "wf_sql"}

	if _, err := svc.CreateWebhook(ctx, ref, core.SubscriptionRequest{
		Layer:       core.LayerCustomer,
		Topic:       core.TopicNewLead,
		CustomerID:  "C1",
		CallbackURL: "https://host/hook",
	}); err != nil {
		t.Fatalf("create webhook: %v", err)
	}
	if exists, err := svc.CheckWebhook(ctx, ref); err != nil || !exists {
		t.Fatalf("expected persisted subscription, got %v (%v)", exists, err)
	}
	if err := svc.DeleteWebhook(ctx, ref, core.SubscriptionRequest{}); err != nil {
		t.Fatalf("delete webhook: %v", err)
	}
	if exists, _ := svc.CheckWebhook(ctx, ref); exists {
		t.Fatalf("expected subscription to be removed")
	}
	if api.removed != 1 {
		t.Fatalf("expected one remote removal, got %d", api.removed)
	}
}

func TestClaimStore_ClaimCompleteFail(t *testing.T) {
	ctx := context.Background()
	store := newFactory(t).ClaimStore()

	first, accepted, err := store.Claim(ctx, "webhook:sha256:abc", time.Minute)
	if err != nil || !accepted || first == "" {
		t.Fatalf("expected first claim, got %q accepted=%v err=%v", first, accepted, err)
	}
	if _, accepted, err := store.Claim(ctx, "webhook:sha256:abc", time.Minute); err != nil || accepted {
		t.Fatalf("expected in-flight key to be held, accepted=%v err=%v", accepted, err)
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
	if _, accepted, _ := store.Claim(ctx, "webhook:sha256:abc", time.Minute); accepted {
		t.Fatalf("expected completed key to stay claimed for its lease")
	}
	if err := store.Complete(ctx, first); err != nil {
		t.Fatalf("completing a stale claim must be a no-op: %v", err)
	}
}

func TestClaimStore_DrivesInboundDispatcher(t *testing.T) {
	store := newFactory(t).ClaimStore()
	dispatcher := inbound.NewDispatcher(store)
	calls := 0
	handler := inbound.NewDeliveryHandler(normalizerFunc(func(raw []byte) core.EnrichedEvent {
		calls++
		return core.EnrichedEvent{"raw": string(raw)}
	}), nil, core.NormalizeOptions{})
	if err := dispatcher.Register(handler); err != nil {
		t.Fatalf("register: %v", err)
	}

	req := core.InboundRequest{
		Surface: inbound.SurfaceWebhook,
		Headers: map[string]string{"Idempotency-Key": "delivery-1"},
		Body:    []byte(`{"leadId":"L1"}`),
	}
	for range 3 {
		if _, err := dispatcher.Dispatch(context.Background(), req); err != nil {
			t.Fatalf("dispatch: %v", err)
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

type stubRemoteAPI struct {
	removed int
}

func (a *stubRemoteAPI) AttachWebhook(context.Context, core.AttachWebhookInput) (map[string]any, error) {
	return map[string]any{"_id": "wh_sql"}, nil
}

func (a *stubRemoteAPI) RemoveWebhook(context.Context, core.RemoveWebhookInput) (any, error) {
	a.removed++
	return map[string]any{"success": true}, nil
}

func (a *stubRemoteAPI) PollWebhook(context.Context, string, core.Topic) (any, error) {
	return []any{}, nil
}

func (a *stubRemoteAPI) GetLead(context.Context, string, bool) (any, error) {
	return map[string]any{}, nil
}

func (a *stubRemoteAPI) ListCustomers(context.Context, int, int) (any, error) {
	return map[string]any{"customers": []any{}}, nil
}

func (a *stubRemoteAPI) ListCampaigns(context.Context, string) (any, error) {
	return map[string]any{"campaigns": []any{}}, nil
}

func (a *stubRemoteAPI) AccountEmail() string {
	return "agency@example.com"
}

func newFactory(t *testing.T) *sqlstore.RepositoryFactory {
	t.Helper()
	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(newSQLiteClient(t))
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	return factory
}

func newSQLiteClient(t *testing.T) *persistence.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:leadtable-test-%d?mode=memory&cache=shared", time.Now().UnixNano())
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	client, err := persistence.New(testPersistenceConfig{driver: "sqlite3", server: dsn}, sqlDB, sqlitedialect.New())
	if err != nil {
		_ = sqlDB.Close()
		t.Fatalf("new persistence client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	_, err = leadtablemigrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != leadtablemigrations.DialectSQLite {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, leadtablemigrations.WithValidationTargets(leadtablemigrations.DialectSQLite))
	if err != nil {
		t.Fatalf("register migrations: %v", err)
	}
	if err := client.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return client
}
