package leadtable

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-leadtable/client"
	"github.com/goliatone/go-leadtable/core"
)

type remoteCall struct {
	method string
	path   string
	body   string
}

type fakeLeadTableAPI struct {
	mu           sync.Mutex
	calls        []remoteCall
	attachStatus int
	removeStatus int
	leadStatus   int
}

func (f *fakeLeadTableAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.calls = append(f.calls, remoteCall{method: r.Method, path: r.URL.Path, body: string(body)})
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/attachWebhook"):
			writeStatus(w, f.attachStatus, `{"_id":"wh_1"}`, `{"error":"Campaign not found"}`)
		case strings.HasSuffix(r.URL.Path, "/removeWebhook"):
			writeStatus(w, f.removeStatus, `{"success":true}`, `{"error":"boom"}`)
		case strings.Contains(r.URL.Path, "/lead/"):
			writeStatus(w, f.leadStatus, `{"_id":"L1","name":"Ada"}`, `{"error":"Lead not found"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func writeStatus(w http.ResponseWriter, status int, success string, failure string) {
	if status == 0 || status < http.StatusBadRequest {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(success))
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(failure))
}

func (f *fakeLeadTableAPI) snapshot() []remoteCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]remoteCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func newTriggerFixture(t *testing.T, cfg TriggerConfig) (*Trigger, *fakeLeadTableAPI, *core.MemoryStaticDataStore) {
	t.Helper()
	fake := &fakeLeadTableAPI{}
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	api, err := client.New(Credentials{APIKey: "key", Email: "agency@example.com", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	store := core.NewMemoryStaticDataStore()
	svc, err := NewService(Config{}, WithRemoteAPI(api), WithStaticDataStore(store))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	trigger, err := NewTrigger(svc, WorkflowRef{WorkflowID: "wf_1"}, cfg)
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	return trigger, fake, store
}

func TestTrigger_TableLifecycle(t *testing.T) {
	trigger, fake, _ := newTriggerFixture(t, TriggerConfig{Event: TopicNewLead, Layer: LayerTable, CustomerID: "C1", CampaignID: "T9"})
	ctx := context.Background()

	record, err := trigger.Create(ctx, "https://host/hook")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if record.RemoteSubscriptionID != "wh_1" {
		t.Fatalf("unexpected record %#v", record)
	}
	calls := fake.snapshot()
	var attach map[string]string
	if err := json.Unmarshal([]byte(calls[0].body), &attach); err != nil {
		t.Fatalf("decode attach body: %v", err)
	}
	if attach["url"] != "https://host/hook" || attach["topic"] != "newLead" || attach["layer"] != "table" || attach["campaignID"] != "T9" {
		t.Fatalf("unexpected attach body %#v", attach)
	}
	if exists, err := trigger.CheckExists(ctx); err != nil || !exists {
		t.Fatalf("expected subscription to exist, got %v (%v)", exists, err)
	}

	if err := trigger.Delete(ctx, "https://host/hook"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	calls = fake.snapshot()
	remove := calls[len(calls)-1]
	if remove.method != http.MethodDelete {
		t.Fatalf("expected DELETE, got %s", remove.method)
	}
	form, _ := url.ParseQuery(remove.body)
	if form.Get("topic") != "newLead" || form.Get("layer") != "table" || form.Get("id") != "T9" || form.Get("relatedID") != "C1" {
		t.Fatalf("unexpected remove form %#v", form)
	}
	if exists, err := trigger.CheckExists(ctx); err != nil || exists {
		t.Fatalf("expected subscription to be gone, got %v (%v)", exists, err)
	}
}

func TestTrigger_AgencyNewTableDeleteFallsBackToUpdateLead(t *testing.T) {
	trigger, fake, _ := newTriggerFixture(t, TriggerConfig{Event: TopicNewTable, Layer: LayerAgency})
	ctx := context.Background()

	if _, err := trigger.Create(ctx, "https://host/hook"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := trigger.Delete(ctx, "https://host/hook"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	calls := fake.snapshot()
	var attach map[string]string
	_ = json.Unmarshal([]byte(calls[0].body), &attach)
	if attach["topic"] != "newTable" || attach["campaignID"] != "agency@example.com" {
		t.Fatalf("unexpected attach body %#v", attach)
	}
	form, _ := url.ParseQuery(calls[1].body)
	if form.Get("topic") != "updateLead" || form.Get("id") != "agency@example.com" {
		t.Fatalf("unexpected remove form %#v", form)
	}
	if _, ok := form["relatedID"]; ok {
		t.Fatalf("did not expect relatedID outside table layer")
	}
}

func TestTrigger_DeleteClearsStorageWhenRemoteFails(t *testing.T) {
	trigger, fake, store := newTriggerFixture(t, TriggerConfig{Event: TopicChangeStatus, Layer: LayerCustomer, CustomerID: "C1"})
	ctx := context.Background()
	if _, err := trigger.Create(ctx, "https://host/hook"); err != nil {
		t.Fatalf("create: %v", err)
	}
	fake.removeStatus = http.StatusInternalServerError

	if err := trigger.Delete(ctx, "https://host/hook"); err != nil {
		t.Fatalf("remote delete failures must not fail deactivation: %v", err)
	}
	if _, found, _ := store.Get(ctx, "wf_1", trigger.Ref().StorageKey()); found {
		t.Fatalf("expected record to be cleared")
	}
}

func TestTrigger_CreateUnknownScopeLeavesNoRecord(t *testing.T) {
	trigger, fake, _ := newTriggerFixture(t, TriggerConfig{Event: TopicNewLead, Layer: LayerTable, CustomerID: "C1", CampaignID: "missing"})
	fake.attachStatus = http.StatusNotFound

	_, err := trigger.Create(context.Background(), "https://host/hook")
	if !core.IsUnknownScopeID(err) {
		t.Fatalf("expected unknown scope id, got %v", err)
	}
	if !strings.Contains(core.ErrorMessage(err), `"Campaign not found"`) {
		t.Fatalf("expected remote detail in message, got %q", core.ErrorMessage(err))
	}
	if exists, _ := trigger.CheckExists(context.Background()); exists {
		t.Fatalf("expected no record after failed create")
	}
}

func TestTrigger_CreateRejectsMissingScopeWithoutNetwork(t *testing.T) {
	trigger, fake, _ := newTriggerFixture(t, TriggerConfig{Event: TopicNewLead, Layer: LayerCustomer})

	_, err := trigger.Create(context.Background(), "https://host/hook")
	if !core.IsInvalidConfiguration(err) {
		t.Fatalf("expected invalid configuration, got %v", err)
	}
	if len(fake.snapshot()) != 0 {
		t.Fatalf("expected no network calls")
	}
}

func TestTrigger_DeliverEnrichment(t *testing.T) {
	trigger, fake, _ := newTriggerFixture(t, TriggerConfig{Event: TopicNewLead, Layer: LayerAgency, IncludeLeadDetails: true})

	event, err := trigger.Deliver(context.Background(), []byte(`{"leadId":"L1","topic":"newLead"}`))
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	details, ok := event[core.FieldLeadDetails].(map[string]any)
	if !ok || details["name"] != "Ada" {
		t.Fatalf("expected lead details, got %#v", event)
	}

	fake.leadStatus = http.StatusNotFound
	event, err = trigger.Deliver(context.Background(), []byte(`{"leadId":"L2"}`))
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if event["leadId"] != "L2" || event[core.FieldLeadDetailsError] == nil {
		t.Fatalf("expected base event with leadDetailsError, got %#v", event)
	}
}
