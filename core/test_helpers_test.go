package core

import (
	"context"
	"net/http"
	"sync"
	"time"
)

type fakeRemoteAPI struct {
	mu sync.Mutex

	email string

	attachResponse map[string]any
	attachErr      error
	removeErr      error
	leadResponse   any
	leadErr        error
	customers      any
	customersErr   error
	campaigns      any
	campaignsErr   error
	pollResponse   any
	pollErr        error

	attachCalls   []AttachWebhookInput
	removeCalls   []RemoveWebhookInput
	leadCalls     []string
	customerCalls int
	campaignCalls []string
	pollCalls     []string
}

func newFakeRemoteAPI() *fakeRemoteAPI {
	return &fakeRemoteAPI{email: "agency@example.com"}
}

func (f *fakeRemoteAPI) AccountEmail() string { return f.email }

func (f *fakeRemoteAPI) AttachWebhook(_ context.Context, in AttachWebhookInput) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attachCalls = append(f.attachCalls, in)
	return f.attachResponse, f.attachErr
}

func (f *fakeRemoteAPI) RemoveWebhook(_ context.Context, in RemoveWebhookInput) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls = append(f.removeCalls, in)
	return map[string]any{"ok": true}, f.removeErr
}

func (f *fakeRemoteAPI) PollWebhook(_ context.Context, campaignID string, topic Topic) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pollCalls = append(f.pollCalls, campaignID+"/"+string(topic))
	return f.pollResponse, f.pollErr
}

func (f *fakeRemoteAPI) GetLead(_ context.Context, leadID string, _ bool) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leadCalls = append(f.leadCalls, leadID)
	return f.leadResponse, f.leadErr
}

func (f *fakeRemoteAPI) ListCustomers(context.Context, int, int) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customerCalls++
	return f.customers, f.customersErr
}

func (f *fakeRemoteAPI) ListCampaigns(_ context.Context, customerID string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.campaignCalls = append(f.campaignCalls, customerID)
	return f.campaigns, f.campaignsErr
}

func (f *fakeRemoteAPI) networkCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.attachCalls) + len(f.removeCalls) + len(f.leadCalls) + f.customerCalls + len(f.campaignCalls) + len(f.pollCalls)
}

func remoteStatusError(status int, remote string) error {
	metadata := map[string]any{MetadataStatusCode: status, MetadataRemoteMessage: remote}
	switch status {
	case http.StatusForbidden:
		return AuthenticationFailedError("LeadTable API request failed: 403 - Authentication failed. Please check your API Key and Email address.", metadata)
	case http.StatusNotFound:
		return UnknownScopeIDError("LeadTable API request failed: 404 - \""+remote+"\"", metadata)
	default:
		return RemoteRequestFailedError("LeadTable API request failed", status, metadata)
	}
}

type recordingEnqueuer struct {
	messages []*JobExecutionMessage
	err      error
}

func (r *recordingEnqueuer) Enqueue(_ context.Context, msg *JobExecutionMessage) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, msg)
	return nil
}

type mapOptionCache struct {
	entries map[string][]SelectOption
	loads   int
}

func (c *mapOptionCache) GetOrLoad(ctx context.Context, key string, load OptionLoader) ([]SelectOption, error) {
	if c.entries == nil {
		c.entries = map[string][]SelectOption{}
	}
	if cached, ok := c.entries[key]; ok {
		return cached, nil
	}
	c.loads++
	options, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.entries[key] = options
	return options, nil
}

func (c *mapOptionCache) Invalidate(_ context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func fixedClock() time.Time {
	return time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
}

func newTestService(api *fakeRemoteAPI, opts ...Option) (*Service, *MemoryStaticDataStore) {
	store := NewMemoryStaticDataStore()
	base := []Option{WithRemoteAPI(api), WithStaticDataStore(store), WithClock(fixedClock)}
	svc, err := NewService(Config{}, append(base, opts...)...)
	if err != nil {
		panic(err)
	}
	return svc, store
}
