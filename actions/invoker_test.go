package actions

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/goliatone/go-leadtable/client"
	"github.com/goliatone/go-leadtable/core"
)

type call struct {
	name string
	args []any
}

type fakeAPI struct {
	calls    []call
	response any
	err      error
	errFor   map[string]error
}

func (f *fakeAPI) record(name string, args ...any) (any, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if err, ok := f.errFor[name]; ok {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.response == nil {
		return map[string]any{"ok": true}, nil
	}
	return f.response, nil
}

func (f *fakeAPI) CheckAuth(context.Context) (any, error) { return f.record("CheckAuth") }
func (f *fakeAPI) CreateLead(_ context.Context, in client.CreateLeadInput) (any, error) {
	return f.record("CreateLead", in)
}
func (f *fakeAPI) GetLead(_ context.Context, id string, plain bool) (any, error) {
	return f.record("GetLead", id, plain)
}
func (f *fakeAPI) UpdateLead(_ context.Context, id string, in client.UpdateLeadInput) (any, error) {
	return f.record("UpdateLead", id, in)
}
func (f *fakeAPI) UpdateLeadDescription(_ context.Context, id, description string) (any, error) {
	return f.record("UpdateLeadDescription", id, description)
}
func (f *fakeAPI) SearchLeadsByEmail(_ context.Context, email string, page client.Page) (any, error) {
	return f.record("SearchLeadsByEmail", email, page)
}
func (f *fakeAPI) ListLeadsByCampaign(_ context.Context, id string, page client.Page) (any, error) {
	return f.record("ListLeadsByCampaign", id, page)
}
func (f *fakeAPI) AddFile(_ context.Context, in client.AddFileInput) (any, error) {
	return f.record("AddFile", in)
}
func (f *fakeAPI) ListCampaigns(_ context.Context, customerID string) (any, error) {
	return f.record("ListCampaigns", customerID)
}
func (f *fakeAPI) ListCustomers(_ context.Context, page, limit int) (any, error) {
	return f.record("ListCustomers", page, limit)
}
func (f *fakeAPI) CreateCustomer(_ context.Context, name, description string) (any, error) {
	return f.record("CreateCustomer", name, description)
}
func (f *fakeAPI) CreateTable(_ context.Context, in client.CreateTableInput) (any, error) {
	return f.record("CreateTable", in)
}
func (f *fakeAPI) AttachWebhook(_ context.Context, in core.AttachWebhookInput) (map[string]any, error) {
	response, err := f.record("AttachWebhook", in)
	object, _ := response.(map[string]any)
	return object, err
}
func (f *fakeAPI) RemoveWebhook(_ context.Context, in core.RemoveWebhookInput) (any, error) {
	return f.record("RemoveWebhook", in)
}
func (f *fakeAPI) PollWebhook(_ context.Context, id string, topic core.Topic) (any, error) {
	return f.record("PollWebhook", id, topic)
}

func TestInvoker_FansOutArrayResponses(t *testing.T) {
	api := &fakeAPI{response: []any{map[string]any{"_id": "1"}, map[string]any{"_id": "2"}}}
	invoker := NewInvoker(api)

	results, err := invoker.Invoke(context.Background(), Invocation{
		Resource:  ResourceCustomer,
		Operation: "getAll",
		Items:     []Parameters{{}, {"page": float64(3), "limit": "10"}},
	})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected four results, got %#v", results)
	}
	if results[0].Item != 0 || results[3].Item != 1 {
		t.Fatalf("unexpected item indexes %#v", results)
	}
	if api.calls[0].args[0] != DefaultPage || api.calls[0].args[1] != DefaultLimit {
		t.Fatalf("expected default pagination, got %#v", api.calls[0].args)
	}
	if api.calls[1].args[0] != 3 || api.calls[1].args[1] != 10 {
		t.Fatalf("expected explicit pagination, got %#v", api.calls[1].args)
	}
}

func TestInvoker_ContinueOnFailCapturesItemErrors(t *testing.T) {
	api := &fakeAPI{}
	invoker := NewInvoker(api)

	items := []Parameters{{"leadId": "L1"}, {}, {"leadId": "L3"}}
	results, err := invoker.Invoke(context.Background(), Invocation{
		Resource: ResourceLead, Operation: "get", Items: items, ContinueOnFail: true,
	})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected three results, got %#v", results)
	}
	errorJSON, ok := results[1].JSON.(map[string]any)
	if !ok || errorJSON["error"] != `parameter "leadId" is required` || results[1].Error == "" {
		t.Fatalf("expected captured error for item 1, got %#v", results[1])
	}

	_, err = invoker.Invoke(context.Background(), Invocation{Resource: ResourceLead, Operation: "get", Items: items})
	if !core.IsInvalidConfiguration(err) {
		t.Fatalf("expected batch to abort, got %v", err)
	}
}

func TestInvoker_RejectsUnknownOperation(t *testing.T) {
	_, err := NewInvoker(&fakeAPI{}).Invoke(context.Background(), Invocation{Resource: "lead", Operation: "archive"})
	if !core.IsInvalidConfiguration(err) {
		t.Fatalf("expected invalid configuration, got %v", err)
	}
}

func TestInvoker_GetByCampaignRejectsPlaceholders(t *testing.T) {
	api := &fakeAPI{}
	_, err := NewInvoker(api).Invoke(context.Background(), Invocation{
		Resource: ResourceLead, Operation: "getByCampaign",
		Items: []Parameters{{"campaignId": core.PlaceholderNoCustomerSelected}},
	})
	if core.ErrorMessage(err) != messageInvalidCampaign {
		t.Fatalf("unexpected error %v", err)
	}
	if len(api.calls) != 0 {
		t.Fatalf("expected no remote call")
	}
}

func TestInvoker_AttachWebhookRules(t *testing.T) {
	api := &fakeAPI{}
	invoker := NewInvoker(api)

	_, err := invoker.Invoke(context.Background(), Invocation{
		Resource: ResourceWebhook, Operation: "attach",
		Items: []Parameters{{"layer": "customer", "topic": "newTable", "webhookUrl": "https://hook"}},
	})
	if core.ErrorMessage(err) != messageNewTableAgency {
		t.Fatalf("unexpected error %v", err)
	}

	_, err = invoker.Invoke(context.Background(), Invocation{
		Resource: ResourceWebhook, Operation: "attach",
		Items: []Parameters{
			{"layer": "table", "topic": "newLead", "webhookUrl": "https://hook", "campaignId": "T9"},
			{"layer": "customer", "topic": "newLead", "webhookUrl": "https://hook", "campaignId": "T9"},
		},
	})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if in := api.calls[0].args[0].(core.AttachWebhookInput); in.ScopeID != "T9" {
		t.Fatalf("expected campaignID on table layer, got %#v", in)
	}
	if in := api.calls[1].args[0].(core.AttachWebhookInput); in.ScopeID != "" {
		t.Fatalf("expected no campaignID outside table layer, got %#v", in)
	}
}

func TestInvoker_RemoveWebhookTranslatesTopicAndWrapsErrors(t *testing.T) {
	api := &fakeAPI{}
	invoker := NewInvoker(api)
	params := Parameters{"layer": "agency", "topic": "newTable", "webhookUrl": "https://hook", "id": "agency@example.com"}

	if _, err := invoker.Invoke(context.Background(), Invocation{Resource: ResourceWebhook, Operation: "remove", Items: []Parameters{params}}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	in := api.calls[0].args[0].(core.RemoveWebhookInput)
	if in.Topic != core.TopicUpdateLead || in.ID != "agency@example.com" {
		t.Fatalf("unexpected remove input %#v", in)
	}

	api.errFor = map[string]error{"RemoveWebhook": core.RemoteRequestFailedError("LeadTable API request failed: 500", http.StatusInternalServerError, nil)}
	_, err := invoker.Invoke(context.Background(), Invocation{Resource: ResourceWebhook, Operation: "remove", Items: []Parameters{params}})
	if !core.IsRemoteRequestFailed(err) {
		t.Fatalf("expected remote request failure, got %v", err)
	}
	if !strings.HasPrefix(core.ErrorMessage(err), "Failed to remove webhook: ") {
		t.Fatalf("unexpected message %q", core.ErrorMessage(err))
	}
}

func TestInvoker_CreateLeadReadsLeadData(t *testing.T) {
	api := &fakeAPI{}
	_, err := NewInvoker(api).Invoke(context.Background(), Invocation{
		Resource: ResourceLead, Operation: "create",
		Items: []Parameters{{
			"campaignId": "T9",
			"leadData": map[string]any{"data": []any{
				map[string]any{"key": "name", "value": "Ada"},
				"ignored",
			}},
		}},
	})
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	in := api.calls[0].args[0].(client.CreateLeadInput)
	if in.CampaignID != "T9" || len(in.Data) != 1 || in.Data[0].Value != "Ada" {
		t.Fatalf("unexpected input %#v", in)
	}
}

func TestInvoker_AddFileDecodesBase64Content(t *testing.T) {
	api := &fakeAPI{}
	_, err := NewInvoker(api).Invoke(context.Background(), Invocation{
		Resource: ResourceLead, Operation: "addFile",
		Items: []Parameters{{"leadId": "L1", "fileName": "a.txt", "content": "aGk="}},
	})
	if err != nil {
		t.Fatalf("add file: %v", err)
	}
	in := api.calls[0].args[0].(client.AddFileInput)
	if string(in.Content) != "hi" || in.FileName != "a.txt" {
		t.Fatalf("unexpected input %#v", in)
	}
}

func TestInvoker_SupportsEveryDocumentedOperation(t *testing.T) {
	invoker := NewInvoker(&fakeAPI{})
	for _, pair := range [][2]string{
		{"auth", "check"}, {"lead", "create"}, {"lead", "get"}, {"lead", "update"},
		{"lead", "updateDescription"}, {"lead", "searchByEmail"}, {"lead", "getByCampaign"},
		{"lead", "addFile"}, {"campaign", "getAll"}, {"customer", "getAll"}, {"customer", "create"},
		{"table", "createTable"}, {"webhook", "attach"}, {"webhook", "remove"}, {"webhook", "poll"},
	} {
		if !invoker.Supports(pair[0], pair[1]) {
			t.Fatalf("expected %s.%s to be supported", pair[0], pair[1])
		}
	}
	if len(invoker.Operations()) != 15 {
		t.Fatalf("expected 15 operations, got %d", len(invoker.Operations()))
	}
}

func TestInvoker_OperationsKeepCanonicalNames(t *testing.T) {
	invoker := NewInvoker(&fakeAPI{})
	names := strings.Join(invoker.Operations(), ",")
	for _, want := range []string{"lead.updateDescription", "table.createTable", "campaign.getAll", "lead.get"} {
		if !strings.Contains(names, want) {
			t.Fatalf("expected %q in %s", want, names)
		}
	}
	if strings.Contains(names, "lead.updatedescription") || strings.Contains(names, "table.createtable") {
		t.Fatalf("expected display names to keep their case, got %s", names)
	}
	if !invoker.Supports("LEAD", "UpdateDescription") {
		t.Fatalf("expected case-insensitive lookup")
	}
}
