package actions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-leadtable/client"
	"github.com/goliatone/go-leadtable/core"
	glog "github.com/goliatone/go-logger/glog"
)

type API interface {
	CheckAuth(ctx context.Context) (any, error)
	CreateLead(ctx context.Context, in client.CreateLeadInput) (any, error)
	GetLead(ctx context.Context, leadID string, plainDescription bool) (any, error)
	UpdateLead(ctx context.Context, leadID string, in client.UpdateLeadInput) (any, error)
	UpdateLeadDescription(ctx context.Context, leadID, description string) (any, error)
	SearchLeadsByEmail(ctx context.Context, email string, page client.Page) (any, error)
	ListLeadsByCampaign(ctx context.Context, campaignID string, page client.Page) (any, error)
	AddFile(ctx context.Context, in client.AddFileInput) (any, error)
	ListCampaigns(ctx context.Context, customerID string) (any, error)
	ListCustomers(ctx context.Context, page, limit int) (any, error)
	CreateCustomer(ctx context.Context, name, description string) (any, error)
	CreateTable(ctx context.Context, in client.CreateTableInput) (any, error)
	AttachWebhook(ctx context.Context, in core.AttachWebhookInput) (map[string]any, error)
	RemoveWebhook(ctx context.Context, in core.RemoveWebhookInput) (any, error)
	PollWebhook(ctx context.Context, campaignID string, topic core.Topic) (any, error)
}

type Invocation struct {
	Resource       string
	Operation      string
	Items          []Parameters
	ContinueOnFail bool
}

// Result is one output element. Item is the index of the input item that
// produced it.
type Result struct {
	Item  int    `json:"item"`
	JSON  any    `json:"json"`
	Error string `json:"error,omitempty"`
}

type operationFunc func(ctx context.Context, params Parameters) (any, error)

type route struct {
	resource  string
	operation string
	run       operationFunc
}

func (r route) name() string {
	return r.resource + "." + r.operation
}

type Invoker struct {
	api        API
	logger     core.Logger
	metrics    core.MetricsRecorder
	operations map[string]route
}

type Option func(*Invoker)

func WithLogger(logger core.Logger) Option {
	return func(i *Invoker) {
		if logger != nil {
			i.logger = logger
		}
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(i *Invoker) {
		if recorder != nil {
			i.metrics = recorder
		}
	}
}

func NewInvoker(api API, opts ...Option) *Invoker {
	invoker := &Invoker{
		api:     api,
		logger:  glog.Nop(),
		metrics: core.NopMetricsRecorder{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(invoker)
		}
	}
	invoker.operations = map[string]route{}
	for _, r := range invoker.routes() {
		invoker.operations[routeKey(r.resource, r.operation)] = r
	}
	return invoker
}

func (i *Invoker) Supports(resource, operation string) bool {
	_, ok := i.operations[routeKey(resource, operation)]
	return ok
}

// Operations lists the known pairs as resource.operation names. Lookups
// ignore case; the names keep their canonical spelling.
func (i *Invoker) Operations() []string {
	names := make([]string, 0, len(i.operations))
	for _, r := range i.operations {
		names = append(names, r.name())
	}
	return sortedStrings(names)
}

// Invoke runs the operation once per item. Array responses fan out to one
// result per element. With ContinueOnFail an item error becomes an
// {"error": message} result; otherwise the first error aborts the batch.
func (i *Invoker) Invoke(ctx context.Context, inv Invocation) ([]Result, error) {
	if i == nil || i.api == nil {
		return nil, core.InternalError("actions: invoker requires a LeadTable client", nil)
	}
	r, ok := i.operations[routeKey(inv.Resource, inv.Operation)]
	if !ok {
		return nil, core.InvalidConfigurationError(
			fmt.Sprintf("unsupported operation %q for resource %q", inv.Operation, inv.Resource),
			map[string]any{"resource": inv.Resource, "operation": inv.Operation},
		)
	}

	items := inv.Items
	if len(items) == 0 {
		items = []Parameters{{}}
	}
	results := make([]Result, 0, len(items))
	for index, params := range items {
		if params == nil {
			params = Parameters{}
		}
		response, err := i.run(ctx, r, params)
		if err != nil {
			if !inv.ContinueOnFail {
				return nil, err
			}
			message := core.ErrorMessage(err)
			results = append(results, Result{Item: index, JSON: map[string]any{"error": message}, Error: message})
			continue
		}
		for _, element := range core.ItemsOf(response) {
			results = append(results, Result{Item: index, JSON: element})
		}
	}
	return results, nil
}

func (i *Invoker) run(ctx context.Context, r route, params Parameters) (response any, err error) {
	startedAt := time.Now()
	name := r.name()
	defer func() {
		status := "success"
		if err != nil {
			status = "failure"
			i.logger.Error("leadtable action failed", "action", name, "error", core.ErrorMessage(err))
		} else {
			i.logger.Debug("leadtable action succeeded", "action", name)
		}
		tags := map[string]string{"action": name, "status": status}
		i.metrics.IncCounter(ctx, "leadtable.action.total", 1, tags)
		i.metrics.ObserveHistogram(ctx, "leadtable.action.duration_ms", float64(time.Since(startedAt).Milliseconds()), tags)
	}()
	return r.run(ctx, params)
}

func routeKey(resource, operation string) string {
	return strings.ToLower(strings.TrimSpace(resource)) + "." + strings.ToLower(strings.TrimSpace(operation))
}
