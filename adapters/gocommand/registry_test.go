package gocommand

import (
	"context"
	"testing"

	"github.com/goliatone/go-command"
	"github.com/goliatone/go-leadtable/core"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
)

type refreshOptionsMessage struct {
	CustomerID string
}

func (refreshOptionsMessage) Type() string { return "leadtable.test.options.refresh" }

type queuedPollMessage struct {
	Request core.PollRequest
}

func (queuedPollMessage) Type() string { return "leadtable.test.poll.queued" }

type countOptionsMessage struct{}

func (countOptionsMessage) Type() string { return "leadtable.test.options.count" }

func TestRegisterAndSubscribe_DispatchesAfterInitialize(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	var refreshed []string
	resolverRuns := 0

	sub, err := RegisterAndSubscribe(adapter, command.CommandFunc[refreshOptionsMessage](func(_ context.Context, msg refreshOptionsMessage) error {
		refreshed = append(refreshed, msg.CustomerID)
		return nil
	}))
	if err != nil {
		t.Fatalf("register and subscribe: %v", err)
	}
	t.Cleanup(sub.Unsubscribe)

	if err := adapter.AddResolver(" audit ", func(any, command.CommandMeta, *command.Registry) error {
		resolverRuns++
		return nil
	}); err != nil {
		t.Fatalf("add resolver: %v", err)
	}
	if !adapter.HasResolver("audit") {
		t.Fatalf("expected trimmed resolver key to be registered")
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if resolverRuns == 0 {
		t.Fatalf("expected resolver to see the registered handler")
	}

	if err := Dispatch(context.Background(), refreshOptionsMessage{CustomerID: "C1"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(refreshed) != 1 || refreshed[0] != "C1" {
		t.Fatalf("unexpected handled messages %v", refreshed)
	}
}

func TestRegisterAndSubscribeQuery_ReturnsResult(t *testing.T) {
	adapter := NewRegistryAdapter(nil)
	sub, err := RegisterAndSubscribeQuery(adapter, command.QueryFunc[countOptionsMessage, int](func(context.Context, countOptionsMessage) (int, error) {
		return 3, nil
	}))
	if err != nil {
		t.Fatalf("register query: %v", err)
	}
	t.Cleanup(sub.Unsubscribe)

	count, err := Query[countOptionsMessage, int](context.Background(), countOptionsMessage{})
	if err != nil || count != 3 {
		t.Fatalf("expected 3 options, got %d (%v)", count, err)
	}
}

func TestQueueResolverMirrorsPollCommands(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	queueRegistry := jobqueuecommand.NewRegistry()

	if err := adapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if err := adapter.RegisterCommand(command.CommandFunc[queuedPollMessage](func(context.Context, queuedPollMessage) error { return nil })); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if _, ok := queueRegistry.Get("leadtable.test.poll.queued"); !ok {
		t.Fatalf("expected poll command to be mirrored into the queue registry")
	}
	if err := adapter.AddQueueResolver("other", nil); err == nil {
		t.Fatalf("expected nil queue registry to be rejected")
	}
}

func TestUnconfiguredAdapterFails(t *testing.T) {
	var adapter *RegistryAdapter
	if err := adapter.Initialize(); err != errRegistryNotConfigured {
		t.Fatalf("expected not configured error, got %v", err)
	}
	if adapter.HasResolver("queue") {
		t.Fatalf("expected nil adapter to report no resolvers")
	}
	if _, err := RegisterAndSubscribe[refreshOptionsMessage](adapter, nil); err == nil {
		t.Fatalf("expected registration on nil adapter to fail")
	}
}
