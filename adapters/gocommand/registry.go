// Package gocommand exposes the LeadTable commands and queries on a
// go-command registry and dispatcher.
package gocommand

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
)

var errRegistryNotConfigured = errors.New("gocommand: registry is not configured")

// RegistryAdapter owns the go-command registry the LeadTable handlers are
// registered on. Resolvers added before Initialize see every handler.
type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) configured() error {
	if a == nil || a.registry == nil {
		return errRegistryNotConfigured
	}
	return nil
}

func (a *RegistryAdapter) RegisterCommand(handler any) error {
	if err := a.configured(); err != nil {
		return err
	}
	return a.registry.RegisterCommand(handler)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if err := a.configured(); err != nil {
		return err
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

// AddQueueResolver mirrors every registered handler into a go-job command
// registry so the same messages can be queued, e.g. poll scheduling.
func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if queueRegistry == nil {
		return errors.New("gocommand: queue registry is required")
	}
	return a.AddResolver(key, jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	return a.configured() == nil && a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if err := a.configured(); err != nil {
		return err
	}
	return a.registry.Initialize()
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

// RegisterAndSubscribe subscribes cmd on the dispatcher and registers it.
// The subscription is removed again when registration fails.
func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if err := adapter.configured(); err != nil {
		return nil, err
	}
	if cmd == nil {
		return nil, errors.New("gocommand: command is required")
	}
	return subscribeThenRegister(adapter, cmd, commanddispatcher.SubscribeCommand(cmd, runnerOpts...))
}

func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if err := adapter.configured(); err != nil {
		return nil, err
	}
	if qry == nil {
		return nil, errors.New("gocommand: query is required")
	}
	return subscribeThenRegister(adapter, qry, commanddispatcher.SubscribeQuery(qry, runnerOpts...))
}

func subscribeThenRegister(
	adapter *RegistryAdapter,
	handler any,
	subscription commanddispatcher.Subscription,
) (commanddispatcher.Subscription, error) {
	if err := adapter.RegisterCommand(handler); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}
