package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-leadtable/actions"
	"github.com/goliatone/go-leadtable/core"
)

type MutatingService interface {
	CreateWebhook(ctx context.Context, ref core.WorkflowRef, req core.SubscriptionRequest) (core.SubscriptionRecord, error)
	DeleteWebhook(ctx context.Context, ref core.WorkflowRef, fallback core.SubscriptionRequest) error
	NormalizeRaw(ctx context.Context, raw []byte, opts core.NormalizeOptions) (core.EnrichedEvent, error)
	SchedulePoll(ctx context.Context, req core.PollRequest, idempotencyKey string) (*core.JobExecutionMessage, error)
	InvalidateOptions(ctx context.Context, customerID string) error
}

type ActionInvoker interface {
	Invoke(ctx context.Context, inv actions.Invocation) ([]actions.Result, error)
}

type ActivateTriggerCommand struct {
	service MutatingService
}

func NewActivateTriggerCommand(service MutatingService) *ActivateTriggerCommand {
	return &ActivateTriggerCommand{service: service}
}

func (c *ActivateTriggerCommand) Execute(ctx context.Context, msg ActivateTriggerMessage) error {
	if c == nil || c.service == nil {
		return core.InternalError("command: activate trigger service is required", nil)
	}
	out, err := c.service.CreateWebhook(ctx, msg.Ref, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeactivateTriggerCommand struct {
	service MutatingService
}

func NewDeactivateTriggerCommand(service MutatingService) *DeactivateTriggerCommand {
	return &DeactivateTriggerCommand{service: service}
}

func (c *DeactivateTriggerCommand) Execute(ctx context.Context, msg DeactivateTriggerMessage) error {
	if c == nil || c.service == nil {
		return core.InternalError("command: deactivate trigger service is required", nil)
	}
	return c.service.DeleteWebhook(ctx, msg.Ref, msg.Fallback)
}

type DeliverEventCommand struct {
	service MutatingService
	sink    core.EventSink
}

// NewDeliverEventCommand normalizes a delivery and hands it to sink when one
// is set. The event is also stored on the result collector.
func NewDeliverEventCommand(service MutatingService, sink core.EventSink) *DeliverEventCommand {
	return &DeliverEventCommand{service: service, sink: sink}
}

func (c *DeliverEventCommand) Execute(ctx context.Context, msg DeliverEventMessage) error {
	if c == nil || c.service == nil {
		return core.InternalError("command: deliver event service is required", nil)
	}
	event, err := c.service.NormalizeRaw(ctx, msg.Body, core.NormalizeOptions{IncludeLeadDetails: msg.IncludeLeadDetails})
	if err != nil {
		return err
	}
	if c.sink != nil {
		if err := c.sink.Emit(ctx, event); err != nil {
			return err
		}
	}
	storeResult(ctx, event)
	return nil
}

type InvokeActionCommand struct {
	invoker ActionInvoker
}

func NewInvokeActionCommand(invoker ActionInvoker) *InvokeActionCommand {
	return &InvokeActionCommand{invoker: invoker}
}

func (c *InvokeActionCommand) Execute(ctx context.Context, msg InvokeActionMessage) error {
	if c == nil || c.invoker == nil {
		return core.InternalError("command: action invoker is required", nil)
	}
	out, err := c.invoker.Invoke(ctx, msg.Invocation)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SchedulePollCommand struct {
	service MutatingService
}

func NewSchedulePollCommand(service MutatingService) *SchedulePollCommand {
	return &SchedulePollCommand{service: service}
}

func (c *SchedulePollCommand) Execute(ctx context.Context, msg SchedulePollMessage) error {
	if c == nil || c.service == nil {
		return core.InternalError("command: schedule poll service is required", nil)
	}
	out, err := c.service.SchedulePoll(ctx, msg.Request, msg.IdempotencyKey)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type InvalidateOptionsCommand struct {
	service MutatingService
}

func NewInvalidateOptionsCommand(service MutatingService) *InvalidateOptionsCommand {
	return &InvalidateOptionsCommand{service: service}
}

func (c *InvalidateOptionsCommand) Execute(ctx context.Context, msg InvalidateOptionsMessage) error {
	if c == nil || c.service == nil {
		return core.InternalError("command: invalidate options service is required", nil)
	}
	return c.service.InvalidateOptions(ctx, msg.CustomerID)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
