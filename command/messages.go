package command

import (
	"strings"

	"github.com/goliatone/go-leadtable/actions"
	"github.com/goliatone/go-leadtable/core"
)

const (
	TypeActivateTrigger   = "leadtable.command.trigger.activate"
	TypeDeactivateTrigger = "leadtable.command.trigger.deactivate"
	TypeDeliverEvent      = "leadtable.command.event.deliver"
	TypeInvokeAction      = "leadtable.command.action.invoke"
	TypeSchedulePoll      = "leadtable.command.poll.schedule"
	TypeInvalidateOptions = "leadtable.command.options.invalidate"
)

type ActivateTriggerMessage struct {
	Ref     core.WorkflowRef
	Request core.SubscriptionRequest
}

func (ActivateTriggerMessage) Type() string { return TypeActivateTrigger }

func (m ActivateTriggerMessage) Validate() error {
	if err := m.Ref.Validate(); err != nil {
		return core.AsValidationError("command", "ref", err)
	}
	if strings.TrimSpace(m.Request.CallbackURL) == "" {
		return core.ValidationError("command", "request.callback_url", "callback url is required")
	}
	return nil
}

type DeactivateTriggerMessage struct {
	Ref      core.WorkflowRef
	Fallback core.SubscriptionRequest
}

func (DeactivateTriggerMessage) Type() string { return TypeDeactivateTrigger }

func (m DeactivateTriggerMessage) Validate() error {
	return core.AsValidationError("command", "ref", m.Ref.Validate())
}

type DeliverEventMessage struct {
	Body               []byte
	IncludeLeadDetails bool
}

func (DeliverEventMessage) Type() string { return TypeDeliverEvent }

func (m DeliverEventMessage) Validate() error {
	return nil
}

type InvokeActionMessage struct {
	Invocation actions.Invocation
}

func (InvokeActionMessage) Type() string { return TypeInvokeAction }

func (m InvokeActionMessage) Validate() error {
	if strings.TrimSpace(m.Invocation.Resource) == "" {
		return core.ValidationError("command", "invocation.resource", "resource is required")
	}
	if strings.TrimSpace(m.Invocation.Operation) == "" {
		return core.ValidationError("command", "invocation.operation", "operation is required")
	}
	return nil
}

type SchedulePollMessage struct {
	Request        core.PollRequest
	IdempotencyKey string
}

func (SchedulePollMessage) Type() string { return TypeSchedulePoll }

func (m SchedulePollMessage) Validate() error {
	return m.Request.Validate()
}

type InvalidateOptionsMessage struct {
	CustomerID string
}

func (InvalidateOptionsMessage) Type() string { return TypeInvalidateOptions }

func (m InvalidateOptionsMessage) Validate() error {
	return nil
}
