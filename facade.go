package leadtable

import (
	"fmt"

	"github.com/goliatone/go-leadtable/actions"
	leadtablecommand "github.com/goliatone/go-leadtable/command"
	"github.com/goliatone/go-leadtable/core"
	leadtablequery "github.com/goliatone/go-leadtable/query"
)

type CommandQueryService interface {
	leadtablecommand.MutatingService
	leadtablequery.SubscriptionReader
	leadtablequery.OptionReader
	leadtablequery.Poller
}

type Commands struct {
	ActivateTrigger   *leadtablecommand.ActivateTriggerCommand
	DeactivateTrigger *leadtablecommand.DeactivateTriggerCommand
	DeliverEvent      *leadtablecommand.DeliverEventCommand
	InvokeAction      *leadtablecommand.InvokeActionCommand
	SchedulePoll      *leadtablecommand.SchedulePollCommand
	InvalidateOptions *leadtablecommand.InvalidateOptionsCommand
}

type Queries struct {
	CheckSubscription *leadtablequery.CheckSubscriptionQuery
	GetSubscription   *leadtablequery.GetSubscriptionQuery
	CustomerOptions   *leadtablequery.CustomerOptionsQuery
	CampaignOptions   *leadtablequery.CampaignOptionsQuery
	TopicOptions      *leadtablequery.TopicOptionsQuery
	Poll              *leadtablequery.PollQuery
}

type Facade struct {
	service  CommandQueryService
	invoker  leadtablecommand.ActionInvoker
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	invoker leadtablecommand.ActionInvoker
	sink    core.EventSink
}

func WithActionInvoker(invoker leadtablecommand.ActionInvoker) FacadeOption {
	return func(options *facadeOptions) {
		options.invoker = invoker
	}
}

func WithEventSink(sink core.EventSink) FacadeOption {
	return func(options *facadeOptions) {
		options.sink = sink
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("leadtable: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	invoker := cfg.invoker
	if invoker == nil {
		invoker = resolveActionInvoker(service)
	}

	facade := &Facade{service: service, invoker: invoker}
	facade.commands = Commands{
		ActivateTrigger:   leadtablecommand.NewActivateTriggerCommand(service),
		DeactivateTrigger: leadtablecommand.NewDeactivateTriggerCommand(service),
		DeliverEvent:      leadtablecommand.NewDeliverEventCommand(service, cfg.sink),
		InvokeAction:      leadtablecommand.NewInvokeActionCommand(invoker),
		SchedulePoll:      leadtablecommand.NewSchedulePollCommand(service),
		InvalidateOptions: leadtablecommand.NewInvalidateOptionsCommand(service),
	}
	facade.queries = Queries{
		CheckSubscription: leadtablequery.NewCheckSubscriptionQuery(service),
		GetSubscription:   leadtablequery.NewGetSubscriptionQuery(service),
		CustomerOptions:   leadtablequery.NewCustomerOptionsQuery(service),
		CampaignOptions:   leadtablequery.NewCampaignOptionsQuery(service),
		TopicOptions:      leadtablequery.NewTopicOptionsQuery(),
		Poll:              leadtablequery.NewPollQuery(service),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

func (f *Facade) Invoker() leadtablecommand.ActionInvoker {
	if f == nil {
		return nil
	}
	return f.invoker
}

func resolveActionInvoker(service CommandQueryService) leadtablecommand.ActionInvoker {
	provider, ok := service.(interface {
		Dependencies() core.ServiceDependencies
	})
	if !ok {
		return nil
	}
	deps := provider.Dependencies()
	api, ok := deps.RemoteAPI.(actions.API)
	if !ok || api == nil {
		return nil
	}
	return actions.NewInvoker(api,
		actions.WithLogger(deps.Logger),
		actions.WithMetricsRecorder(deps.MetricsRecorder),
	)
}
