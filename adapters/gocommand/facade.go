package gocommand

import (
	"errors"

	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	leadtable "github.com/goliatone/go-leadtable"
	leadtablecommand "github.com/goliatone/go-leadtable/command"
	"github.com/goliatone/go-leadtable/core"
	leadtablequery "github.com/goliatone/go-leadtable/query"
)

type Subscriptions []commanddispatcher.Subscription

func (s Subscriptions) Unsubscribe() {
	for _, subscription := range s {
		if subscription != nil {
			subscription.Unsubscribe()
		}
	}
}

// RegisterFacade registers every LeadTable command and query on the adapter
// registry and subscribes them on the go-command dispatcher. On failure the
// subscriptions made so far are removed.
func RegisterFacade(adapter *RegistryAdapter, facade *leadtable.Facade, runnerOpts ...runner.Option) (Subscriptions, error) {
	if err := adapter.configured(); err != nil {
		return nil, err
	}
	if facade == nil {
		return nil, errors.New("gocommand: leadtable facade is required")
	}
	commands := facade.Commands()
	queries := facade.Queries()

	var subscriptions Subscriptions
	steps := []func() (commanddispatcher.Subscription, error){
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe[leadtablecommand.ActivateTriggerMessage](adapter, commands.ActivateTrigger, runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe[leadtablecommand.DeactivateTriggerMessage](adapter, commands.DeactivateTrigger, runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe[leadtablecommand.DeliverEventMessage](adapter, commands.DeliverEvent, runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe[leadtablecommand.InvokeActionMessage](adapter, commands.InvokeAction, runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe[leadtablecommand.SchedulePollMessage](adapter, commands.SchedulePoll, runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe[leadtablecommand.InvalidateOptionsMessage](adapter, commands.InvalidateOptions, runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribeQuery[leadtablequery.CheckSubscriptionMessage, bool](adapter, queries.CheckSubscription, runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribeQuery[leadtablequery.GetSubscriptionMessage, leadtablequery.SubscriptionView](adapter, queries.GetSubscription, runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribeQuery[leadtablequery.CustomerOptionsMessage, []core.SelectOption](adapter, queries.CustomerOptions, runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribeQuery[leadtablequery.CampaignOptionsMessage, []core.SelectOption](adapter, queries.CampaignOptions, runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribeQuery[leadtablequery.TopicOptionsMessage, []core.SelectOption](adapter, queries.TopicOptions, runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribeQuery[leadtablequery.PollMessage, []core.EnrichedEvent](adapter, queries.Poll, runnerOpts...)
		},
	}
	for _, step := range steps {
		subscription, err := step()
		if err != nil {
			subscriptions.Unsubscribe()
			return nil, err
		}
		subscriptions = append(subscriptions, subscription)
	}
	return subscriptions, nil
}
