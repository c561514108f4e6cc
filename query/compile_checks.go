package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-leadtable/core"
)

var (
	_ gocmd.Querier[CheckSubscriptionMessage, bool]           = (*CheckSubscriptionQuery)(nil)
	_ gocmd.Querier[GetSubscriptionMessage, SubscriptionView] = (*GetSubscriptionQuery)(nil)
	_ gocmd.Querier[CustomerOptionsMessage, []core.SelectOption]    = (*CustomerOptionsQuery)(nil)
	_ gocmd.Querier[CampaignOptionsMessage, []core.SelectOption]    = (*CampaignOptionsQuery)(nil)
	_ gocmd.Querier[TopicOptionsMessage, []core.SelectOption]       = (*TopicOptionsQuery)(nil)
	_ gocmd.Querier[PollMessage, []core.EnrichedEvent]        = (*PollQuery)(nil)

	_ SubscriptionReader = (*core.Service)(nil)
	_ OptionReader       = (*core.Service)(nil)
	_ Poller             = (*core.Service)(nil)
)
