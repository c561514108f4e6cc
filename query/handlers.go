package query

import (
	"context"

	"github.com/goliatone/go-leadtable/core"
)

type SubscriptionReader interface {
	CheckWebhook(ctx context.Context, ref core.WorkflowRef) (bool, error)
	Subscription(ctx context.Context, ref core.WorkflowRef) (core.SubscriptionRecord, bool, error)
}

type OptionReader interface {
	CustomerOptions(ctx context.Context) ([]core.SelectOption, error)
	CampaignOptions(ctx context.Context, resolve core.DependencyResolver) ([]core.SelectOption, error)
}

type Poller interface {
	Poll(ctx context.Context, req core.PollRequest) ([]core.EnrichedEvent, error)
}

type SubscriptionView struct {
	Found  bool
	Record core.SubscriptionRecord
}

type CheckSubscriptionQuery struct {
	reader SubscriptionReader
}

func NewCheckSubscriptionQuery(reader SubscriptionReader) *CheckSubscriptionQuery {
	return &CheckSubscriptionQuery{reader: reader}
}

func (q *CheckSubscriptionQuery) Query(ctx context.Context, msg CheckSubscriptionMessage) (bool, error) {
	if q == nil || q.reader == nil {
		return false, core.InternalError("query: subscription reader is required", nil)
	}
	return q.reader.CheckWebhook(ctx, msg.Ref)
}

type GetSubscriptionQuery struct {
	reader SubscriptionReader
}

func NewGetSubscriptionQuery(reader SubscriptionReader) *GetSubscriptionQuery {
	return &GetSubscriptionQuery{reader: reader}
}

func (q *GetSubscriptionQuery) Query(ctx context.Context, msg GetSubscriptionMessage) (SubscriptionView, error) {
	if q == nil || q.reader == nil {
		return SubscriptionView{}, core.InternalError("query: subscription reader is required", nil)
	}
	record, found, err := q.reader.Subscription(ctx, msg.Ref)
	if err != nil {
		return SubscriptionView{}, err
	}
	return SubscriptionView{Found: found, Record: record}, nil
}

type CustomerOptionsQuery struct {
	reader OptionReader
}

func NewCustomerOptionsQuery(reader OptionReader) *CustomerOptionsQuery {
	return &CustomerOptionsQuery{reader: reader}
}

func (q *CustomerOptionsQuery) Query(ctx context.Context, _ CustomerOptionsMessage) ([]core.SelectOption, error) {
	if q == nil || q.reader == nil {
		return nil, core.InternalError("query: option reader is required", nil)
	}
	return q.reader.CustomerOptions(ctx)
}

type CampaignOptionsQuery struct {
	reader OptionReader
}

func NewCampaignOptionsQuery(reader OptionReader) *CampaignOptionsQuery {
	return &CampaignOptionsQuery{reader: reader}
}

func (q *CampaignOptionsQuery) Query(ctx context.Context, msg CampaignOptionsMessage) ([]core.SelectOption, error) {
	if q == nil || q.reader == nil {
		return nil, core.InternalError("query: option reader is required", nil)
	}
	return q.reader.CampaignOptions(ctx, msg.Resolver())
}

type TopicOptionsQuery struct{}

func NewTopicOptionsQuery() *TopicOptionsQuery {
	return &TopicOptionsQuery{}
}

func (*TopicOptionsQuery) Query(_ context.Context, msg TopicOptionsMessage) ([]core.SelectOption, error) {
	return core.WebhookTopicOptions(msg.Layer, msg.Operation), nil
}

type PollQuery struct {
	poller Poller
}

func NewPollQuery(poller Poller) *PollQuery {
	return &PollQuery{poller: poller}
}

func (q *PollQuery) Query(ctx context.Context, msg PollMessage) ([]core.EnrichedEvent, error) {
	if q == nil || q.poller == nil {
		return nil, core.InternalError("query: poller is required", nil)
	}
	return q.poller.Poll(ctx, msg.Request)
}
