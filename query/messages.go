package query

import (
	"strings"

	"github.com/goliatone/go-leadtable/core"
)

const (
	TypeCheckSubscription = "leadtable.query.subscription.check"
	TypeGetSubscription   = "leadtable.query.subscription.get"
	TypeCustomerOptions   = "leadtable.query.options.customers"
	TypeCampaignOptions   = "leadtable.query.options.campaigns"
	TypeTopicOptions      = "leadtable.query.options.topics"
	TypePoll              = "leadtable.query.poll"
)

type CheckSubscriptionMessage struct {
	Ref core.WorkflowRef
}

func (CheckSubscriptionMessage) Type() string { return TypeCheckSubscription }

func (m CheckSubscriptionMessage) Validate() error {
	if strings.TrimSpace(m.Ref.WorkflowID) == "" {
		return core.ValidationError("query", "ref.workflow_id", "workflow id is required")
	}
	return nil
}

type GetSubscriptionMessage struct {
	Ref core.WorkflowRef
}

func (GetSubscriptionMessage) Type() string { return TypeGetSubscription }

func (m GetSubscriptionMessage) Validate() error {
	if strings.TrimSpace(m.Ref.WorkflowID) == "" {
		return core.ValidationError("query", "ref.workflow_id", "workflow id is required")
	}
	return nil
}

type CustomerOptionsMessage struct{}

func (CustomerOptionsMessage) Type() string { return TypeCustomerOptions }

func (CustomerOptionsMessage) Validate() error { return nil }

// CampaignOptionsMessage carries the dependent property values the host
// resolved (customerForLeadCreate, customerForLeads, relatedId).
type CampaignOptionsMessage struct {
	Dependencies map[string]string
}

func (CampaignOptionsMessage) Type() string { return TypeCampaignOptions }

func (CampaignOptionsMessage) Validate() error { return nil }

func (m CampaignOptionsMessage) Resolver() core.DependencyResolver {
	return func(name string) (string, bool) {
		value, ok := m.Dependencies[name]
		return value, ok
	}
}

type TopicOptionsMessage struct {
	Layer     core.Layer
	Operation string
}

func (TopicOptionsMessage) Type() string { return TypeTopicOptions }

func (m TopicOptionsMessage) Validate() error {
	if m.Layer != "" && !m.Layer.Valid() {
		return core.ValidationError("query", "layer", "unsupported layer")
	}
	return nil
}

type PollMessage struct {
	Request core.PollRequest
}

func (PollMessage) Type() string { return TypePoll }

func (m PollMessage) Validate() error {
	return m.Request.Validate()
}
