package core

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const DefaultBaseURL = "https://api.lead-table.com/api/v3/external"

type Layer string

const (
	LayerAgency   Layer = "agency"
	LayerCustomer Layer = "customer"
	LayerTable    Layer = "table"
)

func (l Layer) Valid() bool {
	switch l {
	case LayerAgency, LayerCustomer, LayerTable:
		return true
	default:
		return false
	}
}

func ParseLayer(value string) (Layer, error) {
	layer := Layer(strings.ToLower(strings.TrimSpace(value)))
	if !layer.Valid() {
		return "", InvalidConfigurationError(
			fmt.Sprintf("unsupported layer %q", strings.TrimSpace(value)),
			map[string]any{"layer": value},
		)
	}
	return layer, nil
}

type Topic string

const (
	TopicNewLead      Topic = "newLead"
	TopicChangeStatus Topic = "changeStatus"
	TopicUpdateLead   Topic = "updateLead"
	TopicDeleteLead   Topic = "deleteLead"
	TopicNewTable     Topic = "newTable"
)

var leadTopics = []Topic{TopicNewLead, TopicChangeStatus, TopicUpdateLead, TopicDeleteLead}

func LeadTopics() []Topic {
	return append([]Topic(nil), leadTopics...)
}

func (t Topic) Valid() bool {
	switch t {
	case TopicNewLead, TopicChangeStatus, TopicUpdateLead, TopicDeleteLead, TopicNewTable:
		return true
	default:
		return false
	}
}

func ParseTopic(value string) (Topic, error) {
	trimmed := strings.TrimSpace(value)
	for _, topic := range append(LeadTopics(), TopicNewTable) {
		if strings.EqualFold(string(topic), trimmed) {
			return topic, nil
		}
	}
	return "", InvalidConfigurationError(
		fmt.Sprintf("unsupported topic %q", trimmed),
		map[string]any{"topic": value},
	)
}

type SubscriptionRequest struct {
	Layer       Layer  `json:"layer"`
	Topic       Topic  `json:"topic"`
	CustomerID  string `json:"customerId,omitempty"`
	CampaignID  string `json:"campaignId,omitempty"`
	CallbackURL string `json:"callbackUrl"`
}

func (r SubscriptionRequest) Validate() error {
	needsCustomer := r.Layer == LayerCustomer || r.Layer == LayerTable
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Layer,
			validation.Required.Error("layer is required"),
			validation.In(LayerAgency, LayerCustomer, LayerTable).Error("layer must be agency, customer or table"),
		),
		validation.Field(&r.Topic,
			validation.Required.Error("topic is required"),
			validation.In(TopicNewLead, TopicChangeStatus, TopicUpdateLead, TopicDeleteLead, TopicNewTable).Error("unsupported topic"),
			validation.When(r.Layer != LayerAgency,
				validation.NotIn(TopicNewTable).Error("newTable is only available on the agency layer"),
			),
		),
		validation.Field(&r.CustomerID,
			validation.When(needsCustomer, validation.Required.Error("customer id is required for the customer and table layers")),
		),
		validation.Field(&r.CampaignID,
			validation.When(r.Layer == LayerTable, validation.Required.Error("campaign id is required for the table layer")),
		),
		validation.Field(&r.CallbackURL, validation.Required.Error("callback url is required")),
	)
	if err != nil {
		return InvalidConfigurationError(err.Error(), validationMetadata(err))
	}
	return nil
}

func (r SubscriptionRequest) normalized() SubscriptionRequest {
	r.Layer = Layer(strings.ToLower(strings.TrimSpace(string(r.Layer))))
	r.Topic = Topic(strings.TrimSpace(string(r.Topic)))
	r.CustomerID = strings.TrimSpace(r.CustomerID)
	r.CampaignID = strings.TrimSpace(r.CampaignID)
	r.CallbackURL = strings.TrimSpace(r.CallbackURL)
	return r
}

type ResolvedAddress struct {
	ScopeID   string
	RelatedID string
	Topic     Topic
}

// SubscriptionRecord is what the per-workflow store keeps after a successful
// registration.
type SubscriptionRecord struct {
	RemoteSubscriptionID string              `json:"remoteSubscriptionId"`
	CallbackURL          string              `json:"callbackUrl"`
	Request              SubscriptionRequest `json:"request"`
	CreatedAt            time.Time           `json:"createdAt"`
}

type WorkflowRef struct {
	WorkflowID  string
	WebhookName string
}

func (r WorkflowRef) StorageKey() string {
	name := strings.TrimSpace(r.WebhookName)
	if name == "" {
		name = "default"
	}
	return "webhook:" + name
}

func (r WorkflowRef) Validate() error {
	if strings.TrimSpace(r.WorkflowID) == "" {
		return InvalidConfigurationError("workflow id is required", nil)
	}
	return nil
}

type Credentials struct {
	APIKey  string `json:"apiKey"`
	Email   string `json:"email"`
	BaseURL string `json:"baseUrl,omitempty"`
}

func (c Credentials) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.APIKey, validation.Required.Error("api key is required")),
		validation.Field(&c.Email, validation.Required.Error("email is required"), is.EmailFormat),
		validation.Field(&c.BaseURL, is.URL),
	)
	if err != nil {
		return InvalidConfigurationError(err.Error(), validationMetadata(err))
	}
	return nil
}

func (c Credentials) ResolvedBaseURL() string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return DefaultBaseURL
	}
	return base
}

type InboundEvent map[string]any

type EnrichedEvent map[string]any

const (
	FieldLeadDetails        = "leadDetails"
	FieldLeadDetailsError   = "leadDetailsError"
	FieldTimestamp          = "timestamp"
	FieldTimestampFormatted = "timestampFormatted"
)

type SelectOption struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// DependencyResolver returns the current value of another trigger or action
// parameter. ok is false when the parameter is unset.
type DependencyResolver func(name string) (value string, ok bool)

func validationMetadata(err error) map[string]any {
	errs, ok := err.(validation.Errors)
	if !ok || len(errs) == 0 {
		return nil
	}
	fields := make(map[string]any, len(errs))
	for field, fieldErr := range errs {
		if fieldErr == nil {
			continue
		}
		fields[field] = fieldErr.Error()
	}
	return map[string]any{"fields": fields}
}
