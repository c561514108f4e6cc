package leadtable

import (
	"context"
	"strings"

	"github.com/goliatone/go-leadtable/core"
)

// TriggerConfig is the trigger node configuration a workflow was activated
// with.
type TriggerConfig struct {
	Event              core.Topic `json:"event"`
	Layer              core.Layer `json:"layer"`
	CustomerID         string     `json:"customerId,omitempty"`
	CampaignID         string     `json:"campaignId,omitempty"`
	IncludeLeadDetails bool       `json:"includeLeadDetails"`
}

func (c TriggerConfig) SubscriptionRequest(callbackURL string) core.SubscriptionRequest {
	return core.SubscriptionRequest{
		Layer:       c.Layer,
		Topic:       c.Event,
		CustomerID:  strings.TrimSpace(c.CustomerID),
		CampaignID:  strings.TrimSpace(c.CampaignID),
		CallbackURL: strings.TrimSpace(callbackURL),
	}
}

// Trigger binds one workflow's trigger configuration to the service and
// exposes the host lifecycle hooks.
type Trigger struct {
	service *core.Service
	ref     core.WorkflowRef
	config  TriggerConfig
}

func NewTrigger(service *core.Service, ref core.WorkflowRef, cfg TriggerConfig) (*Trigger, error) {
	if service == nil {
		return nil, core.InternalError("leadtable: service is required", nil)
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return &Trigger{service: service, ref: ref, config: cfg}, nil
}

func (t *Trigger) Ref() core.WorkflowRef {
	return t.ref
}

func (t *Trigger) Config() TriggerConfig {
	return t.config
}

func (t *Trigger) CheckExists(ctx context.Context) (bool, error) {
	return t.service.CheckWebhook(ctx, t.ref)
}

func (t *Trigger) Create(ctx context.Context, callbackURL string) (core.SubscriptionRecord, error) {
	return t.service.CreateWebhook(ctx, t.ref, t.config.SubscriptionRequest(callbackURL))
}

// Delete always succeeds unless the local store fails; remote errors are
// logged by the service.
func (t *Trigger) Delete(ctx context.Context, callbackURL string) error {
	return t.service.DeleteWebhook(ctx, t.ref, t.config.SubscriptionRequest(callbackURL))
}

func (t *Trigger) Deliver(ctx context.Context, raw []byte) (core.EnrichedEvent, error) {
	return t.service.NormalizeRaw(ctx, raw, core.NormalizeOptions{IncludeLeadDetails: t.config.IncludeLeadDetails})
}
