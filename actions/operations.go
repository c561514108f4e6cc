package actions

import (
	"context"
	"sort"

	"github.com/goliatone/go-leadtable/client"
	"github.com/goliatone/go-leadtable/core"
)

const (
	ResourceAuth     = "auth"
	ResourceLead     = "lead"
	ResourceCampaign = "campaign"
	ResourceCustomer = "customer"
	ResourceTable    = "table"
	ResourceWebhook  = "webhook"
)

const (
	messageInvalidCampaign = "Please select a valid campaign. Make sure to select a customer first, then choose a campaign from the dropdown."
	messageNewTableAgency  = "newTable events are only supported on Agency level. Please change Layer to Agency."
)

func (i *Invoker) routes() []route {
	return []route{
		{ResourceAuth, "check", i.checkAuth},
		{ResourceLead, "create", i.createLead},
		{ResourceLead, "get", i.getLead},
		{ResourceLead, "update", i.updateLead},
		{ResourceLead, "updateDescription", i.updateLeadDescription},
		{ResourceLead, "searchByEmail", i.searchLeadsByEmail},
		{ResourceLead, "getByCampaign", i.leadsByCampaign},
		{ResourceLead, "addFile", i.addFile},
		{ResourceCampaign, "getAll", i.listCampaigns},
		{ResourceCustomer, "getAll", i.listCustomers},
		{ResourceCustomer, "create", i.createCustomer},
		{ResourceTable, "createTable", i.createTable},
		{ResourceWebhook, core.OperationAttach, i.attachWebhook},
		{ResourceWebhook, core.OperationRemove, i.removeWebhook},
		{ResourceWebhook, core.OperationPoll, i.pollWebhook},
	}
}

func (i *Invoker) checkAuth(ctx context.Context, _ Parameters) (any, error) {
	return i.api.CheckAuth(ctx)
}

func (i *Invoker) createLead(ctx context.Context, params Parameters) (any, error) {
	campaignID, err := params.Required("campaignId")
	if err != nil {
		return nil, err
	}
	return i.api.CreateLead(ctx, client.CreateLeadInput{CampaignID: campaignID, Data: params.leadFields()})
}

func (i *Invoker) getLead(ctx context.Context, params Parameters) (any, error) {
	leadID, err := params.Required("leadId")
	if err != nil {
		return nil, err
	}
	return i.api.GetLead(ctx, leadID, params.Bool("plainDescription"))
}

func (i *Invoker) updateLead(ctx context.Context, params Parameters) (any, error) {
	leadID, err := params.Required("leadId")
	if err != nil {
		return nil, err
	}
	return i.api.UpdateLead(ctx, leadID, client.UpdateLeadInput{
		Question:            params.String("question"),
		Answer:              params.String("answer"),
		SetVisibleInProfile: params.Bool("setVisibleInProfile"),
	})
}

func (i *Invoker) updateLeadDescription(ctx context.Context, params Parameters) (any, error) {
	leadID, err := params.Required("leadId")
	if err != nil {
		return nil, err
	}
	return i.api.UpdateLeadDescription(ctx, leadID, params.String("description"))
}

func (i *Invoker) searchLeadsByEmail(ctx context.Context, params Parameters) (any, error) {
	email, err := params.Required("email")
	if err != nil {
		return nil, err
	}
	return i.api.SearchLeadsByEmail(ctx, email, params.page())
}

func (i *Invoker) leadsByCampaign(ctx context.Context, params Parameters) (any, error) {
	campaignID := params.String("campaignId")
	if core.IsPlaceholderOption(campaignID) {
		return nil, core.InvalidConfigurationError(messageInvalidCampaign, map[string]any{"campaign_id": campaignID})
	}
	if _, err := params.Required("campaignId"); err != nil {
		return nil, err
	}
	return i.api.ListLeadsByCampaign(ctx, campaignID, params.page())
}

func (i *Invoker) addFile(ctx context.Context, params Parameters) (any, error) {
	leadID, err := params.Required("leadId")
	if err != nil {
		return nil, err
	}
	content, err := params.Bytes("content")
	if err != nil {
		return nil, err
	}
	return i.api.AddFile(ctx, client.AddFileInput{
		LeadID:      leadID,
		FileName:    params.String("fileName"),
		ContentType: params.String("contentType"),
		Content:     content,
	})
}

func (i *Invoker) listCampaigns(ctx context.Context, params Parameters) (any, error) {
	customerID, err := params.Required("customerId")
	if err != nil {
		return nil, err
	}
	return i.api.ListCampaigns(ctx, customerID)
}

func (i *Invoker) listCustomers(ctx context.Context, params Parameters) (any, error) {
	page := params.page()
	return i.api.ListCustomers(ctx, page.Page, page.Limit)
}

func (i *Invoker) createCustomer(ctx context.Context, params Parameters) (any, error) {
	name, err := params.Required("name")
	if err != nil {
		return nil, err
	}
	return i.api.CreateCustomer(ctx, name, params.String("description"))
}

func (i *Invoker) createTable(ctx context.Context, params Parameters) (any, error) {
	customerID, err := params.Required("customerID")
	if err != nil {
		return nil, err
	}
	return i.api.CreateTable(ctx, client.CreateTableInput{
		CustomerID: customerID,
		Occupation: params.String("occupation"),
		FunnelLink: params.String("funnelLink"),
		Additional: params.Map("additionalFields"),
	})
}

// attachWebhook only sends campaignID for the table layer.
func (i *Invoker) attachWebhook(ctx context.Context, params Parameters) (any, error) {
	layer, topic, err := webhookAddress(params)
	if err != nil {
		return nil, err
	}
	if topic == core.TopicNewTable && layer != core.LayerAgency {
		return nil, core.InvalidConfigurationError(messageNewTableAgency, map[string]any{"layer": string(layer)})
	}
	url, err := params.Required("webhookUrl")
	if err != nil {
		return nil, err
	}
	in := core.AttachWebhookInput{URL: url, Topic: topic, Layer: layer}
	if layer == core.LayerTable {
		in.ScopeID = params.String("campaignId")
	}
	return i.api.AttachWebhook(ctx, in)
}

func (i *Invoker) removeWebhook(ctx context.Context, params Parameters) (any, error) {
	layer, topic, err := webhookAddress(params)
	if err != nil {
		return nil, err
	}
	response, err := i.api.RemoveWebhook(ctx, core.RemoveWebhookInput{
		URL:       params.String("webhookUrl"),
		Topic:     core.DeleteTopic(topic),
		Layer:     layer,
		ID:        params.String("id"),
		RelatedID: params.String("relatedId"),
	})
	if err != nil {
		return nil, core.RewrapError("Failed to remove webhook: "+core.ErrorMessage(err), err)
	}
	return response, nil
}

func (i *Invoker) pollWebhook(ctx context.Context, params Parameters) (any, error) {
	campaignID, err := params.Required("campaignId")
	if err != nil {
		return nil, err
	}
	topic, err := core.ParseTopic(params.String("topic"))
	if err != nil {
		return nil, err
	}
	return i.api.PollWebhook(ctx, campaignID, topic)
}

func webhookAddress(params Parameters) (core.Layer, core.Topic, error) {
	layer, err := core.ParseLayer(params.String("layer"))
	if err != nil {
		return "", "", err
	}
	topic, err := core.ParseTopic(params.String("topic"))
	if err != nil {
		return "", "", err
	}
	return layer, topic, nil
}

func sortedStrings(values []string) []string {
	sort.Strings(values)
	return values
}
