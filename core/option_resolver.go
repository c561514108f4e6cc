package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	PlaceholderNoCustomerSelected = "no-customer-selected"
	PlaceholderNoCampaignsFound   = "no-campaigns-found"
	PlaceholderErrorLoading       = "error-loading"
)

const (
	OperationAttach = "attach"
	OperationRemove = "remove"
	OperationPoll   = "poll"
)

// CampaignDependencies lists the parameters a campaign dropdown reads its
// customer from, in precedence order.
var CampaignDependencies = []string{"customerForLeadCreate", "customerForLeads", "relatedId"}

// IsPlaceholderOption reports whether value is a dropdown placeholder rather
// than a real id.
func IsPlaceholderOption(value string) bool {
	switch strings.TrimSpace(value) {
	case PlaceholderNoCustomerSelected, PlaceholderNoCampaignsFound, PlaceholderErrorLoading:
		return true
	default:
		return false
	}
}

func (s *Service) CustomerOptions(ctx context.Context) (options []SelectOption, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "customer_options", err, map[string]any{"count": len(options)})
	}()

	api, err := s.remoteAPI()
	if err != nil {
		return nil, err
	}
	options, err = s.cachedOptions(ctx, "customers:"+api.AccountEmail(), func(ctx context.Context) ([]SelectOption, error) {
		response, err := api.ListCustomers(ctx, 0, 0)
		if err != nil {
			return nil, err
		}
		customers := UnwrapList(response, "customers")
		if len(customers) == 0 {
			s.logError(ctx, "no customers found", map[string]any{"event_type": "customer_options"})
		}
		out := make([]SelectOption, 0, len(customers))
		for _, customer := range customers {
			id := stringValue(customer["_id"])
			label := stringValue(customer["name"])
			if label == "" {
				label = "Customer " + id
			}
			option := SelectOption{Label: label, Value: id}
			if created, ok := FormatTimestamp(customer["createdAt"]); ok {
				option.Description = "Created: " + created[:10]
			}
			out = append(out, option)
		}
		return out, nil
	})
	if err != nil {
		err = RewrapError(fmt.Sprintf("Failed to load customers: %s", ErrorMessage(err)), err)
		return nil, err
	}
	return options, nil
}

// CampaignOptions lists the campaigns of the customer selected in another
// parameter. It never fails; problems are reported as placeholder entries.
func (s *Service) CampaignOptions(ctx context.Context, resolve DependencyResolver) (options []SelectOption, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "campaign_options", err, map[string]any{"count": len(options)})
	}()

	customerID := resolveFirst(resolve, CampaignDependencies...)
	if customerID == "" {
		return []SelectOption{{
			Label:       "Please Select a Customer First",
			Value:       PlaceholderNoCustomerSelected,
			Description: "You must select a customer before campaigns can be loaded",
		}}, nil
	}

	api, apiErr := s.remoteAPI()
	if apiErr == nil {
		options, apiErr = s.cachedOptions(ctx, "campaigns:"+api.AccountEmail()+":"+customerID, func(ctx context.Context) ([]SelectOption, error) {
			response, err := api.ListCampaigns(ctx, customerID)
			if err != nil {
				return nil, err
			}
			return campaignOptions(UnwrapList(response, "campaigns")), nil
		})
	}
	if apiErr != nil {
		return []SelectOption{{
			Label:       "Error loading campaigns: " + ErrorMessage(apiErr),
			Value:       PlaceholderErrorLoading,
			Description: "Please check your customer selection and credentials",
		}}, nil
	}
	if len(options) == 0 {
		s.logError(ctx, "no campaigns found", map[string]any{"event_type": "campaign_options", "customer_id": customerID})
		return []SelectOption{{
			Label:       "No Campaigns Found for This Customer",
			Value:       PlaceholderNoCampaignsFound,
			Description: "This customer has no campaigns available",
		}}, nil
	}
	return options, nil
}

func campaignOptions(campaigns []map[string]any) []SelectOption {
	out := make([]SelectOption, 0, len(campaigns))
	for _, campaign := range campaigns {
		id := stringValue(campaign["_id"])
		label := stringValue(campaign["name"])
		if label == "" {
			label = stringValue(campaign["occupation"])
		}
		if label == "" {
			label = "Campaign " + id
		}
		option := SelectOption{Label: label, Value: id}
		if count := stringValue(campaign["leadsCount"]); count != "" && count != "0" {
			option.Description = "Leads: " + count
		}
		out = append(out, option)
	}
	return out
}

// WebhookTopicOptions lists the topics offered for layer. newTable is only
// offered on the agency layer of the webhook operations.
func WebhookTopicOptions(layer Layer, operation string) []SelectOption {
	options := []SelectOption{
		{Label: "New Lead", Value: string(TopicNewLead), Description: "Triggered when a new lead is created"},
		{Label: "Change Status", Value: string(TopicChangeStatus), Description: "Triggered when a lead status changes"},
		{Label: "Update Lead", Value: string(TopicUpdateLead), Description: "Triggered when a lead is updated"},
		{Label: "Delete Lead", Value: string(TopicDeleteLead), Description: "Triggered when a lead is deleted"},
	}
	switch strings.TrimSpace(operation) {
	case OperationAttach, OperationRemove, OperationPoll, "":
		if layer == LayerAgency {
			options = append(options, SelectOption{Label: "New Table", Value: string(TopicNewTable), Description: "Triggered when a new table is created"})
		}
	}
	return options
}

// InvalidateOptions drops cached option lists for the account.
func (s *Service) InvalidateOptions(ctx context.Context, customerID string) error {
	if s == nil || s.optionCache == nil || s.api == nil {
		return nil
	}
	email := s.api.AccountEmail()
	if err := s.optionCache.Invalidate(ctx, "customers:"+email); err != nil {
		return err
	}
	if customerID = strings.TrimSpace(customerID); customerID != "" {
		return s.optionCache.Invalidate(ctx, "campaigns:"+email+":"+customerID)
	}
	return nil
}

func (s *Service) cachedOptions(ctx context.Context, key string, load OptionLoader) ([]SelectOption, error) {
	if s.optionCache == nil {
		return load(ctx)
	}
	return s.optionCache.GetOrLoad(ctx, key, load)
}

func resolveFirst(resolve DependencyResolver, names ...string) string {
	if resolve == nil {
		return ""
	}
	for _, name := range names {
		if value, ok := resolve(name); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func RewrapError(message string, source error) error {
	switch {
	case IsAuthenticationFailed(source):
		return AuthenticationFailedError(message, nil)
	case IsUnknownScopeID(source):
		return UnknownScopeIDError(message, nil)
	case IsRemoteRequestFailed(source):
		return RemoteRequestFailedError(message, RemoteStatus(source), map[string]any{MetadataStatusCode: RemoteStatus(source)})
	case IsInvalidConfiguration(source):
		return InvalidConfigurationError(message, nil)
	default:
		return InternalError(message, nil)
	}
}
