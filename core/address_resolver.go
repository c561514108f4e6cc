package core

import (
	"fmt"
	"strings"
)

// AddressResolver maps a layer plus ids onto the remote addressing fields.
// The create and delete paths are not symmetric: only the delete path sends a
// related id, and only the delete path rewrites newTable.
type AddressResolver struct {
	AccountEmail string
}

func (r AddressResolver) ResolveForCreate(req SubscriptionRequest) (ResolvedAddress, error) {
	req = req.normalized()
	if err := req.Validate(); err != nil {
		return ResolvedAddress{}, err
	}
	scopeID, err := r.scopeID(req)
	if err != nil {
		return ResolvedAddress{}, err
	}
	return ResolvedAddress{ScopeID: scopeID, Topic: req.Topic}, nil
}

func (r AddressResolver) ResolveForDelete(record SubscriptionRecord) (ResolvedAddress, error) {
	req := record.Request.normalized()
	if !req.Layer.Valid() {
		return ResolvedAddress{}, InvalidConfigurationError(
			fmt.Sprintf("unsupported layer %q", req.Layer),
			map[string]any{"layer": string(req.Layer)},
		)
	}
	if !req.Topic.Valid() {
		return ResolvedAddress{}, InvalidConfigurationError(
			fmt.Sprintf("unsupported topic %q", req.Topic),
			map[string]any{"topic": string(req.Topic)},
		)
	}
	scopeID, err := r.scopeID(req)
	if err != nil {
		return ResolvedAddress{}, err
	}
	address := ResolvedAddress{ScopeID: scopeID, Topic: DeleteTopic(req.Topic)}
	if req.Layer == LayerTable {
		address.RelatedID = req.CustomerID
	}
	return address, nil
}

// DeleteTopic returns the topic sent on removal. The remote removal endpoint
// rejects newTable, so table-creation subscriptions are removed as updateLead.
func DeleteTopic(topic Topic) Topic {
	if topic == TopicNewTable {
		return TopicUpdateLead
	}
	return topic
}

func (r AddressResolver) scopeID(req SubscriptionRequest) (string, error) {
	switch req.Layer {
	case LayerAgency:
		email := strings.TrimSpace(r.AccountEmail)
		if email == "" {
			return "", InvalidConfigurationError("account email is required for the agency layer", map[string]any{"layer": string(req.Layer)})
		}
		return email, nil
	case LayerCustomer:
		if req.CustomerID == "" {
			return "", InvalidConfigurationError("customer id is required for the customer layer", map[string]any{"layer": string(req.Layer)})
		}
		return req.CustomerID, nil
	case LayerTable:
		if req.CampaignID == "" {
			return "", InvalidConfigurationError("campaign id is required for the table layer", map[string]any{"layer": string(req.Layer)})
		}
		if req.CustomerID == "" {
			return "", InvalidConfigurationError("customer id is required for the table layer", map[string]any{"layer": string(req.Layer)})
		}
		return req.CampaignID, nil
	default:
		return "", InvalidConfigurationError(
			fmt.Sprintf("unsupported layer %q", req.Layer),
			map[string]any{"layer": string(req.Layer)},
		)
	}
}
