package core

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"strings"
	"time"
)

// CheckWebhook reports whether a subscription record exists for ref. Only the
// per-workflow store is consulted; a lost store looks like an unregistered
// webhook and the next activation registers again.
func (s *Service) CheckWebhook(ctx context.Context, ref WorkflowRef) (exists bool, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"workflow_id": ref.WorkflowID}
	defer func() {
		fields["exists"] = exists
		s.observeOperation(ctx, startedAt, "check_webhook", err, fields)
	}()

	if err = ref.Validate(); err != nil {
		return false, err
	}
	_, exists, err = s.loadRecord(ctx, ref)
	if err != nil {
		err = s.mapError(err)
		return false, err
	}
	return exists, nil
}

func (s *Service) Subscription(ctx context.Context, ref WorkflowRef) (SubscriptionRecord, bool, error) {
	if err := ref.Validate(); err != nil {
		return SubscriptionRecord{}, false, err
	}
	record, found, err := s.loadRecord(ctx, ref)
	if err != nil {
		return SubscriptionRecord{}, false, s.mapError(err)
	}
	return record, found, nil
}

// CreateWebhook registers the callback URL remotely and stores the record.
// Every failure aborts activation.
func (s *Service) CreateWebhook(ctx context.Context, ref WorkflowRef, req SubscriptionRequest) (record SubscriptionRecord, err error) {
	startedAt := time.Now().UTC()
	req = req.normalized()
	fields := map[string]any{
		"workflow_id": ref.WorkflowID,
		"layer":       string(req.Layer),
		"topic":       string(req.Topic),
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "create_webhook", err, fields)
	}()

	if err = ref.Validate(); err != nil {
		return SubscriptionRecord{}, err
	}
	api, err := s.remoteAPI()
	if err != nil {
		return SubscriptionRecord{}, err
	}
	address, err := s.addressResolver().ResolveForCreate(req)
	if err != nil {
		return SubscriptionRecord{}, err
	}
	fields["scope_id"] = address.ScopeID

	response, err := api.AttachWebhook(ctx, AttachWebhookInput{
		URL:     req.CallbackURL,
		Topic:   address.Topic,
		Layer:   req.Layer,
		ScopeID: address.ScopeID,
	})
	if err != nil {
		err = createWebhookError(err)
		return SubscriptionRecord{}, err
	}

	record = SubscriptionRecord{
		RemoteSubscriptionID: remoteSubscriptionID(response),
		CallbackURL:          req.CallbackURL,
		Request:              req,
		CreatedAt:            s.now(),
	}
	if record.RemoteSubscriptionID == "" {
		record.RemoteSubscriptionID = req.CallbackURL
	}
	fields["remote_subscription_id"] = record.RemoteSubscriptionID

	if err = s.saveRecord(ctx, ref, record); err != nil {
		err = s.mapError(err)
		return SubscriptionRecord{}, err
	}
	return record, nil
}

// DeleteWebhook removes the remote subscription and clears the stored record.
// The stored record wins over fallback; fallback is the current trigger
// configuration and is used when the store has nothing. Remote failures are
// logged and swallowed, the record is cleared regardless.
func (s *Service) DeleteWebhook(ctx context.Context, ref WorkflowRef, fallback SubscriptionRequest) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"workflow_id": ref.WorkflowID}
	defer func() {
		s.observeOperation(ctx, startedAt, "delete_webhook", err, fields)
	}()

	if err = ref.Validate(); err != nil {
		return err
	}
	record, found, err := s.loadRecord(ctx, ref)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if !found {
		fallback = fallback.normalized()
		record = SubscriptionRecord{CallbackURL: fallback.CallbackURL, Request: fallback}
	}
	fields["layer"] = string(record.Request.Layer)
	fields["topic"] = string(record.Request.Topic)
	fields["stored"] = found

	s.removeRemote(ctx, record, fields)

	if found {
		if err = s.staticData.Delete(ctx, ref.WorkflowID, ref.StorageKey()); err != nil {
			err = s.mapError(err)
			return err
		}
	}
	return nil
}

func (s *Service) removeRemote(ctx context.Context, record SubscriptionRecord, fields map[string]any) {
	api, err := s.remoteAPI()
	if err != nil {
		s.logRemovalFailure(ctx, err, fields)
		return
	}
	address, err := s.addressResolver().ResolveForDelete(record)
	if err != nil {
		s.logRemovalFailure(ctx, err, fields)
		return
	}
	fields["scope_id"] = address.ScopeID
	fields["delete_topic"] = string(address.Topic)

	callbackURL := strings.TrimSpace(record.CallbackURL)
	if callbackURL == "" {
		callbackURL = record.Request.CallbackURL
	}
	if _, err = api.RemoveWebhook(ctx, RemoveWebhookInput{
		URL:       callbackURL,
		Topic:     address.Topic,
		Layer:     record.Request.Layer,
		ID:        address.ScopeID,
		RelatedID: address.RelatedID,
	}); err != nil {
		s.logRemovalFailure(ctx, err, fields)
	}
}

func (s *Service) logRemovalFailure(ctx context.Context, err error, fields map[string]any) {
	logFields := cloneFields(fields)
	logFields["error"] = ErrorMessage(err)
	maps.Copy(logFields, errorFields(err))
	s.logError(ctx, "remote webhook removal failed, clearing local record", logFields)
}

func (s *Service) loadRecord(ctx context.Context, ref WorkflowRef) (SubscriptionRecord, bool, error) {
	raw, found, err := s.staticData.Get(ctx, ref.WorkflowID, ref.StorageKey())
	if err != nil || !found {
		return SubscriptionRecord{}, false, err
	}
	var record SubscriptionRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return SubscriptionRecord{}, false, InternalError(
			"core: stored subscription record is corrupt",
			map[string]any{"workflow_id": ref.WorkflowID, "key": ref.StorageKey()},
		)
	}
	return record, true, nil
}

func (s *Service) saveRecord(ctx context.Context, ref WorkflowRef, record SubscriptionRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.staticData.Set(ctx, ref.WorkflowID, ref.StorageKey(), raw)
}

// createWebhookError rewrites a remote failure with the activation wording and
// a remediation hint, keeping the error taxonomy.
func createWebhookError(err error) error {
	if IsInvalidConfiguration(err) {
		return err
	}
	status := RemoteStatus(err)
	detail := RemoteMessage(err)
	if detail == "" {
		detail = ErrorMessage(err)
	}
	message := "Failed to create webhook"
	if status > 0 {
		message = fmt.Sprintf("%s: %d", message, status)
	}
	message = fmt.Sprintf("%s - %q", message, detail)

	metadata := map[string]any{MetadataStatusCode: status, MetadataRemoteMessage: detail}
	switch {
	case status == http.StatusNotFound || IsUnknownScopeID(err):
		return UnknownScopeIDError(message+". The ID might not exist. Please verify it against the customer and campaign lists.", metadata)
	case status == http.StatusForbidden || IsAuthenticationFailed(err):
		return AuthenticationFailedError(message+". Please check your API credentials and the provided IDs.", metadata)
	default:
		return RemoteRequestFailedError(message, status, metadata)
	}
}

func remoteSubscriptionID(response map[string]any) string {
	if len(response) == 0 {
		return ""
	}
	for _, key := range []string{"_id", "id", "webhookID", "webhookId", "subscriptionID", "subscriptionId"} {
		if value := stringValue(response[key]); value != "" {
			return value
		}
	}
	if nested, ok := response["webhook"].(map[string]any); ok {
		return remoteSubscriptionID(nested)
	}
	return ""
}

func stringValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return typed.String()
	case float64:
		if typed == float64(int64(typed)) {
			return fmt.Sprintf("%d", int64(typed))
		}
		return fmt.Sprintf("%v", typed)
	default:
		return strings.TrimSpace(fmt.Sprint(typed))
	}
}
