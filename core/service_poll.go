package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	JobIDWebhookPoll      = "leadtable.webhook.poll"
	JobScriptWebhookPoll  = "leadtable.webhook.poll"
	pollParamCampaignID   = "campaign_id"
	pollParamTopic        = "topic"
	pollParamIncludeLeads = "include_lead_details"
)

type PollRequest struct {
	CampaignID         string
	Topic              Topic
	IncludeLeadDetails bool
}

func (r PollRequest) Validate() error {
	campaignID := strings.TrimSpace(r.CampaignID)
	if campaignID == "" {
		return InvalidConfigurationError("campaign id is required to poll", nil)
	}
	if IsPlaceholderOption(campaignID) {
		return InvalidConfigurationError(
			"Please select a valid campaign. Make sure to select a customer first, then choose a campaign from the dropdown.",
			map[string]any{"campaign_id": campaignID},
		)
	}
	if !r.Topic.Valid() {
		return InvalidConfigurationError(fmt.Sprintf("unsupported topic %q", r.Topic), map[string]any{"topic": string(r.Topic)})
	}
	return nil
}

// Poll performs a single poll and returns the queued events, normalized.
func (s *Service) Poll(ctx context.Context, req PollRequest) (events []EnrichedEvent, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"campaign_id": req.CampaignID, "topic": string(req.Topic)}
	defer func() {
		fields["count"] = len(events)
		s.observeOperation(ctx, startedAt, "poll_webhook", err, fields)
	}()

	if err = req.Validate(); err != nil {
		return nil, err
	}
	api, err := s.remoteAPI()
	if err != nil {
		return nil, err
	}
	response, err := api.PollWebhook(ctx, strings.TrimSpace(req.CampaignID), req.Topic)
	if err != nil {
		return nil, err
	}
	items := ItemsOf(response)
	events = make([]EnrichedEvent, 0, len(items))
	for _, item := range items {
		object, ok := item.(map[string]any)
		if !ok {
			events = append(events, EnrichedEvent{"value": item})
			continue
		}
		normalized, normalizeErr := s.NormalizeEvent(ctx, InboundEvent(object), NormalizeOptions{IncludeLeadDetails: req.IncludeLeadDetails})
		if normalizeErr != nil {
			err = normalizeErr
			return nil, err
		}
		events = append(events, normalized)
	}
	return events, nil
}

// SchedulePoll hands a poll to the host job queue instead of running it.
func (s *Service) SchedulePoll(ctx context.Context, req PollRequest, idempotencyKey string) (msg *JobExecutionMessage, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"campaign_id": req.CampaignID, "topic": string(req.Topic)}
	defer func() {
		s.observeOperation(ctx, startedAt, "schedule_poll", err, fields)
	}()

	if err = req.Validate(); err != nil {
		return nil, err
	}
	if s.jobEnqueuer == nil {
		err = InternalError("core: job enqueuer is not configured", nil)
		return nil, err
	}
	msg = PollJobMessage(req, idempotencyKey)
	if err = s.jobEnqueuer.Enqueue(ctx, msg); err != nil {
		err = s.mapError(err)
		return nil, err
	}
	return msg, nil
}

func PollJobMessage(req PollRequest, idempotencyKey string) *JobExecutionMessage {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey == "" {
		idempotencyKey = JobIDWebhookPoll + ":" + strings.TrimSpace(req.CampaignID) + ":" + string(req.Topic)
	}
	return &JobExecutionMessage{
		JobID:      JobIDWebhookPoll,
		ScriptPath: JobScriptWebhookPoll,
		Parameters: map[string]any{
			pollParamCampaignID:   strings.TrimSpace(req.CampaignID),
			pollParamTopic:        string(req.Topic),
			pollParamIncludeLeads: req.IncludeLeadDetails,
		},
		IdempotencyKey: idempotencyKey,
		DedupPolicy:    "drop",
	}
}

// PollRequestFromJob reads a poll request back from a job message.
func PollRequestFromJob(msg *JobExecutionMessage) (PollRequest, error) {
	if msg == nil {
		return PollRequest{}, InvalidConfigurationError("job message is required", nil)
	}
	if strings.TrimSpace(msg.JobID) != JobIDWebhookPoll {
		return PollRequest{}, InvalidConfigurationError(
			fmt.Sprintf("unexpected job id %q", msg.JobID),
			map[string]any{"job_id": msg.JobID},
		)
	}
	topic, err := ParseTopic(stringValue(msg.Parameters[pollParamTopic]))
	if err != nil {
		return PollRequest{}, err
	}
	include, _ := msg.Parameters[pollParamIncludeLeads].(bool)
	req := PollRequest{
		CampaignID:         stringValue(msg.Parameters[pollParamCampaignID]),
		Topic:              topic,
		IncludeLeadDetails: include,
	}
	return req, req.Validate()
}
