package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Metadata             map[string]any
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

// AttachWebhookInput carries the create-path address. ScopeID is sent as the
// campaignID wire field whatever the layer.
type AttachWebhookInput struct {
	URL     string
	Topic   Topic
	Layer   Layer
	ScopeID string
}

type RemoveWebhookInput struct {
	URL       string
	Topic     Topic
	Layer     Layer
	ID        string
	RelatedID string
}

type WebhookAPI interface {
	AttachWebhook(ctx context.Context, in AttachWebhookInput) (map[string]any, error)
	RemoveWebhook(ctx context.Context, in RemoveWebhookInput) (any, error)
	PollWebhook(ctx context.Context, campaignID string, topic Topic) (any, error)
}

type LeadAPI interface {
	GetLead(ctx context.Context, leadID string, plainDescription bool) (any, error)
}

type OptionsAPI interface {
	ListCustomers(ctx context.Context, page, limit int) (any, error)
	ListCampaigns(ctx context.Context, customerID string) (any, error)
}

type RemoteAPI interface {
	WebhookAPI
	LeadAPI
	OptionsAPI
	AccountEmail() string
}

type StaticDataStore interface {
	Get(ctx context.Context, workflowID, key string) ([]byte, bool, error)
	Set(ctx context.Context, workflowID, key string, value []byte) error
	Delete(ctx context.Context, workflowID, key string) error
}

type OptionLoader func(ctx context.Context) ([]SelectOption, error)

type OptionCache interface {
	GetOrLoad(ctx context.Context, key string, load OptionLoader) ([]SelectOption, error)
	Invalidate(ctx context.Context, key string) error
}

type JobExecutionMessage struct {
	JobID          string
	ScriptPath     string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

type InboundRequest struct {
	Surface  string
	Headers  map[string]string
	Query    map[string]string
	Body     []byte
	Metadata map[string]any
}

type InboundResult struct {
	Accepted   bool
	StatusCode int
	Event      EnrichedEvent
	Metadata   map[string]any
}

type InboundHandler interface {
	Surface() string
	Handle(ctx context.Context, req InboundRequest) (InboundResult, error)
}

type IdempotencyClaimStore interface {
	Claim(ctx context.Context, key string, lease time.Duration) (claimID string, accepted bool, err error)
	Complete(ctx context.Context, claimID string) error
	Fail(ctx context.Context, claimID string, cause error, retryAt time.Time) error
}

type EventSink interface {
	Emit(ctx context.Context, event EnrichedEvent) error
}

type EventSinkFunc func(ctx context.Context, event EnrichedEvent) error

func (f EventSinkFunc) Emit(ctx context.Context, event EnrichedEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}
