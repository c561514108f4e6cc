// Package leadtable integrates the LeadTable lead-management API with a
// workflow automation host: webhook subscriptions driven by trigger lifecycle
// hooks, inbound event enrichment and REST actions.
package leadtable

import "github.com/goliatone/go-leadtable/core"

type Config = core.Config

type Option = core.Option

type SelectOption = core.SelectOption

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type Credentials = core.Credentials
type Layer = core.Layer
type Topic = core.Topic
type WorkflowRef = core.WorkflowRef
type SubscriptionRequest = core.SubscriptionRequest
type SubscriptionRecord = core.SubscriptionRecord
type EnrichedEvent = core.EnrichedEvent
type StaticDataStore = core.StaticDataStore
type RemoteAPI = core.RemoteAPI
type PollRequest = core.PollRequest

const (
	LayerAgency   = core.LayerAgency
	LayerCustomer = core.LayerCustomer
	LayerTable    = core.LayerTable

	TopicNewLead      = core.TopicNewLead
	TopicChangeStatus = core.TopicChangeStatus
	TopicUpdateLead   = core.TopicUpdateLead
	TopicDeleteLead   = core.TopicDeleteLead
	TopicNewTable     = core.TopicNewTable
)

var (
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithErrorMapper     = core.WithErrorMapper
	WithConfigProvider  = core.WithConfigProvider
	WithOptionsResolver = core.WithOptionsResolver
	WithRemoteAPI       = core.WithRemoteAPI
	WithStaticDataStore = core.WithStaticDataStore
	WithOptionCache     = core.WithOptionCache
	WithJobEnqueuer     = core.WithJobEnqueuer
	WithClock           = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
