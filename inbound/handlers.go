package inbound

import (
	"context"
	"net/http"
	"strconv"

	"github.com/goliatone/go-leadtable/core"
)

type Normalizer interface {
	NormalizeRaw(ctx context.Context, raw []byte, opts core.NormalizeOptions) (core.EnrichedEvent, error)
}

type Poller interface {
	Poll(ctx context.Context, req core.PollRequest) ([]core.EnrichedEvent, error)
}

type DeliveryHandler struct {
	normalizer Normalizer
	sink       core.EventSink
	options    core.NormalizeOptions
}

func NewDeliveryHandler(normalizer Normalizer, sink core.EventSink, opts core.NormalizeOptions) *DeliveryHandler {
	return &DeliveryHandler{normalizer: normalizer, sink: sink, options: opts}
}

func (h *DeliveryHandler) Surface() string { return SurfaceWebhook }

func (h *DeliveryHandler) Handle(ctx context.Context, req core.InboundRequest) (core.InboundResult, error) {
	if h == nil || h.normalizer == nil {
		return core.InboundResult{}, core.InternalError("inbound: delivery normalizer is required", nil)
	}
	opts := h.options
	if value, ok := boolQuery(req.Query, "includeLeadDetails"); ok {
		opts.IncludeLeadDetails = value
	}
	event, err := h.normalizer.NormalizeRaw(ctx, req.Body, opts)
	if err != nil {
		return core.InboundResult{}, err
	}
	if h.sink != nil {
		if err := h.sink.Emit(ctx, event); err != nil {
			return core.InboundResult{}, err
		}
	}
	return core.InboundResult{Accepted: true, StatusCode: http.StatusOK, Event: event}, nil
}

// PollHandler serves the poll surface. The request is read from the query
// string: campaignId, topic and optionally includeLeadDetails.
type PollHandler struct {
	poller Poller
	sink   core.EventSink
}

func NewPollHandler(poller Poller, sink core.EventSink) *PollHandler {
	return &PollHandler{poller: poller, sink: sink}
}

func (h *PollHandler) Surface() string { return SurfacePoll }

func (h *PollHandler) Handle(ctx context.Context, req core.InboundRequest) (core.InboundResult, error) {
	if h == nil || h.poller == nil {
		return core.InboundResult{}, core.InternalError("inbound: poller is required", nil)
	}
	pollReq := core.PollRequest{
		CampaignID: req.Query["campaignId"],
		Topic:      core.Topic(req.Query["topic"]),
	}
	if topic, err := core.ParseTopic(req.Query["topic"]); err == nil {
		pollReq.Topic = topic
	}
	pollReq.IncludeLeadDetails, _ = boolQuery(req.Query, "includeLeadDetails")

	events, err := h.poller.Poll(ctx, pollReq)
	if err != nil {
		return core.InboundResult{}, err
	}
	items := make([]any, 0, len(events))
	for _, event := range events {
		if h.sink != nil {
			if err := h.sink.Emit(ctx, event); err != nil {
				return core.InboundResult{}, err
			}
		}
		items = append(items, map[string]any(event))
	}
	return core.InboundResult{
		Accepted:   true,
		StatusCode: http.StatusOK,
		Event:      core.EnrichedEvent{"items": items, "count": len(items)},
	}, nil
}

func boolQuery(query map[string]string, key string) (bool, bool) {
	raw, ok := query[key]
	if !ok {
		return false, false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return value, true
}

var (
	_ core.InboundHandler = (*DeliveryHandler)(nil)
	_ core.InboundHandler = (*PollHandler)(nil)
)
