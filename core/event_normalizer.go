package core

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

const isoTimestampLayout = "2006-01-02T15:04:05.000Z"

// epoch values at or above this are read as milliseconds
const millisecondThreshold = 1e12

// 9999-12-31T23:59:59.999Z, the last instant the layout can render.
const maxTimestampMillis = 253402300799999

var leadIDFields = []string{"leadId", "leadID", "lead_id"}

type NormalizeOptions struct {
	IncludeLeadDetails bool
}

func DecodeInboundEvent(raw []byte) (InboundEvent, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return InboundEvent{}, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var event map[string]any
	if err := decoder.Decode(&event); err != nil {
		return nil, InvalidConfigurationError("inbound event body must be a JSON object", map[string]any{"error": err.Error()})
	}
	if event == nil {
		event = map[string]any{}
	}
	return InboundEvent(event), nil
}

// NormalizeEvent passes the delivery through and adds lead details and a
// formatted timestamp. Enrichment never fails the delivery: a failed lead
// lookup is reported in leadDetailsError.
func (s *Service) NormalizeEvent(ctx context.Context, event InboundEvent, opts NormalizeOptions) (enriched EnrichedEvent, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"include_lead_details": opts.IncludeLeadDetails}
	defer func() {
		s.observeOperation(ctx, startedAt, "normalize_event", err, fields)
	}()

	enriched = make(EnrichedEvent, len(event)+2)
	for key, value := range event {
		enriched[key] = value
	}

	if opts.IncludeLeadDetails {
		if leadID := eventLeadID(event); leadID != "" {
			fields["lead_id"] = leadID
			s.enrichLeadDetails(ctx, enriched, leadID, fields)
		}
	}

	if raw, ok := event[FieldTimestamp]; ok {
		if formatted, ok := FormatTimestamp(raw); ok {
			enriched[FieldTimestampFormatted] = formatted
		}
	}
	return enriched, nil
}

// NormalizeRaw decodes raw and normalizes it.
func (s *Service) NormalizeRaw(ctx context.Context, raw []byte, opts NormalizeOptions) (EnrichedEvent, error) {
	event, err := DecodeInboundEvent(raw)
	if err != nil {
		return nil, err
	}
	return s.NormalizeEvent(ctx, event, opts)
}

func (s *Service) enrichLeadDetails(ctx context.Context, enriched EnrichedEvent, leadID string, fields map[string]any) {
	api, err := s.remoteAPI()
	if err == nil {
		var details any
		details, err = api.GetLead(ctx, leadID, false)
		if err == nil {
			enriched[FieldLeadDetails] = details
			return
		}
	}
	enriched[FieldLeadDetailsError] = ErrorMessage(err)
	logFields := cloneFields(fields)
	logFields["error"] = ErrorMessage(err)
	s.logError(ctx, "lead details enrichment failed", logFields)
}

func eventLeadID(event InboundEvent) string {
	for _, key := range leadIDFields {
		if value := stringValue(event[key]); value != "" {
			return value
		}
	}
	return ""
}

// FormatTimestamp renders an epoch (seconds or milliseconds, number or numeric
// string) or an RFC 3339 string as UTC ISO-8601 with millisecond precision.
// Instants past year 9999 are rejected.
func FormatTimestamp(value any) (string, bool) {
	var epoch float64
	switch typed := value.(type) {
	case json.Number:
		parsed, err := typed.Float64()
		if err != nil {
			return "", false
		}
		epoch = parsed
	case float64:
		epoch = typed
	case int64:
		epoch = float64(typed)
	case int:
		epoch = float64(typed)
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return "", false
		}
		if parsed, err := strconv.ParseFloat(trimmed, 64); err == nil {
			epoch = parsed
			break
		}
		parsed, err := time.Parse(time.RFC3339Nano, trimmed)
		if err != nil {
			return "", false
		}
		return renderTimestamp(parsed)
	default:
		return "", false
	}
	if math.IsNaN(epoch) || math.IsInf(epoch, 0) || epoch < 0 || epoch > maxTimestampMillis {
		return "", false
	}
	if epoch >= millisecondThreshold {
		return renderTimestamp(time.UnixMilli(int64(epoch)))
	}
	seconds, fraction := math.Modf(epoch)
	return renderTimestamp(time.Unix(int64(seconds), int64(fraction*float64(time.Second))))
}

func renderTimestamp(ts time.Time) (string, bool) {
	ts = ts.UTC()
	if ts.Year() > 9999 {
		return "", false
	}
	return ts.Format(isoTimestampLayout), true
}
