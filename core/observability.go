package core

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	statusSuccess = "success"
	statusFailure = "failure"

	// RedactedValue replaces credential values in logged error metadata.
	RedactedValue = "[REDACTED]"
)

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

// observeOperation emits the counter, the duration histogram and one log line
// for a finished service call. Only layer and topic fields become metric
// tags; everything else stays in the log line.
func (s *Service) observeOperation(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	if s == nil {
		return
	}
	name := operationName(operation)
	elapsed := time.Since(startedAt)
	status := statusSuccess
	if err != nil {
		status = statusFailure
	}

	logFields := cloneFields(fields)
	logFields["event_type"] = name
	logFields["status"] = status
	logFields["duration_ms"] = elapsed.Milliseconds()
	if err != nil {
		logFields["error"] = err.Error()
		maps.Copy(logFields, errorFields(err))
	}

	tags := map[string]string{"operation": name, "status": status}
	for _, key := range []string{"layer", "topic"} {
		if value, ok := logFields[key]; ok && value != nil {
			if text := strings.TrimSpace(fmt.Sprint(value)); text != "" {
				tags[key] = text
			}
		}
	}

	if s.metricsRecorder != nil {
		s.metricsRecorder.IncCounter(ctx, "leadtable."+name+".total", 1, cloneTags(tags))
		s.metricsRecorder.ObserveHistogram(ctx, "leadtable."+name+".duration_ms", float64(elapsed.Milliseconds()), cloneTags(tags))
	}

	if err != nil {
		s.logError(ctx, name+" failed", logFields)
		return
	}
	s.logInfo(ctx, name+" succeeded", logFields)
}

// errorFields lifts the go-errors envelope into log fields.
func errorFields(err error) map[string]any {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return nil
	}
	fields := map[string]any{
		"error_category":  string(rich.Category),
		"error_text_code": rich.TextCode,
	}
	if rich.Code != 0 {
		fields["error_code"] = rich.Code
	}
	if len(rich.Metadata) > 0 {
		fields["error_metadata"] = RedactMetadata(rich.Metadata)
	}
	return fields
}

// RedactMetadata returns a copy of metadata with LeadTable credentials (the
// API key header and anything that looks like a secret) masked. Nested maps
// and slices are walked.
func RedactMetadata(metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata))
	for key, value := range metadata {
		if isCredentialKey(key) {
			out[key] = RedactedValue
			continue
		}
		out[key] = redactValue(value)
	}
	return out
}

func redactValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return RedactMetadata(typed)
	case map[string]string:
		converted := make(map[string]any, len(typed))
		for key, item := range typed {
			converted[key] = item
		}
		return RedactMetadata(converted)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = redactValue(item)
		}
		return out
	default:
		return value
	}
}

var credentialKeyTokens = []string{"apikey", "api_key", "api-key", "password", "secret", "token", "authorization"}

func isCredentialKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	return slices.ContainsFunc(credentialKeyTokens, func(token string) bool {
		return strings.Contains(key, token)
	})
}

func (s *Service) logInfo(ctx context.Context, message string, fields map[string]any) {
	logger := s.contextLogger(ctx, fields)
	if logger != nil {
		logger.Info(message, flattenFields(fields)...)
	}
}

func (s *Service) logError(ctx context.Context, message string, fields map[string]any) {
	logger := s.contextLogger(ctx, fields)
	if logger != nil {
		logger.Error(message, flattenFields(fields)...)
	}
}

func (s *Service) contextLogger(ctx context.Context, fields map[string]any) Logger {
	if s == nil || s.logger == nil {
		return nil
	}
	logger := s.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if withFields, ok := logger.(FieldsLogger); ok {
		logger = withFields.WithFields(cloneFields(fields))
	}
	return logger
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	maps.Copy(out, fields)
	return out
}

func cloneTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	maps.Copy(out, tags)
	return out
}

// flattenFields turns fields into sorted key/value args.
func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	args := make([]any, 0, len(fields)*2)
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		args = append(args, key, fields[key])
	}
	return args
}

// operationName lower-cases op and replaces spaces and dashes with
// underscores; empty names become "unknown".
func operationName(op string) string {
	op = strings.ToLower(strings.TrimSpace(op))
	op = strings.NewReplacer(" ", "_", "-", "_").Replace(op)
	if op == "" {
		return "unknown"
	}
	return op
}

var _ MetricsRecorder = NopMetricsRecorder{}
