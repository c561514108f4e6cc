package inbound

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-leadtable/core"
)

const (
	SurfaceWebhook = "webhook"
	SurfacePoll    = "poll"
)

const DefaultKeyTTL = 10 * time.Minute

// IdempotencyKeyExtractor returns the dedupe key for a request. An empty key
// disables deduplication for that request.
type IdempotencyKeyExtractor func(req core.InboundRequest) (string, error)

type Dispatcher struct {
	Store      core.IdempotencyClaimStore
	ExtractKey IdempotencyKeyExtractor
	KeyTTL     time.Duration

	mu       sync.RWMutex
	handlers map[string]core.InboundHandler
}

func NewDispatcher(store core.IdempotencyClaimStore) *Dispatcher {
	return &Dispatcher{
		Store:      store,
		ExtractKey: DefaultIdempotencyKeyExtractor,
		KeyTTL:     DefaultKeyTTL,
		handlers:   map[string]core.InboundHandler{},
	}
}

func (d *Dispatcher) Register(handler core.InboundHandler) error {
	if d == nil {
		return core.InternalError("inbound: dispatcher is nil", nil)
	}
	if handler == nil {
		return core.BadInputError("inbound: handler is nil", nil)
	}
	surface := normalizeSurface(handler.Surface())
	if !isSupportedSurface(surface) {
		return core.BadInputError(
			fmt.Sprintf("inbound: unsupported surface %q", surface),
			map[string]any{"surface": surface},
		)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handlers == nil {
		d.handlers = map[string]core.InboundHandler{}
	}
	if _, exists := d.handlers[surface]; exists {
		return core.NewError(
			fmt.Sprintf("inbound: handler already registered for surface %q", surface),
			goerrors.CategoryConflict,
			http.StatusConflict,
			core.ErrorConflict,
			map[string]any{"surface": surface},
		)
	}
	d.handlers[surface] = handler
	return nil
}

func (d *Dispatcher) Dispatch(ctx context.Context, req core.InboundRequest) (core.InboundResult, error) {
	if d == nil {
		return core.InboundResult{}, core.InternalError("inbound: dispatcher is nil", nil)
	}
	req.Surface = normalizeSurface(req.Surface)
	if !isSupportedSurface(req.Surface) {
		return core.InboundResult{}, core.BadInputError(
			fmt.Sprintf("inbound: unsupported surface %q", req.Surface),
			map[string]any{"surface": req.Surface},
		)
	}
	handler := d.handlerFor(req.Surface)
	if handler == nil {
		return core.InboundResult{}, core.NewError(
			fmt.Sprintf("inbound: no handler registered for surface %q", req.Surface),
			goerrors.CategoryNotFound,
			http.StatusNotFound,
			core.ErrorNotFound,
			map[string]any{"surface": req.Surface},
		)
	}

	claimID, deduped, err := d.claim(ctx, req)
	if err != nil {
		return core.InboundResult{}, err
	}
	if deduped {
		return core.InboundResult{
			Accepted:   true,
			StatusCode: http.StatusOK,
			Metadata:   map[string]any{"surface": req.Surface, "deduped": true},
		}, nil
	}

	result, err := handler.Handle(ctx, req)
	if err != nil {
		handlerErr := core.WrapError(
			err,
			goerrors.CategoryOperation,
			"inbound: handler execution failed",
			http.StatusBadGateway,
			core.ErrorRemoteRequestFailed,
			map[string]any{"surface": req.Surface},
		)
		return core.InboundResult{}, d.fail(ctx, claimID, req.Surface, handlerErr)
	}
	if !result.Accepted || result.StatusCode >= http.StatusInternalServerError {
		retryErr := core.NewError(
			fmt.Sprintf("inbound: handler returned retryable status %d", result.StatusCode),
			goerrors.CategoryOperation,
			http.StatusBadGateway,
			core.ErrorRemoteRequestFailed,
			map[string]any{"surface": req.Surface, core.MetadataStatusCode: result.StatusCode},
		)
		return result, d.fail(ctx, claimID, req.Surface, retryErr)
	}
	if d.Store != nil && claimID != "" {
		if err := d.Store.Complete(ctx, claimID); err != nil {
			return core.InboundResult{}, core.WrapError(
				err,
				goerrors.CategoryOperation,
				"inbound: complete idempotency claim",
				http.StatusInternalServerError,
				core.ErrorInternal,
				map[string]any{"surface": req.Surface, "claim_id": claimID},
			)
		}
	}
	if result.StatusCode == 0 {
		result.StatusCode = http.StatusOK
	}
	result.Metadata = ensureMetadata(result.Metadata)
	result.Metadata["surface"] = req.Surface
	return result, nil
}

func (d *Dispatcher) claim(ctx context.Context, req core.InboundRequest) (string, bool, error) {
	if d.Store == nil {
		return "", false, nil
	}
	extractor := d.ExtractKey
	if extractor == nil {
		extractor = DefaultIdempotencyKeyExtractor
	}
	key, err := extractor(req)
	if err != nil {
		return "", false, core.WrapError(
			err,
			goerrors.CategoryBadInput,
			"inbound: resolve idempotency key",
			http.StatusBadRequest,
			core.ErrorBadInput,
			map[string]any{"surface": req.Surface},
		)
	}
	if key == "" {
		return "", false, nil
	}
	claimID, accepted, err := d.Store.Claim(ctx, req.Surface+":"+key, d.keyTTL())
	if err != nil {
		return "", false, core.WrapError(
			err,
			goerrors.CategoryOperation,
			"inbound: idempotency claim failed",
			http.StatusInternalServerError,
			core.ErrorInternal,
			map[string]any{"surface": req.Surface, "idempotency": key},
		)
	}
	return claimID, !accepted, nil
}

func (d *Dispatcher) fail(ctx context.Context, claimID string, surface string, cause error) error {
	if d.Store == nil || claimID == "" {
		return cause
	}
	if err := d.Store.Fail(ctx, claimID, cause, time.Time{}); err != nil {
		return errors.Join(cause, core.WrapError(
			err,
			goerrors.CategoryOperation,
			"inbound: mark idempotency claim failed",
			http.StatusInternalServerError,
			core.ErrorInternal,
			map[string]any{"surface": surface, "claim_id": claimID},
		))
	}
	return cause
}

// DefaultIdempotencyKeyExtractor only honours explicit delivery ids from
// metadata or headers. Requests without one are never deduplicated, so two
// LeadTable calls with identical bodies both reach the handler.
func DefaultIdempotencyKeyExtractor(req core.InboundRequest) (string, error) {
	for _, key := range []string{"idempotency_key", "delivery_id", "message_id"} {
		if value := trimAny(req.Metadata[key]); value != "" {
			return value, nil
		}
	}
	for _, key := range []string{"idempotency-key", "x-idempotency-key"} {
		if value := headerValue(req.Headers, key); value != "" {
			return value, nil
		}
	}
	return "", nil
}

func (d *Dispatcher) keyTTL() time.Duration {
	if d != nil && d.KeyTTL > 0 {
		return d.KeyTTL
	}
	return DefaultKeyTTL
}

func (d *Dispatcher) handlerFor(surface string) core.InboundHandler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.handlers[normalizeSurface(surface)]
}

func normalizeSurface(surface string) string {
	return strings.TrimSpace(strings.ToLower(surface))
}

func isSupportedSurface(surface string) bool {
	switch normalizeSurface(surface) {
	case SurfaceWebhook, SurfacePoll:
		return true
	default:
		return false
	}
}

func trimAny(value any) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func ensureMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return map[string]any{}
	}
	return metadata
}

func headerValue(headers map[string]string, key string) string {
	for existing, value := range headers {
		if strings.EqualFold(strings.TrimSpace(existing), key) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
