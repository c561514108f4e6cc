package inbound

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-leadtable/core"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
)

const DefaultMaxBodyBytes int64 = 1 << 20

// HTTPHandler adapts POST requests on one surface to the dispatcher and
// writes the result as JSON.
type HTTPHandler struct {
	dispatcher   *Dispatcher
	surface      string
	maxBodyBytes int64
	logger       core.Logger
}

type HTTPOption func(*HTTPHandler)

func WithMaxBodyBytes(limit int64) HTTPOption {
	return func(h *HTTPHandler) {
		if limit > 0 {
			h.maxBodyBytes = limit
		}
	}
}

func WithLogger(logger core.Logger) HTTPOption {
	return func(h *HTTPHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewHTTPHandler(dispatcher *Dispatcher, surface string, opts ...HTTPOption) *HTTPHandler {
	handler := &HTTPHandler{
		dispatcher:   dispatcher,
		surface:      normalizeSurface(surface),
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       glog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(handler)
		}
	}
	return handler
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"error": "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "could not read request body"})
		return
	}

	requestID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req := core.InboundRequest{
		Surface:  h.surface,
		Headers:  flattenHeaders(r.Header),
		Query:    flattenQuery(r),
		Body:     body,
		Metadata: map[string]any{"request_id": requestID, "remote_addr": r.RemoteAddr},
	}

	result, err := h.dispatcher.Dispatch(r.Context(), req)
	if err != nil {
		h.logger.Error("inbound dispatch failed",
			"surface", h.surface,
			"request_id", requestID,
			"error", core.ErrorMessage(err),
		)
		writeJSON(w, statusOf(err), errorPayload(err))
		return
	}

	payload := map[string]any(result.Event)
	if payload == nil {
		payload = map[string]any{"accepted": result.Accepted}
	}
	if result.Metadata["deduped"] == true {
		payload["deduped"] = true
	}
	w.Header().Set("X-Request-Id", requestID)
	writeJSON(w, result.StatusCode, payload)
}

func errorPayload(err error) map[string]any {
	payload := map[string]any{"error": core.ErrorMessage(err)}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.TextCode != "" {
		payload["text_code"] = rich.TextCode
	}
	return payload
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func flattenHeaders(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for key, values := range header {
		if len(values) > 0 {
			out[strings.ToLower(key)] = values[0]
		}
	}
	return out
}

func flattenQuery(r *http.Request) map[string]string {
	values := r.URL.Query()
	out := make(map[string]string, len(values))
	for key := range values {
		out[key] = values.Get(key)
	}
	return out
}
