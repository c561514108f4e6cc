package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-leadtable/core"
)

const KindREST = "rest"

const (
	defaultRESTClientTimeout             = 30 * time.Second
	defaultRESTResponseBodyLimit   int64 = 10 << 20 // 10 MiB
	defaultUserAgent                     = "go-leadtable"
	MetadataDurationMS                   = "duration_ms"
	MetadataKind                         = "kind"
	MetadataMethod                       = "method"
	MetadataURL                          = "url"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RESTAdapter executes LeadTable REST calls over net/http. Bodies are sent as
// given; the caller owns the content type header.
type RESTAdapter struct {
	Client               HTTPDoer
	DefaultHeaders       map[string]string
	MaxResponseBodyBytes int64
}

type RESTOption func(*RESTAdapter)

func WithDefaultHeader(key, value string) RESTOption {
	return func(a *RESTAdapter) {
		key = strings.TrimSpace(key)
		if key == "" {
			return
		}
		a.DefaultHeaders[key] = value
	}
}

func WithResponseBodyLimit(limit int64) RESTOption {
	return func(a *RESTAdapter) {
		if limit > 0 {
			a.MaxResponseBodyBytes = limit
		}
	}
}

func NewRESTAdapter(client HTTPDoer, opts ...RESTOption) *RESTAdapter {
	if client == nil {
		client = &http.Client{Timeout: defaultRESTClientTimeout}
	}
	adapter := &RESTAdapter{
		Client: client,
		DefaultHeaders: map[string]string{
			"Accept":     "application/json",
			"User-Agent": defaultUserAgent,
		},
		MaxResponseBodyBytes: defaultRESTResponseBodyLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(adapter)
		}
	}
	return adapter
}

func (*RESTAdapter) Kind() string {
	return KindREST
}

func (a *RESTAdapter) Do(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil || a.Client == nil {
		return core.TransportResponse{}, transportError("transport: rest adapter requires an http client",
			goerrors.CategoryInternal, http.StatusInternalServerError, restMetadata(nil))
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := a.newRequest(ctx, req)
	if err != nil {
		return core.TransportResponse{}, err
	}
	md := restMetadata(map[string]any{MetadataMethod: httpReq.Method, MetadataURL: httpReq.URL.String()})

	startedAt := time.Now().UTC()
	httpRes, err := a.Client.Do(httpReq)
	if err != nil {
		return core.TransportResponse{}, transportWrapError(err, goerrors.CategoryExternal,
			"transport: execute http request", http.StatusBadGateway, md)
	}
	defer httpRes.Body.Close()

	payload, err := readLimited(httpRes, resolveResponseBodyLimit(req.MaxResponseBodyBytes, a.MaxResponseBodyBytes))
	if err != nil {
		return core.TransportResponse{}, err
	}
	return core.TransportResponse{
		StatusCode: httpRes.StatusCode,
		Headers:    flattenHeaders(httpRes.Header),
		Body:       payload,
		Metadata: map[string]any{
			MetadataDurationMS: time.Since(startedAt).Milliseconds(),
			MetadataKind:       KindREST,
			MetadataMethod:     httpReq.Method,
		},
	}, nil
}

// newRequest resolves method, url and query, then layers the adapter's
// default headers under the request's own.
func (a *RESTAdapter) newRequest(ctx context.Context, req core.TransportRequest) (*http.Request, error) {
	target := strings.TrimSpace(req.URL)
	if target == "" {
		return nil, transportError("transport: request url is required",
			goerrors.CategoryBadInput, http.StatusBadRequest, restMetadata(nil))
	}
	endpoint, err := url.Parse(target)
	if err != nil {
		return nil, transportWrapError(err, goerrors.CategoryBadInput, "transport: invalid request url",
			http.StatusBadRequest, restMetadata(map[string]any{MetadataURL: target}))
	}
	if len(req.Query) > 0 {
		values := endpoint.Query()
		for key, value := range req.Query {
			if key = strings.TrimSpace(key); key != "" {
				values.Set(key, value)
			}
		}
		endpoint.RawQuery = values.Encode()
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader = http.NoBody
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, transportWrapError(err, goerrors.CategoryBadInput, "transport: create http request",
			http.StatusBadRequest, restMetadata(map[string]any{MetadataMethod: method, MetadataURL: endpoint.String()}))
	}
	applyHeaders(httpReq.Header, a.DefaultHeaders)
	applyHeaders(httpReq.Header, req.Headers)
	return httpReq, nil
}

// readLimited reads at most limit bytes and fails when the body is longer.
func readLimited(res *http.Response, limit int64) ([]byte, error) {
	md := restMetadata(map[string]any{core.MetadataStatusCode: res.StatusCode})
	payload, err := io.ReadAll(io.LimitReader(res.Body, limit+1))
	if err != nil {
		return nil, transportWrapError(err, goerrors.CategoryExternal, "transport: read response body",
			http.StatusBadGateway, md)
	}
	if int64(len(payload)) > limit {
		md["response_limit_b"] = limit
		return nil, transportError(fmt.Sprintf("transport: response body exceeds limit of %d bytes", limit),
			goerrors.CategoryExternal, http.StatusBadGateway, md)
	}
	return payload, nil
}

func restMetadata(extra map[string]any) map[string]any {
	md := map[string]any{"adapter": KindREST}
	maps.Copy(md, extra)
	return md
}

func applyHeaders(target http.Header, headers map[string]string) {
	for key, value := range headers {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		target.Set(key, strings.TrimSpace(value))
	}
}

func flattenHeaders(headers http.Header) map[string]string {
	if len(headers) == 0 {
		return map[string]string{}
	}
	flat := make(map[string]string, len(headers))
	for key, values := range headers {
		flat[strings.ToLower(key)] = strings.Join(values, ",")
	}
	return flat
}

func resolveResponseBodyLimit(requestLimit int64, adapterLimit int64) int64 {
	if requestLimit > 0 {
		return requestLimit
	}
	if adapterLimit > 0 {
		return adapterLimit
	}
	return defaultRESTResponseBodyLimit
}

var _ core.TransportAdapter = (*RESTAdapter)(nil)
