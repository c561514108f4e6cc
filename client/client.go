package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-leadtable/core"
	"github.com/goliatone/go-leadtable/transport"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	HeaderAPIKey = "x-api-key"
	HeaderEmail  = "email"

	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

type Client struct {
	creds     core.Credentials
	baseURL   string
	transport core.TransportAdapter
	logger    core.Logger
	timeout   time.Duration
	maxBody   int64
}

type Option func(*Client)

func WithTransport(adapter core.TransportAdapter) Option {
	return func(c *Client) {
		if adapter != nil {
			c.transport = adapter
		}
	}
}

func WithLogger(logger core.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func WithResponseBodyLimit(limit int64) Option {
	return func(c *Client) {
		if limit > 0 {
			c.maxBody = limit
		}
	}
}

func WithConfig(cfg core.Config) Option {
	return func(c *Client) {
		WithRequestTimeout(cfg.RequestTimeout)(c)
		WithResponseBodyLimit(cfg.MaxResponseBodyBytes)(c)
		if strings.TrimSpace(c.creds.BaseURL) == "" && strings.TrimSpace(cfg.BaseURL) != "" {
			c.baseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
		}
	}
}

func New(creds core.Credentials, opts ...Option) (*Client, error) {
	creds.APIKey = strings.TrimSpace(creds.APIKey)
	creds.Email = strings.TrimSpace(creds.Email)
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		creds:   creds,
		baseURL: creds.ResolvedBaseURL(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.transport == nil {
		c.transport = transport.NewRESTAdapter(nil)
	}
	if c.logger == nil {
		c.logger = glog.Nop()
	}
	return c, nil
}

func (c *Client) AccountEmail() string {
	return c.creds.Email
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	method      string
	path        string
	query       map[string]string
	body        []byte
	contentType string
}

func jsonRequest(method, path string, payload any) (request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return request{}, core.InternalError("client: encode request body: "+err.Error(), map[string]any{"path": path})
	}
	return request{method: method, path: path, body: body, contentType: contentTypeJSON}, nil
}

func (c *Client) do(ctx context.Context, req request) (any, error) {
	headers := map[string]string{
		HeaderAPIKey: c.creds.APIKey,
		HeaderEmail:  c.creds.Email,
		"Accept":     contentTypeJSON,
	}
	if req.contentType != "" {
		headers["Content-Type"] = req.contentType
	}
	url := c.baseURL + req.path
	c.logger.Debug("leadtable api request", "method", req.method, "url", url, "email", c.creds.Email)

	res, err := c.transport.Do(ctx, core.TransportRequest{
		Method:               req.method,
		URL:                  url,
		Headers:              headers,
		Query:                req.query,
		Body:                 req.body,
		Timeout:              c.timeout,
		MaxResponseBodyBytes: c.maxBody,
	})
	if err != nil {
		c.logger.Error("leadtable api transport failure", "url", url, "error", core.ErrorMessage(err))
		return nil, transportFailure(err)
	}
	decoded := decodeBody(res.Body)
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		c.logger.Error("leadtable api error", "url", url, "status_code", res.StatusCode)
		return nil, statusFailure(res.StatusCode, decoded)
	}
	return decoded, nil
}

func decodeBody(body []byte) any {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return map[string]any{}
	}
	var decoded any
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return string(trimmed)
	}
	return decoded
}

var _ core.RemoteAPI = (*Client)(nil)
