package client

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-leadtable/core"
)

type Page struct {
	Page  int
	Limit int
}

func (p Page) query() map[string]string {
	query := map[string]string{}
	if p.Page > 0 {
		query["page"] = strconv.Itoa(p.Page)
	}
	if p.Limit > 0 {
		query["limit"] = strconv.Itoa(p.Limit)
	}
	return query
}

type LeadField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type CreateLeadInput struct {
	CampaignID string      `json:"campaignID"`
	Data       []LeadField `json:"data"`
}

type UpdateLeadInput struct {
	Question            string `json:"question"`
	Answer              string `json:"answer"`
	SetVisibleInProfile bool   `json:"setVisibleInProfile"`
}

type AddFileInput struct {
	LeadID      string
	FileName    string
	ContentType string
	Content     []byte
}

type CreateTableInput struct {
	CustomerID string
	Occupation string
	FunnelLink string
	Additional map[string]any
}

func (c *Client) CheckAuth(ctx context.Context) (any, error) {
	return c.do(ctx, request{method: http.MethodGet, path: "/auth"})
}

func (c *Client) CreateLead(ctx context.Context, in CreateLeadInput) (any, error) {
	if err := requireID("campaignId", in.CampaignID); err != nil {
		return nil, err
	}
	if in.Data == nil {
		in.Data = []LeadField{}
	}
	req, err := jsonRequest(http.MethodPost, "/lead/create", in)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req)
}

func (c *Client) GetLead(ctx context.Context, leadID string, plainDescription bool) (any, error) {
	if err := requireID("leadId", leadID); err != nil {
		return nil, err
	}
	req := request{method: http.MethodGet, path: "/lead/" + segment(leadID)}
	if plainDescription {
		req.query = map[string]string{"plainDescription": "true"}
	}
	return c.do(ctx, req)
}

func (c *Client) UpdateLead(ctx context.Context, leadID string, in UpdateLeadInput) (any, error) {
	if err := requireID("leadId", leadID); err != nil {
		return nil, err
	}
	req, err := jsonRequest(http.MethodPut, "/lead/"+segment(leadID), in)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req)
}

func (c *Client) UpdateLeadDescription(ctx context.Context, leadID, description string) (any, error) {
	if err := requireID("leadId", leadID); err != nil {
		return nil, err
	}
	req, err := jsonRequest(http.MethodPut, "/lead/"+segment(leadID)+"/description", map[string]string{"description": description})
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req)
}

func (c *Client) SearchLeadsByEmail(ctx context.Context, email string, page Page) (any, error) {
	if err := requireID("email", email); err != nil {
		return nil, err
	}
	return c.do(ctx, request{
		method: http.MethodGet,
		path:   "/searchLeadByMail/" + segment(email),
		query:  page.query(),
	})
}

func (c *Client) ListLeadsByCampaign(ctx context.Context, campaignID string, page Page) (any, error) {
	if err := requireID("campaignId", campaignID); err != nil {
		return nil, err
	}
	return c.do(ctx, request{
		method: http.MethodGet,
		path:   "/lead/campaign/" + segment(campaignID),
		query:  page.query(),
	})
}

// AddFile uploads a file to a lead as multipart/form-data with the parts
// "file" and "id".
func (c *Client) AddFile(ctx context.Context, in AddFileInput) (any, error) {
	if err := requireID("leadId", in.LeadID); err != nil {
		return nil, err
	}
	fileName := strings.TrimSpace(in.FileName)
	if fileName == "" {
		fileName = "upload.bin"
	}
	contentType := strings.TrimSpace(in.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+escapeQuotes(fileName)+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, core.InternalError("client: create multipart file part: "+err.Error(), nil)
	}
	if _, err := part.Write(in.Content); err != nil {
		return nil, core.InternalError("client: write multipart file part: "+err.Error(), nil)
	}
	if err := writer.WriteField("id", strings.TrimSpace(in.LeadID)); err != nil {
		return nil, core.InternalError("client: write multipart id field: "+err.Error(), nil)
	}
	if err := writer.Close(); err != nil {
		return nil, core.InternalError("client: close multipart body: "+err.Error(), nil)
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/addFile",
		body:        buf.Bytes(),
		contentType: writer.FormDataContentType(),
	})
}

func (c *Client) ListCampaigns(ctx context.Context, customerID string) (any, error) {
	if err := requireID("customerId", customerID); err != nil {
		return nil, err
	}
	return c.do(ctx, request{method: http.MethodGet, path: "/campaign/all/" + segment(customerID)})
}

func (c *Client) ListCustomers(ctx context.Context, page, limit int) (any, error) {
	return c.do(ctx, request{
		method: http.MethodGet,
		path:   "/customer/all",
		query:  Page{Page: page, Limit: limit}.query(),
	})
}

func (c *Client) CreateCustomer(ctx context.Context, name, description string) (any, error) {
	if err := requireID("name", name); err != nil {
		return nil, err
	}
	payload := map[string]string{"name": name}
	if strings.TrimSpace(description) != "" {
		payload["description"] = description
	}
	req, err := jsonRequest(http.MethodPost, "/customer/create", payload)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req)
}

// CreateTable merges the additional fields into the body; the required
// fields win on key collisions.
func (c *Client) CreateTable(ctx context.Context, in CreateTableInput) (any, error) {
	if err := requireID("customerID", in.CustomerID); err != nil {
		return nil, err
	}
	payload := make(map[string]any, len(in.Additional)+3)
	for key, value := range in.Additional {
		payload[key] = value
	}
	payload["customerID"] = in.CustomerID
	payload["occupation"] = in.Occupation
	payload["funnelLink"] = in.FunnelLink
	req, err := jsonRequest(http.MethodPost, "/table/create", payload)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req)
}

// AttachWebhook registers a callback. ScopeID travels as campaignID and is
// omitted when empty.
func (c *Client) AttachWebhook(ctx context.Context, in core.AttachWebhookInput) (map[string]any, error) {
	payload := map[string]string{
		"url":   in.URL,
		"topic": string(in.Topic),
		"layer": string(in.Layer),
	}
	if scope := strings.TrimSpace(in.ScopeID); scope != "" {
		payload["campaignID"] = scope
	}
	req, err := jsonRequest(http.MethodPost, "/attachWebhook", payload)
	if err != nil {
		return nil, err
	}
	response, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	object, _ := response.(map[string]any)
	if object == nil {
		object = map[string]any{}
	}
	return object, nil
}

// RemoveWebhook sends its parameters as a form-urlencoded DELETE body; the
// endpoint ignores query parameters.
func (c *Client) RemoveWebhook(ctx context.Context, in core.RemoveWebhookInput) (any, error) {
	form := url.Values{}
	form.Set("topic", string(in.Topic))
	form.Set("layer", string(in.Layer))
	form.Set("id", in.ID)
	form.Set("url", in.URL)
	if related := strings.TrimSpace(in.RelatedID); related != "" {
		form.Set("relatedID", related)
	}
	return c.do(ctx, request{
		method:      http.MethodDelete,
		path:        "/removeWebhook",
		body:        []byte(form.Encode()),
		contentType: contentTypeForm,
	})
}

func (c *Client) PollWebhook(ctx context.Context, campaignID string, topic core.Topic) (any, error) {
	if err := requireID("campaignId", campaignID); err != nil {
		return nil, err
	}
	return c.do(ctx, request{
		method: http.MethodGet,
		path:   "/pollWebhook/" + segment(campaignID) + "/" + segment(string(topic)),
	})
}

func requireID(field, value string) error {
	err := validation.Validate(strings.TrimSpace(value), validation.Required.Error(field+" is required"))
	if err != nil {
		return core.InvalidConfigurationError(err.Error(), map[string]any{"field": field})
	}
	return nil
}

func segment(value string) string {
	return url.PathEscape(strings.TrimSpace(value))
}

func escapeQuotes(value string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(value)
}
