package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-leadtable/core"
)

func TestRESTAdapter_SendsHeadersQueryAndBody(t *testing.T) {
	var (
		gotMethod string
		gotQuery  string
		gotAccept string
		gotKey    string
		gotBody   string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.Query().Get("topic")
		gotAccept = r.Header.Get("Accept")
		gotKey = r.Header.Get("x-api-key")
		payload, _ := io.ReadAll(r.Body)
		gotBody = string(payload)
		w.Header().Set("X-Request-Id", "req_1")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	adapter := NewRESTAdapter(server.Client(), WithDefaultHeader("x-api-key", "key"))
	res, err := adapter.Do(context.Background(), core.TransportRequest{
		Method: "post",
		URL:    server.URL + "/webhook/poll",
		Query:  map[string]string{"topic": "newLead"},
		Body:   []byte(`{"a":1}`),
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if gotMethod != http.MethodPost || gotQuery != "newLead" || gotBody != `{"a":1}` {
		t.Fatalf("unexpected request method=%q query=%q body=%q", gotMethod, gotQuery, gotBody)
	}
	if gotAccept != "application/json" || gotKey != "key" {
		t.Fatalf("unexpected headers accept=%q key=%q", gotAccept, gotKey)
	}
	if res.StatusCode != http.StatusCreated || string(res.Body) != `{"ok":true}` {
		t.Fatalf("unexpected response %#v", res)
	}
	if res.Headers["x-request-id"] != "req_1" {
		t.Fatalf("expected lower-cased response headers, got %#v", res.Headers)
	}
	if res.Metadata[MetadataKind] != KindREST {
		t.Fatalf("expected kind metadata, got %#v", res.Metadata)
	}
}

func TestRESTAdapter_TransportFailureIsRemoteRequestFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewRESTAdapter(nil).Do(context.Background(), core.TransportRequest{URL: url})
	if !core.IsRemoteRequestFailed(err) {
		t.Fatalf("expected remote request failure, got %v", err)
	}
}
