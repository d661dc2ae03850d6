// Package completion talks to the remote chat completion endpoint.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iksnae/xerochat/internal"
	"github.com/tidwall/gjson"
)

// MaxResponseSize caps how much of a response body is read
const MaxResponseSize = 10 * 1024 * 1024

// Provider names sent with each request
const (
	ProviderGroq       = "groq"
	ProviderOpenRouter = "openrouter"
)

// providerPrefixes maps model identifier prefixes to the provider that serves them
var providerPrefixes = []struct {
	prefix   string
	provider string
}{
	{"openrouter/", ProviderOpenRouter},
}

// DeriveProvider returns the provider for model and the model name to send.
// A routed prefix is stripped; any other identifier goes to groq unchanged.
func DeriveProvider(model string) (provider, name string) {
	for _, p := range providerPrefixes {
		if rest, ok := strings.CutPrefix(model, p.prefix); ok {
			return p.provider, rest
		}
	}
	return ProviderGroq, model
}

// Badge returns the short model name shown next to the session title
func Badge(model string) string {
	if i := strings.LastIndex(model, "/"); i >= 0 {
		return model[i+1:]
	}
	return model
}

// Message is one entry of the request history
type Message struct {
	Role    internal.Role    `json:"role"`
	Content internal.Content `json:"content"`
}

// Request is the body posted to the endpoint
type Request struct {
	Provider string    `json:"provider"`
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// NewRequest builds the request body for model and history
func NewRequest(model string, history []internal.Message) Request {
	provider, name := DeriveProvider(model)
	msgs := make([]Message, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, Message{Role: m.Role, Content: m.Content})
	}
	return Request{Provider: provider, Model: name, Messages: msgs}
}

// Reply is a successful response
type Reply struct {
	// Content is the raw reply content: a JSON string, a parts array, or
	// empty when the response carried nothing usable
	Content json.RawMessage
	Status  int
	Body    []byte
}

// ServerError is a non-success HTTP response
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// Client posts conversations to the completion endpoint
type Client struct {
	endpoint   string
	httpClient *http.Client
	headers    map[string]string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHeader adds a header to every request
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// New creates a client for endpoint
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		headers:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the endpoint URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Complete sends the history and returns the reply. It performs exactly one
// request; failures are returned, never retried.
func (c *Client) Complete(ctx context.Context, model string, history []internal.Message) (*Reply, error) {
	payload, err := json.Marshal(NewRequest(model, history))
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	internal.LogDebug("Completion response: %d (%v, %d bytes)", resp.StatusCode, time.Since(start).Round(time.Millisecond), len(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServerError{Status: resp.StatusCode, Message: ErrorMessage(resp.StatusCode, body)}
	}
	return &Reply{Content: ReplyContent(body), Status: resp.StatusCode, Body: body}, nil
}

// Ping checks that the endpoint answers at all. Any HTTP status counts.
func (c *Client) Ping(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodOptions, c.endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseSize))
	return resp.StatusCode, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeds %d bytes", MaxResponseSize)
	}
	return body, nil
}

// successPaths are tried in order for the reply content
var successPaths = []string{
	"choices.0.message.content",
	"choices.0.delta.content",
	"choices.0.text",
}

// ReplyContent picks the reply content out of a success body. The result is
// a JSON string or array, or nil when nothing usable is present.
func ReplyContent(body []byte) json.RawMessage {
	if !gjson.ValidBytes(body) {
		return nil
	}
	doc := gjson.ParseBytes(body)
	for _, path := range successPaths {
		if v := doc.Get(path); usable(v) {
			return json.RawMessage(v.Raw)
		}
	}
	if v := doc.Get("choices.0"); v.Type == gjson.String && v.Str != "" {
		return json.RawMessage(v.Raw)
	}
	if v := doc.Get("result"); usable(v) {
		return json.RawMessage(v.Raw)
	}
	if doc.Type == gjson.String && doc.Str != "" {
		return json.RawMessage(doc.Raw)
	}
	return nil
}

func usable(v gjson.Result) bool {
	switch {
	case v.Type == gjson.String:
		return v.Str != ""
	case v.IsArray():
		return len(v.Array()) > 0
	}
	return false
}

// ErrorMessage extracts the best available error text from a failed response
func ErrorMessage(status int, body []byte) string {
	if gjson.ValidBytes(body) {
		doc := gjson.ParseBytes(body)
		if msg := doc.Get("error.message"); msg.Type == gjson.String && msg.Str != "" {
			return msg.Str
		}
		if e := doc.Get("error"); e.Exists() && e.Type != gjson.Null {
			if e.Type == gjson.String {
				if e.Str != "" {
					return e.Str
				}
			} else {
				return compact(e.Raw)
			}
		}
		if raw := doc.Get("raw"); raw.Type == gjson.String && raw.Str != "" {
			return raw.Str
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}

func compact(raw string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err != nil {
		return raw
	}
	return buf.String()
}
