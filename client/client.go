// Package client is a Go client for the StockaDoodle REST API.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/Romarate18/StockaDoodle-IMS/userctx"
)

const (
	DefaultBaseURL = "http://127.0.0.1:5000"
	DefaultTimeout = 10 * time.Second

	apiPrefix       = "/api/v1"
	requestIDHeader = "X-Request-ID"
	maxResponseSize = 32 << 20
)

// Transport failures. Errors returned by the client wrap one of these.
var (
	ErrTimeout     = errors.New("request timeout: server not responding")
	ErrUnreachable = errors.New("cannot connect to server")
	ErrTransport   = errors.New("unexpected transport error")
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// ActorID, when set, is sent as X-User-ID so the server can attribute
	// mutations that carry no user_id in the body.
	ActorID    uint
	HTTPClient *http.Client
}

// Payload is a write body. An "image_path" key names a local file that is
// inlined as "image_base64" before sending.
type Payload map[string]any

// Result is a successful (2xx) response.
type Result struct {
	StatusCode int
	// Data is the decoded JSON body, or the raw text when it is not JSON.
	Data any
	Raw  []byte
}

// Decode unmarshals the response body into v.
func (r *Result) Decode(v any) error {
	return json.Unmarshal(r.Raw, v)
}

// APIError is a 4xx or 5xx response.
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	actorID    uint

	Products   *ProductsClient
	Categories *CategoriesClient
	Retailers  *RetailersClient
	Logs       *LogsClient
}

func New(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		actorID:    cfg.ActorID,
	}
	c.Products = &ProductsClient{c: c}
	c.Categories = &CategoriesClient{c: c}
	c.Retailers = &RetailersClient{c: c}
	c.Logs = &LogsClient{c: c}
	return c
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*Result, error) {
	return c.send(ctx, http.MethodGet, c.baseURL+"/health", nil)
}

// do issues a request against the versioned API.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body Payload) (*Result, error) {
	target := c.baseURL + apiPrefix + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return c.send(ctx, method, target, body)
}

func (c *Client) send(ctx context.Context, method, target string, body Payload) (*Result, error) {
	var bodyReader io.Reader
	if body != nil {
		prepared, err := inlineImage(body)
		if err != nil {
			return nil, err
		}
		jsonBody, err := json.Marshal(prepared)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.actorID != 0 {
		req.Header.Set(userctx.ActorHeader, strconv.FormatUint(uint64(c.actorID), 10))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, classify(err)
	}

	if resp.StatusCode >= 400 {
		return nil, newAPIError(resp.StatusCode, raw)
	}

	result := &Result{StatusCode: resp.StatusCode, Raw: raw}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &result.Data); err != nil {
			result.Data = string(raw)
		}
	}
	return result, nil
}

func classify(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case isDialError(err):
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	default:
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
}

func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// newAPIError collects the server's "errors" list, falling back to
// "message", then to the body text, then to the status text.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		for _, msg := range parsed.Get("errors").Array() {
			apiErr.Messages = append(apiErr.Messages, msg.String())
		}
		if len(apiErr.Messages) == 0 {
			if msg := parsed.Get("message"); msg.Exists() {
				apiErr.Messages = []string{msg.String()}
			}
		}
	}
	if len(apiErr.Messages) == 0 {
		text := strings.TrimSpace(string(body))
		if text == "" {
			text = http.StatusText(status)
		}
		apiErr.Messages = []string{text}
	}
	return apiErr
}

// inlineImage returns a copy of p with image_path replaced by image_base64.
func inlineImage(p Payload) (Payload, error) {
	path, _ := p["image_path"].(string)
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", path, err)
	}

	out := make(Payload, len(p))
	for k, v := range p {
		if k != "image_path" {
			out[k] = v
		}
	}
	out["image_base64"] = base64.StdEncoding.EncodeToString(data)
	return out, nil
}
