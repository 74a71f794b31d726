package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturedRequest records what the test server received.
type capturedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   map[string]any
}

func newTestServer(t *testing.T, status int, response string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Method = r.Method
		captured.Path = r.URL.Path
		captured.Query = r.URL.RawQuery
		captured.Header = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &captured.Body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)
	return server, captured
}

func TestNewDefaults(t *testing.T) {
	c := New(Config{})
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)

	c = New(Config{BaseURL: "http://api.local/", Timeout: time.Second})
	assert.Equal(t, "http://api.local", c.baseURL)
	assert.Equal(t, time.Second, c.httpClient.Timeout)
}

func TestRoutes(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name           string
		call           func(c *Client) (*Result, error)
		expectedMethod string
		expectedPath   string
		expectedQuery  string
		expectedBody   map[string]any
	}{
		{
			name:           "list products",
			call:           func(c *Client) (*Result, error) { return c.Products.List(ctx, ProductQuery{Search: "milk", CategoryID: 2}) },
			expectedMethod: http.MethodGet,
			expectedPath:   "/api/v1/products",
			expectedQuery:  "category_id=2&search=milk",
		},
		{
			name:           "get product with image",
			call:           func(c *Client) (*Result, error) { return c.Products.Get(ctx, 4, true) },
			expectedMethod: http.MethodGet,
			expectedPath:   "/api/v1/products/4",
			expectedQuery:  "include_image=true",
		},
		{
			name:           "patch product",
			call:           func(c *Client) (*Result, error) { return c.Products.Update(ctx, 4, Payload{"stock_level": 3}) },
			expectedMethod: http.MethodPatch,
			expectedPath:   "/api/v1/products/4",
			expectedBody:   map[string]any{"stock_level": float64(3)},
		},
		{
			name:           "replace category",
			call:           func(c *Client) (*Result, error) { return c.Categories.Replace(ctx, 9, Payload{"name": "Dairy"}) },
			expectedMethod: http.MethodPut,
			expectedPath:   "/api/v1/categories/9",
			expectedBody:   map[string]any{"name": "Dairy"},
		},
		{
			name:           "delete category",
			call:           func(c *Client) (*Result, error) { return c.Categories.Delete(ctx, 9) },
			expectedMethod: http.MethodDelete,
			expectedPath:   "/api/v1/categories/9",
		},
		{
			name:           "leaderboard",
			call:           func(c *Client) (*Result, error) { return c.Retailers.Leaderboard(ctx, "total_sales", 5) },
			expectedMethod: http.MethodGet,
			expectedPath:   "/api/v1/retailer/leaderboard",
			expectedQuery:  "limit=5&sort_by=total_sales",
		},
		{
			name:           "update quota",
			call:           func(c *Client) (*Result, error) { return c.Retailers.UpdateQuota(ctx, 3, 500.25, 1) },
			expectedMethod: http.MethodPatch,
			expectedPath:   "/api/v1/retailer/3/quota",
			expectedBody:   map[string]any{"daily_quota": 500.25, "updated_by": float64(1)},
		},
		{
			name:           "reset streak",
			call:           func(c *Client) (*Result, error) { return c.Retailers.ResetStreak(ctx, 3, 0) },
			expectedMethod: http.MethodPost,
			expectedPath:   "/api/v1/retailer/3/reset-streak",
		},
		{
			name:           "logs",
			call:           func(c *Client) (*Result, error) { return c.Logs.List(ctx, LogQuery{Entity: "product", Limit: 20}) },
			expectedMethod: http.MethodGet,
			expectedPath:   "/api/v1/logs",
			expectedQuery:  "entity=product&limit=20",
		},
		{
			name:           "health",
			call:           func(c *Client) (*Result, error) { return c.Health(ctx) },
			expectedMethod: http.MethodGet,
			expectedPath:   "/health",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server, captured := newTestServer(t, http.StatusOK, `{"ok":true}`)

			res, err := tc.call(New(Config{BaseURL: server.URL}))
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, res.StatusCode)
			assert.Equal(t, map[string]any{"ok": true}, res.Data)

			assert.Equal(t, tc.expectedMethod, captured.Method)
			assert.Equal(t, tc.expectedPath, captured.Path)
			assert.Equal(t, tc.expectedQuery, captured.Query)
			if tc.expectedBody != nil {
				assert.Equal(t, tc.expectedBody, captured.Body)
			}
		})
	}
}

func TestHeaders(t *testing.T) {
	server, captured := newTestServer(t, http.StatusCreated, `{"id":1}`)

	c := New(Config{BaseURL: server.URL, ActorID: 12})
	_, err := c.Categories.Create(context.Background(), Payload{"name": "Beverages"})
	require.NoError(t, err)

	assert.Equal(t, "application/json", captured.Header.Get("Content-Type"))
	assert.Equal(t, "12", captured.Header.Get("X-User-ID"))
	_, err = uuid.Parse(captured.Header.Get("X-Request-ID"))
	assert.NoError(t, err)
}

func TestResultDecode(t *testing.T) {
	server, _ := newTestServer(t, http.StatusCreated, `{"id":1,"name":"Beverages","description":null}`)

	res, err := New(Config{BaseURL: server.URL}).Categories.Create(context.Background(), Payload{"name": "Beverages"})
	require.NoError(t, err)

	var category struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, res.Decode(&category))
	assert.Equal(t, uint(1), category.ID)
	assert.Equal(t, "Beverages", category.Name)
}

func TestNonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("plain text"))
	}))
	defer server.Close()

	res, err := New(Config{BaseURL: server.URL}).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "plain text", res.Data)
}

func TestAPIErrors(t *testing.T) {
	testCases := []struct {
		name             string
		status           int
		body             string
		expectedMessages []string
	}{
		{"errors list", http.StatusBadRequest, `{"errors":["Category name already exists"]}`, []string{"Category name already exists"}},
		{"message field", http.StatusNotFound, `{"message":"gone"}`, []string{"gone"}},
		{"plain text", http.StatusBadGateway, `upstream down`, []string{"upstream down"}},
		{"empty body", http.StatusInternalServerError, ``, []string{"Internal Server Error"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server, _ := newTestServer(t, tc.status, tc.body)

			_, err := New(Config{BaseURL: server.URL}).Products.Delete(context.Background(), 1)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tc.status, apiErr.StatusCode)
			assert.Equal(t, tc.expectedMessages, apiErr.Messages)
		})
	}
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := New(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond}).Health(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = New(Config{BaseURL: "http://" + addr}).Health(context.Background())
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestImagePathInlined(t *testing.T) {
	path := filepath.Join(t.TempDir(), "milk.png")
	require.NoError(t, os.WriteFile(path, []byte("png-data"), 0o600))

	server, captured := newTestServer(t, http.StatusCreated, `{}`)
	payload := Payload{"name": "Milk", "price": "50", "image_path": path}

	_, err := New(Config{BaseURL: server.URL}).Products.Create(context.Background(), payload)
	require.NoError(t, err)

	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("png-data")), captured.Body["image_base64"])
	assert.NotContains(t, captured.Body, "image_path")
	assert.Contains(t, payload, "image_path", "caller's payload is left untouched")
}

func TestImagePathMissing(t *testing.T) {
	server, captured := newTestServer(t, http.StatusCreated, `{}`)

	_, err := New(Config{BaseURL: server.URL}).Products.Create(context.Background(),
		Payload{"name": "Milk", "image_path": filepath.Join(t.TempDir(), "nope.png")})

	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, captured.Method, "nothing is sent")
}
