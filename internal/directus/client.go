package directus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/config"
	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/domain"
)

const (
	serviceName  = "directus"
	maxErrorBody = 4 << 10
)

// Client issues collection requests against a Directus instance
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a new Directus client
func NewClient(cfg config.DirectusConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Instances returns the instances collection
func (c *Client) Instances() *InstanceRepository {
	return &InstanceRepository{client: c}
}

// ChatHistories returns the chat_histories collection
func (c *Client) ChatHistories() *ChatHistoryRepository {
	return &ChatHistoryRepository{client: c}
}

// Users returns the user directory
func (c *Client) Users() *UserDirectory {
	return &UserDirectory{client: c}
}

// Ping checks that Directus is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodGet, path: "/server/ping"}, nil)
}

// Close releases idle connections
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	// token overrides the service token when set
	token string
}

// envelope is the Directus response wrapper
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// do executes req and decodes the unwrapped data payload into out.
// A nil out discards the body.
func (c *Client) do(ctx context.Context, req request, out any) error {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	token := c.token
	if req.token != "" {
		token = req.token
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return c.remoteError(req, 0, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return c.remoteError(req, resp.StatusCode, string(msg), nil)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return c.remoteError(req, resp.StatusCode, "", fmt.Errorf("failed to decode response: %w", err))
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return c.remoteError(req, resp.StatusCode, "", fmt.Errorf("failed to decode data: %w", err))
	}
	return nil
}

func (c *Client) remoteError(req request, status int, body string, err error) error {
	return &domain.RemoteCallError{
		Service:    serviceName,
		Method:     req.method,
		Path:       req.path,
		StatusCode: status,
		Body:       body,
		Err:        err,
	}
}

func equalityFilter(field, value string) url.Values {
	return url.Values{
		fmt.Sprintf("filter[%s][_eq]", field): {value},
		"sort":                                {"id"},
	}
}
