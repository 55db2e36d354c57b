package evolution

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
	serviceName  = "evolution"
	maxErrorBody = 4 << 10
)

// Client talks to the Evolution API messaging gateway
type Client struct {
	baseURL     string
	apiKey      string
	webhookURL  string
	integration string
	client      *http.Client
}

var _ domain.Gateway = (*Client)(nil)

// NewClient creates a new Evolution API client
func NewClient(cfg config.EvolutionConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	integration := cfg.Integration
	if integration == "" {
		integration = "WHATSAPP-BAILEYS"
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.URL, "/"),
		apiKey:      cfg.APIKey,
		webhookURL:  cfg.WebhookURL,
		integration: integration,
		client:      &http.Client{Timeout: timeout},
	}
}

type createInstanceRequest struct {
	InstanceName string `json:"instanceName"`
	QRCode       bool   `json:"qrcode"`
	Integration  string `json:"integration"`
}

type createInstanceResponse struct {
	Instance struct {
		InstanceName string `json:"instanceName"`
		InstanceID   string `json:"instanceId"`
		Status       string `json:"status"`
	} `json:"instance"`
	QRCode json.RawMessage `json:"qrcode"`
}

type webhookSettings struct {
	URL             string   `json:"url"`
	Events          []string `json:"events"`
	Enabled         bool     `json:"enabled"`
	WebhookByEvents bool     `json:"webhookByEvents"`
	WebhookBase64   bool     `json:"webhookBase64"`
	InstanceID      string   `json:"instanceId,omitempty"`
}

type setWebhookRequest struct {
	Webhook webhookSettings `json:"webhook"`
}

// CreateInstance provisions a QR-paired session named name and subscribes
// this bridge to its lifecycle and message events.
func (c *Client) CreateInstance(ctx context.Context, name string) (*domain.ProvisionedInstance, error) {
	req := createInstanceRequest{
		InstanceName: name,
		QRCode:       true,
		Integration:  c.integration,
	}

	var created createInstanceResponse
	if err := c.do(ctx, http.MethodPost, "/instance/create", req, &created); err != nil {
		return nil, err
	}

	if err := c.SetWebhook(ctx, name, created.Instance.InstanceID); err != nil {
		return nil, err
	}

	instanceName := created.Instance.InstanceName
	if instanceName == "" {
		instanceName = name
	}

	return &domain.ProvisionedInstance{
		InstanceID:   created.Instance.InstanceID,
		InstanceName: instanceName,
		QRCode:       created.QRCode,
	}, nil
}

// SetWebhook points the session's webhook at this bridge. All subscribed
// events are delivered to the same URL.
func (c *Client) SetWebhook(ctx context.Context, name, instanceID string) error {
	req := setWebhookRequest{
		Webhook: webhookSettings{
			URL:             c.webhookURL,
			Events:          domain.WebhookSubscriptions,
			Enabled:         true,
			WebhookByEvents: false,
			WebhookBase64:   false,
			InstanceID:      instanceID,
		},
	}
	return c.do(ctx, http.MethodPost, "/webhook/set/"+url.PathEscape(name), req, nil)
}

// Connect requests a new pairing challenge for an existing session. The
// gateway's answer is returned as-is.
func (c *Client) Connect(ctx context.Context, name string) (json.RawMessage, error) {
	var body json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/instance/connect/"+url.PathEscape(name), nil, &body); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("apikey", c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return &domain.RemoteCallError{Service: serviceName, Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.RemoteCallError{
			Service:    serviceName,
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(msg),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return &domain.RemoteCallError{
			Service:    serviceName,
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to decode response: %w", err),
		}
	}
	return nil
}

// Close releases idle connections
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
