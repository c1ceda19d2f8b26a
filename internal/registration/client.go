// Package registration is the outbound client that registers this
// engine's webhook endpoint with the remote job service.
package registration

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
)

// HTTPError is a response the remote service actually sent: status code
// plus whatever body it returned.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("registration: remote returned %d: %s", e.Status, e.Body)
}

// TransportError is a failure before any status arrived (DNS, refused
// connection, timeout).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "registration: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

type Client struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type registerRequest struct {
	WebhookURL string   `json:"webhook_url"`
	Events     []string `json:"events"`
}

type registerResponse struct {
	WebhookID string `json:"webhook_id"`
}

// Register asks the remote service to start delivering events to
// webhookURL and returns the webhook id it assigned. Failures are always
// one of *HTTPError or *TransportError.
func (c *Client) Register(ctx context.Context, webhookURL string, events []string) (string, error) {
	body, err := json.Marshal(registerRequest{WebhookURL: webhookURL, Events: events})
	if err != nil {
		return "", &TransportError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/api/webhooks/register", bytes.NewReader(body))
	if err != nil {
		return "", &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &HTTPError{Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var out registerResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", &TransportError{Err: fmt.Errorf("decode register response: %w", err)}
	}
	if strings.TrimSpace(out.WebhookID) == "" {
		return "", &TransportError{Err: fmt.Errorf("register response carried no webhook_id")}
	}
	return out.WebhookID, nil
}

// Unregister removes a previously registered webhook. Same failure
// classification as Register.
func (c *Client) Unregister(ctx context.Context, webhookID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.BaseURL+"/api/webhooks/"+url.PathEscape(webhookID), nil)
	if err != nil {
		return &TransportError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &HTTPError{Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return &http.Client{Timeout: 30 * time.Second}
}
