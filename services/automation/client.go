package automation

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

	"automation-builder/api/services/workflow"
)

// Client talks to a remote automation endpoint that serves the same routes as
// Service.RegisterRoutes.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for baseURL (e.g. https://portal.example.com/api).
// Every request is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Persist posts a new automation, or puts an existing one when a.ID is set.
func (c *Client) Persist(ctx context.Context, a workflow.Automation) (string, error) {
	body, err := json.Marshal(a)
	if err != nil {
		return "", err
	}

	method, endpoint := http.MethodPost, c.baseURL+"/automations"
	if a.ID != "" {
		method, endpoint = http.MethodPut, c.baseURL+"/automations/"+url.PathEscape(a.ID)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out persistResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return a.ID, nil
	}
	return out.ID, nil
}

// Load fetches a saved automation.
func (c *Client) Load(ctx context.Context, id string) (*workflow.Automation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/automations/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var a workflow.Automation
	if err := c.do(req, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("automation endpoint request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrAutomationNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: status %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
