package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/danverh/panopticon/internal/retry"
)

// Config holds the configuration for connecting to the simulation API.
type Config struct {
	APIURL     string // Base URL, e.g. "http://localhost:8080"
	OperatorID string // Operator identity all decisions are filed under
}

// Client is a pure HTTP client for the simulation API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a new client for the simulation API.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError represents an error response from the API.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// doRequest makes an HTTP request to the API and returns the response body.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	u, err := url.Parse(c.cfg.APIURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("X-Operator-ID", c.cfg.OperatorID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		err := fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			err = fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		// Client errors won't heal on retry; server errors might.
		if resp.StatusCode < 500 {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}

	return json.RawMessage(respBody), nil
}

// get issues a GET with retries. Reads are safe to retry; decision
// submissions have side effects and go through doRequest directly.
func (c *Client) get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	var out json.RawMessage
	err := retry.Do(ctx, 3, 100*time.Millisecond, func() error {
		raw, err := c.doRequest(ctx, http.MethodGet, path, query, nil)
		if err != nil {
			return err
		}
		out = raw
		return nil
	})
	return out, err
}

// GetRiskAssessment returns the current risk assessment for a citizen.
func (c *Client) GetRiskAssessment(ctx context.Context, citizenID string) (json.RawMessage, error) {
	path := "/v1/citizens/" + citizenID + "/risk"
	return c.get(ctx, path, nil)
}

// ExecuteAction submits an action decision.
func (c *Client) ExecuteAction(ctx context.Context, body map[string]any) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodPost, "/v1/actions", nil, body)
}

// SubmitNoAction files an explicit decision not to act.
func (c *Client) SubmitNoAction(ctx context.Context, citizenID, justification string, decisionSeconds float64) (json.RawMessage, error) {
	body := map[string]any{
		"operatorId":          c.cfg.OperatorID,
		"citizenId":           citizenID,
		"justification":       justification,
		"decisionTimeSeconds": decisionSeconds,
	}
	return c.doRequest(ctx, http.MethodPost, "/v1/actions/no-action", nil, body)
}

// GetOperatorMetrics returns the operator's opinion and reluctance state.
func (c *Client) GetOperatorMetrics(ctx context.Context) (json.RawMessage, error) {
	path := "/v1/operators/" + c.cfg.OperatorID + "/metrics"
	return c.get(ctx, path, nil)
}

// GetExposure returns the operator's current exposure stage.
func (c *Client) GetExposure(ctx context.Context) (json.RawMessage, error) {
	path := "/v1/operators/" + c.cfg.OperatorID + "/exposure"
	return c.get(ctx, path, nil)
}

// ListActions returns the operator's recent decision history.
func (c *Client) ListActions(ctx context.Context, limit int) (json.RawMessage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/v1/operators/" + c.cfg.OperatorID + "/actions"
	return c.get(ctx, path, q)
}

// ListProtests returns all open protests.
func (c *Client) ListProtests(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/v1/protests", nil)
}

// ListNews returns recent articles, newest first.
func (c *Client) ListNews(ctx context.Context, limit int) (json.RawMessage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.get(ctx, "/v1/news", q)
}
