package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultTimeout = 20 * time.Second

	// maxResponseBytes caps how much of the service response we read.
	maxResponseBytes = 1 << 20
)

// Config holds configuration for the HTTP narrative client.
type Config struct {
	// BaseURL is the narrative service endpoint (required).
	BaseURL string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Timeout is the request timeout (default: 20s).
	Timeout time.Duration
}

// Client calls an external narrative-generation service over HTTP.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

var _ Generator = (*Client)(nil)

type generateRequest struct {
	PatientID string `json:"patient_id"`
	Domain    string `json:"domain"`
	LabText   string `json:"lab_text"`
}

type generateResponse struct {
	Narrative string `json:"narrative"`
	Error     string `json:"error,omitempty"`
}

// NewClient creates an HTTP narrative client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("narrative: base URL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}, nil
}

// Generate posts the domain lab text and returns the service's narrative.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(generateRequest(req))
	if err != nil {
		return "", &ServiceError{Op: "encode request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return "", &ServiceError{Op: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", &ServiceError{Op: "call service", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &ServiceError{Op: "read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ServiceError{Op: "call service", Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(data), 200))}
	}

	var out generateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", &ServiceError{Op: "decode response", Err: err}
	}
	if out.Error != "" {
		return "", &ServiceError{Op: "generate", Err: fmt.Errorf("%s", out.Error)}
	}
	if strings.TrimSpace(out.Narrative) == "" {
		return "", &ServiceError{Op: "generate", Err: fmt.Errorf("empty narrative")}
	}
	return out.Narrative, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
