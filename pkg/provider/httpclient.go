package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// maxResponseBody caps provider responses to guard against misbehaving
// endpoints.
const maxResponseBody = 1 << 20 // 1 MB

// HTTPClient talks to an external measurement provider over HTTP.
//
// Wire contract: POST {endpoint}/measure with a MeasurementSpec JSON body;
// the provider answers {"counts": {"00": n, "01": n, "10": n, "11": n}}.
type HTTPClient struct {
	endpoint string
	client   *http.Client
}

// measureResponse is the provider's success payload.
type measureResponse struct {
	Counts OutcomeCounts `json:"counts"`
}

// NewHTTPClient creates a client for the provider at the given base URL.
// The timeout bounds each request end to end; callers usually also carry a
// per-request context deadline.
func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

// Measure submits the measurement spec and validates the response counts.
func (c *HTTPClient) Measure(ctx context.Context, spec MeasurementSpec) (OutcomeCounts, error) {
	body, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("encode measurement spec: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/measure", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build measurement request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("measurement request for basis %s: %w", spec.Basis, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Drain a little of the body for the error message, then bail.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		log.Warn().
			Str("component", "provider.http").
			Str("basis", spec.Basis).
			Int("status", resp.StatusCode).
			Msg("Provider returned non-OK status")
		return nil, fmt.Errorf("provider returned status %d for basis %s: %s",
			resp.StatusCode, spec.Basis, strings.TrimSpace(string(snippet)))
	}

	var decoded measureResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode provider response for basis %s: %w", spec.Basis, err)
	}

	if err := decoded.Counts.Validate(spec.Shots); err != nil {
		return nil, fmt.Errorf("invalid provider response for basis %s: %w", spec.Basis, err)
	}

	return decoded.Counts, nil
}
