package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// maxResponseBytes bounds the analyzer response body.
const maxResponseBytes = 1 << 20

// HTTPOption configures an [HTTP] analyzer.
type HTTPOption func(*HTTP)

// WithHTTPClient overrides the client used for requests.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTP) { h.client = c }
}

// HTTP forwards attempts to a remote analyzer that accepts a JSON
// [Request] and answers with a JSON [Result].
type HTTP struct {
	url    string
	client *http.Client
}

// Compile-time interface check.
var _ Analyzer = (*HTTP)(nil)

// NewHTTP returns an analyzer posting to url. A non-positive timeout leaves
// requests bounded only by the caller's context.
func NewHTTP(url string, timeout time.Duration, opts ...HTTPOption) (*HTTP, error) {
	if url == "" {
		return nil, fmt.Errorf("analysis: http analyzer requires a url")
	}
	h := &HTTP{url: url, client: &http.Client{Timeout: max(timeout, 0)}}
	for _, o := range opts {
		o(h)
	}
	return h, nil
}

// Analyze implements [Analyzer].
func (h *HTTP) Analyze(ctx context.Context, req Request) (Result, error) {
	if req.Audio == "" {
		return Failure(ErrNoAudio), nil
	}
	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("analysis: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("analysis: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("analysis: send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{}, fmt.Errorf("analysis: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("analysis: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}

	var res Result
	if err := json.Unmarshal(respBody, &res); err != nil {
		return Result{}, fmt.Errorf("analysis: decode response: %w", err)
	}
	if res.Success && res.Sentence == "" {
		res.Sentence = req.Sentence
	}
	return res, nil
}
