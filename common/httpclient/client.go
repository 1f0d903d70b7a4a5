// Package httpclient is the outbound HTTP client used by the http-request
// node: guard checks before dialing, per-request timeouts and JSON-aware
// response decoding.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/myuon/flowit-sub001/common/security"
)

// DefaultTimeout caps requests that specify no timeout of their own.
const DefaultTimeout = 30 * time.Second

// MaxResponseBytes caps how much of a response body is read.
const MaxResponseBytes = 10 << 20 // 10 MiB

// Logger interface for logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// Client executes guarded outbound requests.
type Client struct {
	client *http.Client
	guard  *security.Guard
	logger Logger
}

// New creates a client with the given guard policy.
func New(guard *security.Guard, logger Logger) *Client {
	return &Client{
		client: &http.Client{Timeout: DefaultTimeout},
		guard:  guard,
		logger: logger,
	}
}

// Request describes one outbound call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    any
	Timeout time.Duration
}

// Response is the decoded result. Body is the parsed JSON value when the
// response declares JSON, the raw string otherwise.
type Response struct {
	Status  int
	Body    any
	Headers map[string]string
}

// Do validates the URL against the guard, executes the request and decodes
// the response. Context cancellation aborts the call.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if err := c.guard.CheckURL(req.URL); err != nil {
		return nil, fmt.Errorf("request blocked: %w", err)
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	contentType := ""
	if req.Body != nil {
		switch b := req.Body.(type) {
		case string:
			body = strings.NewReader(b)
		case []byte:
			body = bytes.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			if err != nil {
				return nil, fmt.Errorf("failed to encode request body: %w", err)
			}
			body = bytes.NewReader(raw)
			contentType = "application/json"
		}
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	started := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug("outbound request",
			"method", method,
			"url", req.URL,
			"status", resp.StatusCode,
			"duration_ms", time.Since(started).Milliseconds())
	}

	out := &Response{
		Status:  resp.StatusCode,
		Headers: flattenHeaders(resp.Header),
	}

	if isJSON(resp.Header.Get("Content-Type")) {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err == nil {
			out.Body = decoded
			return out, nil
		}
		// Declared JSON but unparsable: fall through to the raw string.
	}
	out.Body = string(raw)

	return out, nil
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vs := range h {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

func isJSON(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "application/json") || strings.Contains(ct, "+json")
}
