// Package httpcall provides a resilient HTTP call executor for the
// external API clients. Failures are values: every call returns a
// CallResult, never an error.
package httpcall

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"
)

// CallResult is the uniform outcome of an external call. Exactly one of
// Data and Error is meaningful depending on Success.
type CallResult struct {
	Success    bool    `json:"success"`
	Data       any     `json:"data,omitempty"`
	Error      string  `json:"error,omitempty"`
	StatusCode int     `json:"status_code"`
	Elapsed    float64 `json:"elapsed_seconds"`
}

const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second
)

// Executor issues HTTP requests with a bounded timeout and retries
// timeouts only. Any other failure, transport or HTTP, resolves on the
// first attempt.
type Executor struct {
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

func NewExecutor(timeout time.Duration, maxRetries int, retryDelay time.Duration, logger *slog.Logger) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Executor{
		client:     &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger,
		sleep:      time.Sleep,
	}
}

// Execute performs a request with the default headers. body may be nil;
// a non-nil body is JSON-encoded.
func (e *Executor) Execute(ctx context.Context, method, rawURL string, params url.Values, body any) CallResult {
	return e.ExecuteWithHeaders(ctx, method, rawURL, params, body, nil)
}

// ExecuteWithHeaders performs a request with extra headers layered over
// the defaults.
func (e *Executor) ExecuteWithHeaders(ctx context.Context, method, rawURL string, params url.Values, body any, headers map[string]string) CallResult {
	start := time.Now()
	finish := func(r CallResult) CallResult {
		r.Elapsed = time.Since(start).Seconds()
		return r
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return finish(CallResult{Success: false, Error: fmt.Sprintf("Request failed: %s", err), StatusCode: http.StatusInternalServerError})
		}
	}

	for attempt := 0; attempt < e.maxRetries; attempt++ {
		result, timedOut := e.attempt(ctx, method, rawURL, params, payload, headers)
		if !timedOut {
			return finish(result)
		}
		if attempt == e.maxRetries-1 {
			e.logger.Warn("request timed out, retries exhausted", "method", method, "url", rawURL, "attempts", e.maxRetries)
			return finish(CallResult{Success: false, Error: "Request timeout", StatusCode: http.StatusRequestTimeout})
		}
		e.logger.Warn("request timed out, retrying", "method", method, "url", rawURL, "attempt", attempt+1)
		e.sleep(e.retryDelay)
	}

	return finish(CallResult{Success: false, Error: "Max retries exceeded", StatusCode: http.StatusInternalServerError})
}

func (e *Executor) attempt(ctx context.Context, method, rawURL string, params url.Values, payload []byte, headers map[string]string) (CallResult, bool) {
	target := rawURL
	if len(params) > 0 {
		target = rawURL + "?" + params.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return CallResult{Success: false, Error: fmt.Sprintf("Request failed: %s", err), StatusCode: http.StatusInternalServerError}, false
	}
	req.Header.Set("accept", "*/*")
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return CallResult{}, true
		}
		return CallResult{Success: false, Error: fmt.Sprintf("Request failed: %s", err), StatusCode: http.StatusInternalServerError}, false
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return CallResult{Success: false, Error: fmt.Sprintf("Request failed: %s", err), StatusCode: http.StatusInternalServerError}, false
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return CallResult{
			Success:    false,
			Error:      fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(raw)),
			StatusCode: resp.StatusCode,
		}, false
	}

	var data any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return CallResult{Success: false, Error: fmt.Sprintf("Request failed: %s", err), StatusCode: http.StatusInternalServerError}, false
		}
	}

	return CallResult{Success: true, Data: data, StatusCode: resp.StatusCode}, false
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
