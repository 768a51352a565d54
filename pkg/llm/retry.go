package llm

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/noesis-forge/noesis/pkg/metrics"
)

const (
	retryBaseDelay = 1 * time.Second
	retryMaxDelay  = 60 * time.Second

	// DefaultMaxRetries bounds retries of a single API call.
	DefaultMaxRetries = 3
)

// backoffDelay computes the wait before retry number attempt (0-based).
// A server-provided Retry-After wins; otherwise exponential backoff from
// retryBaseDelay with ±25% jitter, capped at retryMaxDelay.
func backoffDelay(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		if retryAfter > retryMaxDelay {
			return retryMaxDelay
		}
		return retryAfter
	}
	if attempt > 6 {
		attempt = 6
	}
	jitter := 0.75 + rand.Float64()*0.5
	delay := time.Duration(float64(retryBaseDelay<<uint(attempt)) * jitter)
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

// parseRetryAfter reads the Retry-After header as either delta-seconds or an
// HTTP date. Zero means absent or unparseable.
func parseRetryAfter(h http.Header) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// doWithRetry performs an HTTP round trip with retries on retryable
// failures. build must return a fresh request each call since bodies are
// consumed per attempt. A 2xx response is returned with its body open; any
// other outcome is an *APIError with the response body drained and closed.
func doWithRetry(ctx context.Context, hc *http.Client, maxRetries int, build func() (*http.Request, error)) (*http.Response, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}
	var lastErr *APIError
	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, err := build()
		if err != nil {
			return nil, err
		}
		resp, err := hc.Do(req.WithContext(ctx))
		if err != nil {
			lastErr = classifyTransport(err)
		} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			metrics.LLMRequests.WithLabelValues("success").Inc()
			return resp, nil
		} else {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
			resp.Body.Close()
			lastErr = classifyStatus(resp.StatusCode, apiErrorMessage(body), parseRetryAfter(resp.Header))
		}
		metrics.LLMRequests.WithLabelValues(string(lastErr.Category)).Inc()

		if !lastErr.Retryable() || attempt == maxRetries {
			return nil, lastErr
		}
		metrics.LLMRetries.Inc()

		select {
		case <-time.After(backoffDelay(attempt, lastErr.RetryAfter)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}
