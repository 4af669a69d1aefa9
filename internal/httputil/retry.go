// Package httputil provides HTTP helpers shared by the outbound service clients.
package httputil

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"
)

// RetryBaseDelay is the first backoff delay. It doubles on every attempt.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const defaultMaxRetries = 4

// DoWithRetry executes req and retries on 429 Too Many Requests and 503 Service Unavailable
// with exponential backoff. A maxRetries of 0 uses the default.
//
// Request bodies are replayed through req.GetBody, so requests built with
// http.NewRequestWithContext over a bytes or strings reader can be retried.
// After exhausting retries the last response is returned for the caller to inspect.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			attemptReq.Body = body
		}

		resp, err := client.Do(attemptReq)
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		backoff := RetryBaseDelay << attempt
		log.Printf("[http] %s %s returned %d, retrying in %v (attempt %d/%d)",
			req.Method, req.URL.Host, resp.StatusCode, backoff, attempt+1, maxRetries)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}
