package llm

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts       int           // Maximum number of attempts
	Multiplier        int           // Exponential backoff multiplier
	MaxWaitPerAttempt time.Duration // Maximum wait time per attempt
	MaxTotalWait      time.Duration // Maximum total wait time
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       5,
		Multiplier:        1,
		MaxWaitPerAttempt: 60 * time.Second,
		MaxTotalWait:      300 * time.Second,
	}
}

// RetryClient wraps http.Client with retry logic. Retries only apply before
// any byte of a response stream has been consumed: once a streaming body is
// handed to the caller, a failure mid-stream is the caller's problem
// (classified as an interrupted turn, never silently re-sent).
type RetryClient struct {
	client *http.Client
	config *RetryConfig
}

// NewRetryClient creates a new retry client. Streaming responses can stay
// open for minutes, so the wrapped client carries no overall timeout;
// per-request deadlines come from the request context.
func NewRetryClient(config *RetryConfig) *RetryClient {
	if config == nil {
		config = DefaultRetryConfig()
	}

	return &RetryClient{
		client: &http.Client{},
		config: config,
	}
}

// Do executes an HTTP request, retrying on connection errors, 429 and 5xx
func (rc *RetryClient) Do(req *http.Request) (*http.Response, error) {
	return rc.doWithContext(req.Context(), req)
}

func (rc *RetryClient) doWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	totalStart := time.Now()

	for attempt := 0; attempt < rc.config.MaxAttempts; attempt++ {
		// Clone per attempt and rebuild the body: a request body can only
		// be read once, and Clone does not restore a consumed reader.
		reqClone := req.Clone(ctx)
		if req.GetBody != nil {
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, fmt.Errorf("rebuilding request body: %w", bodyErr)
			}
			reqClone.Body = body
		}

		resp, err = rc.client.Do(reqClone)

		if err == nil && resp != nil {
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return resp, nil
			}
			// Retryable status: drain and close before the next attempt
			resp.Body.Close()
		}

		waitTime := rc.backoff(attempt)

		if time.Since(totalStart)+waitTime > rc.config.MaxTotalWait {
			break
		}

		if attempt < rc.config.MaxAttempts-1 {
			select {
			case <-time.After(waitTime):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if err != nil {
		return nil, fmt.Errorf("request failed after %d attempts: %w", rc.config.MaxAttempts, err)
	}
	if resp != nil {
		return nil, fmt.Errorf("request failed with status %d after %d attempts", resp.StatusCode, rc.config.MaxAttempts)
	}
	return nil, fmt.Errorf("request failed after %d attempts", rc.config.MaxAttempts)
}

func (rc *RetryClient) backoff(attempt int) time.Duration {
	wait := time.Duration(math.Pow(2, float64(attempt))) * time.Duration(rc.config.Multiplier) * time.Second
	if wait > rc.config.MaxWaitPerAttempt {
		wait = rc.config.MaxWaitPerAttempt
	}
	return wait
}
