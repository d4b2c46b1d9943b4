package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/user/convo/internal/errors"
	"github.com/user/convo/internal/logging"
	"github.com/user/convo/internal/stream"
)

// DeltaObserver is invoked once per folded delta, in arrival order, so the
// caller can render partial output while the turn is still streaming.
type DeltaObserver func(delta stream.Delta)

// Client streams chat completions from one OpenAI-compatible endpoint
type Client struct {
	endpoint string
	apiKey   string
	retry    *RetryClient
	logger   *logging.Logger
}

// NewClient creates a streaming client for the given endpoint. The API key
// is sent as a bearer credential on every request.
func NewClient(endpoint, apiKey string, retry *RetryClient, logger *logging.Logger) *Client {
	if retry == nil {
		retry = NewRetryClient(nil)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		retry:    retry,
		logger:   logger,
	}
}

// StreamChat sends one request body and consumes the response stream to its
// end, folding every chunk into a fresh accumulator. It returns the
// classified outcome of the cycle.
//
// The outcome is valid even when an error is returned: on a mid-stream
// failure or cancellation it carries whatever had accumulated, so the caller
// can preserve partial output. An error with a zero-value outcome means
// nothing was streamed at all.
func (c *Client) StreamChat(ctx context.Context, body []byte, observe DeltaObserver) (stream.Outcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return stream.Outcome{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.retry.Do(req)
	if err != nil {
		return stream.Outcome{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return stream.Outcome{}, fmt.Errorf("API error: status %d, body: %s", resp.StatusCode, string(errBody))
	}

	acc := stream.NewAccumulator()
	events := stream.NewSSEReader(resp.Body)
	chunks := 0
	sawDone := false

	for {
		event, err := events.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// The body read failed mid-stream: either our context was
			// cancelled or the connection dropped. Classify what we have
			// and let the caller flush the partial turn.
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			out := acc.Classify()
			c.logger.Warn("stream interrupted",
				logging.Int("chunks", chunks),
				logging.Error(err))
			return out, errors.NewStreamInterruptedError(out.Message.Content, err)
		}

		if stream.IsDone(event.Data) {
			sawDone = true
			break
		}

		chunk, err := stream.DecodeChunk(event.Data)
		if err != nil {
			// One bad event aborts the turn, not the session. Text that
			// already accumulated is still handed back.
			out := acc.Classify()
			return out, err
		}

		acc.Fold(chunk)
		chunks++

		if observe != nil {
			for i := range chunk.Choices {
				if chunk.Choices[i].Index == 0 {
					observe(chunk.Choices[i].Delta)
				}
			}
		}
	}

	out := acc.Classify()
	c.logger.Debug("stream finished",
		logging.Int("chunks", chunks),
		logging.Bool("saw_done", sawDone),
		logging.String("outcome", out.Kind.String()),
		logging.Int("completion_tokens", out.Message.Usage.CompletionTokens))

	if out.Kind == stream.Incomplete {
		return out, errors.NewStreamInterruptedError(out.Message.Content, nil)
	}
	return out, nil
}
