// Package backend invokes the external application platform. The pipeline
// depends only on the Invoker capability; the HTTP client here is the single
// production implementation.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hookbridge/hookbridge/internal/config"
	"github.com/hookbridge/hookbridge/internal/shape"
	"github.com/hookbridge/hookbridge/internal/types"
)

// ErrTimeout means the backend did not answer within the configured bound.
// Surfaced as HTTP 504.
var ErrTimeout = errors.New("backend invocation timed out")

// ErrUnavailable means the circuit breaker is open and no call was attempted.
var ErrUnavailable = errors.New("backend unavailable")

// Invoker is the abstract "invoke backend application" capability.
type Invoker interface {
	Invoke(ctx context.Context, decision types.RouteDecision, payload *shape.Payload) (*types.BackendResponse, error)
}

// HTTPClient invokes the backend over its JSON HTTP API.
type HTTPClient struct {
	baseURL string
	token   string
	timeout time.Duration
	client  *http.Client
	breaker *CircuitBreaker
}

func NewHTTPClient(cfg config.BackendConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		token:   cfg.APIToken,
		timeout: cfg.Timeout,
		client:  &http.Client{},
		breaker: NewCircuitBreaker(cfg.CircuitBreaker.FailureThreshold, cfg.CircuitBreaker.RecoveryProbeInterval),
	}
}

type chatRequest struct {
	AppID          string         `json:"app_id"`
	Query          string         `json:"query"`
	ConversationID string         `json:"conversation_id,omitempty"`
	Inputs         map[string]any `json:"inputs"`
	ResponseMode   string         `json:"response_mode"`
}

type workflowRequest struct {
	AppID        string         `json:"app_id"`
	Inputs       map[string]any `json:"inputs"`
	ResponseMode string         `json:"response_mode"`
}

// Invoke sends the shaped payload to the chat or workflow endpoint and
// returns the backend's status and raw body. The call is bounded by the
// configured timeout; a deadline hit maps to ErrTimeout, cancellation by the
// caller is passed through untouched.
func (c *HTTPClient) Invoke(ctx context.Context, decision types.RouteDecision, payload *shape.Payload) (*types.BackendResponse, error) {
	if !c.breaker.Allow() {
		return nil, ErrUnavailable
	}

	var (
		path string
		body any
	)
	if decision.Mode.IsChat() {
		path = "/v1/chat-messages"
		body = chatRequest{
			AppID:          decision.AppID,
			Query:          payload.Query,
			ConversationID: payload.ConversationID,
			Inputs:         payload.Inputs,
			ResponseMode:   "blocking",
		}
	} else {
		path = "/v1/workflows/run"
		body = workflowRequest{
			AppID:        decision.AppID,
			Inputs:       payload.Inputs,
			ResponseMode: "blocking",
		}
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode backend request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build backend request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() == context.Canceled {
			// Caller went away; not a backend fault.
			return nil, ctx.Err()
		}
		c.breaker.RecordFailure()
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
		}
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("read backend response: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.breaker.RecordFailure()
	} else {
		c.breaker.RecordSuccess()
	}

	return &types.BackendResponse{
		StatusCode: resp.StatusCode,
		Body:       respBody,
	}, nil
}
