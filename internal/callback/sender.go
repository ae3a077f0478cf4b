// Package callback delivers workflow results to a configured callback URL
// after the caller has already received its response.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hookbridge/hookbridge/internal/telemetry"
)

const (
	defaultMaxAttempts    = 3
	defaultRetryDelay     = time.Second
	defaultAttemptTimeout = 30 * time.Second
)

// Envelope is the JSON document POSTed to the callback URL.
type Envelope struct {
	AppID         string          `json:"app_id"`
	Timestamp     any             `json:"timestamp"`
	WorkflowRunID any             `json:"workflow_run_id"`
	Data          json.RawMessage `json:"data"`
}

// Sender POSTs workflow results with bounded retries. Failures are logged and
// otherwise dropped; callbacks never affect the caller-facing response.
type Sender struct {
	client  *http.Client
	logger  *slog.Logger
	metrics *telemetry.Metrics

	// Overridable for tests.
	MaxAttempts    int
	RetryDelay     time.Duration
	AttemptTimeout time.Duration
}

func NewSender(logger *slog.Logger, metrics *telemetry.Metrics) *Sender {
	return &Sender{
		client:         &http.Client{},
		logger:         logger,
		metrics:        metrics,
		MaxAttempts:    defaultMaxAttempts,
		RetryDelay:     defaultRetryDelay,
		AttemptTimeout: defaultAttemptTimeout,
	}
}

// Send delivers the workflow result to url. The envelope carries the full
// backend body as data, plus the run id and creation timestamp lifted out of
// it. Retries use exponential backoff (delay, 2×delay, ...). A 2xx status
// ends the attempts.
func (s *Sender) Send(ctx context.Context, url, secretToken, appID string, result json.RawMessage) {
	env := Envelope{
		AppID: appID,
		Data:  result,
	}

	var fields map[string]any
	if err := json.Unmarshal(result, &fields); err == nil {
		env.Timestamp = fields["created_at"]
		env.WorkflowRunID = fields["workflow_run_id"]
	}

	body, err := json.Marshal(env)
	if err != nil {
		s.logger.Error("failed to encode callback payload", "app_id", appID, "error", err)
		return
	}

	for attempt := 1; attempt <= s.MaxAttempts; attempt++ {
		status, err := s.post(ctx, url, secretToken, body)
		if err == nil && status >= 200 && status < 300 {
			s.logger.Info("callback delivered", "url", url, "app_id", appID, "status", status, "attempt", attempt)
			if s.metrics != nil {
				s.metrics.RecordCallback("delivered")
			}
			return
		}
		if err != nil {
			s.logger.Warn("callback attempt failed", "url", url, "app_id", appID, "attempt", attempt, "error", err)
		} else {
			s.logger.Warn("callback rejected", "url", url, "app_id", appID, "attempt", attempt, "status", status)
		}

		if attempt < s.MaxAttempts {
			backoff := s.RetryDelay * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
		}
	}

	s.logger.Error("all callback attempts failed", "url", url, "app_id", appID)
	if s.metrics != nil {
		s.metrics.RecordCallback("failed")
	}
}

func (s *Sender) post(ctx context.Context, url, secretToken string, body []byte) (int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.AttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "hookbridge/1.0")
	if secretToken != "" {
		req.Header.Set("Authorization", "Bearer "+secretToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
