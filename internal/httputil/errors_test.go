package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, "req_1", http.StatusBadRequest, "invalid_request_error", "invalid_request", "bad input")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %s", ct)
	}
	if rid := w.Header().Get("X-Request-ID"); rid != "req_1" {
		t.Errorf("request id header = %s", rid)
	}

	var apiErr APIError
	if err := json.Unmarshal(w.Body.Bytes(), &apiErr); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if apiErr.Error.Message != "bad input" {
		t.Errorf("message = %s", apiErr.Error.Message)
	}
	if apiErr.Error.Code != "invalid_request" {
		t.Errorf("code = %s", apiErr.Error.Code)
	}
	if apiErr.Error.RequestID != "req_1" {
		t.Errorf("request_id = %s", apiErr.Error.RequestID)
	}
}

func TestWriteHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		code   string
	}{
		{"auth", func(w http.ResponseWriter) { WriteAuthError(w, "r", "m") }, http.StatusUnauthorized, "invalid_api_key"},
		{"routing", func(w http.ResponseWriter) { WriteRoutingError(w, "r", "m") }, http.StatusBadRequest, "unknown_route"},
		{"bad request", func(w http.ResponseWriter) { WriteBadRequestError(w, "r", "m") }, http.StatusBadRequest, "invalid_request"},
		{"rate limit", func(w http.ResponseWriter) { WriteRateLimitError(w, "r", "m") }, http.StatusTooManyRequests, "rate_limit_exceeded"},
		{"bad gateway", func(w http.ResponseWriter) { WriteBadGatewayError(w, "r", "m") }, http.StatusBadGateway, "bad_backend_response"},
		{"timeout", func(w http.ResponseWriter) { WriteGatewayTimeoutError(w, "r", "m") }, http.StatusGatewayTimeout, "backend_timeout"},
		{"unavailable", func(w http.ResponseWriter) { WriteServiceUnavailableError(w, "r", "m") }, http.StatusServiceUnavailable, "service_unavailable"},
		{"internal", func(w http.ResponseWriter) { WriteInternalError(w, "r", "m") }, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		tt.write(w)
		if w.Code != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.name, w.Code, tt.status)
		}
		var apiErr APIError
		if err := json.Unmarshal(w.Body.Bytes(), &apiErr); err != nil {
			t.Fatalf("%s: body is not JSON: %v", tt.name, err)
		}
		if apiErr.Error.Code != tt.code {
			t.Errorf("%s: code = %s, want %s", tt.name, apiErr.Error.Code, tt.code)
		}
	}
}
