package shape

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/hookbridge/hookbridge/internal/config"
	"github.com/hookbridge/hookbridge/internal/types"
)

func TestResponse_RawDataOutputNarrowsWorkflow(t *testing.T) {
	cfg := &config.EndpointConfig{RawDataOutput: true}
	backendResp := &types.BackendResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"data":{"y":2},"meta":{}}`),
	}

	out, err := Response(backendResp, types.ModeStaticWorkflow, cfg)
	if err != nil {
		t.Fatalf("Response failed: %v", err)
	}
	if out.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", out.StatusCode)
	}

	var body map[string]any
	if err := json.Unmarshal(out.Body, &body); err != nil {
		t.Fatalf("outbound body is not JSON: %v", err)
	}
	want := map[string]any{"y": float64(2)}
	if !reflect.DeepEqual(body, want) {
		t.Errorf("body = %v, want %v", body, want)
	}
}

func TestResponse_RawDataOutputPreservesStatus(t *testing.T) {
	cfg := &config.EndpointConfig{RawDataOutput: true}
	backendResp := &types.BackendResponse{
		StatusCode: http.StatusCreated,
		Body:       []byte(`{"data":{"ok":true}}`),
	}

	out, err := Response(backendResp, types.ModeDynamicWorkflow, cfg)
	if err != nil {
		t.Fatalf("Response failed: %v", err)
	}
	if out.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want 201", out.StatusCode)
	}
}

func TestResponse_RawDataOutputIgnoredForChat(t *testing.T) {
	cfg := &config.EndpointConfig{RawDataOutput: true}
	body := `{"answer":"hi","data":{"y":2}}`
	backendResp := &types.BackendResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(body),
	}

	out, err := Response(backendResp, types.ModeDynamicChat, cfg)
	if err != nil {
		t.Fatalf("Response failed: %v", err)
	}
	if string(out.Body) != body {
		t.Errorf("chat responses must pass through unchanged, got %s", out.Body)
	}
}

func TestResponse_MissingDataFieldIsContractViolation(t *testing.T) {
	cfg := &config.EndpointConfig{RawDataOutput: true}

	for _, body := range []string{`{"meta":{}}`, `[]`, `not json`} {
		backendResp := &types.BackendResponse{StatusCode: http.StatusOK, Body: []byte(body)}
		_, err := Response(backendResp, types.ModeStaticWorkflow, cfg)
		var shapeErr *ResponseShapeError
		if !errors.As(err, &shapeErr) {
			t.Errorf("body %q: error = %v, want ResponseShapeError", body, err)
		}
	}
}

func TestResponse_PassThrough(t *testing.T) {
	cfg := &config.EndpointConfig{}
	body := `{"data":{"y":2},"meta":{"id":"run-1"}}`
	backendResp := &types.BackendResponse{StatusCode: http.StatusOK, Body: []byte(body)}

	out, err := Response(backendResp, types.ModeStaticWorkflow, cfg)
	if err != nil {
		t.Fatalf("Response failed: %v", err)
	}
	if string(out.Body) != body {
		t.Errorf("body = %s, want unchanged pass-through", out.Body)
	}
}
