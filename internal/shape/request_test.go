package shape

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/hookbridge/hookbridge/internal/config"
	"github.com/hookbridge/hookbridge/internal/types"
)

func parsedRequest(t *testing.T, body string) *types.InboundRequest {
	t.Helper()
	req := &types.InboundRequest{Body: []byte(body)}
	var parsed map[string]any
	if err := json.Unmarshal(req.Body, &parsed); err == nil {
		req.ParsedBody = parsed
	}
	return req
}

func workflowDecision() types.RouteDecision {
	return types.RouteDecision{Mode: types.ModeDynamicWorkflow, AppID: "app-1"}
}

func chatDecision() types.RouteDecision {
	return types.RouteDecision{Mode: types.ModeDynamicChat, AppID: "app-1"}
}

func TestRequest_ExplicitInputs(t *testing.T) {
	cfg := &config.EndpointConfig{ExplicitInputs: true}
	req := parsedRequest(t, `{"inputs":{"x":1},"other":2}`)

	payload, err := Request(req, workflowDecision(), cfg)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	want := map[string]any{"x": float64(1)}
	if !reflect.DeepEqual(payload.Inputs, want) {
		t.Errorf("inputs = %v, want %v", payload.Inputs, want)
	}
}

func TestRequest_ExplicitInputs_MissingDefaultsToEmpty(t *testing.T) {
	cfg := &config.EndpointConfig{ExplicitInputs: true}
	req := parsedRequest(t, `{"other":2}`)

	payload, err := Request(req, workflowDecision(), cfg)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if len(payload.Inputs) != 0 {
		t.Errorf("inputs = %v, want empty object", payload.Inputs)
	}
}

func TestRequest_ExplicitInputs_NonObjectFails(t *testing.T) {
	cfg := &config.EndpointConfig{ExplicitInputs: true}
	req := parsedRequest(t, `{"inputs":"not an object"}`)

	_, err := Request(req, workflowDecision(), cfg)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
}

func TestRequest_ImplicitInputsUseWholeBody(t *testing.T) {
	cfg := &config.EndpointConfig{ExplicitInputs: false}
	req := parsedRequest(t, `{"a":1,"b":"two"}`)

	payload, err := Request(req, workflowDecision(), cfg)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	want := map[string]any{"a": float64(1), "b": "two"}
	if !reflect.DeepEqual(payload.Inputs, want) {
		t.Errorf("inputs = %v, want %v", payload.Inputs, want)
	}

	// The original parsed body must not be mutated by shaping.
	if _, ok := req.ParsedBody["a"]; !ok {
		t.Error("shaping must not mutate the parsed body")
	}
}

func TestRequest_UnparsedBodyFails(t *testing.T) {
	cfg := &config.EndpointConfig{ExplicitInputs: true}
	req := &types.InboundRequest{Body: []byte(`[1,2,3]`)}

	_, err := Request(req, workflowDecision(), cfg)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
}

func TestRequest_JSONStringInput(t *testing.T) {
	cfg := &config.EndpointConfig{ExplicitInputs: true, JSONStringInput: true}
	req := parsedRequest(t, `{"inputs":{"x":1,"y":"z"}}`)

	payload, err := Request(req, workflowDecision(), cfg)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	if len(payload.Inputs) != 1 {
		t.Fatalf("expected a single field, got %v", payload.Inputs)
	}
	serialized, ok := payload.Inputs["input"].(string)
	if !ok {
		t.Fatalf("input field should be a string, got %T", payload.Inputs["input"])
	}

	// Round-trip: parsing the string reproduces the original payload.
	var roundTrip map[string]any
	if err := json.Unmarshal([]byte(serialized), &roundTrip); err != nil {
		t.Fatalf("serialized input is not valid JSON: %v", err)
	}
	want := map[string]any{"x": float64(1), "y": "z"}
	if !reflect.DeepEqual(roundTrip, want) {
		t.Errorf("round-trip = %v, want %v", roundTrip, want)
	}
}

func TestRequest_ChatRequiresQuery(t *testing.T) {
	cfg := &config.EndpointConfig{ExplicitInputs: true}

	tests := []struct {
		name string
		body string
		ok   bool
	}{
		{"valid", `{"query":"hello"}`, true},
		{"missing query", `{"inputs":{}}`, false},
		{"empty query", `{"query":""}`, false},
		{"non-string query", `{"query":42}`, false},
		{"valid with conversation", `{"query":"hi","conversation_id":"c-1"}`, true},
		{"non-string conversation", `{"query":"hi","conversation_id":7}`, false},
	}

	for _, tt := range tests {
		req := parsedRequest(t, tt.body)
		payload, err := Request(req, chatDecision(), cfg)
		if tt.ok {
			if err != nil {
				t.Errorf("%s: unexpected error: %v", tt.name, err)
			}
			continue
		}
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("%s: error = %v, want ValidationError", tt.name, err)
		}
		if payload != nil {
			t.Errorf("%s: payload should be nil on error", tt.name)
		}
	}
}

func TestRequest_ChatImplicitPopsQueryFromInputs(t *testing.T) {
	cfg := &config.EndpointConfig{ExplicitInputs: false}
	req := parsedRequest(t, `{"query":"hello","conversation_id":"c-9","topic":"billing"}`)

	payload, err := Request(req, chatDecision(), cfg)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if payload.Query != "hello" {
		t.Errorf("query = %q, want hello", payload.Query)
	}
	if payload.ConversationID != "c-9" {
		t.Errorf("conversation_id = %q, want c-9", payload.ConversationID)
	}
	if _, ok := payload.Inputs["query"]; ok {
		t.Error("query should have been popped out of the inputs")
	}
	if _, ok := payload.Inputs["conversation_id"]; ok {
		t.Error("conversation_id should have been popped out of the inputs")
	}
	if payload.Inputs["topic"] != "billing" {
		t.Errorf("remaining inputs = %v", payload.Inputs)
	}
}
