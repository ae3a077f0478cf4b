// Package shape transforms caller payloads into the form the backend
// invocation expects, and backend responses into the form returned to the
// caller.
package shape

import (
	"encoding/json"
	"fmt"

	"github.com/hookbridge/hookbridge/internal/config"
	"github.com/hookbridge/hookbridge/internal/types"
)

// ValidationError reports a caller payload that does not match the expected
// input shape. Surfaced as HTTP 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Payload is the shaped object handed to the backend invocation. Query and
// ConversationID are only populated for chat modes.
type Payload struct {
	Inputs         map[string]any
	Query          string
	ConversationID string
}

// Request extracts and transforms the caller payload.
//
// With explicit_inputs the inputs come from the body's "inputs" field; a
// missing field defaults to an empty object, a present non-object fails.
// Without it the entire body is the inputs. Chat modes additionally require a
// string "query" and accept an optional string "conversation_id"; in
// implicit mode both are popped out of the inputs before forwarding. With
// json_string_input the chosen inputs are flattened into a single "input"
// field holding their serialized JSON.
func Request(req *types.InboundRequest, decision types.RouteDecision, cfg *config.EndpointConfig) (*Payload, error) {
	body := req.ParsedBody
	if body == nil {
		return nil, &ValidationError{Msg: "request body must be a JSON object"}
	}

	var inputs map[string]any
	if cfg.ExplicitInputs {
		switch v := body["inputs"].(type) {
		case nil:
			inputs = map[string]any{}
		case map[string]any:
			inputs = v
		default:
			return nil, &ValidationError{Msg: "inputs must be an object"}
		}
	} else {
		inputs = make(map[string]any, len(body))
		for k, v := range body {
			inputs[k] = v
		}
	}

	payload := &Payload{}

	if decision.Mode.IsChat() {
		query, ok := takeString(body, inputs, "query", cfg.ExplicitInputs)
		if !ok || query == "" {
			return nil, &ValidationError{Msg: "query must be a string"}
		}
		payload.Query = query

		conv, ok := takeOptionalString(body, inputs, "conversation_id", cfg.ExplicitInputs)
		if !ok {
			return nil, &ValidationError{Msg: "conversation_id must be a string"}
		}
		payload.ConversationID = conv
	}

	if cfg.JSONStringInput {
		serialized, err := json.Marshal(inputs)
		if err != nil {
			return nil, fmt.Errorf("serialize inputs: %w", err)
		}
		inputs = map[string]any{"input": string(serialized)}
	}

	payload.Inputs = inputs
	return payload, nil
}

// takeString fetches a required string field from the body (explicit mode) or
// removes it from the inputs (implicit mode). ok is false when the value is
// absent or not a string.
func takeString(body, inputs map[string]any, key string, explicit bool) (string, bool) {
	var v any
	if explicit {
		v = body[key]
	} else {
		v = inputs[key]
		delete(inputs, key)
	}
	s, ok := v.(string)
	return s, ok
}

// takeOptionalString behaves like takeString but treats absence as valid.
func takeOptionalString(body, inputs map[string]any, key string, explicit bool) (string, bool) {
	var v any
	if explicit {
		v = body[key]
	} else {
		v = inputs[key]
		delete(inputs, key)
	}
	if v == nil {
		return "", true
	}
	s, ok := v.(string)
	return s, ok
}
