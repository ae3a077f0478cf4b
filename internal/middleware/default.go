package middleware

import (
	"context"
	"encoding/json"

	"github.com/hookbridge/hookbridge/internal/config"
	"github.com/hookbridge/hookbridge/internal/types"
)

// Default normalizes the raw delivery body into a structured object for the
// request shaper. It always runs last and never short-circuits.
//
// An empty body becomes an empty object. A body that is not a JSON object
// leaves ParsedBody nil; the request shaper turns that into a validation
// failure.
type Default struct{}

func (d *Default) Name() string { return "default" }

func (d *Default) Invoke(_ context.Context, req *types.InboundRequest, _ *config.EndpointConfig) Outcome {
	if len(req.Body) == 0 {
		req.ParsedBody = map[string]any{}
		return Continue(req)
	}

	var parsed map[string]any
	if err := json.Unmarshal(req.Body, &parsed); err == nil {
		req.ParsedBody = parsed
	}
	return Continue(req)
}
