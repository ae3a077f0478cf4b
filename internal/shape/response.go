package shape

import (
	"encoding/json"

	"github.com/hookbridge/hookbridge/internal/config"
	"github.com/hookbridge/hookbridge/internal/types"
)

// ResponseShapeError reports a backend response that violates the narrowing
// contract. This is a backend fault, not a caller error; surfaced as 502.
type ResponseShapeError struct {
	Msg string
}

func (e *ResponseShapeError) Error() string { return e.Msg }

// Response transforms the backend response into what the caller receives.
//
// With raw_data_output on a workflow mode the outbound body is exactly the
// nested "data" field of the backend body, original status code preserved; a
// missing field is a contract violation. Chat modes and all other
// configurations pass the backend response through unchanged.
func Response(backendResp *types.BackendResponse, mode types.Mode, cfg *config.EndpointConfig) (*types.Response, error) {
	if cfg.RawDataOutput && mode.IsWorkflow() {
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(backendResp.Body, &doc); err != nil {
			return nil, &ResponseShapeError{Msg: "backend response is not a JSON object"}
		}
		data, ok := doc["data"]
		if !ok {
			return nil, &ResponseShapeError{Msg: "backend response is missing the data field"}
		}
		return &types.Response{
			StatusCode:  backendResp.StatusCode,
			ContentType: "application/json",
			Body:        data,
		}, nil
	}

	return &types.Response{
		StatusCode:  backendResp.StatusCode,
		ContentType: "application/json",
		Body:        backendResp.Body,
	}, nil
}
