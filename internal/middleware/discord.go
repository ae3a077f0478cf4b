package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hookbridge/hookbridge/internal/config"
	"github.com/hookbridge/hookbridge/internal/signature"
	"github.com/hookbridge/hookbridge/internal/types"
)

const (
	headerSignature = "X-Signature-Ed25519"
	headerTimestamp = "X-Signature-Timestamp"

	// Interaction type 1 is the protocol-level ping that must be acked
	// with the same shape regardless of gateway configuration.
	interactionPing = 1
)

var pingAck = []byte(`{"type":1}`)

// Discord verifies Ed25519-signed interaction deliveries. Pings are acked
// directly; anything with a bad or missing signature is rejected with 401 and
// an empty body, and the backend is never invoked.
type Discord struct{}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Invoke(_ context.Context, req *types.InboundRequest, cfg *config.EndpointConfig) Outcome {
	if isPing(req.Body) {
		return ShortCircuit(&types.Response{
			StatusCode:  http.StatusOK,
			ContentType: "application/json",
			Body:        pingAck,
		})
	}

	ts := req.Header.Get(headerTimestamp)
	sig := req.Header.Get(headerSignature)
	if !signature.Verify(req.Body, ts, sig, cfg.SignatureVerificationKey) {
		return ShortCircuit(&types.Response{StatusCode: http.StatusUnauthorized})
	}

	return Continue(req)
}

func isPing(body []byte) bool {
	var probe struct {
		Type int `json:"type"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return false
	}
	return probe.Type == interactionPing
}
