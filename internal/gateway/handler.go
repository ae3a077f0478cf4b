// Package gateway sequences the delivery pipeline: route resolution,
// middleware, authentication, request shaping, backend invocation and
// response shaping. Every failure is converted to a shaped HTTP response
// here; nothing propagates past this boundary uncaught.
package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hookbridge/hookbridge/internal/auth"
	"github.com/hookbridge/hookbridge/internal/backend"
	"github.com/hookbridge/hookbridge/internal/callback"
	"github.com/hookbridge/hookbridge/internal/config"
	"github.com/hookbridge/hookbridge/internal/deliverylog"
	"github.com/hookbridge/hookbridge/internal/httputil"
	"github.com/hookbridge/hookbridge/internal/middleware"
	"github.com/hookbridge/hookbridge/internal/route"
	"github.com/hookbridge/hookbridge/internal/shape"
	"github.com/hookbridge/hookbridge/internal/telemetry"
	"github.com/hookbridge/hookbridge/internal/types"
)

// Handler holds the pipeline dependencies.
type Handler struct {
	cfg        func() *config.Config
	invoker    backend.Invoker
	callbacks  *callback.Sender
	deliveries *deliverylog.Store
	metrics    *telemetry.Metrics
}

func NewHandler(cfg func() *config.Config, invoker backend.Invoker, callbacks *callback.Sender, deliveries *deliverylog.Store, metrics *telemetry.Metrics) *Handler {
	return &Handler{
		cfg:        cfg,
		invoker:    invoker,
		callbacks:  callbacks,
		deliveries: deliveries,
		metrics:    metrics,
	}
}

// Serve handles one webhook delivery end to end.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")
	receivedAt := time.Now()
	ep := &h.cfg().Endpoint

	body, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteBadRequestError(w, reqID, "Failed to read request body")
		return
	}
	defer r.Body.Close()

	req := types.NewInboundRequest(r, body)

	decision, err := route.Resolve(req.Path, ep)
	if err != nil {
		var cfgErr *route.ConfigError
		if errors.As(err, &cfgErr) {
			slog.Error("static endpoint hit without static_app_id", "request_id", reqID, "path", req.Path)
			httputil.WriteError(w, reqID, http.StatusBadRequest, "configuration_error", "missing_static_app_id",
				"This endpoint requires a statically configured application")
			return
		}
		slog.Warn("unroutable delivery", "request_id", reqID, "path", req.Path, "error", err)
		httputil.WriteRoutingError(w, reqID, "Invalid path. Use /chatflow/<app_id>, /workflow/<app_id>, /single-chatflow or /single-workflow")
		return
	}

	chain := middleware.FromConfig(ep)
	req, shortCircuit, mwName := chain.Run(r.Context(), req, ep)
	if shortCircuit != nil {
		slog.Info("delivery short-circuited by middleware",
			"request_id", reqID,
			"middleware", mwName,
			"mode", string(decision.Mode),
			"status", shortCircuit.StatusCode,
		)
		if h.metrics != nil {
			h.metrics.RecordShortCircuit(mwName, strconv.Itoa(shortCircuit.StatusCode))
		}
		shortCircuit.Write(w)
		h.record(reqID, decision, shortCircuit.StatusCode, receivedAt)
		return
	}

	if !auth.Validate(req, ep) {
		slog.Warn("delivery rejected: invalid api key",
			"request_id", reqID,
			"mode", string(decision.Mode),
			"location", ep.APIKeyLocation,
			"key_prefix", auth.KeyPrefix(auth.Presented(req, ep)),
		)
		httputil.WriteAuthError(w, reqID, "Invalid API key")
		h.record(reqID, decision, http.StatusUnauthorized, receivedAt)
		return
	}

	payload, err := shape.Request(req, decision, ep)
	if err != nil {
		var validationErr *shape.ValidationError
		if errors.As(err, &validationErr) {
			httputil.WriteBadRequestError(w, reqID, validationErr.Msg)
			h.record(reqID, decision, http.StatusBadRequest, receivedAt)
			return
		}
		slog.Error("request shaping failed", "request_id", reqID, "error", err)
		httputil.WriteInternalError(w, reqID, "Failed to shape request")
		h.record(reqID, decision, http.StatusInternalServerError, receivedAt)
		return
	}

	backendStart := time.Now()
	backendResp, err := h.invoker.Invoke(r.Context(), decision, payload)
	backendMs := float64(time.Since(backendStart).Milliseconds())
	if err != nil {
		h.writeBackendError(w, reqID, decision, receivedAt, err)
		return
	}

	outbound, err := shape.Response(backendResp, decision.Mode, ep)
	if err != nil {
		var shapeErr *shape.ResponseShapeError
		if errors.As(err, &shapeErr) {
			slog.Error("backend response violated shaping contract",
				"request_id", reqID,
				"mode", string(decision.Mode),
				"app_id", decision.AppID,
				"error", shapeErr.Msg,
			)
			httputil.WriteBadGatewayError(w, reqID, shapeErr.Msg)
			h.record(reqID, decision, http.StatusBadGateway, receivedAt)
			return
		}
		httputil.WriteInternalError(w, reqID, "Failed to shape response")
		h.record(reqID, decision, http.StatusInternalServerError, receivedAt)
		return
	}

	if h.callbacks != nil && decision.Mode == types.ModeStaticWorkflow &&
		ep.CallbackURL != "" && backendResp.StatusCode < http.StatusMultipleChoices {
		go h.callbacks.Send(context.Background(), ep.CallbackURL, ep.CallbackSecretToken, decision.AppID, backendResp.Body)
	}

	w.Header().Set("X-Request-ID", reqID)
	outbound.Write(w)

	totalMs := float64(time.Since(receivedAt).Milliseconds())
	slog.Info("delivery completed",
		"request_id", reqID,
		"mode", string(decision.Mode),
		"app_id", decision.AppID,
		"status", outbound.StatusCode,
		"backend_ms", backendMs,
		"duration_ms", totalMs,
	)
	if h.metrics != nil {
		h.metrics.RecordDelivery(string(decision.Mode), strconv.Itoa(outbound.StatusCode), totalMs, backendMs)
	}
	h.logDelivery(reqID, decision, outbound.StatusCode, receivedAt)
}

// writeBackendError maps invocation failures to their HTTP statuses.
func (h *Handler) writeBackendError(w http.ResponseWriter, reqID string, decision types.RouteDecision, receivedAt time.Time, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		// Caller closed the connection; nothing useful to write.
		slog.Debug("delivery canceled by caller", "request_id", reqID, "mode", string(decision.Mode))
		return
	case errors.Is(err, backend.ErrTimeout):
		slog.Error("backend invocation timed out", "request_id", reqID, "app_id", decision.AppID)
		httputil.WriteGatewayTimeoutError(w, reqID, "Backend invocation timed out")
		h.record(reqID, decision, http.StatusGatewayTimeout, receivedAt)
	case errors.Is(err, backend.ErrUnavailable):
		slog.Warn("backend circuit open, delivery rejected", "request_id", reqID, "app_id", decision.AppID)
		httputil.WriteServiceUnavailableError(w, reqID, "Backend temporarily unavailable")
		h.record(reqID, decision, http.StatusServiceUnavailable, receivedAt)
	default:
		slog.Error("backend invocation failed", "request_id", reqID, "app_id", decision.AppID, "error", err)
		httputil.WriteBadGatewayError(w, reqID, "Backend invocation failed")
		h.record(reqID, decision, http.StatusBadGateway, receivedAt)
	}
}

// record updates delivery metrics and the audit log for non-success paths.
func (h *Handler) record(reqID string, decision types.RouteDecision, status int, receivedAt time.Time) {
	if h.metrics != nil {
		h.metrics.RecordDelivery(string(decision.Mode), strconv.Itoa(status), float64(time.Since(receivedAt).Milliseconds()), 0)
	}
	h.logDelivery(reqID, decision, status, receivedAt)
}

// logDelivery writes the audit row asynchronously (fire-and-forget).
func (h *Handler) logDelivery(reqID string, decision types.RouteDecision, status int, receivedAt time.Time) {
	if !h.deliveries.Enabled() {
		return
	}
	d := deliverylog.Delivery{
		RequestID:  reqID,
		Mode:       string(decision.Mode),
		AppID:      decision.AppID,
		StatusCode: status,
		DurationMs: time.Since(receivedAt).Milliseconds(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.deliveries.Record(ctx, d); err != nil {
			slog.Warn("failed to record delivery", "request_id", d.RequestID, "error", err)
		}
	}()
}
