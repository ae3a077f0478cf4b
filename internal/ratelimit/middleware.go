package ratelimit

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/hookbridge/hookbridge/internal/config"
	"github.com/hookbridge/hookbridge/internal/httputil"
	"github.com/hookbridge/hookbridge/internal/telemetry"
)

const (
	headerRateLimitRequests          = "X-RateLimit-Limit-Requests"
	headerRateLimitRemainingRequests = "X-RateLimit-Remaining-Requests"
	headerRateLimitReset             = "X-RateLimit-Reset-Requests"
	headerRetryAfter                 = "Retry-After"
)

// Middleware returns chi middleware that enforces a per-source request rate
// and optional daily quota. Sources are keyed by client IP.
func Middleware(limiter *Limiter, quota *QuotaTracker, cfg func() *config.RateLimitConfig, metrics *telemetry.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rl := cfg()
			if !rl.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			reqID := w.Header().Get("X-Request-ID")
			source := clientIP(r)

			rpm := rl.RequestsPerMinute
			result, _ := limiter.Check(r.Context(), "rpm:"+source, rpm, time.Minute)

			// Always set rate limit headers
			w.Header().Set(headerRateLimitRequests, strconv.FormatInt(rpm, 10))
			w.Header().Set(headerRateLimitRemainingRequests, strconv.FormatInt(result.Remaining, 10))
			w.Header().Set(headerRateLimitReset, result.ResetAt.Format(time.RFC3339))

			if !result.Allowed {
				slog.Warn("rate limit exceeded",
					"request_id", reqID,
					"source", source,
					"dimension", "rpm",
					"limit", rpm,
				)
				if metrics != nil {
					metrics.RecordRateLimitHit("rpm")
				}
				w.Header().Set(headerRetryAfter, strconv.Itoa(int(result.RetryAfter.Seconds())))
				httputil.WriteRateLimitError(w, reqID,
					fmt.Sprintf("Rate limit exceeded: %d requests per minute. Retry after %s", rpm, result.ResetAt.Format(time.RFC3339)))
				return
			}

			if rl.DailyQuota > 0 {
				quotaResult, _ := quota.Check(r.Context(), source, rl.DailyQuota)
				if !quotaResult.Allowed {
					slog.Warn("daily quota exceeded",
						"request_id", reqID,
						"source", source,
						"used", quotaResult.Used,
						"limit", quotaResult.Limit,
					)
					if metrics != nil {
						metrics.RecordRateLimitHit("quota")
					}
					httputil.WriteRateLimitError(w, reqID,
						fmt.Sprintf("Daily quota exceeded: %d of %d deliveries", quotaResult.Used, quotaResult.Limit))
					return
				}
				quota.Record(r.Context(), source)
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
