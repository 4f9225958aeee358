package quota

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/mdmarufa/cloudex/internal/logging"
	"github.com/mdmarufa/cloudex/internal/metrics"
	"github.com/mdmarufa/cloudex/pkg/protocol"
)

// UserIDFromContext extracts the user ID from the request context.
// This function type allows decoupling from the auth package.
type UserIDFromContext func(ctx context.Context) (userID int, ok bool)

// RateLimitMiddleware returns middleware that enforces rpm requests per
// minute for every authenticated user.
func RateLimitMiddleware(limiter *RateLimiter, rpm int, getUser UserIDFromContext) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := getUser(r.Context())
			if !ok || rpm <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(userID, rpm) {
				metrics.RecordRateLimitHit()
				retryAfter := limiter.RetryAfter(userID, rpm)
				logging.WithContext(r.Context()).Warn("rate limit exceeded",
					zap.Int("user_id", userID),
					zap.Int("retry_after", retryAfter))
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(protocol.ErrorResponse{
					Error: "rate limit exceeded",
					Code:  http.StatusTooManyRequests,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
