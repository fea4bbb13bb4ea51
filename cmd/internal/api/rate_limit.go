package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"
)

// allowSignIn counts one sign-in attempt for ip against the keyed window.
// Requests without a resolvable address share one bucket.
func (h *Handler) allowSignIn(ip net.IP, now time.Time) (bool, time.Duration) {
	if h.throttle == nil {
		return true, 0
	}
	key := "unknown"
	if ip != nil {
		key = ip.String()
	}
	return h.throttle.Allow(key, now)
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	if retryAfter > 0 {
		secs := int64(math.Ceil(retryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	}
	writeError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
}
