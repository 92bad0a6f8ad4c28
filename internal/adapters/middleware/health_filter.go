package middleware

import (
	"context"
	"net/http"
	"slices"
)

// HealthCheckFilter keeps probe traffic out of the access log.
type HealthCheckFilter struct {
	healthEndpoints []string
	logHealthChecks bool
}

func NewHealthCheckFilter(logHealthChecks bool, endpoints ...string) *HealthCheckFilter {
	if len(endpoints) == 0 {
		endpoints = []string{"/livez", "/readyz", "/metrics"}
	}

	return &HealthCheckFilter{
		healthEndpoints: endpoints,
		logHealthChecks: logHealthChecks,
	}
}

func (h *HealthCheckFilter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.logHealthChecks && slices.Contains(h.healthEndpoints, r.URL.Path) {
			ctx := context.WithValue(r.Context(), skipAccessLogKey{}, true)
			r = r.WithContext(ctx)
		}

		next.ServeHTTP(w, r)
	})
}
