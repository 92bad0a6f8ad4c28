package infrastructure

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type NoOpMetrics struct{}

func (n *NoOpMetrics) RecordHTTPRequest(_ context.Context, _, _ string, _ int, _ time.Duration, _, _ int64) {
}

func (n *NoOpMetrics) RecordTaskProcessed(_ context.Context, _ string, _ time.Duration, _ bool, _ string) {
}

func (n *NoOpMetrics) RecordSessionEnded(_ context.Context, _ string, _ bool) {
}

// Handler still exposes the process collectors of the default registry.
func (n *NoOpMetrics) Handler() http.Handler {
	return promhttp.Handler()
}

func (n *NoOpMetrics) Shutdown(_ context.Context) error {
	return nil
}
