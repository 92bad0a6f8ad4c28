package http

import (
	"encoding/json"
	"net/http"

	"github.com/architeacher/svc-task-runner/internal/domain"
	"github.com/architeacher/svc-task-runner/internal/infrastructure"
	"github.com/architeacher/svc-task-runner/internal/ports"
	"github.com/architeacher/svc-task-runner/pkg/queue"
	"github.com/go-chi/chi/v5"
)

const (
	livenessPath  = "/livez"
	readinessPath = "/readyz"
	metricsPath   = "/metrics"
)

// OpsHandler serves the probes and the metrics scrape of a running consumer.
type OpsHandler struct {
	consumer ports.ConsumerState
	version  string
	metrics  infrastructure.Metrics
	logger   infrastructure.Logger
}

func NewOpsHandler(
	consumer ports.ConsumerState,
	version string,
	metrics infrastructure.Metrics,
	logger infrastructure.Logger,
) *OpsHandler {
	return &OpsHandler{
		consumer: consumer,
		version:  version,
		metrics:  metrics,
		logger:   logger.Component("ops_handler"),
	}
}

// Routes mounts the ops endpoints on router.
func (h *OpsHandler) Routes(router chi.Router) {
	router.Get(livenessPath, h.GetLiveness)
	router.Get(readinessPath, h.GetReadiness)
	router.Method(http.MethodGet, metricsPath, h.metrics.Handler())
}

func (h *OpsHandler) GetLiveness(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, domain.LivenessResult{
		Status:  domain.LivenessResponseStatusAlive,
		Version: h.version,
	})
}

// GetReadiness reports ready only while the subscription is delivering messages.
func (h *OpsHandler) GetReadiness(w http.ResponseWriter, _ *http.Request) {
	if h.consumer == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, domain.ReadinessResult{
			Status: domain.ReadinessResponseStatusNotReady,
			State:  queue.StateIdle.String(),
		})

		return
	}

	state := h.consumer.State()
	result := domain.ReadinessResult{
		Status:      domain.ReadinessResponseStatusNotReady,
		State:       state.String(),
		Queue:       h.consumer.QueueName(),
		ConsumerTag: h.consumer.ConsumerTag(),
	}

	statusCode := http.StatusServiceUnavailable
	if state == queue.StateConsuming {
		result.Status = domain.ReadinessResponseStatusReady
		statusCode = http.StatusOK
	}

	h.writeJSON(w, statusCode, result)
}

func (h *OpsHandler) writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}
