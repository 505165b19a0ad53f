package http

import (
	"net/http"

	"github.com/erickfunier/lumenq/internal/domain/worker"
)

// WorkerStatus reports the background worker lifecycle state
type WorkerStatus interface {
	State() worker.State
}

// MetricsSnapshot exposes the in-process counters
type MetricsSnapshot interface {
	GetMetrics() map[string]int64
}

// QueueDepth reports how many jobs are waiting
type QueueDepth interface {
	Len() int
}

// SystemHandlers serves health and metrics endpoints
type SystemHandlers struct {
	worker  WorkerStatus
	metrics MetricsSnapshot
	queue   QueueDepth
}

// NewSystemHandlers creates new system HTTP handlers
func NewSystemHandlers(worker WorkerStatus, metrics MetricsSnapshot, queue QueueDepth) *SystemHandlers {
	return &SystemHandlers{
		worker:  worker,
		metrics: metrics,
		queue:   queue,
	}
}

type HealthResponse struct {
	Status string `json:"status"`
	Worker string `json:"worker"`
}

type MetricsResponse struct {
	QueueDepth int              `json:"queueDepth"`
	Counters   map[string]int64 `json:"counters"`
}

// Health is healthy only while the worker is running
func (h *SystemHandlers) Health(w http.ResponseWriter, r *http.Request) {
	state := h.worker.State()
	if state != worker.StateRunning {
		writeJSON(w, r, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Worker: string(state)})
		return
	}
	writeJSON(w, r, http.StatusOK, HealthResponse{Status: "ok", Worker: string(state)})
}

func (h *SystemHandlers) GetMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, MetricsResponse{
		QueueDepth: h.queue.Len(),
		Counters:   h.metrics.GetMetrics(),
	})
}
