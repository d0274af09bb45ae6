package aggregates

import (
	"strings"
	"time"

	"github.com/yungbote/neurobridge-assessment/internal/observability"
)

// Hooks captures store-level observability events.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncUnavailable(name string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncUnavailable(string)                          {}

type observabilityHooks struct {
	metrics *observability.Metrics
}

// NewObservabilityHooks creates store hooks backed by observability metrics.
func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return &observabilityHooks{metrics: metrics}
}

func (h *observabilityHooks) ObserveOperation(name, status string, dur time.Duration) {
	if h == nil || h.metrics == nil {
		return
	}
	h.metrics.ObserveStoreOperation(strings.TrimSpace(name), strings.TrimSpace(status), dur)
}

func (h *observabilityHooks) IncConflict(name string) {
	if h == nil || h.metrics == nil {
		return
	}
	h.metrics.IncStoreConflict(strings.TrimSpace(name))
}

func (h *observabilityHooks) IncUnavailable(name string) {
	if h == nil || h.metrics == nil {
		return
	}
	h.metrics.IncStoreUnavailable(strings.TrimSpace(name))
}
