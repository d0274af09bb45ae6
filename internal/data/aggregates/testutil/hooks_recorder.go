package testutil

import (
	"sync"
	"time"

	"github.com/yungbote/neurobridge-assessment/internal/data/aggregates"
)

// HooksRecorder captures store hook signals in tests.
type HooksRecorder struct {
	mu sync.Mutex

	Operations  []OperationEvent
	Conflicts   []string
	Unavailable []string
}

type OperationEvent struct {
	Name     string
	Status   string
	Duration time.Duration
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) ObserveOperation(name, status string, dur time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Operations = append(h.Operations, OperationEvent{
		Name:     name,
		Status:   status,
		Duration: dur,
	})
}

func (h *HooksRecorder) IncConflict(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Conflicts = append(h.Conflicts, name)
}

func (h *HooksRecorder) IncUnavailable(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Unavailable = append(h.Unavailable, name)
}

// StatusCount returns how many observed operations named op ended with status.
func (h *HooksRecorder) StatusCount(op, status string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, e := range h.Operations {
		if e.Name == op && e.Status == status {
			n++
		}
	}
	return n
}
