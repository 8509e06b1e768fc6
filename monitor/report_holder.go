package monitor

import (
	"sync"

	"github.com/viralmux/viralmux/pipeline"
)

// ReportHolder keeps the most recent run report for the ops endpoints.
type ReportHolder struct {
	mu   sync.RWMutex
	last *pipeline.RunReport
}

func NewReportHolder() *ReportHolder {
	return &ReportHolder{}
}

func (h *ReportHolder) Set(report *pipeline.RunReport) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = report
}

// Last returns the most recent report, nil before the first cycle finishes.
func (h *ReportHolder) Last() *pipeline.RunReport {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}
