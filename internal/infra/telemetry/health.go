package telemetry

import (
	"sort"
	"sync"
)

// HealthCheck reports the state of one component.
type HealthCheck func() CheckResult

type CheckResult struct {
	OK     bool           `json:"ok"`
	Detail map[string]any `json:"detail,omitempty"`
}

type HealthReport struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// HealthTracker aggregates named component checks for /healthz.
type HealthTracker struct {
	mu     sync.RWMutex
	checks map[string]HealthCheck
}

func NewHealthTracker() *HealthTracker {
	return &HealthTracker{checks: make(map[string]HealthCheck)}
}

func (h *HealthTracker) Register(name string, check HealthCheck) {
	if h == nil || check == nil {
		return
	}
	h.mu.Lock()
	h.checks[name] = check
	h.mu.Unlock()
}

func (h *HealthTracker) Report() HealthReport {
	report := HealthReport{Status: "ok"}
	if h == nil {
		return report
	}

	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	checks := make(map[string]HealthCheck, len(h.checks))
	for name, check := range h.checks {
		checks[name] = check
	}
	h.mu.RUnlock()

	if len(names) == 0 {
		return report
	}
	sort.Strings(names)
	report.Checks = make(map[string]CheckResult, len(names))
	for _, name := range names {
		result := checks[name]()
		report.Checks[name] = result
		if !result.OK {
			report.Status = "degraded"
		}
	}
	return report
}
