package docsync

import (
	"context"

	healthuc "github.com/kailas-cloud/docsync/internal/usecase/health"
)

// HealthStatus is the outcome of pinging both backends.
// Status is "ok", "degraded" or "error"; Checks maps "store" and "index" to
// "ok" or "error".
type HealthStatus struct {
	Status string
	Checks map[string]string
}

// OK reports whether both the record store and the search index answered.
func (h HealthStatus) OK() bool { return h.Status == string(healthuc.Healthy) }

// Health pings the record store and the search index.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	h := HealthStatus{
		Status: string(report.Status),
		Checks: make(map[string]string, len(report.Checks)),
	}
	for backend, res := range report.Checks {
		h.Checks[backend] = string(res)
	}
	return h
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
