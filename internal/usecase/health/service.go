package health

import (
	"context"
	"sync"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates some components fail.
	Degraded Status = "degraded"
	// Unhealthy indicates every component fails.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentStore = "store"
	ComponentIndex = "index"
)

const defaultTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service pings the record store and the search index.
type Service struct {
	pingers map[string]Pinger
	timeout time.Duration
}

// New creates a Service.
func New(store, index Pinger) *Service {
	return &Service{
		pingers: map[string]Pinger{ComponentStore: store, ComponentIndex: index},
		timeout: defaultTimeout,
	}
}

// WithTimeout bounds each ping.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check pings every component concurrently.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.pingers))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, p := range s.pingers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			res := CheckOK
			if err := p.Ping(pctx); err != nil {
				res = CheckError
			}
			mu.Lock()
			checks[name] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	failed := 0
	for _, v := range checks {
		if v == CheckError {
			failed++
		}
	}
	status := Healthy
	switch {
	case failed == len(checks):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}
