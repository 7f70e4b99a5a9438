package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockPinger struct {
	err   error
	delay time.Duration
}

func (m *mockPinger) Ping(ctx context.Context) error {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.err
}

// --- Tests ---

func TestCheck(t *testing.T) {
	down := errors.New("conn refused")
	tests := []struct {
		name       string
		store      error
		index      error
		wantStatus Status
		wantStore  CheckResult
		wantIndex  CheckResult
	}{
		{"all healthy", nil, nil, Healthy, CheckOK, CheckOK},
		{"store down", down, nil, Degraded, CheckError, CheckOK},
		{"index down", nil, down, Degraded, CheckOK, CheckError},
		{"both down", down, down, Unhealthy, CheckError, CheckError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(&mockPinger{err: tt.store}, &mockPinger{err: tt.index}).Check(context.Background())
			if r.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", r.Status, tt.wantStatus)
			}
			if r.Checks[ComponentStore] != tt.wantStore || r.Checks[ComponentIndex] != tt.wantIndex {
				t.Errorf("checks = %v", r.Checks)
			}
		})
	}
}

func TestCheck_Timeout(t *testing.T) {
	svc := New(&mockPinger{}, &mockPinger{delay: time.Second}).WithTimeout(20 * time.Millisecond)

	start := time.Now()
	r := svc.Check(context.Background())
	if time.Since(start) > 500*time.Millisecond {
		t.Error("check did not honor timeout")
	}
	if r.Checks[ComponentIndex] != CheckError || r.Status != Degraded {
		t.Errorf("report = %+v", r)
	}
}
