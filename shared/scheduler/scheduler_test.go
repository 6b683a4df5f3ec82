package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"video-analyst/shared/config"
)

type fakeMetrics string

func (m fakeMetrics) GetSummary() string { return string(m) }

type fakeAgent struct {
	runErr      error
	initErr     error
	runs        int
	initialized bool
}

func (f *fakeAgent) Name() string { return "Fake Agent" }

func (f *fakeAgent) Initialize() error {
	f.initialized = true
	return f.initErr
}

func (f *fakeAgent) RunOnce(ctx context.Context, events *AgentEvents) error {
	f.runs++
	if f.runErr != nil {
		return f.runErr
	}
	events.OnSuccess(fakeMetrics("did the thing"), time.Millisecond)
	return nil
}

func TestRunOnceRecordsSuccess(t *testing.T) {
	agent := &fakeAgent{}
	s := New(&config.Config{}, agent)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if agent.runs != 1 {
		t.Errorf("agent ran %d times, want 1", agent.runs)
	}
	if !s.Monitor().IsHealthy() {
		t.Error("monitor should be healthy after success")
	}
	if !strings.Contains(s.Monitor().GetStatusSummary(), "did the thing") {
		t.Errorf("summary = %q", s.Monitor().GetStatusSummary())
	}
}

func TestRunOnceRecordsFailure(t *testing.T) {
	agent := &fakeAgent{runErr: errors.New("quota exceeded")}
	s := New(&config.Config{}, agent)

	err := s.RunOnce(context.Background())
	if err == nil {
		t.Fatal("RunOnce() expected error")
	}
	if !errors.Is(err, agent.runErr) {
		t.Errorf("error %v should wrap agent error", err)
	}
	if s.Monitor().IsHealthy() {
		t.Error("monitor should be unhealthy after failure")
	}
}

func TestRunOnceInterruptedIsNotAFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agent := &fakeAgent{runErr: fmt.Errorf("generate_section_breakdown (canceled): %w", context.Canceled)}
	s := New(&config.Config{}, agent)

	err := s.RunOnce(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RunOnce() error = %v, want context.Canceled", err)
	}
	if !s.Monitor().IsHealthy() {
		t.Error("monitor should stay healthy after an interrupted run")
	}
	if got := s.Monitor().GetStatusSummary(); got != "No runs yet" {
		t.Errorf("summary = %q, want interrupted run left unrecorded", got)
	}
}

func TestRunOnceCanceledByAgentIsAFailure(t *testing.T) {
	// The caller's context is still live, so the cancellation came from
	// somewhere else and the run counts.
	agent := &fakeAgent{runErr: context.Canceled}
	s := New(&config.Config{}, agent)

	if err := s.RunOnce(context.Background()); err == nil {
		t.Fatal("RunOnce() expected error")
	}
	if s.Monitor().IsHealthy() {
		t.Error("monitor should be unhealthy after failure")
	}
}

func TestNextRunBeforeStart(t *testing.T) {
	s := New(&config.Config{Schedule: "@hourly"}, &fakeAgent{})
	if next := s.NextRun(); !next.IsZero() {
		t.Errorf("NextRun() = %v before Start, want zero", next)
	}
}

func TestStartRequiresSchedule(t *testing.T) {
	agent := &fakeAgent{}
	s := New(&config.Config{}, agent)

	if err := s.Start(context.Background()); err == nil {
		t.Fatal("Start() without schedule expected error")
	}
	if agent.initialized {
		t.Error("agent should not be initialized without a schedule")
	}
}

func TestStartPropagatesInitError(t *testing.T) {
	agent := &fakeAgent{initErr: errors.New("missing key")}
	s := New(&config.Config{Schedule: "@hourly"}, agent)

	err := s.Start(context.Background())
	if err == nil || !errors.Is(err, agent.initErr) {
		t.Fatalf("Start() error = %v, want wrapped init error", err)
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	agent := &fakeAgent{}
	cfg := &config.Config{
		Schedule:   "* * * * * *",
		Monitoring: config.MonitoringConfig{HealthPort: 38471},
	}
	s := New(cfg, agent)

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()

	err := s.Start(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Start() error = %v, want context.DeadlineExceeded", err)
	}
	if agent.runs < 1 {
		t.Errorf("agent ran %d times, want at least 1 with a per-second schedule", agent.runs)
	}
	if next := s.NextRun(); next.IsZero() {
		t.Error("NextRun() is zero after the job was scheduled")
	}
}
