// internal/zoom/runner_test.go
package zoom

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/osdlabs/chromepuppet/internal/config"
	apperrors "github.com/osdlabs/chromepuppet/internal/errors"
)

type fakeSubmitter struct {
	contactCalls   []string
	workplaceCalls []string
	statuses       map[string]Status
	failures       map[string]int
	interventions  map[string]bool
}

func (f *fakeSubmitter) AddToContactCenterDNC(_ context.Context, number string) (Status, string, error) {
	f.contactCalls = append(f.contactCalls, number)
	return f.respond(number)
}

func (f *fakeSubmitter) AddToWorkplaceDNC(_ context.Context, number string) (Status, string, error) {
	f.workplaceCalls = append(f.workplaceCalls, number)
	return f.respond(number)
}

func (f *fakeSubmitter) respond(number string) (Status, string, error) {
	if f.interventions[number] {
		return StatusUnknown, "", ErrUserIntervention
	}
	if remaining := f.failures[number]; remaining > 0 {
		f.failures[number] = remaining - 1
		return StatusUnknown, "", fmt.Errorf("transient failure for %s", number)
	}
	status, ok := f.statuses[number]
	if !ok {
		status = StatusAdded
	}
	return status, "ok", nil
}

type fakeRecorder struct {
	results []Result
}

func (f *fakeRecorder) RecordResult(r Result) error {
	f.results = append(f.results, r)
	return nil
}

func testZoomConfig(target string) *config.ZoomConfig {
	return &config.ZoomConfig{
		LoginURL:         "https://zoom.us/signin",
		ContactCenterURL: "https://zoom.us/cci/index/admin",
		WorkplaceURL:     "https://zoom.us/pbx/page/telephone",
		Target:           target,
		MaxRetries:       3,
	}
}

// newFastRunner swaps the production backoff for millisecond delays.
func newFastRunner(submitter Submitter, cfg *config.ZoomConfig, recorder Recorder) *Runner {
	r := NewRunner(submitter, cfg, recorder, nil, nil)
	r.recovery = apperrors.NewService().WithRetryConfig(apperrors.RetryConfig{
		MaxRetries:    cfg.MaxRetries - 1,
		BaseDelay:     time.Millisecond,
		BackoffFactor: 2.0,
		MaxDelay:      5 * time.Millisecond,
	})
	return r
}

func TestRunnerBatch(t *testing.T) {
	submitter := &fakeSubmitter{
		statuses: map[string]Status{"5550000002": StatusDuplicate},
		failures: map[string]int{},
	}
	recorder := &fakeRecorder{}

	runner := newFastRunner(submitter, testZoomConfig(config.ZoomTargetContactCenter), recorder)
	summary, err := runner.Run(context.Background(), []string{"5550000001", "5550000002"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Processed != 2 || summary.Added != 1 || summary.Duplicates != 1 || summary.Failed != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if len(submitter.contactCalls) != 2 {
		t.Errorf("contact center calls = %v", submitter.contactCalls)
	}
	if len(submitter.workplaceCalls) != 0 {
		t.Errorf("workplace calls = %v, want none", submitter.workplaceCalls)
	}
	if len(recorder.results) != 2 {
		t.Fatalf("recorded %d results, want 2", len(recorder.results))
	}
	if recorder.results[1].Status != StatusDuplicate {
		t.Errorf("second result status = %s, want duplicate", recorder.results[1].Status)
	}
}

func TestRunnerRetriesTransientFailures(t *testing.T) {
	submitter := &fakeSubmitter{
		statuses: map[string]Status{},
		failures: map[string]int{"5550000003": 2},
	}
	recorder := &fakeRecorder{}

	runner := newFastRunner(submitter, testZoomConfig(config.ZoomTargetWorkplace), recorder)
	summary, err := runner.Run(context.Background(), []string{"5550000003"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Added != 1 || summary.Failed != 0 {
		t.Errorf("summary = %+v, want the number to recover on retry", summary)
	}
	if got := recorder.results[0].Attempts; got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestRunnerExhaustedRetries(t *testing.T) {
	submitter := &fakeSubmitter{
		statuses: map[string]Status{},
		failures: map[string]int{"5550000004": 10},
	}
	recorder := &fakeRecorder{}

	runner := newFastRunner(submitter, testZoomConfig(config.ZoomTargetWorkplace), recorder)
	summary, err := runner.Run(context.Background(), []string{"5550000004", "5550000005"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Failed != 1 || summary.Added != 1 {
		t.Errorf("summary = %+v, want one failure and one success", summary)
	}
	if recorder.results[0].Error == "" {
		t.Error("failed result should carry the error")
	}
}

func TestRunnerUnknownTarget(t *testing.T) {
	submitter := &fakeSubmitter{statuses: map[string]Status{}, failures: map[string]int{}}
	runner := newFastRunner(submitter, testZoomConfig("voicemail"), nil)

	summary, err := runner.Run(context.Background(), []string{"5550000006"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Failed != 1 {
		t.Errorf("summary = %+v, want the number to fail", summary)
	}
}

func TestRunnerStopsOnUserIntervention(t *testing.T) {
	submitter := &fakeSubmitter{
		statuses:      map[string]Status{},
		failures:      map[string]int{},
		interventions: map[string]bool{"5550000008": true},
	}
	recorder := &fakeRecorder{}

	runner := newFastRunner(submitter, testZoomConfig(config.ZoomTargetContactCenter), recorder)
	summary, err := runner.Run(context.Background(), []string{"5550000008", "5550000009"})
	if err != ErrUserIntervention {
		t.Fatalf("Run() error = %v, want ErrUserIntervention", err)
	}

	if summary.Processed != 1 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want the batch stopped after the first number", summary)
	}
	if len(submitter.contactCalls) != 1 {
		t.Errorf("contact center calls = %v, want only the first number", submitter.contactCalls)
	}
	if len(recorder.results) != 1 || recorder.results[0].Error == "" {
		t.Errorf("intervention outcome not recorded: %+v", recorder.results)
	}
}

func TestRunnerHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	submitter := &fakeSubmitter{statuses: map[string]Status{}, failures: map[string]int{}}
	runner := newFastRunner(submitter, testZoomConfig(config.ZoomTargetContactCenter), nil)

	if _, err := runner.Run(ctx, []string{"5550000007"}); err == nil {
		t.Fatal("expected context error")
	}
	if len(submitter.contactCalls) != 0 {
		t.Errorf("no submissions should run after cancellation, got %v", submitter.contactCalls)
	}
}

func TestRunnerCircuitBreakerFailsFast(t *testing.T) {
	submitter := &fakeSubmitter{
		statuses: map[string]Status{},
		failures: map[string]int{"5550000010": 10, "5550000011": 10},
	}
	recorder := &fakeRecorder{}

	runner := newFastRunner(submitter, testZoomConfig(config.ZoomTargetContactCenter), recorder)
	runner.recovery.ConfigureCircuitBreaker("dnc_contact_center", apperrors.CircuitBreakerConfig{
		MaxFailures:  2,
		ResetTimeout: time.Hour,
	})

	summary, err := runner.Run(context.Background(), []string{"5550000010", "5550000011"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Failed != 2 {
		t.Errorf("summary = %+v, want both numbers failed", summary)
	}
	// First number burns its three attempts and trips the breaker; the
	// second must not reach the console at all.
	if len(submitter.contactCalls) != 3 {
		t.Errorf("contact center calls = %d, want 3", len(submitter.contactCalls))
	}
	if got := recorder.results[1]; got.Attempts != 0 || !strings.Contains(got.Error, "circuit breaker open") {
		t.Errorf("second result = %+v, want a fast breaker failure", got)
	}
}

func TestClassifyMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Status
	}{
		{"added", "New rule added", StatusAdded},
		{"duplicate", "Blocking rule is already implemented", StatusDuplicate},
		{"unexpected", "Something went wrong", StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyMessage(tt.message, "New rule added", "Blocking rule is already implemented")
			if got != tt.want {
				t.Errorf("classifyMessage(%q) = %s, want %s", tt.message, got, tt.want)
			}
		})
	}
}

func TestMimicPauseHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMimic()
	if err := m.Pause(ctx, time.Second, 2*time.Second); err == nil {
		t.Fatal("expected context error from cancelled pause")
	}
}
