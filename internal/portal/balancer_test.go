// internal/portal/balancer_test.go
package portal

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/osdlabs/chromepuppet/internal/config"
	"github.com/osdlabs/chromepuppet/internal/utils"
)

// fakePortal scripts the portal surface for cycle tests. Dashboard rows
// are copied on every read because the balancer mutates them in place.
type fakePortal struct {
	dash     map[string]*ListMetrics
	strategy map[string]*StrategyRow
	agents   []string
	noAgents bool

	dashCalls   int
	changeCalls []string
	failChanges int
}

func (f *fakePortal) Login(context.Context, config.Credentials) error { return nil }

func (f *fakePortal) SelectCampaign(context.Context, string) error { return nil }

func (f *fakePortal) OnlineAgents(context.Context) ([]string, bool, error) {
	if f.noAgents {
		return nil, true, nil
	}
	return f.agents, false, nil
}

func (f *fakePortal) DashboardMetrics(_ context.Context, campaignID string) (map[string]*ListMetrics, error) {
	f.dashCalls++
	out := make(map[string]*ListMetrics, len(f.dash))
	for id, m := range f.dash {
		row := *m
		out[id] = &row
	}
	return out, nil
}

func (f *fakePortal) StrategyMetrics(_ context.Context, campaignID string) (map[string]*StrategyRow, error) {
	out := make(map[string]*StrategyRow, len(f.strategy))
	for id, r := range f.strategy {
		row := *r
		out[id] = &row
	}
	return out, nil
}

func (f *fakePortal) ChangeList(_ context.Context, campaignID, oldID, newID string) error {
	if f.failChanges > 0 {
		f.failChanges--
		return fmt.Errorf("portal rejected the change")
	}
	f.changeCalls = append(f.changeCalls, oldID+"->"+newID)
	return nil
}

type fakeChangeRecorder struct {
	results []ChangeResult
}

func (f *fakeChangeRecorder) RecordChange(r ChangeResult) error {
	f.results = append(f.results, r)
	return nil
}

func testBalancer(t *testing.T, client Portal, recorder ChangeRecorder) *Balancer {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.TeleseroConfig{
		BaseURL: "https://portal.example.com",
		Server:  "5",
		Servers: map[string]*config.ServerConfig{
			"5": {Type: config.ServerTypeOSD, Campaign: "1600"},
		},
		Thresholds: &config.ThresholdsConfig{
			ConversionRate:   0.30,
			ContactCount:     100,
			ContactRate:      10.0,
			ContactRateCount: 50,
		},
		MetricsLogDir: filepath.Join(dir, "metrics_logs"),
		IgnoreFile:    filepath.Join(dir, "ignore.txt"),
	}

	b, err := NewBalancer(cfg, client, nil, recorder, utils.NewLoggerWithLevel(utils.ParseLogLevel("error")))
	if err != nil {
		t.Fatalf("NewBalancer() error = %v", err)
	}
	return b
}

func TestSingleCycleSwapsUnderperformingList(t *testing.T) {
	fake := &fakePortal{
		agents:   []string{"Agent One"},
		strategy: map[string]*StrategyRow{},
		dash: map[string]*ListMetrics{
			"1001": {ListID: "1001", ListName: "Aged A", LeadCount: 800, HasLeads: true,
				Contacts: 150, Conversion: 0.10, ContactRate: 12.0, IsActive: true},
			"2002": {ListID: "2002", ListName: "Fresh B", LeadCount: 900, HasLeads: true,
				Contacts: 120, Conversion: 0.80, ContactRate: 15.0, IsActive: false},
			"3003": {ListID: "3003", ListName: "Keeper", LeadCount: 700, HasLeads: true,
				Contacts: 200, Conversion: 0.60, ContactRate: 14.0, IsActive: true},
		},
	}
	recorder := &fakeChangeRecorder{}
	b := testBalancer(t, fake, recorder)

	if err := b.cycle(context.Background()); err != nil {
		t.Fatalf("cycle() error = %v", err)
	}

	if len(fake.changeCalls) != 1 || fake.changeCalls[0] != "1001->2002" {
		t.Fatalf("changes = %v, want [1001->2002]", fake.changeCalls)
	}
	if len(recorder.results) != 1 {
		t.Fatalf("recorded %d changes, want 1", len(recorder.results))
	}
	r := recorder.results[0]
	if !r.Succeeded || r.Campaign != "1600" || r.OldListID != "1001" || r.NewListID != "2002" {
		t.Errorf("recorded change = %+v", r)
	}
	if !b.manager.IsUsed("2002") {
		t.Error("replacement list should be marked used")
	}
}

func TestSingleCycleFailedChangeKeepsCandidate(t *testing.T) {
	fake := &fakePortal{
		agents:      []string{"Agent One"},
		strategy:    map[string]*StrategyRow{},
		failChanges: 1,
		dash: map[string]*ListMetrics{
			"1001": {ListID: "1001", ListName: "Aged A", LeadCount: 800, HasLeads: true,
				Contacts: 150, Conversion: 0.10, ContactRate: 12.0, IsActive: true},
			"2002": {ListID: "2002", ListName: "Fresh B", LeadCount: 900, HasLeads: true,
				Contacts: 120, Conversion: 0.80, ContactRate: 15.0, IsActive: false},
		},
	}
	recorder := &fakeChangeRecorder{}
	b := testBalancer(t, fake, recorder)

	if err := b.cycle(context.Background()); err != nil {
		t.Fatalf("first cycle() error = %v", err)
	}

	if len(fake.changeCalls) != 0 {
		t.Fatalf("changes after rejected swap = %v, want none", fake.changeCalls)
	}
	if len(recorder.results) != 1 || recorder.results[0].Succeeded || recorder.results[0].Reason == "" {
		t.Fatalf("rejected swap not recorded as a failure: %+v", recorder.results)
	}
	if b.manager.IsUsed("2002") {
		t.Error("candidate must not be marked used after a rejected swap")
	}

	// The candidate stays available; the next cycle completes the swap.
	if err := b.cycle(context.Background()); err != nil {
		t.Fatalf("second cycle() error = %v", err)
	}
	if len(fake.changeCalls) != 1 || fake.changeCalls[0] != "1001->2002" {
		t.Fatalf("changes after retry = %v, want [1001->2002]", fake.changeCalls)
	}
	if last := recorder.results[len(recorder.results)-1]; !last.Succeeded {
		t.Errorf("retried swap recorded as failure: %+v", last)
	}
}

func TestSingleCycleWaitsWhenFloorEmpty(t *testing.T) {
	fake := &fakePortal{noAgents: true, strategy: map[string]*StrategyRow{}}
	b := testBalancer(t, fake, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := b.cycle(ctx)
	if err != context.DeadlineExceeded {
		t.Fatalf("cycle() error = %v, want deadline exceeded from the backoff", err)
	}
	if fake.dashCalls != 0 {
		t.Errorf("dashboard scraped %d times with no agents online", fake.dashCalls)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("cycle returned after %v, before the backoff started", elapsed)
	}
}

func TestApplyStagnation(t *testing.T) {
	tests := []struct {
		name      string
		metrics   *ListMetrics
		rate      float64
		wantReset bool
		wantLeads bool
	}{
		{
			name: "already reset today becomes ineligible",
			metrics: &ListMetrics{ListID: "L1", IsActive: true, HasLeads: true,
				LeadCount: 500, ResetToday: true},
			rate:      0.90,
			wantReset: false,
			wantLeads: false,
		},
		{
			name: "converting list flagged for reset",
			metrics: &ListMetrics{ListID: "L2", IsActive: true, HasLeads: true,
				LeadCount: 500},
			rate:      0.90,
			wantReset: true,
			wantLeads: true,
		},
		{
			name: "poor list treated as drained",
			metrics: &ListMetrics{ListID: "L3", IsActive: true, HasLeads: true,
				LeadCount: 500},
			rate:      0.10,
			wantReset: false,
			wantLeads: false,
		},
		{
			name: "inactive list untouched",
			metrics: &ListMetrics{ListID: "L4", IsActive: false, HasLeads: true,
				LeadCount: 500},
			rate:      0.10,
			wantReset: false,
			wantLeads: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testBalancer(t, &fakePortal{}, nil)

			// Two prior samples; the call under test adds the third,
			// spanning most of the stagnation window.
			base := time.Now()
			b.history.RecordDialables(tt.metrics.ListID, tt.metrics.LeadCount, base, SourceDashboard)
			b.history.RecordDialables(tt.metrics.ListID, tt.metrics.LeadCount, base.Add(80*time.Second), SourceDashboard)

			b.applyStagnation(tt.metrics, tt.rate, base.Add(160*time.Second))

			if tt.metrics.NeedsReset != tt.wantReset {
				t.Errorf("NeedsReset = %v, want %v", tt.metrics.NeedsReset, tt.wantReset)
			}
			if tt.metrics.HasLeads != tt.wantLeads {
				t.Errorf("HasLeads = %v, want %v", tt.metrics.HasLeads, tt.wantLeads)
			}
		})
	}
}
