// internal/portal/history.go
package portal

import (
	"sync"
	"time"

	"github.com/osdlabs/chromepuppet/internal/utils"
)

// DefaultStagnantWindow is how long a dialable count must hold still
// before a list is treated as drained.
const DefaultStagnantWindow = 180 * time.Second

// Sources tagged onto dialable-count samples. Stagnation is only
// judged across samples from the same source, since the dashboard and
// strategy pages refresh on different cadences.
const (
	SourceDashboard = "dashboard"
	SourceStrategy  = "strategy"
)

type dialableSample struct {
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

type listHistory struct {
	Dashboard []*ListMetrics `json:"dashboard_metrics"`
	Strategy  []*StrategyRow `json:"strategy_metrics"`
	Combined  []*ListMetrics `json:"combined_metrics"`
	FirstSeen time.Time      `json:"first_seen"`
	LastSeen  time.Time      `json:"last_seen"`

	dialables []dialableSample
}

// History accumulates per-list observations across cycles. It backfills
// flaky dialable counts, merges the dashboard and strategy views, and
// detects lists whose lead pool has stopped moving.
type History struct {
	mu     sync.Mutex
	lists  map[string]*listHistory
	window time.Duration
	logger utils.Logger
}

// NewHistory creates a history with the given stagnation window. A zero
// window falls back to DefaultStagnantWindow.
func NewHistory(window time.Duration, logger utils.Logger) *History {
	if window <= 0 {
		window = DefaultStagnantWindow
	}
	if logger == nil {
		logger = utils.NewLogger()
	}
	return &History{
		lists:  make(map[string]*listHistory),
		window: window,
		logger: logger,
	}
}

func (h *History) list(listID string, now time.Time) *listHistory {
	lh, ok := h.lists[listID]
	if !ok {
		lh = &listHistory{FirstSeen: now}
		h.lists[listID] = lh
	}
	lh.LastSeen = now
	return lh
}

// ObserveDashboard folds one dashboard row into the history. The row is
// adjusted in place: unavailable dialables are backfilled from the
// previous sample, and a lone zero on an active list is treated as a
// scrape glitch until it repeats. The returned merge combines the row
// with the latest strategy data when available.
func (h *History) ObserveDashboard(m *ListMetrics, now time.Time) *ListMetrics {
	h.mu.Lock()
	defer h.mu.Unlock()

	lh := h.list(m.ListID, now)

	if m.DialablesUnavailable {
		if prev := latestDashboard(lh); prev != nil {
			h.logger.Infof("dialables N/A for list %s, using previous value %d", m.ListID, prev.LeadCount)
			m.LeadCount = prev.LeadCount
			m.HasLeads = prev.HasLeads
		}
	} else if m.LeadCount == 0 && m.IsActive {
		if prev := latestDashboard(lh); prev != nil && prev.LeadCount > 0 {
			if zeroStreak(lh.Dashboard) < 2 {
				h.logger.Infof("suspicious 0 dialables for active list %s, using previous value %d", m.ListID, prev.LeadCount)
				m.LeadCount = prev.LeadCount
				m.HasLeads = prev.HasLeads
			}
		}
	}

	lh.Dashboard = append(lh.Dashboard, m)
	return h.mergeLocked(lh, now)
}

// ObserveStrategy folds one strategy row into the history and refreshes
// the merged view.
func (h *History) ObserveStrategy(r *StrategyRow, now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	lh := h.list(r.ListID, now)
	lh.Strategy = append(lh.Strategy, r)
	h.mergeLocked(lh, now)
}

// mergeLocked builds a combined entry from the latest dashboard and
// strategy samples. Dashboard values win except for dialables, where a
// healthy strategy count replaces a missing or zero dashboard count.
func (h *History) mergeLocked(lh *listHistory, now time.Time) *ListMetrics {
	dash := latestDashboard(lh)
	if dash == nil || len(lh.Strategy) == 0 {
		return dash
	}
	strat := lh.Strategy[len(lh.Strategy)-1]

	merged := *dash
	if strat.Dialables > 0 && (merged.DialablesUnavailable || merged.LeadCount == 0) {
		merged.LeadCount = strat.Dialables
		merged.HasLeads = true
	}
	merged.ListName = strat.ListName
	merged.PercentBlend = strat.PercentBlend
	merged.Resets = strat.Resets
	merged.LastReset = strat.LastReset
	merged.ResetToday = strat.ResetToday
	merged.Priority = strat.Priority
	merged.MixName = strat.MixName
	merged.MixMethod = strat.MixMethod

	merged.StrategyTimestamp = &strat.Timestamp
	merged.MergeTimestamp = &now

	lh.Combined = append(lh.Combined, &merged)
	return &merged
}

// RecordDialables adds a dialable-count sample and reports whether the
// list looks stagnant: at least three same-source samples spanning most
// of the window, all showing the same non-zero count.
func (h *History) RecordDialables(listID string, count int, now time.Time, source string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	lh := h.list(listID, now)
	lh.dialables = append(lh.dialables, dialableSample{Count: count, Timestamp: now, Source: source})

	// Keep twice the window for trend visibility.
	cutoff := now.Add(-2 * h.window)
	kept := lh.dialables[:0]
	for _, s := range lh.dialables {
		if !s.Timestamp.Before(cutoff) {
			kept = append(kept, s)
		}
	}
	lh.dialables = kept

	var samples []dialableSample
	for _, s := range lh.dialables {
		if s.Source == source {
			samples = append(samples, s)
		}
	}
	if len(samples) < 3 {
		return false
	}

	span := samples[len(samples)-1].Timestamp.Sub(samples[0].Timestamp)
	if span < time.Duration(float64(h.window) * 0.8) {
		return false
	}

	first := samples[0].Count
	if first <= 0 {
		return false
	}
	for _, s := range samples[1:] {
		if s.Count != first {
			return false
		}
	}

	h.logger.Infof("list %s dialables stagnant at %d over %s", listID, first, span.Round(time.Second))
	return true
}

// LatestCombined returns the most recent merged entry, or the latest
// dashboard entry when no merge has happened yet.
func (h *History) LatestCombined(listID string) *ListMetrics {
	h.mu.Lock()
	defer h.mu.Unlock()

	lh, ok := h.lists[listID]
	if !ok {
		return nil
	}
	if n := len(lh.Combined); n > 0 {
		return lh.Combined[n-1]
	}
	return latestDashboard(lh)
}

// LastActiveLeadCount returns the lead count from the most recent
// dashboard sample taken while the list was active. Used to keep
// judging lists that have since been rotated out.
func (h *History) LastActiveLeadCount(listID string) (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	lh, ok := h.lists[listID]
	if !ok {
		return 0, false
	}
	for i := len(lh.Dashboard) - 1; i >= 0; i-- {
		if lh.Dashboard[i].IsActive {
			return lh.Dashboard[i].LeadCount, true
		}
	}
	return 0, false
}

// Seen reports whether the list has ever been observed.
func (h *History) Seen(listID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.lists[listID]
	return ok
}

func latestDashboard(lh *listHistory) *ListMetrics {
	if n := len(lh.Dashboard); n > 0 {
		return lh.Dashboard[n-1]
	}
	return nil
}

// zeroStreak counts zero lead readings among the last three dashboard
// samples.
func zeroStreak(dashboard []*ListMetrics) int {
	start := len(dashboard) - 3
	if start < 0 {
		start = 0
	}
	zeros := 0
	for _, m := range dashboard[start:] {
		if m.LeadCount == 0 {
			zeros++
		}
	}
	return zeros
}
