// internal/portal/balancer.go
package portal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/osdlabs/chromepuppet/internal/config"
	"github.com/osdlabs/chromepuppet/internal/monitoring"
	"github.com/osdlabs/chromepuppet/internal/utils"
)

const (
	defaultCheckInterval    = 60 * time.Second
	defaultStrategyInterval = 5 * time.Minute
	collectRetries          = 3
	collectRetryDelay       = 10 * time.Second
)

// ChangeRecorder receives swap outcomes for export.
type ChangeRecorder interface {
	RecordChange(ChangeResult) error
}

// Portal is the slice of Client the balancer drives. Tests substitute
// their own implementation.
type Portal interface {
	AgentSource
	Login(ctx context.Context, creds config.Credentials) error
	SelectCampaign(ctx context.Context, campaignID string) error
	DashboardMetrics(ctx context.Context, campaignID string) (map[string]*ListMetrics, error)
	StrategyMetrics(ctx context.Context, campaignID string) (map[string]*StrategyRow, error)
	ChangeList(ctx context.Context, campaignID, oldID, newID string) error
}

// Balancer runs the list rotation loop for one dialer server: scrape
// metrics, categorize lists against the thresholds, and swap the
// underperformers for vetted replacements.
type Balancer struct {
	cfg      *config.TeleseroConfig
	serverID string
	server   *config.ServerConfig

	client     Portal
	analyzer   *Analyzer
	history    *History
	manager    *ListManager
	agents     *AgentVerifier
	metricsLog *MetricsLog

	metrics  *monitoring.Metrics
	recorder ChangeRecorder
	logger   utils.Logger
	pacer    *utils.RateLimiter

	lastStrategyCheck time.Time

	pendingMu         sync.Mutex
	pendingThresholds *config.ThresholdsConfig
}

// NewBalancer wires a balancer for the server named in the config.
// metrics and recorder may be nil.
func NewBalancer(cfg *config.TeleseroConfig, client Portal, metrics *monitoring.Metrics, recorder ChangeRecorder, logger utils.Logger) (*Balancer, error) {
	if logger == nil {
		logger = utils.NewLogger()
	}

	serverID := cfg.Server
	server, ok := cfg.Servers[serverID]
	if !ok {
		server, ok = config.DefaultServers()[serverID]
		if !ok {
			return nil, fmt.Errorf("unknown server %q", serverID)
		}
	}

	thresholds := config.DefaultThresholds(server.Type)
	if cfg.Thresholds != nil {
		thresholds = *cfg.Thresholds
	}

	manager := NewListManager(cfg.Queue, cfg.IgnoreLists, logger)
	ignoreFile := cfg.IgnoreFile
	if ignoreFile == "" {
		ignoreFile = IgnoreFilePath(serverID)
	}
	if err := manager.LoadIgnoreFile(ignoreFile); err != nil {
		logger.Warnf("could not load ignore file: %v", err)
	}

	servers := config.DefaultServers()
	for id, sc := range cfg.Servers {
		servers[id] = sc
	}

	b := &Balancer{
		cfg:        cfg,
		serverID:   serverID,
		server:     server,
		client:     client,
		analyzer:   NewAnalyzer(thresholds, server.Type, logger),
		history:    NewHistory(DefaultStagnantWindow, logger),
		manager:    manager,
		agents:     NewAgentVerifier(servers, nil, logger),
		metricsLog: NewMetricsLog(cfg.MetricsLogDir, serverID, logger),
		metrics:    metrics,
		recorder:   recorder,
		logger:     logger,
	}
	b.pacer = utils.NewIntervalLimiter(1, b.checkInterval())
	return b, nil
}

func (b *Balancer) checkInterval() time.Duration {
	if b.cfg.CheckInterval > 0 {
		return b.cfg.CheckInterval
	}
	return defaultCheckInterval
}

func (b *Balancer) strategyInterval() time.Duration {
	if b.cfg.StrategyInterval > 0 {
		return b.cfg.StrategyInterval
	}
	return defaultStrategyInterval
}

// Run logs in and cycles until the context is canceled. Cycle errors
// are logged and retried on the next tick.
func (b *Balancer) Run(ctx context.Context) error {
	creds, err := config.TeleseroCredentials(b.serverID, b.server)
	if err != nil {
		return err
	}

	err = b.client.Login(ctx, creds)
	if b.metrics != nil {
		b.metrics.RecordLogin("telesero", err == nil)
	}
	if err != nil {
		return err
	}

	b.logger.Infof("balancer started for server %s (%s)", b.serverID, b.server.Type)

	// Cycle starts are spaced by the check interval; the limiter's
	// burst token lets the first cycle run immediately.
	for {
		if err := b.pacer.Wait(ctx); err != nil {
			return err
		}

		start := time.Now()
		err := b.cycle(ctx)
		if b.metrics != nil {
			b.metrics.RecordCycle(b.serverID, err == nil, time.Since(start))
			b.metrics.SetQueueDepth(b.serverID, b.manager.QueueLen())
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.Errorf("cycle failed: %v", err)
		}
	}
}

// UpdateThresholds stages new gates. They take effect at the start of
// the next cycle, so a config edit never changes the rules mid-pass.
func (b *Balancer) UpdateThresholds(t config.ThresholdsConfig) {
	b.pendingMu.Lock()
	b.pendingThresholds = &t
	b.pendingMu.Unlock()
}

func (b *Balancer) applyPendingThresholds() {
	b.pendingMu.Lock()
	pending := b.pendingThresholds
	b.pendingThresholds = nil
	b.pendingMu.Unlock()

	if pending == nil {
		return
	}
	b.analyzer.SetThresholds(*pending)
	b.logger.Infof("thresholds updated: conversion %.2f%%, contact rate %.2f%%",
		pending.ConversionRate, pending.ContactRate)
}

// cycle runs one pass over the server's campaigns and then tops up the
// replacement queue.
func (b *Balancer) cycle(ctx context.Context) error {
	b.applyPendingThresholds()

	var err error
	if b.server.IsMultiCampaign() {
		err = b.pairedCycle(ctx)
	} else {
		err = b.singleCycle(ctx)
	}
	if err != nil {
		return err
	}

	b.manager.Replenish(func(listID string) bool {
		return b.analyzer.VerifySingle(listID, b.history.LatestCombined(listID))
	})
	return nil
}

// refreshStrategy pulls the dialing strategy page when the interval has
// elapsed and folds the rows into history. Returns the parsed rows, or
// nil when the refresh was skipped.
func (b *Balancer) refreshStrategy(ctx context.Context, campaignID string) (map[string]*StrategyRow, error) {
	if time.Since(b.lastStrategyCheck) < b.strategyInterval() && !b.lastStrategyCheck.IsZero() {
		return nil, nil
	}

	rows, err := b.client.StrategyMetrics(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	b.lastStrategyCheck = time.Now()
	if b.metrics != nil {
		b.metrics.RecordPageLoad("strategy")
	}

	now := time.Now()
	for _, row := range rows {
		b.history.ObserveStrategy(row, now)
		if b.history.RecordDialables(row.ListID, row.Dialables, now, SourceStrategy) {
			b.logger.Infof("list %s marked empty: stagnant dialables on strategy page", row.ListID)
		}
		if err := b.metricsLog.Append(b.server.Type, row.ListID, SourceStrategy, row, now); err != nil {
			b.logger.Warnf("failed to log strategy metrics: %v", err)
		}
	}
	return rows, nil
}

// singleCycle handles a one-campaign server.
func (b *Balancer) singleCycle(ctx context.Context) error {
	campaign := b.server.Campaign
	b.logger.Infof("processing campaign %s", campaign)

	strategy, err := b.refreshStrategy(ctx, campaign)
	if err != nil {
		b.logger.Warnf("strategy refresh failed: %v", err)
	}

	if err := b.client.SelectCampaign(ctx, campaign); err != nil {
		return err
	}

	ok, err := b.agents.Verify(ctx, b.client, campaign, AgentAny)
	if b.metrics != nil {
		b.metrics.RecordAgentCheck(b.serverID, string(AgentAny), ok)
	}
	if err != nil {
		return err
	}
	if !ok {
		b.logger.Info("no agents online, skipping cycle")
		return sleep(ctx, WaitDelay)
	}

	dash, err := b.client.DashboardMetrics(ctx, campaign)
	if err != nil {
		return err
	}
	if b.metrics != nil {
		b.metrics.RecordPageLoad("dashboard")
	}

	now := time.Now()
	merged := make(map[string]*ListMetrics, len(dash))
	for listID, m := range dash {
		if b.manager.ShouldIgnore(listID, m.ListName) {
			continue
		}

		mm := b.history.ObserveDashboard(m, now)
		if mm == nil {
			mm = m
		}
		b.applyStagnation(mm, mm.Conversion, now)
		merged[listID] = mm

		if err := b.metricsLog.Append(b.server.Type, listID, SourceDashboard, m, now); err != nil {
			b.logger.Warnf("failed to log dashboard metrics: %v", err)
		}
	}

	// Lists present only in the strategy blend still count as active.
	for listID, row := range strategy {
		if _, ok := merged[listID]; ok {
			continue
		}
		if b.manager.ShouldIgnore(listID, row.ListName) {
			continue
		}
		merged[listID] = &ListMetrics{
			ListID:     listID,
			ListName:   row.ListName,
			LeadCount:  row.Dialables,
			HasLeads:   row.Dialables > 0,
			IsActive:   true,
			ResetToday: row.ResetToday,
			LastReset:  row.LastReset,
			Timestamp:  now,
		}
	}

	cat := b.analyzer.CategorizeSingle(merged)
	b.publishBuckets(cat)

	toReplace := append(append([]string(nil), cat.LowConversion...), cat.LowContact...)
	names := make(map[string]string, len(merged))
	active := make(map[string]bool, len(merged))
	for id, m := range merged {
		names[id] = m.ListName
		active[id] = m.IsActive
	}

	verify := func(listID string) bool {
		return b.analyzer.VerifySingle(listID, merged[listID])
	}
	return b.processChanges(ctx, campaign, toReplace, cat.HighConversion, cat.LowContact, names, active, verify)
}

// applyStagnation folds a stagnant dialable count into the metrics:
// already-reset lists become ineligible, well-converting ones get
// flagged for a reset, the rest are treated as drained. rate is the
// quality signal to judge by (conversion or transfer rate).
func (b *Balancer) applyStagnation(m *ListMetrics, rate float64, now time.Time) {
	if !m.IsActive || m.DialablesUnavailable {
		return
	}
	if !b.history.RecordDialables(m.ListID, m.LeadCount, now, SourceDashboard) {
		return
	}

	switch {
	case m.ResetToday:
		b.logger.Infof("list %s ineligible: already reset today (last reset %s)", m.ListID, m.LastReset)
		m.HasLeads = false
		m.LeadCount = 0
	case rate >= b.analyzer.Thresholds().ConversionRate:
		b.logger.Infof("list %s needs reset: stagnant but converting at %.2f%%", m.ListID, rate)
		m.NeedsReset = true
	default:
		b.logger.Infof("list %s leads empty: stagnant dialables", m.ListID)
		m.HasLeads = false
		m.LeadCount = 0
	}
}

// collectCampaign selects a campaign, enforces its agent floor and
// scrapes its dashboard, retrying transient failures.
func (b *Balancer) collectCampaign(ctx context.Context, campaignID string, agentType AgentType) (map[string]*ListMetrics, error) {
	var lastErr error
	for attempt := 1; attempt <= collectRetries; attempt++ {
		if err := b.client.SelectCampaign(ctx, campaignID); err != nil {
			lastErr = err
			b.logger.Errorf("failed to select campaign %s (attempt %d/%d): %v", campaignID, attempt, collectRetries, err)
			if err := sleep(ctx, collectRetryDelay); err != nil {
				return nil, err
			}
			continue
		}
		if err := sleep(ctx, pageSettleDelay); err != nil {
			return nil, err
		}

		ok, err := b.agents.Verify(ctx, b.client, campaignID, agentType)
		if b.metrics != nil {
			b.metrics.RecordAgentCheck(b.serverID, string(agentType), ok)
		}
		if err != nil {
			lastErr = err
			continue
		}
		if !ok {
			b.logger.Infof("no valid %s agents on campaign %s, skipping cycle", agentType, campaignID)
			if err := sleep(ctx, WaitDelay); err != nil {
				return nil, err
			}
			return nil, nil
		}

		metrics, err := b.client.DashboardMetrics(ctx, campaignID)
		if err == nil {
			if b.metrics != nil {
				b.metrics.RecordPageLoad("dashboard")
			}
			return metrics, nil
		}
		lastErr = err
		b.logger.Errorf("failed to collect campaign %s metrics (attempt %d/%d): %v", campaignID, attempt, collectRetries, err)
		if err := sleep(ctx, collectRetryDelay); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("campaign %s collection failed: %w", campaignID, lastErr)
}

// pairedCycle handles a fronter/closer server. Closer contact counts
// are the transfers; the transfer rate stands in for conversion.
func (b *Balancer) pairedCycle(ctx context.Context) error {
	fronterCampaign := b.server.FronterCampaign
	closerCampaign := b.server.CloserCampaign
	b.logger.Infof("processing fronter %s / closer %s", fronterCampaign, closerCampaign)

	if _, err := b.refreshStrategy(ctx, fronterCampaign); err != nil {
		b.logger.Warnf("strategy refresh failed: %v", err)
	}

	fronter, err := b.collectCampaign(ctx, fronterCampaign, AgentFronters)
	if err != nil {
		return err
	}
	if fronter == nil {
		return nil // agent floor not met
	}

	closer, err := b.collectCampaign(ctx, closerCampaign, AgentClosers)
	if err != nil {
		return err
	}
	if closer == nil {
		return nil
	}

	now := time.Now()
	combined := make(map[string]*CombinedMetrics, len(fronter)+len(closer))

	for _, listID := range unionKeys(fronter, closer) {
		f := fronter[listID]
		cl := closer[listID]

		name := ""
		if f != nil {
			name = f.ListName
		} else if cl != nil {
			name = cl.ListName
		}
		if b.manager.ShouldIgnore(listID, name) {
			continue
		}

		if f == nil {
			f = &ListMetrics{ListID: listID}
		}
		if cl == nil {
			cl = &ListMetrics{ListID: listID}
		}

		transferRate := 0.0
		if f.Contacts > 0 {
			transferRate = float64(cl.Contacts) / float64(f.Contacts) * 100
		}

		// Rotated-out lists keep their last known active lead count so
		// a drained list is not mistaken for a fresh one.
		leadCount := f.LeadCount
		hasLeads := f.HasLeads
		if !f.IsActive {
			if n, ok := b.history.LastActiveLeadCount(listID); ok {
				leadCount = n
				hasLeads = n > 0
			}
		}

		cm := &CombinedMetrics{
			ListMetrics: ListMetrics{
				ListID:               listID,
				ListName:             name,
				LeadCount:            leadCount,
				HasLeads:             hasLeads,
				ContactRate:          f.ContactRate,
				Contacts:             f.Contacts,
				Conversion:           transferRate,
				IsActive:             f.IsActive || cl.IsActive,
				DialablesUnavailable: f.DialablesUnavailable,
				ResetToday:           f.ResetToday,
				LastReset:            f.LastReset,
				Timestamp:            now,
			},
			FronterContacts: f.Contacts,
			Transfers:       cl.Contacts,
			TransferRate:    transferRate,
			IsActiveFronter: f.IsActive,
			IsActiveCloser:  cl.IsActive,
			InFronter:       fronter[listID] != nil,
			InCloser:        closer[listID] != nil,
		}

		b.history.ObserveDashboard(&cm.ListMetrics, now)
		if cm.IsActiveFronter {
			b.applyStagnation(&cm.ListMetrics, transferRate, now)
			cm.HasLeads = cm.ListMetrics.HasLeads
			cm.LeadCount = cm.ListMetrics.LeadCount
		}

		combined[listID] = cm
		if err := b.metricsLog.Append(b.server.Type, listID, "combined", cm, now); err != nil {
			b.logger.Warnf("failed to log combined metrics: %v", err)
		}
	}

	cat := b.analyzer.CategorizePaired(combined)
	b.publishBuckets(cat)

	names := make(map[string]string, len(combined))
	active := make(map[string]bool, len(combined))
	for id, m := range combined {
		names[id] = m.ListName
		active[id] = m.IsActive
	}

	verify := func(listID string) bool {
		return b.analyzer.VerifyPaired(listID, fronter[listID], closer[listID])
	}
	return b.processChanges(ctx, fronterCampaign, cat.LowConversion, cat.HighConversion, cat.LowContact, names, active, verify)
}

// processChanges swaps out each flagged list for the best available
// replacement. Failed candidates are returned to their pools.
func (b *Balancer) processChanges(ctx context.Context, campaignID string, toReplace, highConv, lowContact []string, names map[string]string, active map[string]bool, verify func(string) bool) error {
	if len(toReplace) == 0 {
		b.logger.Info("no lists to change this cycle")
		return nil
	}

	b.logger.Infof("lists to replace: %v (high-conv pool %v, low-contact pool %v)", toReplace, highConv, lowContact)
	b.manager.MarkFailed(toReplace...)

	for _, removeID := range toReplace {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		newID, ok := b.manager.PickReplacement(highConv, lowContact, names, active, verify)
		if !ok {
			b.logger.Infof("no valid replacement available for %s", removeID)
			continue
		}

		err := b.client.ChangeList(ctx, campaignID, removeID, newID)
		result := ChangeResult{
			Campaign:  campaignID,
			OldListID: removeID,
			NewListID: newID,
			Succeeded: err == nil,
			Timestamp: time.Now(),
		}
		if err != nil {
			result.Reason = err.Error()
		}
		if b.metrics != nil {
			b.metrics.RecordListChange(b.serverID, err == nil)
		}
		if b.recorder != nil {
			if rerr := b.recorder.RecordChange(result); rerr != nil {
				b.logger.Warnf("failed to record list change: %v", rerr)
			}
		}

		if err != nil {
			b.logger.Errorf("list change %s -> %s failed: %v", removeID, newID, err)
			b.manager.HandleFailedChange(newID, &highConv, &lowContact)
			continue
		}

		b.logger.Infof("swapped list %s for %s", removeID, newID)
		b.manager.MarkUsed(newID, removeID)
		active[newID] = true
		active[removeID] = false
	}
	return nil
}

func (b *Balancer) publishBuckets(cat *Categorized) {
	if b.metrics == nil {
		return
	}
	b.metrics.SetBucket(b.serverID, "keep", len(cat.Keep))
	b.metrics.SetBucket(b.serverID, "low_conversion", len(cat.LowConversion))
	b.metrics.SetBucket(b.serverID, "low_contact", len(cat.LowContact))
	b.metrics.SetBucket(b.serverID, "high_conversion", len(cat.HighConversion))
}

func unionKeys(a, b map[string]*ListMetrics) []string {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	return keys
}
