// internal/portal/agents.go
package portal

import (
	"context"
	"strings"
	"time"

	"github.com/osdlabs/chromepuppet/internal/config"
	"github.com/osdlabs/chromepuppet/internal/utils"
)

const agentRetries = 3

// AgentSource provides the online agents table of the currently
// selected campaign.
type AgentSource interface {
	OnlineAgents(ctx context.Context) (names []string, noAgents bool, err error)
}

// DefaultMinAgents is how many agents of each kind must be online
// before a cycle is allowed to act on the campaign.
func DefaultMinAgents() map[AgentType]int {
	return map[AgentType]int{
		AgentFronters: 2,
		AgentClosers:  1,
		AgentAny:      1,
	}
}

// AgentVerifier checks the online agents table before any list work
// happens, so swaps never run against an idle floor.
type AgentVerifier struct {
	servers   map[string]*config.ServerConfig
	minAgents map[AgentType]int
	logger    utils.Logger
}

// NewAgentVerifier builds a verifier over the server registry.
func NewAgentVerifier(servers map[string]*config.ServerConfig, minAgents map[AgentType]int, logger utils.Logger) *AgentVerifier {
	if minAgents == nil {
		minAgents = DefaultMinAgents()
	}
	if logger == nil {
		logger = utils.NewLogger()
	}
	return &AgentVerifier{servers: servers, minAgents: minAgents, logger: logger}
}

// SetMinimum overrides the floor for one agent type.
func (v *AgentVerifier) SetMinimum(agentType AgentType, n int) {
	v.minAgents[agentType] = n
}

// prefixesFor resolves the name prefixes that identify agents of the
// given type on a campaign. Server-level prefixes are consulted first;
// an unknown campaign yields nothing.
func (v *AgentVerifier) prefixesFor(campaignID string, agentType AgentType) []string {
	for _, sc := range v.servers {
		if sc.FronterCampaign != campaignID && sc.CloserCampaign != campaignID && sc.Campaign != campaignID {
			continue
		}
		switch agentType {
		case AgentFronters:
			if len(sc.FronterPrefixes) > 0 {
				return sc.FronterPrefixes
			}
		case AgentClosers:
			if len(sc.CloserPrefixes) > 0 {
				return sc.CloserPrefixes
			}
		}
		return sc.AgentPrefixes
	}
	return nil
}

// Verify reports whether enough agents of the given type are online on
// the currently selected campaign. Scrape errors are retried a few
// times before giving up.
func (v *AgentVerifier) Verify(ctx context.Context, client AgentSource, campaignID string, agentType AgentType) (bool, error) {
	var lastErr error
	for attempt := 1; attempt <= agentRetries; attempt++ {
		names, noAgents, err := client.OnlineAgents(ctx)
		if err != nil {
			lastErr = err
			v.logger.Errorf("agent check attempt %d/%d failed: %v", attempt, agentRetries, err)
			if err := sleep(ctx, selectionDelay); err != nil {
				return false, err
			}
			continue
		}

		if noAgents {
			v.logger.Info("no online agents message shown")
			return false, nil
		}
		if len(names) == 0 {
			v.logger.Info("no agents found in the table")
			return false, nil
		}

		return v.evaluate(campaignID, agentType, names), nil
	}
	return false, lastErr
}

// evaluate applies the prefix and minimum rules to a set of names.
func (v *AgentVerifier) evaluate(campaignID string, agentType AgentType, names []string) bool {
	min := v.minAgents[agentType]
	if min == 0 {
		min = 1
	}

	if agentType == AgentAny {
		v.logger.Infof("found %d agents on campaign %s (minimum %d)", len(names), campaignID, min)
		return len(names) >= min
	}

	prefixes := v.prefixesFor(campaignID, agentType)
	if len(prefixes) == 0 {
		v.logger.Warnf("no %s prefixes configured for campaign %s", agentType, campaignID)
		return false
	}

	valid := filterByPrefix(names, prefixes)
	v.logger.Infof("found %d valid %s agents on campaign %s (minimum %d): %s",
		len(valid), agentType, campaignID, min, strings.Join(valid, ", "))
	return len(valid) >= min
}

// Count returns how many agents of the given type are online.
func (v *AgentVerifier) Count(ctx context.Context, client AgentSource, campaignID string, agentType AgentType) (int, error) {
	names, err := v.Names(ctx, client, campaignID, agentType)
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

// Names returns the online agent names matching the given type.
func (v *AgentVerifier) Names(ctx context.Context, client AgentSource, campaignID string, agentType AgentType) ([]string, error) {
	names, noAgents, err := client.OnlineAgents(ctx)
	if err != nil || noAgents {
		return nil, err
	}
	if agentType == AgentAny {
		return names, nil
	}
	return filterByPrefix(names, v.prefixesFor(campaignID, agentType)), nil
}

func filterByPrefix(names, prefixes []string) []string {
	var out []string
	for _, name := range names {
		for _, p := range prefixes {
			if strings.HasPrefix(name, p) {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

// WaitDelay is how long a cycle backs off when the floor is empty.
const WaitDelay = time.Minute
