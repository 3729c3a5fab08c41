// internal/portal/types.go
package portal

import (
	"time"
)

// AgentType selects which kind of online agents a check requires.
type AgentType string

const (
	// AgentAny matches any logged-in agent. Used by single-queue servers.
	AgentAny AgentType = "ANY"
	// AgentFronters matches agents opening calls on the fronter campaign.
	AgentFronters AgentType = "FRONTERS"
	// AgentClosers matches agents taking transfers on the closer campaign.
	AgentClosers AgentType = "CLOSERS"
)

// ListMetrics is one dialing list's performance snapshot taken from the
// monitoring dashboard.
type ListMetrics struct {
	ListID      string  `json:"list_id"`
	ListName    string  `json:"list_name,omitempty"`
	LeadCount   int     `json:"lead_count"`
	HasLeads    bool    `json:"has_leads"`
	ContactRate float64 `json:"contact_rate"`
	Contacts    int     `json:"contact_count"`
	Sales       int     `json:"sales_count"`
	Conversion  float64 `json:"conversion_rate"`
	IsActive    bool    `json:"is_active"`

	// DialablesUnavailable marks rows whose lead counter showed N/A;
	// the count is then backfilled from history when possible.
	DialablesUnavailable bool `json:"dialables_unavailable,omitempty"`

	// NeedsReset marks a stagnant list that still converts well enough
	// that a reset is preferable to replacement.
	NeedsReset bool `json:"needs_reset,omitempty"`

	// Strategy-side fields, populated after merging in strategy data.
	PercentBlend string    `json:"percent_blend,omitempty"`
	Resets       int       `json:"resets,omitempty"`
	LastReset    string    `json:"last_reset,omitempty"`
	ResetToday   bool      `json:"reset_today,omitempty"`
	Priority     string    `json:"priority,omitempty"`
	MixName      string    `json:"mix_name,omitempty"`
	MixMethod    string    `json:"mix_method,omitempty"`

	Timestamp         time.Time  `json:"timestamp"`
	StrategyTimestamp *time.Time `json:"strategy_timestamp,omitempty"`
	MergeTimestamp    *time.Time `json:"merge_timestamp,omitempty"`
}

// StrategyRow is one list's entry on the dialing strategy page. Every
// list present there is part of the active blend.
type StrategyRow struct {
	ListID       string    `json:"list_id"`
	ListName     string    `json:"list_name"`
	Dialables    int       `json:"dialable_count"`
	Resets       int       `json:"resets"`
	LastReset    string    `json:"last_reset,omitempty"`
	ResetToday   bool      `json:"reset_today"`
	PercentBlend string    `json:"percent_blend,omitempty"`
	Priority     string    `json:"priority,omitempty"`
	MixName      string    `json:"mix_name,omitempty"`
	MixMethod    string    `json:"mix_method,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// CombinedMetrics joins a list's fronter and closer campaign numbers on
// two-stage servers. The transfer rate replaces the dashboard
// conversion as the quality signal.
type CombinedMetrics struct {
	ListMetrics

	FronterContacts int     `json:"fronter_contacts"`
	Transfers       int     `json:"transfers"`
	TransferRate    float64 `json:"transfer_rate"`
	IsActiveFronter bool    `json:"is_active_fronter"`
	IsActiveCloser  bool    `json:"is_active_closer"`
	InFronter       bool    `json:"in_fronter"`
	InCloser        bool    `json:"in_closer"`
}

// Categorized buckets the lists of one cycle by what should happen to
// them next.
type Categorized struct {
	Keep           []string `json:"keep"`
	LowConversion  []string `json:"low_conversion"`
	LowContact     []string `json:"low_contact"`
	HighConversion []string `json:"high_conversion"`
}

// ChangeResult records the outcome of one list replacement attempt.
type ChangeResult struct {
	Campaign  string    `json:"campaign"`
	OldListID string    `json:"old_list_id"`
	NewListID string    `json:"new_list_id"`
	Succeeded bool      `json:"succeeded"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
