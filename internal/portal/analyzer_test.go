// internal/portal/analyzer_test.go
package portal

import (
	"sort"
	"testing"

	"github.com/osdlabs/chromepuppet/internal/config"
)

func newTestAnalyzer(serverType string) *Analyzer {
	return NewAnalyzer(config.DefaultThresholds(serverType), serverType, nil)
}

func TestVerifySingle(t *testing.T) {
	a := newTestAnalyzer(config.ServerTypeOSD)

	tests := []struct {
		name string
		m    *ListMetrics
		want bool
	}{
		{"unknown list", nil, true},
		{"active without leads", &ListMetrics{IsActive: true, HasLeads: false}, false},
		{"proven good conversion", &ListMetrics{Contacts: 600, Conversion: 0.5}, true},
		{"proven poor conversion", &ListMetrics{Contacts: 600, Conversion: 0.1}, false},
		{"healthy contact rate, not enough data", &ListMetrics{Contacts: 150, ContactRate: 9.0}, true},
		{"inactive, nothing proven", &ListMetrics{Contacts: 50}, true},
		{"active with leads, little data", &ListMetrics{IsActive: true, HasLeads: true, Contacts: 10}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.VerifySingle("4417", tt.m); got != tt.want {
				t.Errorf("VerifySingle(%+v) = %v, want %v", tt.m, got, tt.want)
			}
		})
	}
}

func TestVerifyPaired(t *testing.T) {
	a := newTestAnalyzer(config.ServerTypeGMB)

	tests := []struct {
		name    string
		fronter *ListMetrics
		closer  *ListMetrics
		want    bool
	}{
		{"unknown both sides", nil, nil, true},
		{
			"active without leads",
			&ListMetrics{IsActive: true, HasLeads: false},
			&ListMetrics{},
			false,
		},
		{
			// 5 transfers on 500 contacts = 1.0% transfer rate
			"good transfer rate",
			&ListMetrics{Contacts: 500, HasLeads: true, IsActive: true},
			&ListMetrics{Contacts: 5},
			true,
		},
		{
			// 1 transfer on 500 contacts = 0.2%, below the 0.5 floor
			"poor transfer rate",
			&ListMetrics{Contacts: 500, HasLeads: true, IsActive: true},
			&ListMetrics{Contacts: 1},
			false,
		},
		{
			"good contact rate pending transfers",
			&ListMetrics{Contacts: 100, ContactRate: 12.0, HasLeads: true, IsActive: true},
			&ListMetrics{},
			true,
		},
		{
			"inactive unproven",
			&ListMetrics{Contacts: 20},
			&ListMetrics{},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.VerifyPaired("4417", tt.fronter, tt.closer); got != tt.want {
				t.Errorf("VerifyPaired = %v, want %v", got, tt.want)
			}
		})
	}
}

func sorted(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

func TestCategorizeSingle(t *testing.T) {
	a := newTestAnalyzer(config.ServerTypeOSD)

	metrics := map[string]*ListMetrics{
		// Active, converting above 0.20 floor.
		"1": {IsActive: true, HasLeads: true, Contacts: 600, Conversion: 0.8},
		// Active, enough contacts, poor conversion.
		"2": {IsActive: true, HasLeads: true, Contacts: 600, Conversion: 0.05},
		// Active, mid data, poor contact rate.
		"3": {IsActive: true, HasLeads: true, Contacts: 150, Conversion: 0.0, ContactRate: 2.0},
		// Active, mid data, good contact rate.
		"4": {IsActive: true, HasLeads: true, Contacts: 150, Conversion: 0.0, ContactRate: 9.5},
		// Active but drained.
		"5": {IsActive: true, HasLeads: false},
		// Active, drained but flagged for reset: leave alone.
		"6": {IsActive: true, HasLeads: false, NeedsReset: true},
		// Inactive with proven conversion.
		"7": {IsActive: false, HasLeads: true, Contacts: 600, Conversion: 0.9},
		// Inactive, little data.
		"8": {IsActive: false, HasLeads: true, Contacts: 10},
		// Inactive without leads: ignored entirely.
		"9": {IsActive: false, HasLeads: false},
	}

	cat := a.CategorizeSingle(metrics)

	if got, want := sorted(cat.Keep), []string{"1", "4"}; !equalStrings(got, want) {
		t.Errorf("Keep = %v, want %v", got, want)
	}
	if got, want := sorted(cat.LowConversion), []string{"2", "5"}; !equalStrings(got, want) {
		t.Errorf("LowConversion = %v, want %v", got, want)
	}
	if got, want := sorted(cat.LowContact), []string{"3", "8"}; !equalStrings(got, want) {
		t.Errorf("LowContact = %v, want %v", got, want)
	}
	if got, want := sorted(cat.HighConversion), []string{"7"}; !equalStrings(got, want) {
		t.Errorf("HighConversion = %v, want %v", got, want)
	}
}

func TestCategorizePaired(t *testing.T) {
	a := newTestAnalyzer(config.ServerTypeGMB)

	metrics := map[string]*CombinedMetrics{
		// Active, poor transfer rate with enough contacts.
		"1": {
			ListMetrics:     ListMetrics{IsActive: true},
			FronterContacts: 500, TransferRate: 0.1,
		},
		// Active, healthy transfer rate.
		"2": {
			ListMetrics:     ListMetrics{IsActive: true},
			FronterContacts: 500, TransferRate: 1.2,
		},
		// Active, mid data, poor contact rate.
		"3": {
			ListMetrics:     ListMetrics{IsActive: true, ContactRate: 3.0},
			FronterContacts: 100,
		},
		// Active, not enough data yet.
		"4": {
			ListMetrics:     ListMetrics{IsActive: true},
			FronterContacts: 10,
		},
		// Inactive with a proven transfer rate.
		"5": {
			ListMetrics:     ListMetrics{},
			FronterContacts: 200, TransferRate: 0.9,
		},
		// Inactive, proven poor: skipped.
		"6": {
			ListMetrics:     ListMetrics{ContactRate: 15.0},
			FronterContacts: 450, TransferRate: 0.1,
		},
		// Inactive, mid data, good contact rate: worth retesting.
		"7": {
			ListMetrics:     ListMetrics{ContactRate: 15.0},
			FronterContacts: 100, TransferRate: 0.1,
		},
		// Inactive, barely any data.
		"8": {
			ListMetrics:     ListMetrics{},
			FronterContacts: 5,
		},
		// Inactive with no fronter history: invisible.
		"9": {ListMetrics: ListMetrics{}},
	}

	cat := a.CategorizePaired(metrics)

	if got, want := sorted(cat.LowConversion), []string{"1"}; !equalStrings(got, want) {
		t.Errorf("LowConversion = %v, want %v", got, want)
	}
	if got, want := sorted(cat.Keep), []string{"2", "4"}; !equalStrings(got, want) {
		t.Errorf("Keep = %v, want %v", got, want)
	}
	if got, want := sorted(cat.LowContact), []string{"3", "8"}; !equalStrings(got, want) {
		t.Errorf("LowContact = %v, want %v", got, want)
	}
	if got, want := sorted(cat.HighConversion), []string{"5", "7"}; !equalStrings(got, want) {
		t.Errorf("HighConversion = %v, want %v", got, want)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
