// internal/portal/agents_test.go
package portal

import (
	"testing"

	"github.com/osdlabs/chromepuppet/internal/config"
)

func newTestVerifier() *AgentVerifier {
	return NewAgentVerifier(config.DefaultServers(), nil, nil)
}

func TestPrefixesFor(t *testing.T) {
	v := newTestVerifier()

	tests := []struct {
		campaign  string
		agentType AgentType
		want      []string
	}{
		{"220", AgentFronters, []string{"MEBS", "ABS"}},
		{"210", AgentClosers, []string{"BB", "NJ"}},
		{"920", AgentFronters, []string{"MEBS", "ABS", "RC"}},
		{"900", AgentClosers, []string{"BB"}},
		{"1600", AgentFronters, nil},
		{"unknown", AgentFronters, nil},
	}

	for _, tt := range tests {
		got := v.prefixesFor(tt.campaign, tt.agentType)
		if !equalStrings(got, tt.want) {
			t.Errorf("prefixesFor(%q, %s) = %v, want %v", tt.campaign, tt.agentType, got, tt.want)
		}
	}
}

func TestEvaluateAny(t *testing.T) {
	v := newTestVerifier()

	if !v.evaluate("1600", AgentAny, []string{"I10 Agent"}) {
		t.Error("one agent should satisfy the ANY floor")
	}
	if v.evaluate("1600", AgentAny, nil) {
		t.Error("empty floor should fail")
	}
}

func TestEvaluateFronters(t *testing.T) {
	v := newTestVerifier()

	names := []string{"MEBS Laura C", "ABS Devon R", "BB Marcus T"}
	if !v.evaluate("220", AgentFronters, names) {
		t.Error("two fronter-prefixed agents should satisfy the floor of 2")
	}

	if v.evaluate("220", AgentFronters, []string{"MEBS Laura C", "BB Marcus T"}) {
		t.Error("one fronter agent should not satisfy the floor of 2")
	}
}

func TestEvaluateClosers(t *testing.T) {
	v := newTestVerifier()

	if !v.evaluate("210", AgentClosers, []string{"NJ Priya S"}) {
		t.Error("one closer agent should satisfy the floor of 1")
	}
	if v.evaluate("210", AgentClosers, []string{"MEBS Laura C"}) {
		t.Error("fronter-only names should fail the closer check")
	}
}

func TestEvaluateNoPrefixes(t *testing.T) {
	v := newTestVerifier()
	if v.evaluate("unknown", AgentFronters, []string{"MEBS Laura C", "ABS Devon R"}) {
		t.Error("unknown campaign has no prefixes and must fail")
	}
}

func TestSetMinimum(t *testing.T) {
	v := newTestVerifier()
	v.SetMinimum(AgentFronters, 1)

	if !v.evaluate("220", AgentFronters, []string{"MEBS Laura C"}) {
		t.Error("lowered floor should accept a single fronter")
	}
}

func TestFilterByPrefix(t *testing.T) {
	got := filterByPrefix(
		[]string{"MEBS Laura C", "ABS Devon R", "BB Marcus T", "RC Jamie L"},
		[]string{"MEBS", "RC"},
	)
	want := []string{"MEBS Laura C", "RC Jamie L"}
	if !equalStrings(got, want) {
		t.Errorf("filterByPrefix = %v, want %v", got, want)
	}
}
