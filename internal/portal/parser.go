// internal/portal/parser.go
package portal

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/osdlabs/chromepuppet/internal/utils"
)

const (
	dashboardTableSelector = "div#list-performance-table"
	strategyRowSelector    = "tr.lead-list-item"
	agentsTableSelector    = "table#online-agents-table"

	resetTimeLayout = "2006-01-02 15:04:05"
)

// ParseDashboard extracts per-list performance rows from the monitoring
// page HTML. Rows without a numeric list id or with too few cells are
// skipped.
func ParseDashboard(html string, now time.Time) ([]*ListMetrics, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard page: %w", err)
	}

	table := doc.Find(dashboardTableSelector + " table")
	if table.Length() == 0 {
		return nil, fmt.Errorf("list performance table not found")
	}

	var metrics []*ListMetrics
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 8 {
			return
		}

		listID := dashboardListID(cells.Eq(0))
		if listID == "" {
			return
		}

		m := &ListMetrics{
			ListID:    listID,
			IsActive:  row.HasClass("bg-active"),
			Timestamp: now,
		}

		leads := strings.TrimSpace(cells.Eq(1).Text())
		if utils.IsNA(leads) {
			m.DialablesUnavailable = true
		} else if n, err := utils.ParseCount(leads); err == nil {
			m.LeadCount = n
		}
		m.HasLeads = m.LeadCount > 0

		if v, err := utils.ParsePercent(cells.Eq(2).Text()); err == nil {
			m.ContactRate = v
		}
		if n, err := utils.ParseCount(cells.Eq(3).Text()); err == nil {
			m.Contacts = n
		}
		if n, err := utils.ParseCount(cells.Eq(5).Text()); err == nil {
			m.Sales = n
		}
		if v, err := utils.ParsePercent(cells.Eq(7).Text()); err == nil {
			m.Conversion = v
		}

		metrics = append(metrics, m)
	})

	return metrics, nil
}

// dashboardListID pulls the list id out of the first cell: the first
// whitespace token of the row's anchor text, digits only.
func dashboardListID(cell *goquery.Selection) string {
	text := strings.TrimSpace(cell.Find("a").First().Text())
	if text == "" {
		return ""
	}

	token := strings.Fields(text)
	if len(token) == 0 {
		return ""
	}
	id := token[0]
	for _, r := range id {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return id
}

// ParseStrategy extracts the active blend rows from the dialing
// strategy page HTML. Presence on this page means the list is part of
// the running strategy.
func ParseStrategy(html string, now time.Time) ([]*StrategyRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse strategy page: %w", err)
	}

	var rows []*StrategyRow
	doc.Find(strategyRowSelector).Each(func(_ int, row *goquery.Selection) {
		id := hiddenValue(row, "input.lead-list-id")
		if id == "" {
			return
		}

		r := &StrategyRow{
			ListID:       id,
			ListName:     hiddenValue(row, "input.lead-list-name"),
			LastReset:    hiddenValue(row, "input.lead-list-reset-time"),
			PercentBlend: hiddenValue(row, "input.lead-list-dialing-percentage"),
			Priority:     hiddenValue(row, "input[name*='priority']"),
			MixName:      hiddenValue(row, "input.list-mix-name"),
			MixMethod:    strings.TrimSpace(row.Find("select.list-mix-mixing-method option[selected]").First().Text()),
			Timestamp:    now,
		}

		if n, err := utils.ParseCount(hiddenValue(row, "input.lead-list-dialable-lead-count")); err == nil {
			r.Dialables = n
		}
		if n, err := utils.ParseCount(hiddenValue(row, "input.lead-list-reset-times")); err == nil {
			r.Resets = n
		}
		if t, err := time.Parse(resetTimeLayout, r.LastReset); err == nil {
			y1, m1, d1 := t.Date()
			y2, m2, d2 := now.Date()
			r.ResetToday = y1 == y2 && m1 == m2 && d1 == d2
		}

		rows = append(rows, r)
	})

	return rows, nil
}

func hiddenValue(row *goquery.Selection, selector string) string {
	v, _ := row.Find(selector).First().Attr("value")
	return strings.TrimSpace(v)
}

// ParseAgents reads the online agents table. It returns the agent
// names in row order and whether the "no online agents" notice is
// shown instead.
func ParseAgents(html string) (names []string, noAgents bool, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse agents page: %w", err)
	}

	table := doc.Find(agentsTableSelector)
	if table.Length() == 0 {
		return nil, false, fmt.Errorf("online agents table not found")
	}

	notice := false
	doc.Find("div.alert-info strong").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(s.Text(), "Information!") {
			notice = true
			return false
		}
		return true
	})
	if notice {
		return nil, true, nil
	}

	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		name := strings.TrimSpace(row.Find("td").First().Text())
		if name != "" {
			names = append(names, name)
		}
	})

	return names, false, nil
}
