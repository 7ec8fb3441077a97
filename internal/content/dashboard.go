package content

import (
	"strconv"
	"strings"
	"time"

	"github.com/covergrid/pulse/internal/core"
)

// Demo numbers shown when the sheet carries no matching column.
const (
	demoImpressions = 12500
	demoClicks      = 860
	demoLeads       = 42
	demoConversions = 9
)

// Numeric dashboard columns matched by normalized header name.
var metricHeaders = map[string][]string{
	"impressions": {"impressions", "views", "reach"},
	"clicks":      {"clicks", "engagements", "interactions"},
	"leads":       {"leads", "enquiries", "inquiries", "quotes"},
	"conversions": {"conversions", "sales", "policies", "closedwon"},
}

// Metrics computes the dashboard headline numbers: status counts come
// from the mapped articles, performance counters are summed from
// whichever table columns match a known metric header. A demo default
// is substituted per counter when its column is absent, and the result
// is flagged as demo data if any substitution happened.
func Metrics(bundle core.ContentBundle, perfTable [][]string, now time.Time) core.DashboardMetrics {
	m := core.DashboardMetrics{
		TotalArticles: len(bundle.Articles),
		RefreshedAt:   now,
	}

	for _, a := range bundle.Articles {
		switch a.Status {
		case core.StatusPublished:
			m.Published++
		case core.StatusScheduled:
			m.Scheduled++
		default:
			m.Drafts++
		}
	}

	sums := sumMetricColumns(perfTable)

	var impressionsOK, clicksOK, leadsOK, conversionsOK bool
	m.Impressions, impressionsOK = sums["impressions"]
	m.Clicks, clicksOK = sums["clicks"]
	m.Leads, leadsOK = sums["leads"]
	m.Conversions, conversionsOK = sums["conversions"]

	if !impressionsOK {
		m.Impressions = demoImpressions
		m.Demo = true
	}
	if !clicksOK {
		m.Clicks = demoClicks
		m.Demo = true
	}
	if !leadsOK {
		m.Leads = demoLeads
		m.Demo = true
	}
	if !conversionsOK {
		m.Conversions = demoConversions
		m.Demo = true
	}

	return m
}

// sumMetricColumns assigns table columns to metrics by header name and
// sums each matched column over all data rows.
func sumMetricColumns(values [][]string) map[string]int64 {
	sums := make(map[string]int64)
	if len(values) < 2 {
		return sums
	}

	cols := make(map[int]string)
	for col, cell := range values[0] {
		norm := normalizeHeader(cell)
		for metric, synonyms := range metricHeaders {
			for _, syn := range synonyms {
				if norm == syn {
					cols[col] = metric
				}
			}
		}
	}
	if len(cols) == 0 {
		return sums
	}

	for col, metric := range cols {
		// Mark matched columns even if every cell is blank.
		if _, ok := sums[metric]; !ok {
			sums[metric] = 0
		}
		for _, row := range values[1:] {
			if col >= len(row) {
				continue
			}
			if n, ok := parseCellNumber(row[col]); ok {
				sums[metric] += n
			}
		}
	}
	return sums
}

// parseCellNumber reads a sheet cell as an integer, tolerating
// thousands separators and trailing percent signs.
func parseCellNumber(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f), true
	}
	return 0, false
}
