package content

import (
	"strings"
	"time"

	"github.com/covergrid/pulse/internal/core"
)

// Sheet cells are free-form, so several calendar layouts are accepted.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"02 Jan 2006",
	"January 2, 2006",
}

// ParseDate parses a publish-date cell. The second return value is
// false when the cell is empty or no layout matches.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DeriveStatus classifies a content item by its publish date: absent
// or unparsable dates are drafts, dates on or before now are
// published, future dates are scheduled.
func DeriveStatus(publishDate string, now time.Time) core.Status {
	t, ok := ParseDate(publishDate)
	if !ok {
		return core.StatusDraft
	}
	if t.After(now) {
		return core.StatusScheduled
	}
	return core.StatusPublished
}
