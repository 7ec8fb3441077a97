package content

import (
	"fmt"
	"strings"
	"time"

	"github.com/covergrid/pulse/internal/core"
)

// Field synonyms matched against normalized header names. A first row
// matching at least two of these is treated as a header row.
var knownHeaders = map[string][]string{
	"id":          {"id", "articleid", "ref", "reference"},
	"title":       {"title", "headline", "subject", "name"},
	"category":    {"category", "topic", "type", "segment"},
	"author":      {"author", "writer", "owner", "createdby"},
	"summary":     {"summary", "description", "excerpt", "teaser"},
	"body":        {"body", "content", "text"},
	"image":       {"image", "imageurl", "img", "thumbnail", "photo"},
	"publishdate": {"publishdate", "date", "publishedat", "publishon", "golive"},
	"time":        {"time", "posttime", "slot"},
	"channel":     {"channel", "platform", "medium", "network"},
	"notes":       {"notes", "comment", "comments", "remarks"},
	"customer":    {"customer", "client", "insured", "policyholder"},
	"quote":       {"quote", "testimonial"},
	"product":     {"product", "policy", "line", "coverage"},
	"region":      {"region", "state", "territory", "area"},
	"email":       {"email", "mail", "login", "username"},
	"password":    {"password", "pass", "pwd"},
	"role":        {"role", "access", "permission"},
}

// normalizeHeader lowercases a header cell and strips separators so
// "Publish Date", "publish_date" and "PublishDate" all match.
func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, sep := range []string{" ", "_", "-", ".", "/"} {
		s = strings.ReplaceAll(s, sep, "")
	}
	return s
}

// table wraps a 2-D cell array with optional header-name resolution.
type table struct {
	index map[string]int
	rows  [][]string
}

// newTable detects a header row and builds the column index. With no
// header row, lookups fall back to column position.
func newTable(values [][]string) *table {
	if len(values) == 0 {
		return &table{rows: nil}
	}

	matches := 0
	index := make(map[string]int)
	for col, cell := range values[0] {
		norm := normalizeHeader(cell)
		for field, synonyms := range knownHeaders {
			for _, syn := range synonyms {
				if norm == syn {
					if _, taken := index[field]; !taken {
						index[field] = col
						matches++
					}
				}
			}
		}
	}

	if matches >= 2 {
		return &table{index: index, rows: values[1:]}
	}
	return &table{rows: values}
}

func (t *table) len() int {
	return len(t.rows)
}

// cell returns a trimmed cell by field name, falling back to the
// positional column when no header row was detected. Missing cells
// and whitespace-only cells both read as empty.
func (t *table) cell(row int, field string, pos int) string {
	col := pos
	if t.index != nil {
		c, ok := t.index[field]
		if !ok {
			return ""
		}
		col = c
	}
	if row >= len(t.rows) || col < 0 || col >= len(t.rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.rows[row][col])
}

// orDefault substitutes the fallback whenever the source cell is empty.
func orDefault(val, fallback string) string {
	if val == "" {
		return fallback
	}
	return val
}

// Articles maps sheet rows to articles, deriving each status from the
// publish date. Output preserves row order.
func Articles(values [][]string, now time.Time) []core.Article {
	t := newTable(values)
	articles := make([]core.Article, 0, t.len())
	for i := 0; i < t.len(); i++ {
		publishDate := t.cell(i, "publishdate", 7)
		articles = append(articles, core.Article{
			ID:          orDefault(t.cell(i, "id", 0), fmt.Sprintf("article-%d", i+1)),
			Title:       orDefault(t.cell(i, "title", 1), "Untitled"),
			Category:    orDefault(t.cell(i, "category", 2), "General"),
			Author:      orDefault(t.cell(i, "author", 3), "Marketing Team"),
			Summary:     t.cell(i, "summary", 4),
			Body:        t.cell(i, "body", 5),
			ImageURL:    t.cell(i, "image", 6),
			PublishDate: publishDate,
			Status:      DeriveStatus(publishDate, now),
		})
	}
	return articles
}

// Schedule maps posting-schedule rows. The slot date drives the status.
func Schedule(values [][]string, now time.Time) []core.ScheduleItem {
	t := newTable(values)
	items := make([]core.ScheduleItem, 0, t.len())
	for i := 0; i < t.len(); i++ {
		date := t.cell(i, "publishdate", 1)
		items = append(items, core.ScheduleItem{
			ID:      orDefault(t.cell(i, "id", 0), fmt.Sprintf("schedule-%d", i+1)),
			Date:    date,
			Time:    t.cell(i, "time", 2),
			Channel: orDefault(t.cell(i, "channel", 3), "Website"),
			Title:   orDefault(t.cell(i, "title", 4), "Untitled"),
			Owner:   t.cell(i, "author", 5),
			Notes:   t.cell(i, "notes", 6),
			Status:  DeriveStatus(date, now),
		})
	}
	return items
}

// Stories maps success-story rows.
func Stories(values [][]string, now time.Time) []core.Story {
	t := newTable(values)
	stories := make([]core.Story, 0, t.len())
	for i := 0; i < t.len(); i++ {
		publishDate := t.cell(i, "publishdate", 6)
		stories = append(stories, core.Story{
			ID:          orDefault(t.cell(i, "id", 0), fmt.Sprintf("story-%d", i+1)),
			Customer:    orDefault(t.cell(i, "customer", 1), "Anonymous"),
			Headline:    orDefault(t.cell(i, "title", 2), "Customer story"),
			Quote:       t.cell(i, "quote", 3),
			Product:     t.cell(i, "product", 4),
			Region:      t.cell(i, "region", 5),
			PublishDate: publishDate,
			Status:      DeriveStatus(publishDate, now),
		})
	}
	return stories
}

// Users maps Users-sheet rows to accounts. Rows without an email are
// skipped rather than defaulted; there is nothing useful to log in with.
func Users(values [][]string) []core.User {
	t := newTable(values)
	users := make([]core.User, 0, t.len())
	for i := 0; i < t.len(); i++ {
		email := t.cell(i, "email", 0)
		if email == "" {
			continue
		}
		users = append(users, core.User{
			Email:    strings.ToLower(email),
			Password: t.cell(i, "password", 1),
			Name:     orDefault(t.cell(i, "title", 2), email),
			Role:     orDefault(t.cell(i, "role", 3), "viewer"),
		})
	}
	return users
}
