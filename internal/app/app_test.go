package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/covergrid/pulse/internal/archive"
	"github.com/covergrid/pulse/internal/config"
	"github.com/covergrid/pulse/internal/core"
	"github.com/covergrid/pulse/internal/notify"
	"go.uber.org/zap"
)

// fakeSheets serves canned ranges and can be flipped to failing.
type fakeSheets struct {
	mu       sync.Mutex
	ranges   map[string][][]string
	csv      [][]string
	err      error
	calls    int
	apiCalls int
}

func (f *fakeSheets) Values(ctx context.Context, rangeName string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.apiCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.ranges[rangeName], nil
}

func (f *fakeSheets) BatchValues(ctx context.Context, rangeNames []string) (map[string][][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.apiCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string][][]string, len(rangeNames))
	for _, name := range rangeNames {
		out[name] = f.ranges[name]
	}
	return out, nil
}

func (f *fakeSheets) FetchCSV(ctx context.Context, url string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.csv, nil
}

func (f *fakeSheets) setError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeSheets) apiCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.apiCalls
}

// fakeAlerter records sent events.
type fakeAlerter struct {
	mu     sync.Mutex
	events []notify.Event
}

func (f *fakeAlerter) Send(ctx context.Context, event notify.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeAlerter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Sheets.SpreadsheetID = "sheet-1"
	cfg.Auth.JWTSecret = "secret"
	return cfg
}

func contentSheets() *fakeSheets {
	return &fakeSheets{ranges: map[string][][]string{
		"Articles": {
			{"Title", "Author", "Category", "Publish Date"},
			{"Open enrollment", "Dana", "Health", "2026-01-01"},
			{"Storm prep", "Lee", "Home", "2199-01-01"},
		},
		"Schedule": {
			{"Date", "Time", "Channel", "Title"},
			{"2026-01-05", "09:00", "LinkedIn", "Tips"},
		},
		"Stories": {
			{"Customer", "Headline"},
			{"M. Alvarez", "Back on the road"},
		},
		"Users": {
			{"Email", "Password"},
			{"dana@covergrid.com", "pw"},
		},
	}}
}

func TestApp_RunOnce_PopulatesCache(t *testing.T) {
	a := New(testConfig(), contentSheets(), zap.NewNop())

	a.RunOnce(context.Background())

	snap, ok := a.Cache().Content()
	if !ok {
		t.Fatal("expected cached content after refresh")
	}
	if len(snap.Bundle.Articles) != 2 {
		t.Errorf("expected 2 articles, got %d", len(snap.Bundle.Articles))
	}
	if snap.Bundle.Articles[0].Status != core.StatusPublished {
		t.Errorf("expected published, got %s", snap.Bundle.Articles[0].Status)
	}
	if snap.Bundle.Articles[1].Status != core.StatusScheduled {
		t.Errorf("expected scheduled, got %s", snap.Bundle.Articles[1].Status)
	}

	users := a.Cache().Users()
	if len(users) != 1 || users[0].Email != "dana@covergrid.com" {
		t.Errorf("users sheet not cached: %v", users)
	}

	dash, ok := a.Dashboard()
	if !ok {
		t.Fatal("expected dashboard metrics")
	}
	if dash.TotalArticles != 2 || dash.Published != 1 || dash.Scheduled != 1 {
		t.Errorf("unexpected metrics: %+v", dash)
	}
}

func TestApp_RunOnce_FailureKeepsLastGoodCache(t *testing.T) {
	sheets := contentSheets()
	a := New(testConfig(), sheets, zap.NewNop())

	a.RunOnce(context.Background())
	sheets.setError(fmt.Errorf("upstream 503"))
	a.RunOnce(context.Background())

	snap, ok := a.Cache().Content()
	if !ok {
		t.Fatal("failed refresh must not clear the cache")
	}
	if len(snap.Bundle.Articles) != 2 {
		t.Errorf("cache content changed on failure: %+v", snap.Bundle)
	}

	health := a.Health()
	if health["status"] != "degraded" {
		t.Errorf("expected degraded health, got %v", health["status"])
	}
}

func TestApp_AlertAfterConsecutiveFailures(t *testing.T) {
	cfg := testConfig()
	cfg.Alerts.FailureThreshold = 2

	sheets := contentSheets()
	sheets.setError(fmt.Errorf("upstream 503"))

	alerter := &fakeAlerter{}
	a := New(cfg, sheets, zap.NewNop())
	a.SetAlerter(alerter)

	ctx := context.Background()
	a.RunOnce(ctx)
	if alerter.count() != 0 {
		t.Error("alert should not fire before the threshold")
	}
	a.RunOnce(ctx)
	if alerter.count() != 1 {
		t.Errorf("expected 1 alert at threshold, got %d", alerter.count())
	}
	a.RunOnce(ctx)
	if alerter.count() != 1 {
		t.Errorf("alert should fire once per outage, got %d", alerter.count())
	}

	// Recovery resets the failure counter so a new outage alerts again.
	sheets.setError(nil)
	a.RunOnce(ctx)
	sheets.setError(fmt.Errorf("upstream 503"))
	a.RunOnce(ctx)
	a.RunOnce(ctx)
	if alerter.count() != 2 {
		t.Errorf("expected alert on second outage, got %d", alerter.count())
	}
}

func TestApp_CSVOnlyMode(t *testing.T) {
	cfg := testConfig()
	cfg.Sheets.SpreadsheetID = ""
	cfg.Sheets.CSVExportURL = "https://example.com/pub?output=csv"

	sheets := &fakeSheets{csv: [][]string{
		{"Title", "Author", "Impressions", "Clicks"},
		{"Open enrollment", "Dana", "1200", "80"},
	}}

	a := New(cfg, sheets, zap.NewNop())
	a.RunOnce(context.Background())

	dash, ok := a.Dashboard()
	if !ok {
		t.Fatal("expected dashboard metrics")
	}
	if dash.Impressions != 1200 || dash.Clicks != 80 {
		t.Errorf("csv columns not picked up: %+v", dash)
	}
	if dash.Source != "csv" {
		t.Errorf("expected csv source, got %s", dash.Source)
	}
}

func TestApp_ArchiveRetention(t *testing.T) {
	cfg := testConfig()
	cfg.Archive.Enabled = true
	cfg.Archive.Keep = 1

	store, err := archive.NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}

	a := New(cfg, contentSheets(), zap.NewNop())
	a.SetArchive(store)

	ctx := context.Background()
	a.RunOnce(ctx)
	a.RunOnce(ctx)

	paths, err := archive.ListPaths(ctx, store)
	if err != nil {
		t.Fatalf("ListPaths: %v", err)
	}
	if len(paths) != 1 {
		t.Errorf("expected retention to keep 1 snapshot, got %d: %v", len(paths), paths)
	}
}

func TestApp_CSVOnlyMode_LiveReads(t *testing.T) {
	cfg := testConfig()
	cfg.Sheets.SpreadsheetID = ""
	cfg.Sheets.CSVExportURL = "https://example.com/pub?output=csv"

	sheets := &fakeSheets{csv: [][]string{
		{"Title", "Author", "Publish Date"},
		{"Open enrollment", "Dana", "2026-01-01"},
	}}

	a := New(cfg, sheets, zap.NewNop())
	ctx := context.Background()
	a.RunOnce(ctx)

	articles, err := a.Articles(ctx)
	if err != nil {
		t.Fatalf("Articles: %v", err)
	}
	if len(articles) != 1 || articles[0].Title != "Open enrollment" {
		t.Errorf("unexpected articles: %+v", articles)
	}

	bundle, err := a.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(bundle.Articles) != 1 {
		t.Errorf("unexpected bundle: %+v", bundle)
	}

	if _, err := a.Schedule(ctx); err != nil {
		t.Errorf("Schedule: %v", err)
	}
	if _, err := a.Stories(ctx); err != nil {
		t.Errorf("Stories: %v", err)
	}

	// Without a spreadsheet ID there is no values API to call.
	if n := sheets.apiCallCount(); n != 0 {
		t.Errorf("live reads hit the values API %d times in csv mode", n)
	}
}

func TestApp_CSVOnlyMode_LiveReadBeforeFirstRefresh(t *testing.T) {
	cfg := testConfig()
	cfg.Sheets.SpreadsheetID = ""
	cfg.Sheets.CSVExportURL = "https://example.com/pub?output=csv"

	sheets := &fakeSheets{csv: [][]string{
		{"Title", "Author"},
		{"Open enrollment", "Dana"},
	}}

	a := New(cfg, sheets, zap.NewNop())

	// Empty cache falls back to a fresh export fetch.
	articles, err := a.Articles(context.Background())
	if err != nil {
		t.Fatalf("Articles: %v", err)
	}
	if len(articles) != 1 {
		t.Errorf("expected 1 article from the export, got %d", len(articles))
	}
	if n := sheets.apiCallCount(); n != 0 {
		t.Errorf("expected csv fetch only, values API called %d times", n)
	}
}

func TestApp_Articles_Live(t *testing.T) {
	a := New(testConfig(), contentSheets(), zap.NewNop())

	articles, err := a.Articles(context.Background())
	if err != nil {
		t.Fatalf("Articles: %v", err)
	}
	if len(articles) != 2 {
		t.Errorf("expected 2 articles, got %d", len(articles))
	}
}

func TestApp_All(t *testing.T) {
	a := New(testConfig(), contentSheets(), zap.NewNop())

	bundle, err := a.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(bundle.Articles) != 2 || len(bundle.Schedule) != 1 || len(bundle.Stories) != 1 {
		t.Errorf("unexpected bundle sizes: %d/%d/%d",
			len(bundle.Articles), len(bundle.Schedule), len(bundle.Stories))
	}
}

func TestApp_StartStop(t *testing.T) {
	cfg := testConfig()
	cfg.Sheets.PollInterval = time.Second

	a := New(cfg, contentSheets(), zap.NewNop())

	done := make(chan error, 1)
	go func() {
		done <- a.Start(context.Background())
	}()

	// Wait for the initial refresh to land.
	deadline := time.After(2 * time.Second)
	for {
		if _, ok := a.Cache().Content(); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("initial refresh never completed")
		case <-time.After(10 * time.Millisecond):
		}
	}

	a.Stop()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestApp_StartTwice(t *testing.T) {
	cfg := testConfig()
	cfg.Sheets.PollInterval = time.Second

	a := New(cfg, contentSheets(), zap.NewNop())

	go a.Start(context.Background())
	defer a.Stop()

	// Give the first Start a moment to mark itself running.
	time.Sleep(50 * time.Millisecond)
	if err := a.Start(context.Background()); err == nil {
		t.Error("second Start should fail")
	}
}

func TestApp_Dashboard_EmptyBeforeFirstRefresh(t *testing.T) {
	a := New(testConfig(), contentSheets(), zap.NewNop())
	if _, ok := a.Dashboard(); ok {
		t.Error("dashboard should be empty before the first refresh")
	}
}
