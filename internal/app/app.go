package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/covergrid/pulse/internal/archive"
	"github.com/covergrid/pulse/internal/config"
	"github.com/covergrid/pulse/internal/content"
	"github.com/covergrid/pulse/internal/core"
	"github.com/covergrid/pulse/internal/metrics"
	"github.com/covergrid/pulse/internal/notify"
	"github.com/covergrid/pulse/internal/store"
	"go.uber.org/zap"
)

// SheetSource is the slice of the sheets client the app needs.
type SheetSource interface {
	Values(ctx context.Context, rangeName string) ([][]string, error)
	BatchValues(ctx context.Context, rangeNames []string) (map[string][][]string, error)
	FetchCSV(ctx context.Context, exportURL string) ([][]string, error)
}

// Alerter posts ops alerts.
type Alerter interface {
	Send(ctx context.Context, event notify.Event) error
}

// App owns the refresh loop and serves content to the HTTP handlers.
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	sheets SheetSource
	cache  *store.Memory

	archiveStore archive.Store
	alerter      Alerter
	metrics      *metrics.Registry

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	failures int
}

// New creates the application orchestrator.
func New(cfg *config.Config, sheets SheetSource, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfg:    cfg,
		logger: logger,
		sheets: sheets,
		cache:  store.NewMemory(),
	}
}

// SetArchive enables raw snapshot archiving on each refresh.
func (a *App) SetArchive(s archive.Store) {
	a.archiveStore = s
}

// SetAlerter enables the refresh-failure webhook.
func (a *App) SetAlerter(al Alerter) {
	a.alerter = al
}

// SetMetrics enables Prometheus recording.
func (a *App) SetMetrics(reg *metrics.Registry) {
	a.metrics = reg
}

// Cache exposes the content cache, mainly for handlers and tests.
func (a *App) Cache() *store.Memory {
	return a.cache
}

// Start runs the refresh loop until the context is cancelled.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app already running")
	}
	a.running = true

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()

	interval := a.cfg.Sheets.PollInterval
	a.logger.Info("refresh loop starting",
		zap.Duration("interval", interval),
		zap.Bool("archive", a.archiveStore != nil),
	)

	// Initial run
	a.RunOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("refresh loop stopping")
			a.mu.Lock()
			a.running = false
			a.mu.Unlock()
			return ctx.Err()
		case <-ticker.C:
			a.RunOnce(ctx)
		}
	}
}

// Stop cancels the refresh loop.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// RunOnce performs a single refresh cycle.
func (a *App) RunOnce(ctx context.Context) {
	now := time.Now()

	raw, perf, err := a.fetch(ctx)
	if err != nil {
		a.onRefreshFailure(ctx, err)
		return
	}

	bundle := core.ContentBundle{
		Articles: content.Articles(raw[a.cfg.Sheets.ArticlesRange], now),
		Schedule: content.Schedule(raw[a.cfg.Sheets.ScheduleRange], now),
		Stories:  content.Stories(raw[a.cfg.Sheets.StoriesRange], now),
	}

	dash := content.Metrics(bundle, perf, now)
	dash.Source = a.source()

	a.cache.SetContent(store.Snapshot{
		Bundle:    bundle,
		Metrics:   dash,
		FetchedAt: now,
	})
	if users, ok := raw[a.cfg.Sheets.UsersRange]; ok {
		a.cache.SetUsers(content.Users(users), now)
	}

	a.archiveSnapshot(ctx, raw, now)

	a.mu.Lock()
	a.failures = 0
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.RecordRefreshCycle("ok")
		a.metrics.SetCacheAge(0)
		a.metrics.SetContentItems("articles", len(bundle.Articles))
		a.metrics.SetContentItems("schedule", len(bundle.Schedule))
		a.metrics.SetContentItems("stories", len(bundle.Stories))
	}

	a.logger.Debug("refresh complete",
		zap.Int("articles", len(bundle.Articles)),
		zap.Int("schedule", len(bundle.Schedule)),
		zap.Int("stories", len(bundle.Stories)),
		zap.Bool("demo_metrics", dash.Demo),
	)
}

// fetch pulls raw cells from the configured source. In API mode the
// content ranges come from one batch call; a CSV export, when set,
// supplies the performance table. CSV-only deployments use the export
// for both.
func (a *App) fetch(ctx context.Context) (raw map[string][][]string, perf [][]string, err error) {
	sheetsCfg := a.cfg.Sheets

	if a.csvOnly() {
		csv, err := a.timedFetchCSV(ctx, sheetsCfg.CSVExportURL)
		if err != nil {
			return nil, nil, err
		}
		raw = map[string][][]string{sheetsCfg.ArticlesRange: csv}
		return raw, csv, nil
	}

	ranges := []string{
		sheetsCfg.ArticlesRange,
		sheetsCfg.ScheduleRange,
		sheetsCfg.StoriesRange,
		sheetsCfg.UsersRange,
	}

	start := time.Now()
	raw, err = a.sheets.BatchValues(ctx, ranges)
	if a.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		a.metrics.RecordSheetFetch("batch", status, time.Since(start).Seconds())
	}
	if err != nil {
		return nil, nil, err
	}

	if sheetsCfg.CSVExportURL != "" {
		// Performance numbers live in a published export; its failure
		// should not fail the whole refresh.
		csv, csvErr := a.timedFetchCSV(ctx, sheetsCfg.CSVExportURL)
		if csvErr != nil {
			a.logger.Warn("csv export fetch failed, metrics fall back to demo numbers",
				zap.Error(csvErr))
		} else {
			perf = csv
		}
	} else {
		perf = raw[sheetsCfg.ArticlesRange]
	}

	return raw, perf, nil
}

func (a *App) timedFetchCSV(ctx context.Context, url string) ([][]string, error) {
	start := time.Now()
	csv, err := a.sheets.FetchCSV(ctx, url)
	if a.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		a.metrics.RecordSheetFetch("csv_export", status, time.Since(start).Seconds())
	}
	return csv, err
}

func (a *App) archiveSnapshot(ctx context.Context, raw map[string][][]string, now time.Time) {
	if a.archiveStore == nil {
		return
	}

	_, err := archive.Save(ctx, a.archiveStore, raw, now)
	if a.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		a.metrics.RecordSnapshot(a.cfg.Archive.Type, status)
	}
	if err != nil {
		a.logger.Error("snapshot archive failed", zap.Error(err))
		return
	}

	if keep := a.cfg.Archive.Keep; keep > 0 {
		pruned, err := archive.Prune(ctx, a.archiveStore, keep)
		if err != nil {
			a.logger.Error("snapshot prune failed", zap.Error(err))
		} else if pruned > 0 {
			a.logger.Debug("pruned old snapshots", zap.Int("count", pruned))
		}
	}
}

func (a *App) onRefreshFailure(ctx context.Context, err error) {
	a.mu.Lock()
	a.failures++
	failures := a.failures
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.RecordRefreshCycle("error")
	}
	a.logger.Error("refresh failed",
		zap.Int("consecutive_failures", failures),
		zap.Error(err),
	)

	threshold := a.cfg.Alerts.FailureThreshold
	if a.alerter != nil && threshold > 0 && failures == threshold {
		event := notify.Event{
			Kind:     "refresh_failed",
			Detail:   err.Error(),
			Failures: failures,
		}
		if alertErr := a.alerter.Send(ctx, event); alertErr != nil {
			a.logger.Error("alert webhook failed", zap.Error(alertErr))
		}
	}
}

func (a *App) source() string {
	if a.csvOnly() {
		return "csv"
	}
	return "sheets"
}

// csvOnly reports whether the deployment has no spreadsheet API access
// and reads everything from the published CSV export.
func (a *App) csvOnly() bool {
	return a.cfg.Sheets.SpreadsheetID == ""
}

// csvContent answers live reads in CSV-only mode: from the last good
// snapshot when one exists, otherwise from a fresh export fetch.
func (a *App) csvContent(ctx context.Context) (core.ContentBundle, error) {
	if snap, ok := a.cache.Content(); ok {
		return snap.Bundle, nil
	}
	csv, err := a.timedFetchCSV(ctx, a.cfg.Sheets.CSVExportURL)
	if err != nil {
		return core.ContentBundle{}, err
	}
	return core.ContentBundle{Articles: content.Articles(csv, time.Now())}, nil
}

// Articles fetches and maps the articles range live.
func (a *App) Articles(ctx context.Context) ([]core.Article, error) {
	if a.csvOnly() {
		bundle, err := a.csvContent(ctx)
		if err != nil {
			return nil, err
		}
		return bundle.Articles, nil
	}
	values, err := a.timedValues(ctx, a.cfg.Sheets.ArticlesRange)
	if err != nil {
		return nil, err
	}
	return content.Articles(values, time.Now()), nil
}

// Schedule fetches and maps the posting schedule live.
func (a *App) Schedule(ctx context.Context) ([]core.ScheduleItem, error) {
	if a.csvOnly() {
		bundle, err := a.csvContent(ctx)
		if err != nil {
			return nil, err
		}
		return bundle.Schedule, nil
	}
	values, err := a.timedValues(ctx, a.cfg.Sheets.ScheduleRange)
	if err != nil {
		return nil, err
	}
	return content.Schedule(values, time.Now()), nil
}

// Stories fetches and maps the success stories live.
func (a *App) Stories(ctx context.Context) ([]core.Story, error) {
	if a.csvOnly() {
		bundle, err := a.csvContent(ctx)
		if err != nil {
			return nil, err
		}
		return bundle.Stories, nil
	}
	values, err := a.timedValues(ctx, a.cfg.Sheets.StoriesRange)
	if err != nil {
		return nil, err
	}
	return content.Stories(values, time.Now()), nil
}

// All fetches the three content ranges in one upstream call.
func (a *App) All(ctx context.Context) (core.ContentBundle, error) {
	if a.csvOnly() {
		return a.csvContent(ctx)
	}

	sheetsCfg := a.cfg.Sheets
	ranges := []string{sheetsCfg.ArticlesRange, sheetsCfg.ScheduleRange, sheetsCfg.StoriesRange}

	start := time.Now()
	raw, err := a.sheets.BatchValues(ctx, ranges)
	if a.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		a.metrics.RecordSheetFetch("batch", status, time.Since(start).Seconds())
	}
	if err != nil {
		return core.ContentBundle{}, err
	}

	now := time.Now()
	return core.ContentBundle{
		Articles: content.Articles(raw[sheetsCfg.ArticlesRange], now),
		Schedule: content.Schedule(raw[sheetsCfg.ScheduleRange], now),
		Stories:  content.Stories(raw[sheetsCfg.StoriesRange], now),
	}, nil
}

// Dashboard returns the latest polled metrics; ok is false before the
// first successful refresh.
func (a *App) Dashboard() (core.DashboardMetrics, bool) {
	snap, ok := a.cache.Content()
	if !ok {
		return core.DashboardMetrics{}, false
	}
	if a.metrics != nil {
		a.metrics.SetCacheAge(a.cache.Age(time.Now()).Seconds())
	}
	return snap.Metrics, true
}

// FetchRaw pulls all configured ranges without mapping, for the CLI
// and snapshot tooling.
func (a *App) FetchRaw(ctx context.Context) (map[string][][]string, error) {
	raw, _, err := a.fetch(ctx)
	return raw, err
}

// Health reports liveness details for the health endpoint.
func (a *App) Health() map[string]any {
	a.mu.Lock()
	failures := a.failures
	running := a.running
	a.mu.Unlock()

	info := map[string]any{
		"status":   "ok",
		"running":  running,
		"failures": failures,
		"source":   a.source(),
	}
	if snap, ok := a.cache.Content(); ok {
		info["cache_age_seconds"] = time.Since(snap.FetchedAt).Seconds()
		info["articles"] = len(snap.Bundle.Articles)
	} else {
		info["cache_age_seconds"] = nil
	}
	if failures > 0 {
		info["status"] = "degraded"
	}
	return info
}

func (a *App) timedValues(ctx context.Context, rangeName string) ([][]string, error) {
	start := time.Now()
	values, err := a.sheets.Values(ctx, rangeName)
	if a.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		a.metrics.RecordSheetFetch(rangeName, status, time.Since(start).Seconds())
	}
	return values, err
}
