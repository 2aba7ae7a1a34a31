// Package runner wires the monitor together and drives its two entry
// points: the monitor cycle (fetch, reconcile, persist, alert) and the
// report cycle (aggregate, notify, archive, reset).
//
// Cycles are run-to-completion and single-threaded. The one-shot modes rely
// on the external scheduler never overlapping two invocations against the
// same state file — overlap is a lost-update hazard the store does not
// guard against. Daemon mode runs cycles sequentially from one goroutine
// and satisfies that precondition structurally.
package runner

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/ANPalert-art/Port-rep/internal/config"
	"github.com/ANPalert-art/Port-rep/internal/engine"
	"github.com/ANPalert-art/Port-rep/internal/feed"
	"github.com/ANPalert-art/Port-rep/internal/instrumentation"
	"github.com/ANPalert-art/Port-rep/internal/models"
	"github.com/ANPalert-art/Port-rep/internal/notify"
	"github.com/ANPalert-art/Port-rep/internal/pubcache"
	"github.com/ANPalert-art/Port-rep/internal/report"
	"github.com/ANPalert-art/Port-rep/internal/state"
)

// FeedClient fetches one full movement batch.
type FeedClient interface {
	Fetch(ctx context.Context) ([]feed.RawRecord, error)
}

// Runner orchestrates cycles over the shared persisted state. The cache
// publisher and metrics are optional; nil disables them.
type Runner struct {
	cfg      *config.Config
	feed     FeedClient
	store    *state.Store
	engine   *engine.Engine
	archive  *report.Archive
	notifier notify.Notifier
	cache    *pubcache.Publisher
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
}

// New assembles a runner from its collaborators.
func New(
	cfg *config.Config,
	feedClient FeedClient,
	store *state.Store,
	eng *engine.Engine,
	archive *report.Archive,
	notifier notify.Notifier,
	cache *pubcache.Publisher,
	metrics *instrumentation.Metrics,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		cfg:      cfg,
		feed:     feedClient,
		store:    store,
		engine:   eng,
		archive:  archive,
		notifier: notifier,
		cache:    cache,
		metrics:  metrics,
		logger:   logger.With("component", "runner"),
	}
}

// Monitor runs one monitor cycle. A fetch failure aborts before any state
// is loaded or mutated; persistence happens before any notification so a
// delivery failure can never lose a transition.
func (r *Runner) Monitor(ctx context.Context) error {
	start := time.Now()
	r.logger.Info("monitor_cycle_started", "ports", r.cfg.AllowedPorts)

	records, err := r.feed.Fetch(ctx)
	if err != nil {
		r.logger.Error("fetch_failed", "error", err)
		if r.metrics != nil {
			r.metrics.RecordCycle(config.ModeMonitor, "fetch_error")
		}
		return err
	}

	st := r.store.Load()

	allowed := r.cfg.AllowedPortSet()
	batch := make([]models.VesselObservation, 0, len(records))
	for _, rec := range records {
		if obs, ok := feed.Normalize(rec, allowed, r.logger); ok {
			batch = append(batch, obs)
		}
	}

	res := r.engine.Reconcile(st, batch)

	if err := r.store.Save(st); err != nil {
		// Non-fatal: in-memory processing already completed; the next
		// cycle reloads stale state and reprocesses.
		r.logger.Error("state_save_failed", "error", err)
	}

	alertsSent := r.dispatchAlerts(ctx, res.Alerts)

	if r.cache != nil {
		summary := pubcache.CycleSummary{
			Mode:       config.ModeMonitor,
			At:         time.Now().UTC(),
			BatchSize:  len(batch),
			Active:     len(st.Active),
			Completed:  len(res.Completed),
			Adopted:    res.Adopted,
			Evicted:    res.Evicted,
			AlertsSent: alertsSent,
		}
		if err := r.cache.PublishSummary(ctx, summary); err != nil {
			r.logger.Warn("summary_cache_failed", "error", err)
		}
	}

	if r.metrics != nil {
		r.metrics.BatchSize.Set(float64(len(batch)))
		r.metrics.ActiveVessels.Set(float64(len(st.Active)))
		r.metrics.CompletedTotal.Add(float64(len(res.Completed)))
		r.metrics.AdoptedTotal.Add(float64(res.Adopted))
		r.metrics.EvictedTotal.Add(float64(res.Evicted))
		r.metrics.AlertsSentTotal.Add(float64(alertsSent))
		r.metrics.RecordCycle(config.ModeMonitor, "ok")
		r.metrics.CycleDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	}

	r.logger.Info("monitor_cycle_completed",
		"batch", len(batch),
		"active", len(st.Active),
		"completed", len(res.Completed),
		"adopted", res.Adopted,
		"skipped", res.Skipped,
		"evicted", res.Evicted,
		"alerts_sent", alertsSent,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (r *Runner) dispatchAlerts(ctx context.Context, alerts map[string][]models.VesselObservation) int {
	if len(alerts) == 0 {
		r.logger.Info("no_planned_arrivals")
		return 0
	}

	ports := make([]string, 0, len(alerts))
	for port := range alerts {
		ports = append(ports, port)
	}
	sort.Strings(ports)

	sent := 0
	for _, port := range ports {
		subject, body, err := notify.RenderAlert(port, alerts[port])
		if err != nil {
			r.logger.Error("alert_render_failed", "port_code", port, "error", err)
			continue
		}
		if err := r.notifier.Notify(ctx, subject, body); err != nil {
			r.logger.Error("alert_delivery_failed", "port_code", port, "error", err)
			if r.metrics != nil {
				r.metrics.DeliveryErrorsTotal.Inc()
			}
			continue
		}
		sent++
		r.logger.Info("alert_sent", "port_code", port, "vessels", len(alerts[port]))
	}
	return sent
}

// Report runs one report cycle: per-port aggregation and notification,
// then one-way compaction of the live history window into the archive.
// The live window is only cleared once the archive write succeeded.
func (r *Runner) Report(ctx context.Context) error {
	start := time.Now()
	st := r.store.Load()
	r.logger.Info("report_cycle_started", "history", len(st.History))

	for _, port := range r.cfg.AllowedPorts {
		slice := report.FilterPort(st.History, port)
		overall, agents := report.Aggregate(slice)

		subject, body, err := notify.RenderReport(port, overall, agents)
		if err != nil {
			r.logger.Error("report_render_failed", "port_code", port, "error", err)
			continue
		}
		if err := r.notifier.Notify(ctx, subject, body); err != nil {
			r.logger.Error("report_delivery_failed", "port_code", port, "error", err)
			if r.metrics != nil {
				r.metrics.DeliveryErrorsTotal.Inc()
			}
		}

		if r.cache != nil {
			payload := struct {
				Overall report.Overall     `json:"overall"`
				Agents  []report.AgentStat `json:"agents"`
			}{Overall: overall, Agents: agents}
			if err := r.cache.PublishReport(ctx, port, payload); err != nil {
				r.logger.Warn("report_cache_failed", "port_code", port, "error", err)
			}
		}
	}

	if _, err := r.archive.Compact(st.History); err != nil {
		// Keep the live window rather than risk losing records to a
		// broken archive.
		r.logger.Error("archive_compaction_failed", "error", err)
	} else {
		st.History = []models.HistoryRecord{}
	}

	if err := r.store.Save(st); err != nil {
		r.logger.Error("state_save_failed", "error", err)
	}

	if r.metrics != nil {
		r.metrics.RecordCycle(config.ModeReport, "ok")
		r.metrics.CycleDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	}

	r.logger.Info("report_cycle_completed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// Daemon runs monitor cycles on the poll interval and a report cycle once
// per day at the configured hour, all from this goroutine. A daemon started
// after the report hour emits that day's report on its first pass.
func (r *Runner) Daemon(ctx context.Context) error {
	r.logger.Info("daemon_started",
		"poll_interval", r.cfg.PollInterval.String(),
		"report_hour", r.cfg.ReportHour,
	)

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	lastReportDay := ""
	for {
		if err := r.Monitor(ctx); err != nil {
			r.logger.Error("monitor_cycle_failed", "error", err)
		}

		now := time.Now()
		day := now.Format("2006-01-02")
		if now.Hour() >= r.cfg.ReportHour && day != lastReportDay {
			if err := r.Report(ctx); err != nil {
				r.logger.Error("report_cycle_failed", "error", err)
			} else {
				lastReportDay = day
			}
		}

		select {
		case <-ctx.Done():
			r.logger.Info("daemon_stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
