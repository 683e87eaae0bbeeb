// Package pipeline runs one stateless scrape, filter and notify invocation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"puppy-adoption-notifier/internal/config"
	"puppy-adoption-notifier/internal/models"
	"puppy-adoption-notifier/internal/services"
)

// Stage names used in log lines and outcomes
const (
	StageConfig  = "config"
	StageFetch   = "fetch"
	StageParse   = "parse"
	StageFilter  = "filter"
	StageEnrich  = "enrich"
	StageRender  = "render"
	StageDeliver = "deliver"
)

// Deps are the collaborators of one invocation. Snapshots is optional;
// Notifier may be nil only for dry runs.
type Deps struct {
	Fetcher   services.PageFetcher
	Notifier  services.Notifier
	Snapshots services.SnapshotStore
	Profile   *config.SiteProfile
	Logger    *slog.Logger
	Now       func() time.Time

	// DryRun renders the report without sending it
	DryRun bool
}

// Run executes fetch, parse, filter, enrich, render and deliver once. It
// never panics on stage failures: every failure is logged and reflected in
// the returned Outcome. When the cfg.Timeout budget runs out nothing is sent.
func Run(ctx context.Context, cfg *config.Config, deps Deps) models.Outcome {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	start := now()
	outcome := models.Outcome{
		InvocationID: models.NewInvocationID(start),
		StartedAt:    start,
	}
	logger = logger.With("invocation_id", outcome.InvocationID)

	fail := func(stage string, status models.Status, err error, attrs ...any) models.Outcome {
		outcome.Stage = stage
		outcome.Status = status
		outcome.Err = err
		outcome.Duration = now().Sub(start)
		logger.Error("invocation failed", append([]any{"stage", stage, "status", status, "error", err}, attrs...)...)
		return outcome
	}

	if cfg == nil {
		return fail(StageConfig, models.StatusConfigError, &config.ConfigError{Field: "config", Reason: "missing"})
	}
	if err := cfg.Validate(); err != nil {
		return fail(StageConfig, models.StatusConfigError, err)
	}
	if deps.Fetcher == nil {
		return fail(StageConfig, models.StatusConfigError, &config.ConfigError{Field: "fetcher", Reason: "missing"})
	}
	if deps.Notifier == nil && !deps.DryRun {
		return fail(StageConfig, models.StatusConfigError, &config.ConfigError{Field: "notifier", Reason: "missing"})
	}

	parser, err := services.NewParser(deps.Profile, cfg.DetailBaseURL, logger)
	if err != nil {
		return fail(StageConfig, models.StatusConfigError, &config.ConfigError{Field: "DETAIL_BASE_URL", Reason: err.Error()})
	}

	logger.Info("invocation started",
		"shelter_url", cfg.ShelterURL,
		"recipients", len(cfg.EmailTo),
		"timeout_seconds", int(cfg.Timeout/time.Second),
		"memory_limit_mb", cfg.MemoryLimitMB,
		"dry_run", deps.DryRun,
	)

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	// Fetch
	content, err := deps.Fetcher.Fetch(ctx, cfg.ShelterURL)
	if err != nil {
		if isTimeout(ctx, err) {
			return fail(StageFetch, models.StatusTimeout, err)
		}
		attrs := []any{"url", cfg.ShelterURL}
		var fetchErr *services.FetchError
		if errors.As(err, &fetchErr) && fetchErr.StatusCode != 0 {
			attrs = append(attrs, "status_code", fetchErr.StatusCode)
		}
		return fail(StageFetch, models.StatusFetchFailed, err, attrs...)
	}
	logger.Info("listing page fetched", "stage", StageFetch, "bytes", len(content))

	// Parse
	records, stats, err := parser.Parse(content)
	if err != nil {
		outcome.SnapshotKey = saveSnapshot(ctx, deps.Snapshots, outcome.InvocationID, start, content, logger)
		return fail(StageParse, models.StatusParseFailed, err, "alert", "site_changed", "listings", stats.Listings, "snapshot_key", outcome.SnapshotKey)
	}
	outcome.TotalSeen = len(records)
	logger.Info("listing page parsed", "stage", StageParse,
		"listings", stats.Listings, "parsed", stats.Parsed, "skipped", stats.Skipped, "unknown_age", stats.UnknownAge)

	// Filter
	report := services.Stamp(services.FilterPuppies(records, cfg.MaxAgeMonths), start)
	outcome.Matched = report.MatchCount()
	logger.Info("listings filtered", "stage", StageFilter,
		"total_seen", report.TotalSeen, "matched", report.MatchCount(), "max_age_months", cfg.MaxAgeMonths)

	// Enrich
	var enrichStats services.EnrichStats
	if cfg.FetchDetails && report.MatchCount() > 0 {
		enricher := services.NewEnricher(deps.Fetcher, parser, cfg.DetailRatePerSecond, logger)
		matches, enriched, err := enricher.Enrich(ctx, report.Matches)
		if err != nil {
			return fail(StageEnrich, models.StatusTimeout, err)
		}
		report.Matches = matches
		enrichStats = enriched
		logger.Info("matches enriched", "stage", StageEnrich,
			"attempted", enrichStats.Attempted, "enriched", enrichStats.Enriched, "failed", enrichStats.Failed)
	}

	// Render
	rendered, err := services.NewReporter(cfg.Subject).Render(report)
	if err != nil {
		return fail(StageRender, models.StatusInternalError, err)
	}
	outcome.Report = rendered
	logger.Debug("report rendered", "stage", StageRender, "text_bytes", len(rendered.Text), "html_bytes", len(rendered.HTML))

	if ctx.Err() != nil {
		return fail(StageRender, models.StatusTimeout, fmt.Errorf("%w before delivery: %v", services.ErrTimeout, ctx.Err()))
	}

	metrics := services.ExtractionMetrics{Parse: stats, Enrich: enrichStats, Timeout: cfg.Timeout}

	if deps.DryRun {
		outcome.Status = models.StatusDryRun
		outcome.Duration = now().Sub(start)
		metrics.Elapsed = outcome.Duration
		logAlerts(logger, metrics)
		logger.Info("dry run complete, report not sent", "stage", StageDeliver, "matched", outcome.Matched)
		return outcome
	}

	// Deliver
	messageID, err := deps.Notifier.Send(ctx, cfg.EmailFrom, cfg.EmailTo, rendered)
	if err != nil {
		if isTimeout(ctx, err) {
			return fail(StageDeliver, models.StatusTimeout, err)
		}
		attrs := []any{"recipients", len(cfg.EmailTo)}
		var deliveryErr *services.DeliveryError
		if errors.As(err, &deliveryErr) && deliveryErr.Code != "" {
			attrs = append(attrs, "provider_code", deliveryErr.Code)
		}
		return fail(StageDeliver, models.StatusDeliveryFailed, err, attrs...)
	}

	outcome.Status = models.StatusSent
	outcome.MessageID = messageID
	outcome.Recipients = len(cfg.EmailTo)
	outcome.Duration = now().Sub(start)
	logger.Info("report sent", "stage", StageDeliver,
		"message_id", messageID, "recipients", len(cfg.EmailTo), "matched", outcome.Matched,
		"duration_ms", outcome.Duration.Milliseconds())

	metrics.Elapsed = outcome.Duration
	logAlerts(logger, metrics)

	return outcome
}

// logAlerts reports degraded runs; alerts never change the outcome
func logAlerts(logger *slog.Logger, metrics services.ExtractionMetrics) {
	for _, alert := range metrics.CheckAlerts(services.DefaultAlertThresholds()) {
		logger.Warn(alert.Message, "alert", alert.Type, "severity", alert.Severity,
			"value", alert.Value, "threshold", alert.Threshold)
	}
}

func isTimeout(ctx context.Context, err error) bool {
	return errors.Is(err, services.ErrTimeout) || errors.Is(ctx.Err(), context.DeadlineExceeded)
}

// saveSnapshot stores the unrecognized page and returns its key, or "" when
// no store is configured or the upload failed
func saveSnapshot(ctx context.Context, store services.SnapshotStore, invocationID string, at time.Time, content []byte, logger *slog.Logger) string {
	if store == nil {
		return ""
	}

	result, err := store.SaveSnapshot(ctx, models.SnapshotKey(invocationID, at), content)
	if err != nil {
		logger.Warn("failed to store page snapshot", "stage", StageParse, "error", err)
		return ""
	}

	logger.Info("stored page snapshot", "stage", StageParse, "key", result.Key, "bytes", result.Size)
	return result.Key
}
