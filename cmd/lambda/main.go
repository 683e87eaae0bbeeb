package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"puppy-adoption-notifier/internal/config"
	"puppy-adoption-notifier/internal/models"
	"puppy-adoption-notifier/internal/pipeline"
	"puppy-adoption-notifier/internal/services"
)

// LambdaResponse represents the function response
type LambdaResponse struct {
	Success        bool   `json:"success"`
	Status         string `json:"status"`
	StatusCode     int    `json:"status_code"`
	Message        string `json:"message"`
	InvocationID   string `json:"invocation_id,omitempty"`
	TotalSeen      int    `json:"total_seen"`
	Matched        int    `json:"matched"`
	MessageID      string `json:"message_id,omitempty"`
	SnapshotKey    string `json:"snapshot_key,omitempty"`
	ProcessingTime int64  `json:"processing_time_ms"`
	Error          string `json:"error,omitempty"`
}

// Handler runs the pipeline for each scheduled event
type Handler struct {
	lookup config.LookupFunc
	logger *slog.Logger

	// newDeps builds the AWS-backed collaborators; replaced in tests
	newDeps func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (pipeline.Deps, error)
}

// NewHandler creates a handler reading configuration from the process environment
func NewHandler() *Handler {
	level := config.ParseLogLevel(os.Getenv("LOG_LEVEL"))
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	return &Handler{
		lookup:  os.LookupEnv,
		logger:  logger,
		newDeps: awsDeps,
	}
}

// awsDeps wires the HTTP fetcher, SES notifier and optional S3 snapshot store
func awsDeps(ctx context.Context, cfg *config.Config, logger *slog.Logger) (pipeline.Deps, error) {
	profile, err := config.LoadSiteProfile(cfg.SiteProfilePath)
	if err != nil {
		return pipeline.Deps{}, err
	}

	notifier, err := services.NewSESNotifier(ctx)
	if err != nil {
		return pipeline.Deps{}, fmt.Errorf("failed to initialize SES notifier: %w", err)
	}

	deps := pipeline.Deps{
		Fetcher:  services.NewFetcher(cfg.Timeout),
		Notifier: notifier,
		Profile:  profile,
		Logger:   logger,
	}

	if cfg.SnapshotBucket != "" {
		store, err := services.NewS3Client(ctx, cfg.SnapshotBucket)
		if err != nil {
			logger.Warn("snapshot store unavailable, continuing without it", "bucket", cfg.SnapshotBucket, "error", err)
		} else {
			deps.Snapshots = store
		}
	}

	return deps, nil
}

// HandleLambdaEvent is the main Lambda handler function. Pipeline failures are
// reported in the response and logs, not as an error, so the scheduler sees a
// completed invocation and simply tries again on the next trigger.
func (h *Handler) HandleLambdaEvent(ctx context.Context, event events.CloudWatchEvent) (LambdaResponse, error) {
	start := time.Now()
	h.logger.Info("lambda invoked", "source", event.Source, "detail_type", event.DetailType, "event_id", event.ID)

	cfg, err := config.FromEnv(h.lookup)
	if err != nil {
		h.logger.Error("configuration error", "stage", pipeline.StageConfig, "error", err)
		return respond(models.Outcome{Status: models.StatusConfigError, Stage: pipeline.StageConfig, Err: err}, start), nil
	}

	deps, err := h.newDeps(ctx, cfg, h.logger)
	if err != nil {
		h.logger.Error("failed to initialize services", "stage", pipeline.StageConfig, "error", err)
		return respond(models.Outcome{Status: models.StatusConfigError, Stage: pipeline.StageConfig, Err: err}, start), nil
	}

	outcome := pipeline.Run(ctx, cfg, deps)
	response := respond(outcome, start)

	h.logger.Info("lambda completed",
		"invocation_id", response.InvocationID,
		"status", response.Status,
		"status_code", response.StatusCode,
		"processing_time_ms", response.ProcessingTime,
	)
	return response, nil
}

func respond(outcome models.Outcome, start time.Time) LambdaResponse {
	return LambdaResponse{
		Success:        outcome.Status.Succeeded(),
		Status:         string(outcome.Status),
		StatusCode:     outcome.Status.StatusCode(),
		Message:        message(outcome),
		InvocationID:   outcome.InvocationID,
		TotalSeen:      outcome.TotalSeen,
		Matched:        outcome.Matched,
		MessageID:      outcome.MessageID,
		SnapshotKey:    outcome.SnapshotKey,
		ProcessingTime: time.Since(start).Milliseconds(),
		Error:          outcome.Error(),
	}
}

func message(outcome models.Outcome) string {
	switch outcome.Status {
	case models.StatusSent:
		if outcome.Matched == 0 {
			return fmt.Sprintf("No puppies found in %d listings, sent empty report", outcome.TotalSeen)
		}
		return fmt.Sprintf("Email sent with %d of %d listings", outcome.Matched, outcome.TotalSeen)
	case models.StatusDryRun:
		return fmt.Sprintf("Report rendered with %d of %d listings, not sent", outcome.Matched, outcome.TotalSeen)
	case models.StatusConfigError:
		return "Configuration error"
	case models.StatusFetchFailed:
		return "Failed to fetch shelter listings"
	case models.StatusParseFailed:
		return "Shelter page structure not recognized"
	case models.StatusDeliveryFailed:
		return "Email delivery failed"
	case models.StatusTimeout:
		return fmt.Sprintf("Timed out during %s", outcome.Stage)
	default:
		return "Unexpected failure"
	}
}

// main is the entry point for the Lambda function
func main() {
	lambda.Start(NewHandler().HandleLambdaEvent)
}
