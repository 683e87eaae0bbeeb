package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"puppy-adoption-notifier/internal/config"
	"puppy-adoption-notifier/internal/models"
	"puppy-adoption-notifier/internal/pipeline"
	"puppy-adoption-notifier/internal/services"
)

type runOptions struct {
	dryRun     bool
	shelterURL string
	to         string
	maxAge     int
	noDetails  bool
}

// overrides maps the flags that were set onto their environment variable names
func (o *runOptions) overrides(cmd *cobra.Command) map[string]string {
	values := map[string]string{}
	if cmd.Flags().Changed("shelter-url") {
		values["SHELTER_URL"] = o.shelterURL
	}
	if cmd.Flags().Changed("to") {
		values["EMAIL_TO"] = o.to
	}
	if cmd.Flags().Changed("max-age") {
		values["MAX_AGE_MONTHS"] = strconv.Itoa(o.maxAge)
	}
	if o.noDetails {
		values["FETCH_DETAILS"] = "false"
	}
	return values
}

func (o *runOptions) bindFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.shelterURL, "shelter-url", "", "listing page URL; defaults to SHELTER_URL")
	cmd.Flags().StringVar(&o.to, "to", "", "comma separated recipients; defaults to EMAIL_TO")
	cmd.Flags().IntVar(&o.maxAge, "max-age", config.DefaultMaxAgeMonths, "maximum age in months to include")
	cmd.Flags().BoolVar(&o.noDetails, "no-details", false, "skip fetching detail pages for matches")
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and email the report",
		Long:  `Performs exactly what the scheduled Lambda does: fetch, parse, filter, enrich, render and send. With --dry-run nothing is sent.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig(opts.overrides(cmd))
			if err != nil {
				return err
			}
			logger := root.logger(cmd)

			deps, err := cliDeps(cmd.Context(), cfg, logger, opts.dryRun)
			if err != nil {
				return err
			}

			outcome := pipeline.Run(cmd.Context(), cfg, deps)
			if err := printOutcome(cmd, outcome); err != nil {
				return err
			}
			if !outcome.Status.Succeeded() {
				return fmt.Errorf("invocation %s finished with status %s", outcome.InvocationID, outcome.Status)
			}
			return nil
		},
	}
	opts.bindFlags(cmd)
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "render the report without sending it")
	return cmd
}

// cliDeps mirrors the Lambda wiring; SES is only initialized when sending
func cliDeps(ctx context.Context, cfg *config.Config, logger *slog.Logger, dryRun bool) (pipeline.Deps, error) {
	profile, err := config.LoadSiteProfile(cfg.SiteProfilePath)
	if err != nil {
		return pipeline.Deps{}, err
	}

	deps := pipeline.Deps{
		Fetcher: services.NewFetcher(cfg.Timeout),
		Profile: profile,
		Logger:  logger,
		DryRun:  dryRun,
	}

	if !dryRun {
		notifier, err := services.NewSESNotifier(ctx)
		if err != nil {
			return pipeline.Deps{}, fmt.Errorf("failed to initialize SES notifier: %w", err)
		}
		deps.Notifier = notifier
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

type outcomeView struct {
	models.Outcome
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

func printOutcome(cmd *cobra.Command, outcome models.Outcome) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(outcomeView{
		Outcome:    outcome,
		DurationMS: outcome.Duration.Milliseconds(),
		Error:      outcome.Error(),
	})
}

// placeholderEnv fills the sender and recipient for commands that never send
func placeholderEnv(overrides map[string]string) map[string]string {
	for _, key := range []string{"EMAIL_FROM", "EMAIL_TO"} {
		if _, ok := overrides[key]; ok {
			continue
		}
		if value, ok := os.LookupEnv(key); ok && value != "" {
			continue
		}
		overrides[key] = "preview@example.com"
	}
	return overrides
}
