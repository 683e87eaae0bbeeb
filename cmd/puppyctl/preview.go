package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"puppy-adoption-notifier/internal/pipeline"
	"puppy-adoption-notifier/internal/services"
)

// fileFetcher serves a saved listing page in place of the live site
type fileFetcher struct {
	path string
}

func (f fileFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	content, err := os.ReadFile(f.path)
	if err != nil {
		return nil, &services.FetchError{URL: f.path, Err: err}
	}
	return content, nil
}

func newPreviewCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	var format, file string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the report that would be emailed, without sending it",
		Long:  `Runs the pipeline in dry-run mode and prints the rendered report. Use --file to render from a saved listing page instead of the live site.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "html" {
				return fmt.Errorf("unsupported format %q (want text or html)", format)
			}

			overrides := placeholderEnv(opts.overrides(cmd))
			if file != "" {
				overrides["FETCH_DETAILS"] = "false"
			}
			cfg, err := root.loadConfig(overrides)
			if err != nil {
				return err
			}
			logger := root.logger(cmd)

			deps, err := cliDeps(cmd.Context(), cfg, logger, true)
			if err != nil {
				return err
			}
			if file != "" {
				deps.Fetcher = fileFetcher{path: file}
			}

			outcome := pipeline.Run(cmd.Context(), cfg, deps)
			if !outcome.Status.Succeeded() {
				return fmt.Errorf("preview failed with status %s: %w", outcome.Status, outcome.Err)
			}

			out := cmd.OutOrStdout()
			if format == "html" {
				fmt.Fprintln(out, outcome.Report.HTML)
				return nil
			}
			fmt.Fprintf(out, "Subject: %s\n\n%s", outcome.Report.Subject, outcome.Report.Text)
			return nil
		},
	}
	opts.bindFlags(cmd)
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or html")
	cmd.Flags().StringVar(&file, "file", "", "render from a saved listing page")
	return cmd
}
