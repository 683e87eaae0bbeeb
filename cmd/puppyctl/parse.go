package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"puppy-adoption-notifier/internal/config"
	"puppy-adoption-notifier/internal/models"
	"puppy-adoption-notifier/internal/services"
)

func newParseCmd(root *rootOptions) *cobra.Command {
	var format, baseURL string
	var puppies bool
	var maxAge int

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a saved listing page and print the records",
		Long:  `Runs the listing parser against a local HTML file, such as a snapshot stored after the site changed, and prints what it found.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "table" {
				return fmt.Errorf("unsupported format %q (want json or table)", format)
			}

			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			profile, err := root.profile()
			if err != nil {
				return err
			}
			parser, err := services.NewParser(profile, baseURL, root.logger(cmd))
			if err != nil {
				return err
			}

			records, stats, err := parser.Parse(content)
			if err != nil {
				return err
			}
			if puppies {
				records = services.FilterPuppies(records, maxAge).Matches
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "listings=%d parsed=%d skipped=%d unknown_age=%d shown=%d\n",
				stats.Listings, stats.Parsed, stats.Skipped, stats.UnknownAge, len(records))

			if format == "table" {
				return printTable(cmd, records)
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(records)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or table")
	cmd.Flags().StringVar(&baseURL, "base-url", config.DefaultDetailBaseURL, "base URL for resolving detail and photo links")
	cmd.Flags().BoolVar(&puppies, "puppies", false, "only show records that pass the puppy filter")
	cmd.Flags().IntVar(&maxAge, "max-age", config.DefaultMaxAgeMonths, "maximum age in months for --puppies")
	return cmd
}

func printTable(cmd *cobra.Command, records []models.AnimalRecord) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSPECIES\tBREED\tAGE\tMONTHS")
	for _, record := range records {
		months := "?"
		if record.AgeKnown {
			months = fmt.Sprint(record.AgeMonths)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			record.ID, record.Name, record.Species, record.DisplayBreed(), record.DisplayAge(), months)
	}
	return w.Flush()
}
