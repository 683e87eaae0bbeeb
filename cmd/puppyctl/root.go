package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"puppy-adoption-notifier/internal/config"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

type rootOptions struct {
	logLevel    string
	siteProfile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:          "puppyctl",
		Short:        "Scrape the shelter listing and report adoptable puppies",
		Long:         `Fetches the shelter's adoptable dogs page, keeps puppies at or under the age limit, and renders or emails the daily report.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error); defaults to LOG_LEVEL")
	rootCmd.PersistentFlags().StringVar(&opts.siteProfile, "site-profile", "", "path to a YAML selector profile; defaults to SITE_PROFILE or the built-in profile")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newPreviewCmd(opts),
		newParseCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the puppyctl version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "puppyctl %s\n", version)
		},
	}
}

// logger writes human readable logs to stderr so stdout stays parseable
func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := o.logLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: config.ParseLogLevel(level)}))
}

// loadConfig reads the environment with flag values layered on top, so flags
// go through the same parsing and validation as the Lambda settings
func (o *rootOptions) loadConfig(overrides map[string]string) (*config.Config, error) {
	if o.siteProfile != "" {
		overrides["SITE_PROFILE"] = o.siteProfile
	}
	return config.FromEnv(func(key string) (string, bool) {
		if value, ok := overrides[key]; ok {
			return value, true
		}
		return os.LookupEnv(key)
	})
}

func (o *rootOptions) profile() (*config.SiteProfile, error) {
	path := o.siteProfile
	if path == "" {
		path = os.Getenv("SITE_PROFILE")
	}
	return config.LoadSiteProfile(path)
}
