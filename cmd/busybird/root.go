package main

import (
	"github.com/spf13/cobra"

	"github.com/glabrego/busybird-cli/internal/config"
)

type rootOptions struct {
	timeline string
	format   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "busybird",
		Short:        "Terminal viewer for BusyBird timelines.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return runView(cmd.Context(), cfg)
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.timeline, "timeline", "t", "", "timeline to show (overrides BUSYBIRD_TIMELINE)")
	cmd.PersistentFlags().StringVar(&opts.format, "format", "", "status source, html or json (overrides BUSYBIRD_FORMAT)")

	cmd.AddCommand(newViewCommand(opts), newCountsCommand(opts), newWatchCommand(opts), newPrefsCommand(opts))
	return cmd
}

func (o *rootOptions) load() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if o.timeline != "" {
		cfg.Timeline = o.timeline
	}
	if o.format != "" {
		cfg.Format = o.format
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
