package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/glabrego/busybird-cli/internal/busybird"
	tuiview "github.com/glabrego/busybird-cli/internal/tui/view"
)

var bold = color.New(color.Bold).SprintFunc()

func newCountsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "counts [timeline...]",
		Short: "Print unacked status counts per level.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			timelines := args
			if len(timelines) == 0 {
				timelines = []string{cfg.Timeline}
			}
			client := busybird.NewClient(cfg.BaseURL, &http.Client{Timeout: cfg.RequestTimeout})
			return printCounts(cmd.Context(), cmd.OutOrStdout(), client, cfg.PollLevel, cfg.CountsLevelNum, timelines)
		},
	}
}

func printCounts(ctx context.Context, out io.Writer, client *busybird.Client, level string, levelNum int, timelines []string) error {
	all, err := fetchCounts(ctx, client, level, timelines)
	if err != nil {
		return fmt.Errorf("fetch unacked counts: %w", err)
	}
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold("Timeline"), bold("Level"), bold("Unacked"), bold("This level"))
	for _, name := range names {
		for _, pair := range tuiview.CountsPairs(all[name], levelNum) {
			delta := ""
			if pair.HasDelta {
				delta = "+" + strconv.Itoa(pair.Delta)
			}
			tbl.AddRow(name, pair.Label, pair.Sum, delta)
		}
	}
	_, err = fmt.Fprintln(out, tbl)
	return err
}
