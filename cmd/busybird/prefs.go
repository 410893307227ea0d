package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/glabrego/busybird-cli/internal/storage"
)

func newPrefsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prefs",
		Short: "List the saved threshold level of each timeline.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			repo, err := storage.NewRepository(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("storage init error: %w", err)
			}
			defer repo.Close()
			return printPrefs(cmd.Context(), cmd.OutOrStdout(), repo)
		},
	}
}

func printPrefs(ctx context.Context, out io.Writer, repo *storage.Repository) error {
	if err := repo.Init(ctx); err != nil {
		return fmt.Errorf("storage schema error: %w", err)
	}
	prefs, err := repo.ListPrefs(ctx)
	if err != nil {
		return err
	}
	if len(prefs) == 0 {
		_, err := fmt.Fprintln(out, "No saved thresholds.")
		return err
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold("Timeline"), bold("Threshold"), bold("Updated"))
	for _, p := range prefs {
		tbl.AddRow(p.Timeline, fmt.Sprintf("Lv.%d", p.Threshold), p.UpdatedAt.Local().Format(time.DateTime))
	}
	_, err = fmt.Fprintln(out, tbl)
	return err
}
