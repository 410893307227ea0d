package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/glabrego/busybird-cli/internal/app"
	"github.com/glabrego/busybird-cli/internal/busybird"
	"github.com/glabrego/busybird-cli/internal/config"
	"github.com/glabrego/busybird-cli/internal/poller"
	"github.com/glabrego/busybird-cli/internal/storage"
	"github.com/glabrego/busybird-cli/internal/timeline"
	"github.com/glabrego/busybird-cli/internal/tui"
	tuiactions "github.com/glabrego/busybird-cli/internal/tui/actions"
	tuitheme "github.com/glabrego/busybird-cli/internal/tui/theme"
	tuiview "github.com/glabrego/busybird-cli/internal/tui/view"
)

func newViewCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Show a timeline in the terminal (default).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return runView(cmd.Context(), cfg)
		},
	}
}

func runView(ctx context.Context, cfg config.Config) error {
	logFile, err := tea.LogToFile(cfg.LogFile, "busybird")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	repo, err := storage.NewRepository(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("storage init error: %w", err)
	}
	defer repo.Close()

	setupCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := repo.Init(setupCtx); err != nil {
		return fmt.Errorf("storage schema error: %w", err)
	}
	if err := repo.CheckWritable(setupCtx); err != nil {
		return fmt.Errorf("storage write check failed (%v). Verify BUSYBIRD_DB_PATH is writable: %s", err, cfg.DBPath)
	}

	th := tuitheme.Default()
	container := timeline.NewContainer(timeline.Options{
		Renderer:          tuiview.StatusRenderer(th, time.Now),
		Width:             80,
		Height:            20,
		AnimationDuration: timeline.DefaultAnimationDuration,
	})
	client := busybird.NewClient(cfg.BaseURL, &http.Client{Timeout: cfg.RequestTimeout})
	if err := client.Confirm(setupCtx); err != nil {
		return fmt.Errorf("cannot reach BusyBird at %s: %w", cfg.BaseURL, err)
	}
	service := app.NewService(client, container, cfg.Timeline,
		app.WithFormat(cfg.StatusFormat()),
		app.WithPreferenceStore(repo),
	)
	if _, err := service.RestoreThreshold(setupCtx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not restore threshold (%v), using 0\n", err)
	}

	initial, err := fetchCounts(setupCtx, client, cfg.PollLevel, []string{cfg.Timeline})
	if err != nil {
		log.Printf("initial unacked counts: %v", err)
	}

	// Long-poll requests stay open until counts change, so they get a client
	// without a timeout.
	pollClient := busybird.NewClient(cfg.BaseURL, &http.Client{})
	unacked, err := poller.NewUnackedPoller(pollClient, poller.Options{Level: cfg.PollLevel})
	if err != nil {
		return err
	}
	updates := make(chan tuiactions.CountsMsg, 1)
	err = unacked.AddTimeline(poller.Registration{
		Name:          cfg.Timeline,
		InitialCounts: initial[cfg.Timeline],
		Callback: func(name string, counts busybird.Counts) {
			offerLatest(updates, tuiactions.CountsMsg{Timeline: name, Counts: counts})
		},
	})
	if err != nil {
		return err
	}
	stop := unacked.Start(ctx)
	defer stop()

	model := tui.NewModel(service, container, tui.Options{
		Counts:         updates,
		InitialCounts:  initial[cfg.Timeline],
		CountsLevelNum: cfg.CountsLevelNum,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// offerLatest puts msg on a one-slot channel, replacing an update the UI has
// not picked up yet.
func offerLatest(ch chan tuiactions.CountsMsg, msg tuiactions.CountsMsg) {
	for {
		select {
		case ch <- msg:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// fetchCounts asks for the current counts of the timelines without waiting
// for a change.
func fetchCounts(ctx context.Context, client *busybird.Client, level string, timelines []string) (map[string]busybird.Counts, error) {
	known := make(map[string]int, len(timelines))
	for _, name := range timelines {
		known[name] = -1
	}
	return client.UnackedCounts(ctx, busybird.UnackedCountsQuery{Level: level, Known: known})
}
