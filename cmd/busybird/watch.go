package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/glabrego/busybird-cli/internal/busybird"
	"github.com/glabrego/busybird-cli/internal/poller"
	tuiview "github.com/glabrego/busybird-cli/internal/tui/view"
)

var (
	timelineLabel = color.New(color.FgCyan, color.Bold).SprintFunc()
	stateLabel    = color.New(color.FgMagenta).SprintFunc()
)

type watchOptions struct {
	states []string
}

func newWatchCommand(opts *rootOptions) *cobra.Command {
	wo := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch [timeline...]",
		Short: "Print unacked counts whenever they change, until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			timelines := args
			if len(timelines) == 0 {
				timelines = []string{cfg.Timeline}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := busybird.NewClient(cfg.BaseURL, &http.Client{})
			return runWatch(ctx, cmd.OutOrStdout(), client, watchConfig{
				level:     cfg.PollLevel,
				levelNum:  cfg.CountsLevelNum,
				timelines: timelines,
				states:    wo.states,
			})
		},
	}
	cmd.Flags().StringSliceVar(&wo.states, "state", nil, "also watch these state.json elements")
	return cmd
}

type watchConfig struct {
	level     string
	levelNum  int
	timelines []string
	states    []string
	sleep     func(ctx context.Context, d time.Duration) error
	now       func() time.Time
}

// syncWriter serialises lines printed from concurrent poller callbacks.
type syncWriter struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

func (w *syncWriter) printf(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	stamp := w.now().Format(time.TimeOnly)
	_, _ = fmt.Fprintf(w.out, stamp+" "+format+"\n", args...)
}

func runWatch(ctx context.Context, out io.Writer, client *busybird.Client, cfg watchConfig) error {
	if cfg.now == nil {
		cfg.now = time.Now
	}
	w := &syncWriter{out: out, now: cfg.now}
	logger := log.New(os.Stderr, "", log.LstdFlags)

	unacked, err := poller.NewUnackedPoller(client, poller.Options{Level: cfg.level, Logger: logger, Sleep: cfg.sleep})
	if err != nil {
		return err
	}
	report := func(name string, counts busybird.Counts) {
		w.printf("%s %s", timelineLabel(name), countsSummary(counts, cfg.levelNum))
	}
	initial, err := fetchCounts(ctx, client, cfg.level, cfg.timelines)
	if err != nil {
		logger.Printf("initial unacked counts: %v", err)
	}
	for _, name := range cfg.timelines {
		if counts, ok := initial[name]; ok {
			report(name, counts)
		}
		err := unacked.AddTimeline(poller.Registration{
			Name:          name,
			InitialCounts: initial[name],
			Callback:      report,
		})
		if err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return unacked.Run(ctx) })

	if len(cfg.states) > 0 {
		states := poller.NewStatePoller(client, poller.Options{Logger: logger, Sleep: cfg.sleep})
		for _, name := range cfg.states {
			err := states.Add(name, func(raw json.RawMessage) (string, error) {
				w.printf("%s %s", stateLabel(name), strings.TrimSpace(string(raw)))
				return stateBase(raw)
			})
			if err != nil {
				return err
			}
		}
		g.Go(func() error { return states.Run(ctx) })
	}
	return g.Wait()
}

func countsSummary(counts busybird.Counts, levelNum int) string {
	pairs := tuiview.CountsPairs(counts, levelNum)
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		part := fmt.Sprintf("%s=%d", strings.ReplaceAll(p.Label, " ", ""), p.Sum)
		if p.HasDelta {
			part += fmt.Sprintf("(+%d)", p.Delta)
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " ")
}

// stateBase is the value sent back for an element on the next request: the
// plain text of a JSON string, otherwise the raw JSON.
func stateBase(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := sonic.UnmarshalString(trimmed, &s); err != nil {
			return "", fmt.Errorf("decode state value: %w", err)
		}
		return s, nil
	}
	return trimmed, nil
}
