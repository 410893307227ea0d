package actions

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/busybird-cli/internal/app"
	"github.com/glabrego/busybird-cli/internal/busybird"
)

const (
	loadTimeout      = 60 * time.Second
	thresholdTimeout = 30 * time.Second
)

type Service interface {
	LoadInit(ctx context.Context) (app.LoadResult, error)
	LoadUnacked(ctx context.Context) (app.LoadResult, error)
	LoadMore(ctx context.Context) (app.LoadResult, error)
	SetThresholdLevel(ctx context.Context, level int) error
}

type LoadSource string

const (
	SourceInit    LoadSource = "init"
	SourceUnacked LoadSource = "unacked"
	SourceMore    LoadSource = "more"
)

type LoadSuccessMsg struct {
	Source        LoadSource
	Count         int
	MoreAvailable bool
	Duration      time.Duration
}

type LoadErrorMsg struct {
	Source   LoadSource
	Err      error
	Duration time.Duration
}

type ThresholdSuccessMsg struct {
	Level int
}

type ThresholdErrorMsg struct {
	Level int
	Err   error
}

// CountsMsg carries one unacked counts update from the poller.
type CountsMsg struct {
	Timeline string
	Counts   busybird.Counts
}

type OpenURLSuccessMsg struct {
	Status string
}

type OpenURLErrorMsg struct {
	Err error
}

type CopyURLSuccessMsg struct {
	Status string
}

type CopyURLErrorMsg struct {
	Err error
}

type ClearStatusMsg struct {
	ID int
}

func LoadCmd(service Service, source LoadSource) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		start := time.Now()

		var (
			result app.LoadResult
			err    error
		)
		switch source {
		case SourceInit:
			result, err = service.LoadInit(ctx)
		case SourceUnacked:
			result, err = service.LoadUnacked(ctx)
		case SourceMore:
			result, err = service.LoadMore(ctx)
		default:
			err = fmt.Errorf("unknown load source %q", source)
		}
		if err != nil {
			return LoadErrorMsg{Source: source, Err: err, Duration: time.Since(start)}
		}
		return LoadSuccessMsg{
			Source:        source,
			Count:         len(result.Statuses),
			MoreAvailable: result.MoreAvailable,
			Duration:      time.Since(start),
		}
	}
}

func SetThresholdCmd(service Service, level int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), thresholdTimeout)
		defer cancel()

		if err := service.SetThresholdLevel(ctx, level); err != nil {
			return ThresholdErrorMsg{Level: level, Err: err}
		}
		return ThresholdSuccessMsg{Level: level}
	}
}

// WaitForCountsCmd delivers the next counts update. It returns nil once the
// channel is closed.
func WaitForCountsCmd(updates <-chan CountsMsg) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-updates
		if !ok {
			return nil
		}
		return msg
	}
}

func OpenURLCmd(url string, openURL func(string) error) tea.Cmd {
	return func() tea.Msg {
		if err := openURL(url); err != nil {
			return OpenURLErrorMsg{Err: err}
		}
		return OpenURLSuccessMsg{Status: "Opened permalink in browser"}
	}
}

func CopyURLCmd(url string, copyURL func(string) error) tea.Cmd {
	return func() tea.Msg {
		if err := copyURL(url); err != nil {
			return CopyURLErrorMsg{Err: err}
		}
		return CopyURLSuccessMsg{Status: "Copied permalink to clipboard"}
	}
}

func ClearStatusCmd(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return ClearStatusMsg{ID: id}
	})
}
