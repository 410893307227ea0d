package tui

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/busybird-cli/internal/app"
	"github.com/glabrego/busybird-cli/internal/busybird"
	"github.com/glabrego/busybird-cli/internal/timeline"
	tuiactions "github.com/glabrego/busybird-cli/internal/tui/actions"
)

var ansiStrip = regexp.MustCompile(`\x1b\[[0-9;]*m`)

type fakeService struct {
	container *timeline.Container
	name      string
	unacked   []busybird.Status
	more      []busybird.Status
	loadErr   error
	levels    []int
}

func (f *fakeService) Timeline() string { return f.name }

func (f *fakeService) LoadInit(ctx context.Context) (app.LoadResult, error) {
	return f.LoadUnacked(ctx)
}

func (f *fakeService) LoadUnacked(ctx context.Context) (app.LoadResult, error) {
	if f.loadErr != nil {
		return app.LoadResult{}, f.loadErr
	}
	if err := f.container.Prepend(ctx, f.unacked); err != nil {
		return app.LoadResult{}, err
	}
	return app.LoadResult{Statuses: f.unacked}, nil
}

func (f *fakeService) LoadMore(ctx context.Context) (app.LoadResult, error) {
	if f.loadErr != nil {
		return app.LoadResult{}, f.loadErr
	}
	if err := f.container.Append(ctx, f.more); err != nil {
		return app.LoadResult{}, err
	}
	return app.LoadResult{Statuses: f.more}, nil
}

func (f *fakeService) SetThresholdLevel(ctx context.Context, level int) error {
	f.levels = append(f.levels, level)
	return f.container.SetThreshold(ctx, level)
}

func status(id, text string, level int, permalink string) busybird.Status {
	return busybird.Status{
		ID:       id,
		Text:     text,
		BusyBird: busybird.Meta{Level: level, StatusPermalink: permalink},
	}
}

func newTestModel(t *testing.T) (Model, *fakeService) {
	t.Helper()
	container := timeline.NewContainer(timeline.Options{Width: 80, Height: 20})
	svc := &fakeService{
		container: container,
		name:      "home",
		unacked: []busybird.Status{
			status("2", "first status", 0, "https://example.com/s/2"),
			status("1", "second status", 1, "https://example.com/s/1"),
		},
	}
	m := NewModel(svc, container, Options{})
	updated, _ := m.Update(tuiactions.LoadCmd(svc, tuiactions.SourceInit)())
	return updated.(Model), svc
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// actionMsgs runs cmd and returns the messages produced by the tui actions,
// skipping spinner ticks.
func actionMsgs(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, actionMsgs(c)...)
		}
		return out
	}
	switch msg.(type) {
	case tuiactions.LoadSuccessMsg, tuiactions.LoadErrorMsg,
		tuiactions.ThresholdSuccessMsg, tuiactions.ThresholdErrorMsg,
		tuiactions.OpenURLSuccessMsg, tuiactions.OpenURLErrorMsg,
		tuiactions.CopyURLSuccessMsg, tuiactions.CopyURLErrorMsg,
		tuiactions.CountsMsg:
		return []tea.Msg{msg}
	}
	return nil
}

func TestModelView_ShowsLoadedStatuses(t *testing.T) {
	m, _ := newTestModel(t)
	if m.loading {
		t.Fatal("expected loading to finish after init load")
	}
	view := ansiStrip.ReplaceAllString(m.View(), "")
	for _, want := range []string{"BusyBird", "home", "> first status", "  second status", "2 statuses", "Loaded 2 unacked statuses"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view, got:\n%s", want, view)
		}
	}
}

func TestModelUpdate_LoadError(t *testing.T) {
	container := timeline.NewContainer(timeline.Options{Width: 80, Height: 20})
	svc := &fakeService{container: container, name: "home", loadErr: errors.New("network")}
	m := NewModel(svc, container, Options{})

	updated, _ := m.Update(tuiactions.LoadCmd(svc, tuiactions.SourceInit)())
	model := updated.(Model)
	if model.err == nil || model.loading {
		t.Fatalf("expected load error and idle state, got err=%v loading=%v", model.err, model.loading)
	}
	if view := model.View(); !strings.Contains(view, "network") {
		t.Fatalf("expected error in view, got:\n%s", view)
	}
}

func TestModelUpdate_CursorMovesBetweenVisibleStatuses(t *testing.T) {
	m, _ := newTestModel(t)

	updated, _ := m.Update(keyPress('j'))
	model := updated.(Model)
	if got := model.container.Cursor(); got != 1 {
		t.Fatalf("expected cursor at 1, got %d", got)
	}
	updated, _ = model.Update(keyPress('j'))
	model = updated.(Model)
	if got := model.container.Cursor(); got != 1 {
		t.Fatalf("expected cursor to stay at the last status, got %d", got)
	}
	updated, _ = model.Update(keyPress('k'))
	model = updated.(Model)
	if got := model.container.Cursor(); got != 0 {
		t.Fatalf("expected cursor back at 0, got %d", got)
	}
}

func TestModelUpdate_RaiseThresholdHidesLowStatuses(t *testing.T) {
	m, svc := newTestModel(t)

	updated, cmd := m.Update(keyPress('+'))
	model := updated.(Model)
	if !model.thresholdBusy {
		t.Fatal("expected threshold change in flight")
	}
	msgs := actionMsgs(cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected one threshold message, got %v", msgs)
	}
	if _, ok := msgs[0].(tuiactions.ThresholdSuccessMsg); !ok {
		t.Fatalf("expected ThresholdSuccessMsg, got %T", msgs[0])
	}
	updated, _ = model.Update(msgs[0])
	model = updated.(Model)

	if model.thresholdBusy || model.container.Threshold() != 1 {
		t.Fatalf("expected threshold 1 applied, busy=%v level=%d", model.thresholdBusy, model.container.Threshold())
	}
	if len(svc.levels) != 1 || svc.levels[0] != 1 {
		t.Fatalf("unexpected levels sent to service: %v", svc.levels)
	}
	view := ansiStrip.ReplaceAllString(model.View(), "")
	for _, want := range []string{"1 status hidden here.", "> second status", "hidden 1", "threshold Lv.1"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view, got:\n%s", want, view)
		}
	}
	if strings.Contains(view, "first status") {
		t.Fatalf("expected first status hidden, got:\n%s", view)
	}
}

func TestModelUpdate_ThresholdChangesAreQueued(t *testing.T) {
	m, svc := newTestModel(t)

	updated, first := m.Update(keyPress('+'))
	model := updated.(Model)
	updated, second := model.Update(keyPress('+'))
	model = updated.(Model)
	if second != nil {
		t.Fatal("expected no command while a threshold change is running")
	}
	if model.targetLevel != 2 {
		t.Fatalf("expected target level 2, got %d", model.targetLevel)
	}

	msgs := actionMsgs(first)
	updated, next := model.Update(msgs[0])
	model = updated.(Model)
	if !model.thresholdBusy {
		t.Fatal("expected queued threshold change to start")
	}
	msgs = actionMsgs(next)
	if len(msgs) != 1 {
		t.Fatalf("expected queued threshold message, got %v", msgs)
	}
	updated, _ = model.Update(msgs[0])
	model = updated.(Model)
	if got := model.container.Threshold(); got != 2 {
		t.Fatalf("expected threshold 2, got %d", got)
	}
	if len(svc.levels) != 2 || svc.levels[0] != 1 || svc.levels[1] != 2 {
		t.Fatalf("unexpected levels sent to service: %v", svc.levels)
	}

	updated, cmd := model.Update(keyPress('0'))
	model = updated.(Model)
	msgs = actionMsgs(cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected reset threshold message, got %v", msgs)
	}
	updated, _ = model.Update(msgs[0])
	model = updated.(Model)
	if got := model.container.Threshold(); got != 0 {
		t.Fatalf("expected threshold reset to 0, got %d", got)
	}
}

func TestModelUpdate_LoadMoreAppends(t *testing.T) {
	m, svc := newTestModel(t)
	svc.more = []busybird.Status{status("0", "older status", 0, "")}

	updated, cmd := m.Update(keyPress('n'))
	model := updated.(Model)
	if !model.loading {
		t.Fatal("expected loading while fetching older statuses")
	}
	msgs := actionMsgs(cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected one load message, got %v", msgs)
	}
	updated, _ = model.Update(msgs[0])
	model = updated.(Model)
	if model.container.Len() != 3 || model.container.LastID() != "0" {
		t.Fatalf("expected older status appended, len=%d last=%s", model.container.Len(), model.container.LastID())
	}
	if !strings.Contains(model.status, "Loaded 1 older statuses") {
		t.Fatalf("unexpected status: %q", model.status)
	}

	updated, cmd = model.Update(keyPress('r'))
	model = updated.(Model)
	updated, again := model.Update(keyPress('r'))
	if again != nil {
		t.Fatal("expected second load to be ignored while loading")
	}
	_ = updated
	if msgs := actionMsgs(cmd); len(msgs) != 1 {
		t.Fatalf("expected unacked load message, got %v", msgs)
	}
}

func TestModelUpdate_OpenAndCopyPermalink(t *testing.T) {
	m, _ := newTestModel(t)
	var opened, copied string
	m.openURLFn = func(u string) error { opened = u; return nil }
	m.copyURLFn = func(u string) error { copied = u; return nil }

	_, cmd := m.Update(keyPress('o'))
	msgs := actionMsgs(cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected open message, got %v", msgs)
	}
	if _, ok := msgs[0].(tuiactions.OpenURLSuccessMsg); !ok || opened != "https://example.com/s/2" {
		t.Fatalf("unexpected open result: %T %q", msgs[0], opened)
	}

	updated, _ := m.Update(keyPress('j'))
	_, cmd = updated.(Model).Update(keyPress('y'))
	msgs = actionMsgs(cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected copy message, got %v", msgs)
	}
	if _, ok := msgs[0].(tuiactions.CopyURLSuccessMsg); !ok || copied != "https://example.com/s/1" {
		t.Fatalf("unexpected copy result: %T %q", msgs[0], copied)
	}
}

func TestModelUpdate_CountsUpdateLine(t *testing.T) {
	container := timeline.NewContainer(timeline.Options{Width: 80, Height: 20})
	svc := &fakeService{container: container, name: "home"}
	updates := make(chan tuiactions.CountsMsg, 1)
	m := NewModel(svc, container, Options{Counts: updates})

	updated, cmd := m.Update(tuiactions.CountsMsg{Timeline: "home", Counts: busybird.Counts{"total": 3, "0": 3}})
	model := updated.(Model)
	if cmd == nil {
		t.Fatal("expected to keep waiting for counts")
	}
	view := ansiStrip.ReplaceAllString(model.View(), "")
	if !strings.Contains(view, "unacked Lv. 0 3") {
		t.Fatalf("expected counts line in view, got:\n%s", view)
	}

	updated, _ = model.Update(tuiactions.CountsMsg{Timeline: "other", Counts: busybird.Counts{"total": 9, "0": 9}})
	model = updated.(Model)
	if model.counts.Total() != 3 {
		t.Fatalf("expected counts of other timelines ignored, got %v", model.counts)
	}
}

func TestModelUpdate_StatusClearsOnlyForLatestMessage(t *testing.T) {
	m, _ := newTestModel(t)
	id := m.statusID

	updated, _ := m.Update(tuiactions.ClearStatusMsg{ID: id - 1})
	model := updated.(Model)
	if model.status == "" {
		t.Fatal("expected stale clear to be ignored")
	}
	updated, _ = model.Update(tuiactions.ClearStatusMsg{ID: id})
	model = updated.(Model)
	if model.status != "" {
		t.Fatalf("expected status cleared, got %q", model.status)
	}
}

func TestModelUpdate_WindowSizeAndHelpResizeList(t *testing.T) {
	m, _ := newTestModel(t)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	model := updated.(Model)
	if _, height := model.container.Window(); height != 25 {
		t.Fatalf("expected list height 25, got %d", height)
	}

	updated, _ = model.Update(keyPress('?'))
	model = updated.(Model)
	if _, height := model.container.Window(); height != 19 {
		t.Fatalf("expected list height 19 with help, got %d", height)
	}
	if view := model.View(); !strings.Contains(view, "raise, lower or reset") {
		t.Fatalf("expected help in view, got:\n%s", view)
	}

	_, cmd := model.Update(keyPress('q'))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}
