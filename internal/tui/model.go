package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/busybird-cli/internal/busybird"
	"github.com/glabrego/busybird-cli/internal/timeline"
	tuiactions "github.com/glabrego/busybird-cli/internal/tui/actions"
	tuiplatform "github.com/glabrego/busybird-cli/internal/tui/platform"
	tuistate "github.com/glabrego/busybird-cli/internal/tui/state"
	tuitheme "github.com/glabrego/busybird-cli/internal/tui/theme"
	tuiview "github.com/glabrego/busybird-cli/internal/tui/view"
)

const (
	statusTTL = 5 * time.Second
	maxLevel  = 100
)

type Service interface {
	tuiactions.Service
	Timeline() string
}

type Options struct {
	// Counts delivers unacked counts updates; nil disables the counts line.
	Counts         <-chan tuiactions.CountsMsg
	InitialCounts  busybird.Counts
	CountsLevelNum int
}

type Model struct {
	service   Service
	container *timeline.Container
	theme     tuitheme.Theme
	keys      keyMap
	spinner   spinner.Model

	countsCh       <-chan tuiactions.CountsMsg
	counts         busybird.Counts
	countsLevelNum int

	loading       bool
	moreAvailable bool
	thresholdBusy bool
	targetLevel   int

	showHelp bool
	width    int
	height   int
	status   string
	statusID int
	warning  string
	err      error

	openURLFn func(string) error
	copyURLFn func(string) error
}

func NewModel(service Service, container *timeline.Container, opts Options) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	levelNum := opts.CountsLevelNum
	if levelNum <= 0 {
		levelNum = tuiview.DefaultCountsLevelNum
	}
	return Model{
		service:        service,
		container:      container,
		theme:          tuitheme.Default(),
		keys:           defaultKeyMap(),
		spinner:        s,
		countsCh:       opts.Counts,
		counts:         opts.InitialCounts,
		countsLevelNum: levelNum,
		loading:        service != nil,
		targetLevel:    container.Threshold(),
		openURLFn:      tuiplatform.OpenURLInBrowser,
		copyURLFn:      tuiplatform.CopyToClipboard,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tuiactions.WaitForCountsCmd(m.countsCh)}
	if m.service != nil {
		cmds = append(cmds, tuiactions.LoadCmd(m.service, tuiactions.SourceInit), m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m Model) busy() bool {
	return m.loading || m.thresholdBusy
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeList()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tuiactions.LoadSuccessMsg:
		m.loading = false
		m.err = nil
		m.warning = ""
		m.moreAvailable = msg.MoreAvailable
		return m, m.setStatus(loadStatus(msg))
	case tuiactions.LoadErrorMsg:
		m.loading = false
		m.err = msg.Err
		m.warning = fmt.Sprintf("Load %s failed: %v", msg.Source, msg.Err)
		return m, nil
	case tuiactions.ThresholdSuccessMsg:
		m.thresholdBusy = false
		if m.targetLevel != msg.Level {
			return m.applyTargetLevel()
		}
		return m, m.setStatus(fmt.Sprintf("Threshold Lv.%d", msg.Level))
	case tuiactions.ThresholdErrorMsg:
		m.thresholdBusy = false
		m.targetLevel = m.container.Threshold()
		m.err = msg.Err
		m.warning = fmt.Sprintf("Threshold change failed: %v", msg.Err)
		return m, nil
	case tuiactions.CountsMsg:
		if m.service == nil || msg.Timeline == m.service.Timeline() {
			m.counts = msg.Counts
		}
		return m, tuiactions.WaitForCountsCmd(m.countsCh)
	case tuiactions.OpenURLSuccessMsg:
		return m, m.setStatus(msg.Status)
	case tuiactions.OpenURLErrorMsg:
		m.err = msg.Err
		return m, m.setStatus("Open failed: " + msg.Err.Error())
	case tuiactions.CopyURLSuccessMsg:
		return m, m.setStatus(msg.Status)
	case tuiactions.CopyURLErrorMsg:
		m.err = msg.Err
		return m, m.setStatus("Copy failed: " + msg.Err.Error())
	case tuiactions.ClearStatusMsg:
		if msg.ID == m.statusID {
			m.status = ""
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.resizeList()
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.container.MoveCursor(1)
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.container.MoveCursor(-1)
		return m, nil
	case key.Matches(msg, m.keys.HalfPageDown):
		m.container.ScrollBy(tuistate.PageStep(m.listHeight()))
		return m, nil
	case key.Matches(msg, m.keys.HalfPageUp):
		m.container.ScrollBy(-tuistate.PageStep(m.listHeight()))
		return m, nil
	case key.Matches(msg, m.keys.Raise):
		return m.changeThreshold(m.targetLevel + 1)
	case key.Matches(msg, m.keys.Lower):
		return m.changeThreshold(m.targetLevel - 1)
	case key.Matches(msg, m.keys.Reset):
		return m.changeThreshold(0)
	case key.Matches(msg, m.keys.Unacked):
		return m.load(tuiactions.SourceUnacked)
	case key.Matches(msg, m.keys.More):
		return m.load(tuiactions.SourceMore)
	case key.Matches(msg, m.keys.Open):
		return m.withPermalink(func(url string) tea.Cmd {
			return tuiactions.OpenURLCmd(url, m.openURLFn)
		})
	case key.Matches(msg, m.keys.Copy):
		return m.withPermalink(func(url string) tea.Cmd {
			return tuiactions.CopyURLCmd(url, m.copyURLFn)
		})
	}
	return m, nil
}

func (m Model) load(source tuiactions.LoadSource) (tea.Model, tea.Cmd) {
	if m.service == nil || m.loading {
		return m, nil
	}
	wasBusy := m.busy()
	m.loading = true
	m.warning = ""
	m.err = nil
	return m, tea.Batch(tuiactions.LoadCmd(m.service, source), m.spinnerCmd(wasBusy))
}

// changeThreshold records the wanted level. Only one change runs at a time;
// a newer target is applied when the running one finishes.
func (m Model) changeThreshold(level int) (tea.Model, tea.Cmd) {
	if m.service == nil {
		return m, nil
	}
	m.targetLevel = tuistate.ClampLevel(level, -maxLevel, maxLevel)
	if m.thresholdBusy {
		return m, nil
	}
	return m.applyTargetLevel()
}

func (m Model) applyTargetLevel() (tea.Model, tea.Cmd) {
	if m.targetLevel == m.container.Threshold() {
		return m, nil
	}
	wasBusy := m.busy()
	m.thresholdBusy = true
	return m, tea.Batch(tuiactions.SetThresholdCmd(m.service, m.targetLevel), m.spinnerCmd(wasBusy))
}

func (m Model) withPermalink(cmd func(url string) tea.Cmd) (tea.Model, tea.Cmd) {
	status, ok := m.container.CursorStatus()
	if !ok {
		return m, m.setStatus("No status selected")
	}
	url, err := tuiplatform.ValidatePermalink(status.Permalink())
	if err != nil {
		return m, m.setStatus("Cannot use permalink: " + err.Error())
	}
	return m, cmd(url)
}

func (m Model) spinnerCmd(wasBusy bool) tea.Cmd {
	if wasBusy {
		return nil
	}
	return m.spinner.Tick
}

func (m *Model) setStatus(text string) tea.Cmd {
	m.statusID++
	m.status = text
	return tuiactions.ClearStatusCmd(m.statusID, statusTTL)
}

func (m Model) listHeight() int {
	return tuistate.ListHeight(m.height, m.showHelp)
}

func (m Model) contentWidth() int {
	if m.width <= 0 {
		return 80
	}
	return m.width
}

func (m Model) resizeList() {
	m.container.SetSize(m.contentWidth(), m.listHeight())
}

func loadStatus(msg tuiactions.LoadSuccessMsg) string {
	switch msg.Source {
	case tuiactions.SourceMore:
		if msg.Count == 0 {
			return "No older statuses"
		}
		return fmt.Sprintf("Loaded %d older statuses", msg.Count)
	default:
		if msg.Count == 0 {
			return "No unacked statuses"
		}
		return fmt.Sprintf("Loaded %d unacked statuses in %s", msg.Count, msg.Duration.Round(time.Millisecond))
	}
}

func (m Model) View() string {
	timelineName := ""
	if m.service != nil {
		timelineName = m.service.Timeline()
	}
	var b strings.Builder
	b.WriteString(tuiview.Header(timelineName, m.container.Threshold(), m.theme))
	b.WriteString("\n")
	b.WriteString(tuiview.Toolbar())
	b.WriteString("\n")
	if m.showHelp {
		for _, line := range tuiview.HelpLines() {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	b.WriteString(tuiview.UnackedCountsLine(m.counts, m.countsLevelNum, m.theme))
	b.WriteString("\n")

	body := tuiview.RenderRows(m.container.View(), m.contentWidth(), m.theme)
	switch {
	case body != "":
		b.WriteString(body)
	case m.loading:
		b.WriteString("Loading statuses...\n")
	default:
		b.WriteString("No statuses to show.\n")
	}

	b.WriteString(tuiview.Message(m.busy(), m.spinner.View(), m.status, m.warning, m.theme))
	b.WriteString("\n")
	b.WriteString(tuiview.Footer(m.container.Len(), m.container.VisibleCount(), m.container.ScrollTop(), m.container.TotalRows(), m.theme))
	b.WriteString("\n")
	return b.String()
}
