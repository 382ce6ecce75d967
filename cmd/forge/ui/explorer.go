package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"loopforge/internal/engine"
	"loopforge/internal/selector"
)

// clipboardWriteAll is a package-level variable to allow mocking in tests.
var clipboardWriteAll = clipboard.WriteAll

// countSteps are the element-count presets the explorer cycles through.
var countSteps = []int{100, 500, 1_000, 5_000, 10_000, 50_000, 100_000, 500_000, 1_000_000}

// coreSteps are the core-count presets; 0 resolves from the host.
var coreSteps = []int{0, 1, 2, 4, 8, 16}

// ExplorerModel is the interactive strategy explorer: edit the iteration
// context live on the left, watch the ranking reorder, and preview the
// selected candidate's emitted code on the right.
type ExplorerModel struct {
	width  int
	height int

	list     list.Model
	viewport viewport.Model

	focusViewport bool

	sel  *selector.Selector
	ictx engine.IterationContext
	gctx engine.CodeGenContext

	ranked  []selector.Candidate
	shownID string

	styles Styles
}

// candidateItem adapts a ranked candidate to list.Item.
type candidateItem struct {
	c selector.Candidate
}

func (i candidateItem) Title() string { return i.c.Strategy.Name() }

func (i candidateItem) Description() string {
	e := i.c.Estimate
	return fmt.Sprintf("prio %d | %s | %.2f MB | score %.0f", i.c.Priority, e.Time, e.MemoryMB, e.Score)
}

func (i candidateItem) FilterValue() string {
	return i.c.Strategy.ID() + " " + i.c.Strategy.Name()
}

// NewExplorerModel builds the explorer over a selector with an initial
// context.
func NewExplorerModel(sel *selector.Selector, ictx engine.IterationContext, gctx engine.CodeGenContext, styles Styles) ExplorerModel {
	vp := viewport.New(0, 0)

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Candidates"
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.Styles.Title = styles.Title

	m := ExplorerModel{
		list:     l,
		viewport: vp,
		sel:      sel,
		ictx:     ictx,
		gctx:     gctx,
		styles:   styles,
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m ExplorerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ExplorerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "tab":
			m.focusViewport = !m.focusViewport
			return m, nil

		case "+", "=":
			m.ictx.ElementCount = stepUp(countSteps, m.ictx.ElementCount)
			m.refresh()
			return m, nil

		case "-":
			m.ictx.ElementCount = stepDown(countSteps, m.ictx.ElementCount)
			m.refresh()
			return m, nil

		case "p":
			m.ictx.Platform = nextPlatform(m.ictx.Platform)
			m.gctx.Platform = m.ictx.Platform
			m.refresh()
			return m, nil

		case "c":
			m.ictx.CPUBound = !m.ictx.CPUBound
			m.refresh()
			return m, nil

		case "r":
			m.ictx.Requirements.RealTime = !m.ictx.Requirements.RealTime
			m.refresh()
			return m, nil

		case "o":
			m.ictx.Environment.Cores = stepUp(coreSteps, m.ictx.Environment.Cores)
			m.refresh()
			return m, nil

		case "g":
			m.gctx.NullGuard = !m.gctx.NullGuard
			m.renderSelected()
			return m, nil

		case "b":
			m.gctx.BoundsCheck = !m.gctx.BoundsCheck
			m.renderSelected()
			return m, nil

		case "y":
			if code := m.selectedCode(); code != "" {
				if err := clipboardWriteAll(code); err != nil {
					cmds = append(cmds, m.list.NewStatusMessage(m.styles.Error.Render("copy failed")))
				} else {
					cmds = append(cmds, m.list.NewStatusMessage(m.styles.Success.Render("code copied")))
				}
			}
			return m, tea.Batch(cmds...)
		}
	}

	_, isKey := msg.(tea.KeyMsg)
	if !isKey || !m.focusViewport {
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
	}
	if !isKey || m.focusViewport {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Track selection changes made with the list keys.
	if sel, ok := m.list.SelectedItem().(candidateItem); ok {
		if sel.c.Strategy.ID() != m.shownID {
			m.renderSelected()
		}
	}

	return m, tea.Batch(cmds...)
}

// refresh re-runs ranking for the current context and rebuilds the list.
func (m *ExplorerModel) refresh() {
	ranked, err := m.sel.Rank(m.ictx)
	if err != nil {
		m.ranked = nil
		m.list.SetItems(nil)
		m.list.Title = "Candidates (none)"
		m.shownID = ""
		m.viewport.SetContent(m.styles.Error.Render(err.Error()))
		return
	}
	m.ranked = ranked

	items := make([]list.Item, 0, len(ranked))
	for _, c := range ranked {
		items = append(items, candidateItem{c: c})
	}
	m.list.SetItems(items)
	m.list.Title = fmt.Sprintf("Candidates (%d)", len(ranked))
	m.renderSelected()
}

// selectedCandidate returns the highlighted candidate, defaulting to the
// winner.
func (m *ExplorerModel) selectedCandidate() *selector.Candidate {
	if item, ok := m.list.SelectedItem().(candidateItem); ok {
		return &item.c
	}
	if len(m.ranked) > 0 {
		return &m.ranked[0]
	}
	return nil
}

// selectedCode emits the highlighted candidate's fragment.
func (m *ExplorerModel) selectedCode() string {
	c := m.selectedCandidate()
	if c == nil {
		return ""
	}
	code, err := c.Strategy.EmitCode(m.gctx)
	if err != nil {
		return ""
	}
	return code
}

// renderSelected refreshes the code pane for the highlighted candidate.
func (m *ExplorerModel) renderSelected() {
	c := m.selectedCandidate()
	if c == nil {
		m.shownID = ""
		m.viewport.SetContent(m.styles.Muted.Render("no candidate to preview"))
		return
	}
	m.shownID = c.Strategy.ID()

	header := m.styles.Header.Render(c.Strategy.Name())
	meta := m.styles.Info.Render(fmt.Sprintf("priority %d | est %s | %.2f MB | confidence %.2f",
		c.Priority, c.Estimate.Time, c.Estimate.MemoryMB, c.Estimate.Confidence))

	fits := m.styles.Success.Render("fits requirements")
	if !c.Estimate.MeetsRequirements {
		fits = m.styles.Warning.Render("exceeds requirements")
	}

	code, err := c.Strategy.EmitCode(m.gctx)
	if err != nil {
		code = err.Error()
	}

	m.viewport.SetContent(lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		meta,
		fits,
		"",
		m.styles.CodeBlock.Render(strings.TrimRight(code, "\n")),
	))
}

// contextLine summarizes the live iteration context for the header.
func (m ExplorerModel) contextLine() string {
	cores := "host"
	if m.ictx.Environment.Cores > 0 {
		cores = fmt.Sprintf("%d", m.ictx.Environment.Cores)
	}
	flags := make([]string, 0, 4)
	if m.ictx.CPUBound {
		flags = append(flags, "cpu-bound")
	}
	if m.ictx.Requirements.RealTime {
		flags = append(flags, "real-time")
	}
	if m.gctx.NullGuard {
		flags = append(flags, "null-guard")
	}
	if m.gctx.BoundsCheck {
		flags = append(flags, "bounds-check")
	}
	extra := ""
	if len(flags) > 0 {
		extra = " | " + strings.Join(flags, ", ")
	}
	return fmt.Sprintf("n=%d | %s | cores=%s%s", m.ictx.ElementCount, m.ictx.Platform, cores, extra)
}

// View implements tea.Model.
func (m ExplorerModel) View() string {
	header := m.styles.Badge.Render("forge explorer") + " " + m.styles.Subtitle.Render(m.contextLine())

	listWidth := int(float64(m.width) * 0.4)
	viewWidth := m.width - listWidth

	pane := lipgloss.NewStyle().
		Padding(0, 1).
		Border(lipgloss.RoundedBorder())

	var listStyle, viewStyle lipgloss.Style
	if m.focusViewport {
		listStyle = pane.BorderForeground(m.styles.Theme.Muted)
		viewStyle = pane.BorderForeground(m.styles.Theme.Accent)
	} else {
		listStyle = pane.BorderForeground(m.styles.Theme.Accent)
		viewStyle = pane.BorderForeground(m.styles.Theme.Muted)
	}

	main := lipgloss.JoinHorizontal(lipgloss.Top,
		listStyle.Width(listWidth-4).Render(m.list.View()),
		viewStyle.Width(viewWidth-4).Render(m.viewport.View()),
	)

	help := m.styles.Footer.Render("+/-: count | p: platform | c: cpu | r: realtime | o: cores | g/b: guards | y: copy | tab: focus | q: quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, main, help)
}

// setSize recomputes pane dimensions.
func (m *ExplorerModel) setSize(w, h int) {
	m.width = w
	m.height = h

	chromeW := 4
	paneH := h - 4

	listWidth := int(float64(w) * 0.4)
	viewWidth := w - listWidth

	m.list.SetSize(listWidth-chromeW, paneH)
	m.viewport.Width = viewWidth - chromeW
	m.viewport.Height = paneH
}

// stepUp moves to the next preset above v, wrapping to the first.
func stepUp(steps []int, v int) int {
	for _, s := range steps {
		if s > v {
			return s
		}
	}
	return steps[0]
}

// stepDown moves to the previous preset below v, wrapping to the last.
func stepDown(steps []int, v int) int {
	for i := len(steps) - 1; i >= 0; i-- {
		if steps[i] < v {
			return steps[i]
		}
	}
	return steps[len(steps)-1]
}

// nextPlatform cycles through the platform enumeration.
func nextPlatform(p engine.Platform) engine.Platform {
	all := engine.AllPlatforms()
	for i, candidate := range all {
		if candidate == p {
			return all[(i+1)%len(all)]
		}
	}
	return all[0]
}
