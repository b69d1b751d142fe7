// Package tui is the UISink/KeyInput collaborator (spec.md §6): a Bubble
// Tea program that renders InputState and the live ResultSet stream, and
// resolves key events to Actions through the loaded key map.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/standardbeagle/lasr/internal/config"
	"github.com/standardbeagle/lasr/internal/searchcore"
	"github.com/standardbeagle/lasr/internal/tui/action"
)

var (
	labelStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	focusedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	pathStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	matchStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	skipStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	maxPreviewRows = 40
)

// resultMsg carries one ResultSet update from Engine.Subscribe.
type resultMsg searchcore.ResultSet

// Model is the root Bubble Tea model. It holds no search state of its
// own — InputState and ResultSet both live in the Engine — only rendering
// concerns and the outcome of a completed session.
type Model struct {
	engine *searchcore.Engine
	cfg    *config.Config

	latest searchcore.ResultSet
	width  int

	quitting bool
	report   *searchcore.Report
	fatalErr error
}

// NewModel builds the root model bound to engine and cfg's key map.
func NewModel(engine *searchcore.Engine, cfg *config.Config) Model {
	return Model{engine: engine, cfg: cfg}
}

func waitForUpdate(e *searchcore.Engine) tea.Cmd {
	return func() tea.Msg {
		rs, ok := <-e.Subscribe()
		if !ok {
			return nil
		}
		return resultMsg(rs)
	}
}

func (m Model) Init() tea.Cmd {
	return waitForUpdate(m.engine)
}

// Report returns the commit report produced if the session ended via
// confirm, or nil if the user exited without committing.
func (m Model) Report() *searchcore.Report { return m.report }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		m.latest = searchcore.ResultSet(msg)
		return m, waitForUpdate(m.engine)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	chord, isRune, r, ok := chordFromKeyMsg(msg)
	if isRune {
		m.engine.InsertRune(r)
		return m, nil
	}
	if !ok {
		return m, nil
	}
	a, found := m.cfg.Resolve(chord)
	if !found {
		return m, nil
	}

	switch a {
	case action.Exit:
		m.engine.Exit()
		m.quitting = true
		return m, tea.Quit

	case action.Confirm:
		rs, err := m.engine.Confirm()
		if err != nil {
			// Refused (CompileError active, or already exited): stay in
			// edit mode, per spec.md §9's resolution of the open question.
			return m, nil
		}
		report := searchcore.Commit(rs)
		m.report = &report
		m.quitting = true
		return m, tea.Quit

	default:
		m.engine.Apply(a)
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	state := m.engine.State()
	var b strings.Builder

	b.WriteString(renderField("find", state.Find, state.Focus == searchcore.FocusFind, state.Cursor))
	b.WriteString("\n")
	b.WriteString(renderField("replace", state.Replace, state.Focus == searchcore.FocusReplace, state.Cursor))
	b.WriteString("\n")

	caseLabel := "off"
	if state.IgnoreCase {
		caseLabel = "on"
	}
	b.WriteString(statusStyle.Render(fmt.Sprintf("ignore-case: %s", caseLabel)))
	b.WriteString("\n\n")

	if err := m.engine.CompileError(); err != nil {
		b.WriteString(errStyle.Render(err.Error()))
		b.WriteString("\n\n")
	}

	b.WriteString(renderResults(m.latest))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: confirm  esc: exit  tab: toggle find/replace  a-i: toggle case"))
	return b.String()
}

func renderField(label, value string, focused bool, cursor int) string {
	prefix := fmt.Sprintf("%s: ", labelStyle.Render(label))
	if !focused {
		return prefix + value
	}
	if cursor > len(value) {
		cursor = len(value)
	}
	before, after := value[:cursor], value[cursor:]
	return prefix + before + focusedStyle.Render("│") + after
}

func renderResults(rs searchcore.ResultSet) string {
	var b strings.Builder
	shown := 0
	totalMatches := 0
	for _, fr := range rs.Files {
		totalMatches += len(fr.Matches)
		if shown >= maxPreviewRows {
			continue
		}
		switch {
		case fr.Err != nil:
			b.WriteString(pathStyle.Render(fr.Path))
			b.WriteString(" ")
			b.WriteString(errStyle.Render(fr.Err.Error()))
			b.WriteString("\n")
			shown++
		case fr.Skip != searchcore.SkipNone:
			b.WriteString(pathStyle.Render(fr.Path))
			b.WriteString(" ")
			b.WriteString(skipStyle.Render(fmt.Sprintf("skipped (%s)", fr.Skip)))
			b.WriteString("\n")
			shown++
		case len(fr.Matches) > 0:
			b.WriteString(pathStyle.Render(fr.Path))
			b.WriteString(matchStyle.Render(fmt.Sprintf(" (%d match%s)", len(fr.Matches), plural(len(fr.Matches)))))
			b.WriteString("\n")
			shown++
		}
	}
	status := "scanning..."
	if rs.Done {
		status = fmt.Sprintf("%d match%s across %d file%s", totalMatches, plural(totalMatches), len(rs.Files), plural(len(rs.Files)))
	}
	b.WriteString(statusStyle.Render(status))
	return b.String()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
