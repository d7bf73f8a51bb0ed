// Package tui provides a Bubble Tea viewer for export documents and their
// changes history.
package tui

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/fakeyudi/idlesnap/internal/history"
	"github.com/fakeyudi/idlesnap/internal/jsonv"
	"github.com/fakeyudi/idlesnap/internal/report"
	"github.com/fakeyudi/idlesnap/internal/snapshot"
)

// ── Styles ────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	tabSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Background(lipgloss.Color("235"))

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	bulletStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	addStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	removeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	updateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))
)

// ── Tab definitions ─────────────────

type tabID int

const (
	tabSummary tabID = iota
	tabActivity
	tabSections
	tabChanges
	tabCount
)

var tabNames = [tabCount]string{"Summary", "Activity", "Sections", "Changes"}

// ── Model ────────────────────

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	doc       *snapshot.Document
	summary   report.Summary
	changes   []history.Entry
	filename  string
	activeTab tabID
	viewports [tabCount]viewport.Model
	width     int
	height    int
	ready     bool
	sortAsc   bool
	// Sections tab: cursor position and expanded set
	cursor   int
	expanded map[int]bool
}

// New creates a model for doc. h may be nil when no history is available.
func New(doc *snapshot.Document, h *history.History, filename string) Model {
	m := Model{
		doc:      doc,
		summary:  report.Summarize(doc),
		filename: filepath.Base(filename),
		expanded: make(map[int]bool),
	}
	if h != nil {
		m.changes = h.Entries()
	}
	return m
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "l", "right":
			m.activeTab = (m.activeTab + 1) % tabCount
		case "shift+tab", "h", "left":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		case "1", "2", "3", "4":
			m.activeTab = tabID(msg.String()[0] - '1')
		case "s":
			if m.activeTab == tabChanges {
				m.sortAsc = !m.sortAsc
				m.rebuild(tabChanges)
				m.viewports[tabChanges].GotoTop()
			}
		case "up", "k":
			if m.activeTab == tabSections && m.cursor > 0 {
				m.cursor--
				m.rebuild(tabSections)
				return m, nil
			}
		case "down", "j":
			if m.activeTab == tabSections && m.cursor < len(m.summary.Sections)-1 {
				m.cursor++
				m.rebuild(tabSections)
				return m, nil
			}
		case "enter", " ":
			if m.activeTab == tabSections && len(m.summary.Sections) > 0 {
				if m.expanded[m.cursor] {
					delete(m.expanded, m.cursor)
				} else {
					m.expanded[m.cursor] = true
				}
				m.rebuild(tabSections)
				return m, nil
			}
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewports()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  idlesnap  " + m.filename)

	var tabParts []string
	for i := tabID(0); i < tabCount; i++ {
		label := fmt.Sprintf(" %d %s ", i+1, tabNames[i])
		if i == m.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
		if i < tabCount-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	content := m.viewports[m.activeTab].View()

	hint := "  ←/→ tab  ↑/↓ scroll  1-4 jump  q quit"
	if m.activeTab == tabChanges {
		dir := "newest first"
		if m.sortAsc {
			dir = "oldest first"
		}
		hint += "  s sort (" + dir + ")"
	}
	if m.activeTab == tabSections {
		hint += "  ↑/↓ select  enter expand/collapse"
	}
	pct := fmt.Sprintf("%3.0f%%", m.viewports[m.activeTab].ScrollPercent()*100)
	pad := m.width - lipgloss.Width(hint) - len(pct) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(
		hint + strings.Repeat(" ", pad) + pct,
	)

	return lipgloss.JoinVertical(lipgloss.Left, title, tabRow, content, statusBar)
}

// ── Viewport management ───────────────────────────────────────────────────────

func (m *Model) initViewports() {
	// title(1) + tabRow(1) + statusBar(1) = 3 fixed rows
	vpHeight := m.height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	for i := tabID(0); i < tabCount; i++ {
		vp := viewport.New(m.width, vpHeight)
		vp.SetContent(m.renderTab(i))
		m.viewports[i] = vp
	}
}

func (m *Model) rebuild(t tabID) {
	m.viewports[t].SetContent(m.renderTab(t))
}

// ── Tab renderers ─────────────────────────────────────────────────────────────

func (m *Model) renderTab(t tabID) string {
	switch t {
	case tabSummary:
		return m.renderSummary()
	case tabActivity:
		return m.renderActivity()
	case tabSections:
		return m.renderSections()
	case tabChanges:
		return m.renderChanges()
	}
	return ""
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func bullet(text string) string {
	return bulletStyle.Render("  •") + "  " + text + "\n"
}

func (m *Model) renderSummary() string {
	s := m.summary
	var sb strings.Builder
	sb.WriteString(heading("Export Summary"))

	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-14s", label)) + "  " + value + "\n")
	}
	row("Character:", s.Character)
	if s.GameMode != "" {
		row("Game Mode:", s.GameMode)
	}
	row("GP:", humanize.Commaf(s.GP))
	row("Exported:", s.Exported.Format("2006-01-02 15:04:05 MST")+dimStyle.Render(" ("+humanize.Time(s.Exported)+")"))
	kind := "quick"
	if s.Full {
		kind = "full"
	}
	row("Export:", fmt.Sprintf("%s, %d ms", kind, s.ProcessMs))
	row("Game Version:", s.GameVersion)

	available := 0
	for _, st := range s.Sections {
		if st.Available {
			available++
		}
	}
	sb.WriteString(heading("Counts"))
	row("Sections:", fmt.Sprintf("%d of %d available", available, len(s.Sections)))
	row("Changelogs:", strconv.Itoa(len(m.changes)))
	return sb.String()
}

func (m *Model) renderActivity() string {
	var sb strings.Builder
	sb.WriteString(heading("Current Activity"))
	for _, line := range m.summary.Activity {
		sb.WriteString(bullet(line))
	}
	return sb.String()
}

func (m *Model) renderSections() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Sections (%d)", len(m.summary.Sections))))
	if len(m.summary.Sections) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for i, st := range m.summary.Sections {
		toggle := dimStyle.Render("  ▶ ")
		if m.expanded[i] {
			toggle = dimStyle.Render("  ▼ ")
		}
		status := fmt.Sprintf("%d entries", st.Entries)
		if !st.Available {
			status = "unavailable"
		}
		row := fmt.Sprintf("%s%-12s  %s", toggle, st.Name, dimStyle.Render(status))
		if i == m.cursor {
			row = selectedRowStyle.Width(m.width - 2).Render(row)
		}
		sb.WriteString(row + "\n")
		if m.expanded[i] {
			v, _ := m.doc.Section(st.Name)
			body, err := jsonv.Encode(v, true)
			if err != nil {
				body = []byte(err.Error())
			}
			sb.WriteString(indent(strings.TrimRight(string(body), "\n"), "      ") + "\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *Model) renderChanges() string {
	var sb strings.Builder

	dir := "newest first"
	if m.sortAsc {
		dir = "oldest first"
	}
	sb.WriteString(heading(fmt.Sprintf("Changes (%s)", dir)))

	entries := make([]history.Entry, len(m.changes))
	copy(entries, m.changes)
	if !m.sortAsc {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}

	if len(entries) == 0 {
		sb.WriteString(dimStyle.Render("  (no changes recorded)") + "\n")
		return sb.String()
	}

	for _, e := range entries {
		sb.WriteString(timeStyle.Render("  "+entryTime(e.Key)) + "  " + e.Changelog.Header + "\n")
		if len(e.Changelog.Changes) == 0 {
			sb.WriteString(dimStyle.Render("    (no changes)") + "\n\n")
			continue
		}
		for _, c := range e.Changelog.Changes {
			sb.WriteString(colorize(c.String()) + "\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// colorize styles one change line by its marker.
func colorize(line string) string {
	switch {
	case strings.HasPrefix(line, "+"):
		return addStyle.Render("    " + line)
	case strings.HasPrefix(line, "-"):
		return removeStyle.Render("    " + line)
	case strings.HasPrefix(line, "~"):
		return updateStyle.Render("    " + line)
	}
	return dimStyle.Render("    " + line)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// entryTime formats a history key (unix ms) as a clock time.
func entryTime(key string) string {
	ms, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return key
	}
	return time.UnixMilli(ms).Format("15:04:05")
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}

// Run starts the TUI for doc.
func Run(doc *snapshot.Document, h *history.History, filename string) error {
	p := tea.NewProgram(New(doc, h, filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
