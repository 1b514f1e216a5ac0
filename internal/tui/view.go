package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/joacominatel/dblab/internal/tui/theme"
)

const (
	appTitle    = "dblab"
	appSubtitle = "SQL Server, from the terminal."
)

// View renders the entire application.
func (m Model) View() string {
	if m.showHelp {
		return m.viewHelp()
	}

	switch m.mode {
	case ModeSelectConnection:
		return m.viewSelectConnection()
	case ModeConnect:
		return m.viewConnect()
	default:
		return m.viewMain()
	}
}

func (m Model) header() []string {
	title := lipgloss.NewStyle().Foreground(theme.ColorPrimary).Bold(true).Padding(1, 0).Render(appTitle)
	subtitle := theme.StyleMuted.Render(appSubtitle)
	return []string{"", title, subtitle, ""}
}

func (m Model) errorLine() string {
	if m.err == nil {
		return ""
	}
	return theme.StyleError.Render("  Error: " + m.err.Error())
}

func (m Model) viewSelectConnection() string {
	selected := lipgloss.NewStyle().Foreground(theme.ColorHighlight).Bold(true)

	parts := m.header()
	parts = append(parts, theme.StyleTitle.Render("Saved Connections"))
	for i, conn := range m.cfg.Connections {
		label := conn.Name + " (" + conn.DisplayString() + ")"
		if i == m.connCursor {
			parts = append(parts, selected.Render("> "+label))
		} else {
			parts = append(parts, "  "+label)
		}
	}

	parts = append(parts, "")
	if m.connCursor == len(m.cfg.Connections) {
		parts = append(parts, selected.Render("> [New Connection]"))
	} else {
		parts = append(parts, "  [New Connection]")
	}

	if e := m.errorLine(); e != "" {
		parts = append(parts, "", e)
	}
	parts = append(parts, "", theme.StyleMuted.Render("  ↑/↓: Navigate  Enter: Connect  n: New  q: Quit"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) viewConnect() string {
	parts := m.header()
	parts = append(parts,
		lipgloss.NewStyle().Foreground(theme.ColorPrimary).Render("Enter connection string:"),
		"  "+m.connInput.View(),
	)
	if e := m.errorLine(); e != "" {
		parts = append(parts, "", e)
	}

	backHint := ""
	if len(m.cfg.Connections) > 0 {
		backHint = "Esc: Back │ "
	}
	parts = append(parts, "", theme.StyleMuted.Render("  "+backHint+"Enter: Connect │ Ctrl+C: Quit"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) border(p Pane) lipgloss.Style {
	if m.activePane == p {
		return theme.StyleActiveBorder
	}
	return theme.StyleBorder
}

func (m Model) viewMain() string {
	explorerWidth, rightWidth, editorHeight, resultsHeight := m.paneSizes()
	availHeight := m.height - 3

	explorerView := m.border(PaneExplorer).
		Width(explorerWidth - 2).
		Height(availHeight).
		Render(m.explorer.View())

	editorView := m.border(PaneEditor).
		Width(rightWidth - 2).
		Height(editorHeight).
		Render(m.editor.View())

	resultsView := m.border(PaneResults).
		Width(rightWidth - 2).
		Height(resultsHeight).
		Render(m.results.View())

	mainArea := lipgloss.JoinHorizontal(lipgloss.Top,
		explorerView,
		lipgloss.JoinVertical(lipgloss.Left, editorView, resultsView),
	)
	return lipgloss.JoinVertical(lipgloss.Left, mainArea, m.statusbar.View())
}

type helpEntry struct{ key, desc string }

var helpSections = []struct {
	title   string
	entries []helpEntry
}{
	{"Global", []helpEntry{
		{"q / Ctrl+C", "Quit application"},
		{"Tab", "Switch between panes"},
		{"Shift+Tab", "Switch panes (reverse)"},
		{"Ctrl+X", "Cancel the running query"},
		{"?", "Toggle this help"},
	}},
	{"Explorer", []helpEntry{
		{"↑/k  ↓/j", "Navigate up/down"},
		{"Enter/→/l", "Expand item, describe table"},
		{"←/h", "Collapse item"},
		{"s", "Quick SELECT TOP 100"},
		{"d", "Count rows"},
		{"r", "Reload schemas"},
	}},
	{"Editor", []helpEntry{
		{"Ctrl+E / F5", "Execute query"},
		{"Ctrl+K", "Clear editor"},
		{"Ctrl+L", "Format query (uppercase keywords)"},
		{"Ctrl+P / Ctrl+N", "Previous/next query from history"},
		{"Tab", "Complete table name (repeat to cycle)"},
		{"Esc", "Cancel completion"},
	}},
	{"Results", []helpEntry{
		{"↑/k  ↓/j", "Move between rows"},
		{"←/h  →/l", "Move between columns"},
		{"PgUp/PgDn", "Page up/down"},
		{"c", "Copy cell"},
		{"y / Y / t", "Copy row as JSON / CSV / text"},
		{"f", "Filter by cell value"},
		{"D", "Generate DELETE for row"},
		{"e / E", "Export CSV / JSON"},
	}},
}

func (m Model) viewHelp() string {
	sectionStyle := lipgloss.NewStyle().Foreground(theme.ColorHighlight).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Width(18)
	descStyle := theme.StyleMuted

	lines := []string{theme.StyleTitle.Render(appTitle + " - Keyboard Shortcuts")}
	for _, s := range helpSections {
		lines = append(lines, "", sectionStyle.Render(s.title))
		for _, e := range s.entries {
			lines = append(lines, keyStyle.Render("  "+e.key)+descStyle.Render(e.desc))
		}
	}
	lines = append(lines, "", theme.StyleMuted.Render("Press any key to close"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, lines...))
}
