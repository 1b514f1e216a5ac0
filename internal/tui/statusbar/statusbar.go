package statusbar

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joacominatel/dblab/internal/tui/theme"
)

// Pane names shown in the status bar.
const (
	PaneExplorer = "explorer"
	PaneEditor   = "editor"
	PaneResults  = "results"
)

var paneHints = map[string]string{
	PaneExplorer: "Enter: Expand │ s: Top 100 │ d: Count │ r: Refresh",
	PaneEditor:   "F5/Ctrl+E: Run │ Ctrl+L: Format │ Ctrl+P/N: History",
	PaneResults:  "c/y/Y: Copy │ f: Filter │ D: Delete │ e/E: Export",
}

const commonHints = "Tab: Switch pane │ ?: Help │ Ctrl+C: Quit"

// Model is the status bar component.
type Model struct {
	width      int
	connected  bool
	connName   string
	database   string
	running    bool
	activePane string
	message    string
}

// New creates a new status bar model.
func New() Model {
	return Model{activePane: PaneExplorer}
}

// SetWidth updates the component width.
func (m *Model) SetWidth(w int) {
	m.width = w
}

// SetConnected updates the connection status display.
func (m *Model) SetConnected(connected bool, name, database string) {
	m.connected = connected
	m.connName = name
	m.database = database
}

// SetRunning marks whether a query is executing.
func (m *Model) SetRunning(running bool) {
	m.running = running
}

// SetActivePane updates the active pane, which selects the hints.
func (m *Model) SetActivePane(pane string) {
	m.activePane = pane
}

// SetMessage sets a temporary status message. It replaces the hints until
// cleared with an empty string.
func (m *Model) SetMessage(msg string) {
	m.message = msg
}

// Message returns the current status message.
func (m Model) Message() string {
	return m.message
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages (status bar has no interactive behavior).
func (m Model) Update(_ tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the status bar.
func (m Model) View() string {
	style := theme.StyleStatusBar.Width(m.width)

	var left string
	if m.connected {
		left = lipgloss.NewStyle().Foreground(theme.ColorSuccess).Render("●") + " " + m.connName
		if m.database != "" {
			left += " │ " + m.database
		}
	} else {
		left = lipgloss.NewStyle().Foreground(theme.ColorError).Render("●") + " disconnected"
	}
	if m.running {
		left += " │ running..."
	}

	right := m.message
	if right == "" {
		right = commonHints
		if h, ok := paneHints[m.activePane]; ok {
			right = h + " │ " + commonHints
		}
	}

	padding := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right)-4)
	return style.Render(left + strings.Repeat(" ", padding) + right)
}
