package results

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joacominatel/dblab/internal/database"
	"github.com/joacominatel/dblab/internal/tui/theme"
)

const (
	maxColWidth           = 40
	defaultMaxDisplayRows = 1000
)

// Model is the query results component.
type Model struct {
	outcome   *database.QueryOutcome
	columns   []string
	cells     [][]string // display text, capped at maxRows
	colWidths []int
	err       error
	lastQuery string

	width     int
	height    int
	focused   bool
	loading   bool
	maxRows   int
	exportDir string

	cursorY   int
	cursorX   int
	scrollY   int
	colOffset int

	statusMessage string
}

// New creates a new results model.
func New() Model {
	return Model{maxRows: defaultMaxDisplayRows, exportDir: "."}
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused sets the focus state.
func (m *Model) SetFocused(f bool) {
	m.focused = f
}

// Focused returns whether the results pane has focus.
func (m Model) Focused() bool {
	return m.focused
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(l bool) {
	m.loading = l
}

// SetMaxRows caps how many rows are rendered. Exports still write every row.
func (m *Model) SetMaxRows(n int) {
	if n > 0 {
		m.maxRows = n
	}
}

// SetExportDir sets where exports are written.
func (m *Model) SetExportDir(dir string) {
	m.exportDir = dir
}

// SetOutcome shows the outcome of query. The column order is taken from
// the first row.
func (m *Model) SetOutcome(query string, out database.QueryOutcome) {
	m.outcome = &out
	m.lastQuery = query
	m.err = nil
	m.loading = false
	m.cursorX, m.cursorY, m.scrollY, m.colOffset = 0, 0, 0, 0
	m.statusMessage = ""

	m.columns = out.Columns()
	n := min(len(out.Rows), m.maxRows)
	m.cells = make([][]string, n)
	for i := range n {
		m.cells[i] = out.Rows[i].Strings()
	}
	m.calculateColumnWidths()
}

// SetError shows an error that kept the query from producing an outcome.
func (m *Model) SetError(err error) {
	m.err = err
	m.outcome = nil
	m.columns, m.cells, m.colWidths = nil, nil, nil
	m.loading = false
	m.cursorX, m.cursorY, m.scrollY, m.colOffset = 0, 0, 0, 0
}

// StatusMessage returns the result of the last action, if any.
func (m Model) StatusMessage() string {
	return m.statusMessage
}

func (m *Model) calculateColumnWidths() {
	if len(m.columns) == 0 {
		m.colWidths = nil
		return
	}

	m.colWidths = make([]int, len(m.columns))
	for i, col := range m.columns {
		m.colWidths[i] = lipgloss.Width(col)
	}
	for _, row := range m.cells {
		for i, cell := range row {
			if i < len(m.colWidths) {
				m.colWidths[i] = max(m.colWidths[i], lipgloss.Width(cell))
			}
		}
	}
	for i := range m.colWidths {
		m.colWidths[i] = min(max(m.colWidths[i], 1), maxColWidth)
	}
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the results pane.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	m.statusMessage = ""
	rows := len(m.cells)
	page := max(1, m.visibleRows())

	switch key.String() {
	case "up", "k":
		m.moveRow(-1)
	case "down", "j":
		m.moveRow(1)
	case "pgup":
		m.moveRow(-page)
	case "pgdown":
		m.moveRow(page)
	case "home", "g":
		m.moveRow(-rows)
	case "end", "G":
		m.moveRow(rows)
	case "left", "h":
		if m.cursorX > 0 {
			m.cursorX--
		}
		m.colOffset = min(m.colOffset, m.cursorX)
	case "right", "l":
		if m.cursorX < len(m.columns)-1 {
			m.cursorX++
		}
		m.ensureColumnVisible()
	case "c":
		m.doCopyCell()
	case "y":
		m.doCopyRowJSON()
	case "Y":
		m.doCopyRowCSV()
	case "t":
		m.doCopyRowText()
	case "f":
		return m, m.doFilterByValue()
	case "D":
		return m, m.doGenerateDelete()
	case "e":
		return m, m.exportCSVCmd()
	case "E":
		return m, m.exportJSONCmd()
	}

	return m, nil
}

func (m *Model) moveRow(delta int) {
	if len(m.cells) == 0 {
		return
	}
	m.cursorY = min(max(m.cursorY+delta, 0), len(m.cells)-1)

	visible := max(1, m.visibleRows())
	if m.cursorY < m.scrollY {
		m.scrollY = m.cursorY
	}
	if m.cursorY >= m.scrollY+visible {
		m.scrollY = m.cursorY - visible + 1
	}
}

// ensureColumnVisible scrolls right until the cursor column fits.
func (m *Model) ensureColumnVisible() {
	for m.colOffset < m.cursorX && m.rowWidth(m.colOffset, m.cursorX) > m.width-2 {
		m.colOffset++
	}
}

// rowWidth is the rendered width of columns from..to inclusive.
func (m Model) rowWidth(from, to int) int {
	w := 2
	for i := from; i <= to && i < len(m.colWidths); i++ {
		if i > from {
			w += 3
		}
		w += m.colWidths[i]
	}
	return w
}

func (m Model) visibleRows() int {
	return m.height - 4
}

// View renders the results pane.
func (m Model) View() string {
	title := theme.StyleTitle.Padding(0, 1).Render("Results")

	switch {
	case m.loading:
		return title + "\n" + theme.StyleMuted.Render("  Executing query...")
	case m.err != nil:
		return title + "\n" + theme.StyleError.Render("  Error: "+m.err.Error())
	case m.outcome == nil:
		return title + "\n" + theme.StyleMuted.Render("  Execute a query to see results")
	}

	out := m.outcome
	stats := fmt.Sprintf("%s | %s", out.Message, out.Duration.Round(time.Millisecond))
	if len(out.Rows) > len(m.cells) {
		stats += fmt.Sprintf(" | showing first %d", len(m.cells))
	}
	header := title + "  " + theme.StyleMuted.Render(stats)

	if !out.Succeeded {
		return header + "\n" + theme.StyleError.Render("  "+out.Error)
	}
	if len(m.columns) == 0 {
		return header + "\n" + theme.StyleSuccess.Render("  "+out.Message)
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(m.renderRow(m.columns, -1))
	b.WriteString("\n")
	b.WriteString(m.renderSeparator())

	visible := max(1, m.visibleRows())
	for i := m.scrollY; i < len(m.cells) && i < m.scrollY+visible; i++ {
		b.WriteString("\n")
		b.WriteString(m.renderRow(m.cells[i], i))
	}

	if m.statusMessage != "" {
		b.WriteString("\n")
		b.WriteString(theme.StyleMuted.Render("  " + m.statusMessage))
	}
	return b.String()
}

// renderRow renders the visible columns of one row. rowIdx -1 is the header.
func (m Model) renderRow(cells []string, rowIdx int) string {
	var parts []string
	used := 2
	for i := m.colOffset; i < len(cells); i++ {
		width := 10
		if i < len(m.colWidths) {
			width = m.colWidths[i]
		}
		if len(parts) > 0 && m.width > 0 && used+3+width > m.width {
			break
		}
		if len(parts) > 0 {
			used += 3
		}
		used += width

		display := fit(cells[i], width)
		switch {
		case rowIdx < 0:
			display = lipgloss.NewStyle().Bold(true).Foreground(theme.ColorPrimary).Render(display)
		case m.focused && rowIdx == m.cursorY && i == m.cursorX:
			display = lipgloss.NewStyle().Reverse(true).Render(display)
		case rowIdx == m.cursorY:
			display = lipgloss.NewStyle().Foreground(theme.ColorHighlight).Render(display)
		}
		parts = append(parts, display)
	}
	return "  " + strings.Join(parts, " │ ")
}

func (m Model) renderSeparator() string {
	var parts []string
	for i := m.colOffset; i < len(m.colWidths); i++ {
		parts = append(parts, strings.Repeat("─", m.colWidths[i]))
	}
	return "  " + lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(strings.Join(parts, "─┼─"))
}

// fit truncates or pads s to exactly width display cells.
func fit(s string, width int) string {
	s = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(s)
	if lipgloss.Width(s) > width {
		runes := []rune(s)
		for len(runes) > 0 && lipgloss.Width(string(runes)) >= width {
			runes = runes[:len(runes)-1]
		}
		s = string(runes) + "…"
	}
	if pad := width - lipgloss.Width(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}
