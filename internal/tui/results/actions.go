package results

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joacominatel/dblab/internal/database"
	"github.com/joacominatel/dblab/internal/tui/explorer"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

func (m Model) currentRow() (database.Row, bool) {
	if m.outcome == nil || m.cursorY < 0 || m.cursorY >= len(m.cells) {
		return database.Row{}, false
	}
	return m.outcome.Rows[m.cursorY], true
}

func (m Model) currentCell() (string, database.Value, bool) {
	row, ok := m.currentRow()
	if !ok || m.cursorX < 0 || m.cursorX >= row.Len() {
		return "", database.Value{}, false
	}
	return row.Columns()[m.cursorX], row.At(m.cursorX), true
}

func (m *Model) copy(text, done string) {
	if err := writeClipboard(text); err != nil {
		m.statusMessage = "Copy failed: " + err.Error()
		return
	}
	m.statusMessage = done
}

func (m *Model) doCopyCell() {
	_, val, ok := m.currentCell()
	if !ok {
		m.statusMessage = "Nothing to copy"
		return
	}
	text := val.String()
	m.copy(text, "Copied: "+truncateStatus(text, 40))
}

func (m *Model) doCopyRowJSON() {
	row, ok := m.currentRow()
	if !ok {
		m.statusMessage = "No row to copy"
		return
	}
	data, err := json.Marshal(row)
	if err != nil {
		m.statusMessage = "Copy failed: " + err.Error()
		return
	}
	m.copy(string(data), "Copied row as JSON")
}

func (m *Model) doCopyRowCSV() {
	row, ok := m.currentRow()
	if !ok {
		m.statusMessage = "No row to copy"
		return
	}
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(row.Columns())
	_ = w.Write(row.Strings())
	w.Flush()
	m.copy(b.String(), "Copied row as CSV")
}

func (m *Model) doCopyRowText() {
	row, ok := m.currentRow()
	if !ok {
		m.statusMessage = "No row to copy"
		return
	}
	m.copy(strings.Join(row.Strings(), "\t"), "Copied row as text")
}

// doFilterByValue puts a SELECT filtered on the selected cell in the editor.
func (m *Model) doFilterByValue() tea.Cmd {
	col, val, ok := m.currentCell()
	if !ok {
		m.statusMessage = "Cannot filter: no cell selected"
		return nil
	}
	table := extractTableName(m.lastQuery)

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s;", table, condition(col, val))
	return func() tea.Msg {
		return SetEditorQueryMsg{Query: query}
	}
}

// doGenerateDelete puts a DELETE matching every column of the selected row
// in the editor. It is never executed directly.
func (m *Model) doGenerateDelete() tea.Cmd {
	row, ok := m.currentRow()
	if !ok {
		return nil
	}
	table := extractTableName(m.lastQuery)

	conditions := make([]string, 0, row.Len())
	for i, col := range row.Columns() {
		conditions = append(conditions, condition(col, row.At(i)))
	}

	query := fmt.Sprintf("-- review before executing\nDELETE FROM %s WHERE %s;",
		table, strings.Join(conditions, " AND "))

	return func() tea.Msg {
		return SetEditorQueryMsg{Query: query}
	}
}

func condition(col string, v database.Value) string {
	if v.IsNull() {
		return explorer.QuoteIdent(col) + " IS NULL"
	}
	return explorer.QuoteIdent(col) + " = " + sqlLiteral(v)
}

// sqlLiteral renders v as a T-SQL literal.
func sqlLiteral(v database.Value) string {
	switch v.Kind() {
	case database.KindNull:
		return "NULL"
	case database.KindBool:
		if b, _ := v.AsBool(); b {
			return "1"
		}
		return "0"
	case database.KindInt, database.KindFloat, database.KindBinary:
		return v.String()
	case database.KindTime:
		t, _ := v.AsTime()
		return "'" + t.Format("2006-01-02T15:04:05.9999999Z07:00") + "'"
	default:
		s, _ := v.AsText()
		return "N'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
}

func (m Model) exportJSONCmd() tea.Cmd {
	if m.outcome == nil || len(m.outcome.Rows) == 0 {
		return nil
	}
	rows := m.outcome.Rows
	path := exportPath(m.exportDir, "json")
	return func() tea.Msg {
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return StatusNotifyMsg{Message: "Export failed: " + err.Error()}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return StatusNotifyMsg{Message: "Export failed: " + err.Error()}
		}
		return StatusNotifyMsg{Message: fmt.Sprintf("Exported %d rows to %s", len(rows), path)}
	}
}

func (m Model) exportCSVCmd() tea.Cmd {
	if m.outcome == nil || len(m.outcome.Rows) == 0 {
		return nil
	}
	rows := m.outcome.Rows
	path := exportPath(m.exportDir, "csv")
	return func() tea.Msg {
		f, err := os.Create(path)
		if err != nil {
			return StatusNotifyMsg{Message: "Export failed: " + err.Error()}
		}
		defer f.Close()

		w := csv.NewWriter(f)
		_ = w.Write(rows[0].Columns())
		for _, row := range rows {
			_ = w.Write(row.Strings())
		}
		w.Flush()

		if err := w.Error(); err != nil {
			return StatusNotifyMsg{Message: "Export failed: " + err.Error()}
		}
		return StatusNotifyMsg{Message: fmt.Sprintf("Exported %d rows to %s", len(rows), path)}
	}
}

func exportPath(dir, ext string) string {
	ts := time.Now().Format("20060102_150405")
	return filepath.Join(dir, "dblab_export_"+ts+"."+ext)
}

// extractTableName returns the table named after the first FROM, INTO or
// UPDATE of query, or "<table>" when there is none.
func extractTableName(query string) string {
	tokens := strings.Fields(query)
	for i, tok := range tokens {
		switch strings.ToUpper(tok) {
		case "FROM", "INTO", "UPDATE":
			if i+1 < len(tokens) {
				if name := strings.TrimRight(tokens[i+1], ";,()"); name != "" {
					return name
				}
			}
		}
	}
	return "<table>"
}

func truncateStatus(s string, maxLen int) string {
	if len([]rune(s)) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen-3]) + "..."
}
