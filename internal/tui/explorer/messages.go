package explorer

import (
	"fmt"
	"strings"
)

// RequestDetailMsg is sent when a table is expanded for the first time.
type RequestDetailMsg struct {
	Schema string
	Table  string
}

// RefreshMsg asks for the schema tree to be reloaded.
type RefreshMsg struct{}

// QuickQueryKind selects a canned query for the selected table.
type QuickQueryKind int

const (
	SelectTop QuickQueryKind = iota
	CountRows
)

// quickSelectLimit is the row cap of the SelectTop quick action.
const quickSelectLimit = 100

// SQL builds the query for schema.table.
func (k QuickQueryKind) SQL(schema, table string) string {
	target := QuoteIdent(schema) + "." + QuoteIdent(table)
	switch k {
	case CountRows:
		return "SELECT COUNT_BIG(*) AS [count] FROM " + target + ";"
	default:
		return fmt.Sprintf("SELECT TOP %d * FROM %s;", quickSelectLimit, target)
	}
}

// QuickQueryMsg carries a canned query to run.
type QuickQueryMsg struct {
	Kind  QuickQueryKind
	Query string
}

// QuoteIdent brackets a SQL Server identifier.
func QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}
