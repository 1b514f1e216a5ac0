package explorer

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joacominatel/dblab/internal/app"
	"github.com/joacominatel/dblab/internal/database"
	"github.com/joacominatel/dblab/internal/tui/theme"
)

// NodeKind identifies the type of a tree node.
type NodeKind int

const (
	NodeDatabase NodeKind = iota
	NodeSchema
	NodeTable
	NodeFacet
	NodeEntry
)

// TreeNode represents a single node in the schema tree.
type TreeNode struct {
	Kind     NodeKind
	Name     string
	Children []*TreeNode
	Expanded bool
	Loaded   bool // children fetched

	Schema   string // owning schema, for tables and below
	Table    string // owning table, for facets and entries
	RowCount *int64 // approximate, tables only
}

// flatItem is a visible item in the flattened tree view.
type flatItem struct {
	node  *TreeNode
	depth int
}

// Model is the explorer (schema tree) component.
type Model struct {
	tree    *TreeNode
	items   []flatItem
	cursor  int
	width   int
	height  int
	focused bool
	loading bool
}

// New creates a new explorer model.
func New() Model {
	return Model{}
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

// Focused returns whether the explorer has focus.
func (m Model) Focused() bool {
	return m.focused
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(l bool) {
	m.loading = l
}

// SetTree populates the explorer from a schema tree.
func (m *Model) SetTree(tree *app.SchemaTree) {
	root := &TreeNode{
		Kind:     NodeDatabase,
		Name:     tree.Database,
		Expanded: true,
		Loaded:   true,
	}

	for _, s := range tree.Schemas {
		schemaNode := &TreeNode{
			Kind:     NodeSchema,
			Name:     s.Name,
			Schema:   s.Name,
			Loaded:   true,
			Expanded: len(tree.Schemas) == 1,
		}
		for _, t := range s.Tables {
			schemaNode.Children = append(schemaNode.Children, &TreeNode{
				Kind:     NodeTable,
				Name:     t.Name,
				Schema:   t.Schema,
				RowCount: t.ApproxRowCount,
			})
		}
		root.Children = append(root.Children, schemaNode)
	}

	m.tree = root
	m.cursor = 0
	m.flatten()
	m.loading = false
}

// SetDetail attaches the describe result of a table as facet groups.
// Empty facets are left out.
func (m *Model) SetDetail(schema, table string, d *database.TableDetail) {
	m.visitTable(schema, table, func(node *TreeNode) {
		node.Children = nil
		facets := []struct {
			name    string
			entries []string
		}{
			{"Columns", d.Columns},
			{"Primary key", d.PrimaryKey},
			{"Unique", d.UniqueIndexes},
			{"Foreign keys", d.ForeignKeys},
		}
		for _, f := range facets {
			if len(f.entries) == 0 {
				continue
			}
			group := &TreeNode{
				Kind:     NodeFacet,
				Name:     fmt.Sprintf("%s (%d)", f.name, len(f.entries)),
				Schema:   schema,
				Table:    table,
				Loaded:   true,
				Expanded: f.name == "Columns",
			}
			for _, e := range f.entries {
				group.Children = append(group.Children, &TreeNode{
					Kind:   NodeEntry,
					Name:   e,
					Schema: schema,
					Table:  table,
				})
			}
			node.Children = append(node.Children, group)
		}
		if len(node.Children) == 0 {
			node.Children = []*TreeNode{{Kind: NodeEntry, Name: "(no columns)", Schema: schema, Table: table}}
		}
		node.Loaded = true
	})
	m.flatten()
}

// DetailFailed clears the pending state of a table whose describe failed so
// it can be retried.
func (m *Model) DetailFailed(schema, table string) {
	m.visitTable(schema, table, func(node *TreeNode) {
		node.Expanded = false
		node.Loaded = false
	})
	m.flatten()
}

func (m *Model) visitTable(schema, table string, fn func(*TreeNode)) {
	if m.tree == nil {
		return
	}
	for _, s := range m.tree.Children {
		if s.Name != schema {
			continue
		}
		for _, t := range s.Children {
			if t.Name == table {
				fn(t)
				return
			}
		}
	}
}

// SelectedTable returns the schema and table of the node under the cursor,
// if it is a table or belongs to one.
func (m Model) SelectedTable() (schema, table string, ok bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return "", "", false
	}
	node := m.items[m.cursor].node
	switch node.Kind {
	case NodeTable:
		return node.Schema, node.Name, true
	case NodeFacet, NodeEntry:
		return node.Schema, node.Table, true
	}
	return "", "", false
}

// flatten rebuilds the flat item list from the tree.
func (m *Model) flatten() {
	m.items = nil
	if m.tree != nil {
		m.flattenNode(m.tree, 0)
	}
	if m.cursor >= len(m.items) {
		m.cursor = max(0, len(m.items)-1)
	}
}

func (m *Model) flattenNode(node *TreeNode, depth int) {
	m.items = append(m.items, flatItem{node: node, depth: depth})
	if node.Expanded {
		for _, child := range node.Children {
			m.flattenNode(child, depth+1)
		}
	}
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the explorer.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = max(0, len(m.items)-1)
		case "enter", "right", "l":
			return m, m.toggleExpand()
		case "left", "h":
			m.collapse()
		case "s":
			return m, m.quickQuery(SelectTop)
		case "d":
			return m, m.quickQuery(CountRows)
		case "r":
			return m, func() tea.Msg { return RefreshMsg{} }
		}
	}

	return m, nil
}

func (m *Model) toggleExpand() tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return nil
	}
	node := m.items[m.cursor].node
	if node.Kind == NodeEntry {
		return nil
	}

	node.Expanded = !node.Expanded
	m.flatten()

	if node.Expanded && node.Kind == NodeTable && !node.Loaded {
		req := RequestDetailMsg{Schema: node.Schema, Table: node.Name}
		return func() tea.Msg { return req }
	}
	return nil
}

// collapse folds the node under the cursor, or moves to its parent when
// the node is already folded.
func (m *Model) collapse() {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return
	}
	item := m.items[m.cursor]
	if item.node.Expanded {
		item.node.Expanded = false
		m.flatten()
		return
	}
	for i := m.cursor - 1; i >= 0; i-- {
		if m.items[i].depth < item.depth {
			m.cursor = i
			return
		}
	}
}

func (m *Model) quickQuery(kind QuickQueryKind) tea.Cmd {
	schema, table, ok := m.SelectedTable()
	if !ok {
		return nil
	}
	q := QuickQueryMsg{Kind: kind, Query: kind.SQL(schema, table)}
	return func() tea.Msg { return q }
}

// View renders the explorer.
func (m Model) View() string {
	title := theme.StyleTitle.Padding(0, 1).Render("Schema Explorer")

	if m.loading {
		return title + "\n" + theme.StyleMuted.Render("  Loading...")
	}
	if m.tree == nil {
		return title + "\n" + theme.StyleMuted.Render("  No connection")
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")

	visibleHeight := max(1, m.height-2)
	scrollOffset := 0
	if m.cursor >= visibleHeight {
		scrollOffset = m.cursor - visibleHeight + 1
	}

	for i := scrollOffset; i < len(m.items) && i < scrollOffset+visibleHeight; i++ {
		b.WriteString(m.renderNode(m.items[i], i == m.cursor))
		if i < scrollOffset+visibleHeight-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (m Model) renderNode(item flatItem, selected bool) string {
	node := item.node
	indent := strings.Repeat("  ", item.depth)

	icon := "  "
	if node.Kind != NodeEntry {
		icon = "▶ "
		if node.Expanded {
			icon = "▼ "
		}
	}

	name := node.Name
	if node.Kind == NodeTable && node.RowCount != nil {
		name += " " + theme.StyleMuted.Render(formatCount(*node.RowCount))
	}

	line := indent + icon + name
	if m.width > 4 && lipgloss.Width(line) > m.width-2 {
		line = truncate(line, m.width-4) + ".."
	}

	if selected {
		return lipgloss.NewStyle().
			Foreground(theme.ColorHighlight).
			Bold(true).
			Render(line)
	}
	return line
}

// formatCount renders 1234567 as "1.2M".
func formatCount(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return strconv.FormatFloat(float64(n)/1e9, 'f', 1, 64) + "B"
	case n >= 1_000_000:
		return strconv.FormatFloat(float64(n)/1e6, 'f', 1, 64) + "M"
	case n >= 10_000:
		return strconv.FormatFloat(float64(n)/1e3, 'f', 1, 64) + "k"
	default:
		return strconv.FormatInt(n, 10)
	}
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width])
}
