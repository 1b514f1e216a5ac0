package editor

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatKeywords(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "keywords",
			in:   "select top 10 id from dbo.Customer where name is not null order by id desc",
			want: "SELECT TOP 10 id FROM dbo.Customer WHERE name IS NOT NULL ORDER BY id DESC",
		},
		{
			name: "string literals untouched",
			in:   "select 'from where' as x",
			want: "SELECT 'from where' AS x",
		},
		{
			name: "unicode literal",
			in:   "select N'select' as label",
			want: "SELECT N'select' AS label",
		},
		{
			name: "bracketed identifiers untouched",
			in:   "select [order], [key] from [dbo].[table]",
			want: "SELECT [order], [key] FROM [dbo].[table]",
		},
		{
			name: "line comment untouched",
			in:   "select 1 -- from here\nfrom t",
			want: "SELECT 1 -- from here\nFROM t",
		},
		{
			name: "variables and dotted names untouched",
			in:   "declare @count int; select t.count from t",
			want: "DECLARE @count INT; SELECT t.count FROM t",
		},
		{
			name: "unterminated literal",
			in:   "select 'abc",
			want: "SELECT 'abc",
		},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatKeywords(tt.in))
		})
	}
}

func TestCompletionCandidates(t *testing.T) {
	tables := []string{"Customer", "CustomerAddress", "Order", "dbo.Customer", "sales.Order"}

	tests := []struct {
		name    string
		text    string
		partial string
		want    []string
	}{
		{name: "after from", text: "SELECT * FROM cust", partial: "cust", want: []string{"Customer", "CustomerAddress"}},
		{name: "after join", text: "SELECT * FROM a JOIN sales.", partial: "sales.", want: []string{"sales.Order"}},
		{name: "bracketed", text: "SELECT * FROM [Ord", partial: "[Ord", want: []string{"Order"}},
		{name: "update", text: "update dbo.c", partial: "dbo.c", want: []string{"dbo.Customer"}},
		{name: "not a table position", text: "SELECT cust", want: nil},
		{name: "nothing typed", text: "SELECT * FROM ", want: nil},
		{name: "no match", text: "SELECT * FROM zzz", partial: "zzz", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			partial, got := completionCandidates(tt.text, tables)
			assert.Equal(t, tt.want, got)
			if tt.want != nil {
				assert.Equal(t, tt.partial, partial)
			}
		})
	}
}

func keyMsg(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func TestEditorExecuteAndHistory(t *testing.T) {
	m := New()
	m.SetFocused(true)
	m.SetSize(80, 10)

	_, cmd := m.Update(keyMsg(tea.KeyF5))
	assert.Nil(t, cmd, "blank editor does not run")

	m.SetQuery("  SELECT 1;  ")
	m, cmd = m.Update(keyMsg(tea.KeyF5))
	require.NotNil(t, cmd)
	assert.Equal(t, ExecuteQueryMsg{Query: "SELECT 1;"}, cmd())

	m.SetQuery("SELECT 2;")
	m, _ = m.Update(keyMsg(tea.KeyCtrlE))
	m.SetQuery("SELECT 3")
	assert.Equal(t, []string{"SELECT 1;", "SELECT 2;"}, m.History())

	m, _ = m.Update(keyMsg(tea.KeyCtrlP))
	assert.Equal(t, "SELECT 2;", m.Value())
	m, _ = m.Update(keyMsg(tea.KeyCtrlP))
	assert.Equal(t, "SELECT 1;", m.Value())
	m, _ = m.Update(keyMsg(tea.KeyCtrlP))
	assert.Equal(t, "SELECT 1;", m.Value())
	m, _ = m.Update(keyMsg(tea.KeyCtrlN))
	m, _ = m.Update(keyMsg(tea.KeyCtrlN))
	assert.Equal(t, "SELECT 3", m.Value(), "draft is restored")
}

func TestEditorTabCompletion(t *testing.T) {
	m := New()
	m.SetFocused(true)
	m.SetSize(80, 10)
	m.SetTableNames([]string{"Customer", "CustomerAddress"})
	m.SetQuery("SELECT * FROM cu")

	m, _ = m.Update(keyMsg(tea.KeyTab))
	assert.True(t, m.CompletionActive())
	assert.Equal(t, "SELECT * FROM Customer", m.Value())

	m, _ = m.Update(keyMsg(tea.KeyTab))
	assert.Equal(t, "SELECT * FROM CustomerAddress", m.Value())

	m, _ = m.Update(keyMsg(tea.KeyEsc))
	assert.False(t, m.CompletionActive())
}

func TestEditorFormatShortcut(t *testing.T) {
	m := New()
	m.SetFocused(true)
	m.SetQuery("select 1 from t")
	m, _ = m.Update(keyMsg(tea.KeyCtrlL))
	assert.Equal(t, "SELECT 1 FROM t", m.Value())
}

func TestEditorCanComplete(t *testing.T) {
	m := New()
	m.SetTableNames([]string{"Customer"})

	m.SetQuery("SELECT * FROM cu")
	assert.True(t, m.CanComplete())

	m.SetQuery("SELECT cu")
	assert.False(t, m.CanComplete())
}
