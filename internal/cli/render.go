package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/joacominatel/dblab/internal/app"
	"github.com/joacominatel/dblab/internal/config"
	"github.com/joacominatel/dblab/internal/database"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
)

func validateFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatCSV:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want table, json or csv)", format)
	}
}

// grid is a header plus rows of display strings. Every command reduces its
// output to one before picking a format, except JSON which keeps types.
type grid struct {
	header []string
	rows   [][]string
}

func (g grid) render(w io.Writer, format string) error {
	switch format {
	case formatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(g.header); err != nil {
			return err
		}
		if err := cw.WriteAll(g.rows); err != nil {
			return err
		}
		return cw.Error()
	default:
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)

		header := make(table.Row, len(g.header))
		for i, h := range g.header {
			header[i] = h
		}
		t.AppendHeader(header)
		for _, r := range g.rows {
			row := make(table.Row, len(r))
			for i, v := range r {
				row[i] = v
			}
			t.AppendRow(row)
		}
		t.Render()
		return nil
	}
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderSchemas(w io.Writer, tree *app.SchemaTree, format string) error {
	if format == formatJSON {
		type schemaJSON struct {
			Name   string `json:"name"`
			Tables int    `json:"tables"`
		}
		out := make([]schemaJSON, 0, len(tree.Schemas))
		for _, s := range tree.Schemas {
			out = append(out, schemaJSON{Name: s.Name, Tables: len(s.Tables)})
		}
		return renderJSON(w, out)
	}

	g := grid{header: []string{"Schema", "Tables"}}
	for _, s := range tree.Schemas {
		g.rows = append(g.rows, []string{s.Name, strconv.Itoa(len(s.Tables))})
	}
	return g.render(w, format)
}

func renderTables(w io.Writer, tables []database.TableRef, format string) error {
	if format == formatJSON {
		type tableJSON struct {
			Schema         string `json:"schema"`
			Name           string `json:"name"`
			ApproxRowCount *int64 `json:"approx_row_count"`
		}
		out := make([]tableJSON, 0, len(tables))
		for _, t := range tables {
			out = append(out, tableJSON{Schema: t.Schema, Name: t.Name, ApproxRowCount: t.ApproxRowCount})
		}
		return renderJSON(w, out)
	}

	g := grid{header: []string{"Schema", "Table", "Rows (approx)"}}
	for _, t := range tables {
		count := ""
		if t.ApproxRowCount != nil {
			count = strconv.FormatInt(*t.ApproxRowCount, 10)
		}
		g.rows = append(g.rows, []string{t.Schema, t.Name, count})
	}
	return g.render(w, format)
}

func renderDetail(w io.Writer, d *database.TableDetail, format string) error {
	if format == formatJSON {
		return renderJSON(w, map[string]any{
			"schema":         d.Schema,
			"name":           d.Name,
			"columns":        d.Columns,
			"primary_key":    d.PrimaryKey,
			"unique_indexes": d.UniqueIndexes,
			"foreign_keys":   d.ForeignKeys,
		})
	}

	g := grid{header: []string{"Facet", "Entry"}}
	facets := []struct {
		name    string
		entries []string
	}{
		{"column", d.Columns},
		{"primary key", d.PrimaryKey},
		{"unique", d.UniqueIndexes},
		{"foreign key", d.ForeignKeys},
	}
	for _, f := range facets {
		for _, e := range f.entries {
			g.rows = append(g.rows, []string{f.name, e})
		}
	}
	return g.render(w, format)
}

// renderOutcome prints the rows of a successful outcome to w and the
// message line to status, keeping w clean for piping.
func renderOutcome(w, status io.Writer, out database.QueryOutcome, format string) error {
	var err error
	switch {
	case format == formatJSON:
		rows := out.Rows
		if rows == nil {
			rows = []database.Row{}
		}
		err = renderJSON(w, rows)
	case len(out.Rows) > 0:
		g := grid{header: out.Columns()}
		for _, r := range out.Rows {
			g.rows = append(g.rows, r.Strings())
		}
		err = g.render(w, format)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(status, "%s (%s)\n", out.Message, out.Duration.Round(time.Millisecond))
	return nil
}

func renderConnections(w io.Writer, conns []config.Connection, def *config.Connection, format string) error {
	if format == formatJSON {
		type connJSON struct {
			Name    string `json:"name"`
			Target  string `json:"target"`
			Default bool   `json:"default"`
		}
		out := make([]connJSON, 0, len(conns))
		for _, c := range conns {
			out = append(out, connJSON{Name: c.Name, Target: c.DisplayString(), Default: def != nil && def.Name == c.Name})
		}
		return renderJSON(w, out)
	}

	g := grid{header: []string{"", "Name", "Target"}}
	for _, c := range conns {
		mark := ""
		if def != nil && def.Name == c.Name {
			mark = "*"
		}
		g.rows = append(g.rows, []string{mark, c.Name, c.DisplayString()})
	}
	return g.render(w, format)
}
