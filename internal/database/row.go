package database

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ColumnSet is the shared, ordered column layout of one result set.
// Names are matched case-insensitively. When two source columns collide
// under that comparison the first spelling keeps its position and the
// later column's value wins.
type ColumnSet struct {
	names []string
	index map[string]int
	slot  []int // source ordinal -> position in names
}

// NewColumnSet builds the layout for the given source column names.
func NewColumnSet(source []string) *ColumnSet {
	cs := &ColumnSet{
		index: make(map[string]int, len(source)),
		slot:  make([]int, len(source)),
	}
	for i, name := range source {
		key := strings.ToLower(name)
		pos, ok := cs.index[key]
		if !ok {
			pos = len(cs.names)
			cs.names = append(cs.names, name)
			cs.index[key] = pos
		}
		cs.slot[i] = pos
	}
	return cs
}

// Names returns the column names in result-set order.
func (cs *ColumnSet) Names() []string {
	return cs.names
}

// Len returns the number of distinct columns.
func (cs *ColumnSet) Len() int {
	return len(cs.names)
}

// Row builds a row from values given in source column order.
func (cs *ColumnSet) Row(values []Value) Row {
	out := make([]Value, len(cs.names))
	for i, v := range values {
		if i >= len(cs.slot) {
			break
		}
		out[cs.slot[i]] = v
	}
	return Row{cols: cs, values: out}
}

// Row is one result row: an ordered mapping from column name to Value.
type Row struct {
	cols   *ColumnSet
	values []Value
}

// NewRow builds a standalone row. Prefer ColumnSet.Row when building many
// rows of the same result set.
func NewRow(names []string, values []Value) Row {
	return NewColumnSet(names).Row(values)
}

// Columns returns the column names in order.
func (r Row) Columns() []string {
	if r.cols == nil {
		return nil
	}
	return r.cols.names
}

// Len returns the number of columns.
func (r Row) Len() int {
	return len(r.values)
}

// Get looks a column up by name, ignoring case.
func (r Row) Get(name string) (Value, bool) {
	if r.cols == nil {
		return Value{}, false
	}
	i, ok := r.cols.index[strings.ToLower(name)]
	if !ok {
		return Value{}, false
	}
	return r.values[i], true
}

// At returns the value at position i.
func (r Row) At(i int) Value {
	if i < 0 || i >= len(r.values) {
		return Value{}
	}
	return r.values[i]
}

// Values returns the values in column order.
func (r Row) Values() []Value {
	return r.values
}

// Strings renders every value for display.
func (r Row) Strings() []string {
	out := make([]string, len(r.values))
	for i, v := range r.values {
		out[i] = v.String()
	}
	return out
}

// MarshalJSON writes the row as an object with keys in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, name := range r.Columns() {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		val, err := json.Marshal(jsonValue(r.values[i]))
		if err != nil {
			return nil, err
		}
		b.Write(val)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func jsonValue(v Value) any {
	switch v.Kind() {
	case KindBinary:
		return v.String()
	case KindNull:
		return nil
	default:
		return v.Any()
	}
}
