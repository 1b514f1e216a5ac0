package database

import (
	"fmt"
	"time"
)

// DefaultSchema is used when a caller lists tables without naming a schema.
const DefaultSchema = "dbo"

// TableRef identifies a base table.
type TableRef struct {
	Schema string
	Name   string
	// ApproxRowCount comes from partition statistics. It is nil when the
	// server has no statistics row for the table, which is not the same as 0.
	ApproxRowCount *int64
}

// QualifiedName returns schema.name.
func (t TableRef) QualifiedName() string {
	return t.Schema + "." + t.Name
}

// TableDetail describes the shape of one table.
type TableDetail struct {
	Schema string
	Name   string

	// Columns holds rendered column descriptions in ordinal order,
	// e.g. "Name NVARCHAR(100) NOT NULL".
	Columns []string
	// PrimaryKey holds column names in key ordinal order.
	PrimaryKey []string
	// UniqueIndexes holds the distinct columns taking part in UNIQUE constraints.
	UniqueIndexes []string
	// ForeignKeys holds lines like "FK_Order_Customer: CustomerId → dbo.Customer(Id)".
	ForeignKeys []string
}

// Empty reports whether every facet is empty. The catalog returns an empty
// detail both for a missing table and for one without columns or keys.
func (d TableDetail) Empty() bool {
	return len(d.Columns) == 0 && len(d.PrimaryKey) == 0 &&
		len(d.UniqueIndexes) == 0 && len(d.ForeignKeys) == 0
}

// Outcome messages.
const (
	MsgNoRows   = "Command completed (no rows)."
	MsgFailed   = "Error executing query."
	MsgEmptySQL = "SQL is empty."
)

// ReturnedMessage describes a result set of n rows.
func ReturnedMessage(n int) string {
	if n == 0 {
		return MsgNoRows
	}
	return fmt.Sprintf("Returned %d row(s).", n)
}

// AffectedMessage describes a statement without a result set.
func AffectedMessage(n int64) string {
	return fmt.Sprintf("(%d row(s) affected)", n)
}

// QueryOutcome holds the result of running caller-supplied SQL.
//
// A successful outcome either carries a result set (possibly with zero rows)
// or, for statements without one, an affected-row message and no rows. A
// failed outcome never has rows and always carries Error.
type QueryOutcome struct {
	Rows      []Row
	Message   string
	Duration  time.Duration
	Succeeded bool
	Error     string
}

// Columns returns the column names of the result set, taken from the first row.
func (o QueryOutcome) Columns() []string {
	if len(o.Rows) == 0 {
		return nil
	}
	return o.Rows[0].Columns()
}

// SeedPack names the scripts and data files used to populate or reset a
// database. Paths are passed through untouched.
type SeedPack struct {
	Name                  string            `mapstructure:"name" yaml:"name"`
	CreateScriptPath      string            `mapstructure:"create_script" yaml:"create_script,omitempty"`
	ConstraintsScriptPath string            `mapstructure:"constraints_script" yaml:"constraints_script,omitempty"`
	ResetScriptPath       string            `mapstructure:"reset_script" yaml:"reset_script,omitempty"`
	CSVPaths              map[string]string `mapstructure:"csv" yaml:"csv,omitempty"`
}
