package sqlserver

import (
	"database/sql"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"

	"github.com/joacominatel/dblab/internal/database"
)

// convertValue turns a scanned driver value into a database.Value, using the
// server type name to recover values the driver hands back as raw bytes.
func convertValue(v any, typeName string) database.Value {
	b, isBytes := v.([]byte)
	if !isBytes {
		return database.FromDriver(v)
	}

	switch strings.ToUpper(typeName) {
	case "DECIMAL", "NUMERIC", "MONEY", "SMALLMONEY":
		// exact digits, not float
		return database.Text(string(b))
	case "UNIQUEIDENTIFIER":
		var u mssql.UniqueIdentifier
		if err := u.Scan(b); err != nil {
			return database.Binary(b)
		}
		return database.Text(u.String())
	case "CHAR", "VARCHAR", "NCHAR", "NVARCHAR", "TEXT", "NTEXT", "XML", "SQL_VARIANT":
		return database.Text(string(b))
	default:
		return database.Binary(b)
	}
}

// rowScanner is the part of *sql.Rows that scanRows reads.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanRows reads every remaining row of rows into the row model.
func scanRows(rows rowScanner, types []*sql.ColumnType) ([]database.Row, error) {
	names := make([]string, len(types))
	typeNames := make([]string, len(types))
	for i, ct := range types {
		names[i] = ct.Name()
		typeNames[i] = ct.DatabaseTypeName()
	}
	cols := database.NewColumnSet(names)

	raw := make([]any, len(types))
	ptrs := make([]any, len(types))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	out := []database.Row{}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		values := make([]database.Value, len(raw))
		for i, v := range raw {
			values[i] = convertValue(v, typeNames[i])
		}
		out = append(out, cols.Row(values))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
