package sqlserver

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/joacominatel/dblab/internal/database"
)

// queryer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// maxLengthUnbounded is what CHARACTER_MAXIMUM_LENGTH reports for
// (n)varchar(max), varbinary(max) and xml.
const maxLengthUnbounded = -1

// sizedTypes take a length in their declaration. Other types, such as xml
// or text, report a length that is not part of the type name.
var sizedTypes = map[string]bool{
	"CHAR":      true,
	"VARCHAR":   true,
	"NCHAR":     true,
	"NVARCHAR":  true,
	"BINARY":    true,
	"VARBINARY": true,
}

func listSchemas(ctx context.Context, q queryer) ([]string, error) {
	schemas, err := queryStrings(ctx, q, queryListSchemas)
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	return schemas, nil
}

func listTables(ctx context.Context, q queryer, schema string) ([]database.TableRef, error) {
	rows, err := q.QueryContext(ctx, queryListTables, sql.Named("schema", schema))
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tables := []database.TableRef{}
	for rows.Next() {
		var (
			t     database.TableRef
			count sql.NullInt64
		)
		if err := rows.Scan(&t.Schema, &t.Name, &count); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		if count.Valid {
			n := count.Int64
			t.ApproxRowCount = &n
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

func describeTable(ctx context.Context, q queryer, schema, table string) (*database.TableDetail, error) {
	args := []any{sql.Named("schema", schema), sql.Named("table", table)}

	columns, err := queryColumnInfo(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("get columns: %w", err)
	}

	pk, err := queryStrings(ctx, q, queryPrimaryKey, args...)
	if err != nil {
		return nil, fmt.Errorf("get primary key: %w", err)
	}

	unique, err := queryStrings(ctx, q, queryUniqueColumns, args...)
	if err != nil {
		return nil, fmt.Errorf("get unique columns: %w", err)
	}

	fks, err := queryForeignKeyLines(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("get foreign keys: %w", err)
	}

	detail := &database.TableDetail{
		Schema:        schema,
		Name:          table,
		Columns:       make([]string, 0, len(columns)),
		PrimaryKey:    pk,
		UniqueIndexes: distinctFold(unique),
		ForeignKeys:   fks,
	}
	for _, c := range columns {
		detail.Columns = append(detail.Columns, c.describe())
	}
	return detail, nil
}

// columnInfo is one row of INFORMATION_SCHEMA.COLUMNS.
type columnInfo struct {
	Name      string
	DataType  string
	Nullable  string
	MaxLength sql.NullInt64
	Precision sql.NullInt64
	Scale     sql.NullInt64
}

// describe renders the column as "<name> <TYPE>[(suffix)] <NULL|NOT NULL>".
func (c columnInfo) describe() string {
	typ := strings.ToUpper(c.DataType)
	sized := sizedTypes[typ] && c.MaxLength.Valid
	switch {
	case sized && c.MaxLength.Int64 == maxLengthUnbounded:
		typ += "(MAX)"
	case sized && c.MaxLength.Int64 > 0:
		typ += "(" + strconv.FormatInt(c.MaxLength.Int64, 10) + ")"
	case c.Precision.Valid && c.Scale.Valid && c.Precision.Int64 > 0:
		typ += fmt.Sprintf("(%d,%d)", c.Precision.Int64, c.Scale.Int64)
	}

	null := "NOT NULL"
	if strings.EqualFold(c.Nullable, "YES") {
		null = "NULL"
	}
	return c.Name + " " + typ + " " + null
}

func queryColumnInfo(ctx context.Context, q queryer, args []any) ([]columnInfo, error) {
	rows, err := q.QueryContext(ctx, queryColumns, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []columnInfo
	for rows.Next() {
		var c columnInfo
		if err := rows.Scan(&c.Name, &c.DataType, &c.Nullable, &c.MaxLength, &c.Precision, &c.Scale); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

func queryForeignKeyLines(ctx context.Context, q queryer, args []any) ([]string, error) {
	rows, err := q.QueryContext(ctx, queryForeignKeys, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	lines := []string{}
	for rows.Next() {
		var name, col, refSchema, refTable, refCol string
		if err := rows.Scan(&name, &col, &refSchema, &refTable, &refCol); err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		lines = append(lines, fmt.Sprintf("%s: %s → %s.%s(%s)", name, col, refSchema, refTable, refCol))
	}
	return lines, rows.Err()
}

// queryStrings runs a single-column query.
func queryStrings(ctx context.Context, q queryer, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// distinctFold drops case-insensitive duplicates, keeping the first spelling.
func distinctFold(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		key := strings.ToLower(n)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}
