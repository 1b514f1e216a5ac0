package sqlserver

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-sql/sqlexp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joacominatel/dblab/internal/database"
)

// newMockAdapter returns an adapter over sqlmock. messages are what the
// driver reports for statements run in message mode.
func newMockAdapter(t *testing.T, messages ...sqlexp.RawMessage) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(messageConverter(messages)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

func TestListTables(t *testing.T) {
	tests := []struct {
		name       string
		schema     string
		wantSchema string
		rows       func() *sqlmock.Rows
		want       []database.TableRef
	}{
		{
			name:       "blank schema defaults to dbo",
			schema:     "   ",
			wantSchema: "dbo",
			rows: func() *sqlmock.Rows {
				return sqlmock.NewRows([]string{"Schema", "Name", "ApproxRowCount"}).
					AddRow("dbo", "Customer", int64(42)).
					AddRow("dbo", "Order", int64(0))
			},
			want: []database.TableRef{
				{Schema: "dbo", Name: "Customer", ApproxRowCount: ptr(int64(42))},
				{Schema: "dbo", Name: "Order", ApproxRowCount: ptr(int64(0))},
			},
		},
		{
			name:       "missing statistics stay absent",
			schema:     "sales",
			wantSchema: "sales",
			rows: func() *sqlmock.Rows {
				return sqlmock.NewRows([]string{"Schema", "Name", "ApproxRowCount"}).
					AddRow("sales", "Invoice", nil).
					AddRow("sales", "Line", int64(7))
			},
			want: []database.TableRef{
				{Schema: "sales", Name: "Invoice"},
				{Schema: "sales", Name: "Line", ApproxRowCount: ptr(int64(7))},
			},
		},
		{
			name:       "schema without tables",
			schema:     "empty",
			wantSchema: "empty",
			rows: func() *sqlmock.Rows {
				return sqlmock.NewRows([]string{"Schema", "Name", "ApproxRowCount"})
			},
			want: []database.TableRef{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, mock := newMockAdapter(t)
			mock.ExpectQuery(regexp.QuoteMeta("FROM INFORMATION_SCHEMA.TABLES AS t")).
				WithArgs(sql.Named("schema", tt.wantSchema)).
				WillReturnRows(tt.rows())

			got, err := a.ListTables(context.Background(), tt.schema)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestListTables_QueryShape(t *testing.T) {
	assert.Contains(t, queryListTables, "t.TABLE_TYPE = 'BASE TABLE'")
	assert.Contains(t, queryListTables, "p.[index_id] IN (0, 1)")
	assert.Contains(t, queryListTables, "LEFT JOIN RowCounts")
	assert.Contains(t, queryListTables, "ORDER BY t.TABLE_NAME")
	assert.Contains(t, queryListTables, "@schema")
}

func TestListTables_Idempotent(t *testing.T) {
	a, mock := newMockAdapter(t)
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(regexp.QuoteMeta("FROM INFORMATION_SCHEMA.TABLES AS t")).
			WithArgs(sql.Named("schema", "dbo")).
			WillReturnRows(sqlmock.NewRows([]string{"Schema", "Name", "ApproxRowCount"}).
				AddRow("dbo", "A", int64(1)).
				AddRow("dbo", "B", nil))
	}

	first, err := a.ListTables(context.Background(), "dbo")
	require.NoError(t, err)
	second, err := a.ListTables(context.Background(), "dbo")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestListTables_ErrorPropagates(t *testing.T) {
	a, mock := newMockAdapter(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM INFORMATION_SCHEMA.TABLES AS t")).
		WillReturnError(errors.New("permission denied"))

	got, err := a.ListTables(context.Background(), "dbo")
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Contains(t, err.Error(), "list tables")
	assert.Contains(t, err.Error(), "permission denied")
	assert.False(t, database.IsCanceled(err))
}

func TestListTables_Canceled(t *testing.T) {
	a, _ := newMockAdapter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.ListTables(ctx, "dbo")
	require.Error(t, err)
	assert.True(t, database.IsCanceled(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestListSchemas(t *testing.T) {
	a, mock := newMockAdapter(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM sys.schemas AS s")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("dbo").AddRow("sales"))

	got, err := a.ListSchemas(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"dbo", "sales"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func expectDescribe(mock sqlmock.Sqlmock, schema, table string, cols, pk, unique, fks *sqlmock.Rows) {
	s, tb := sql.Named("schema", schema), sql.Named("table", table)
	mock.ExpectQuery(regexp.QuoteMeta("FROM INFORMATION_SCHEMA.COLUMNS AS c")).
		WithArgs(s, tb).WillReturnRows(cols)
	mock.ExpectQuery(regexp.QuoteMeta("tc.CONSTRAINT_TYPE = 'PRIMARY KEY'")).
		WithArgs(s, tb).WillReturnRows(pk)
	mock.ExpectQuery(regexp.QuoteMeta("tc.CONSTRAINT_TYPE = 'UNIQUE'")).
		WithArgs(s, tb).WillReturnRows(unique)
	mock.ExpectQuery(regexp.QuoteMeta("FROM sys.foreign_keys AS fk")).
		WithArgs(s, tb).WillReturnRows(fks)
}

func TestDescribeTable(t *testing.T) {
	a, mock := newMockAdapter(t)

	cols := sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE", "IS_NULLABLE", "CHARACTER_MAXIMUM_LENGTH", "NUMERIC_PRECISION", "NUMERIC_SCALE"}).
		AddRow("Id", "int", "NO", nil, int64(10), int64(0)).
		AddRow("CustomerId", "int", "NO", nil, int64(10), int64(0)).
		AddRow("Email", "nvarchar", "YES", int64(255), nil, nil).
		AddRow("Notes", "nvarchar", "YES", int64(-1), nil, nil).
		AddRow("Total", "decimal", "NO", nil, int64(18), int64(2)).
		AddRow("PlacedAt", "datetime2", "NO", nil, nil, nil)
	pk := sqlmock.NewRows([]string{"COLUMN_NAME"}).AddRow("Id")
	unique := sqlmock.NewRows([]string{"COLUMN_NAME"}).AddRow("Email").AddRow("EMAIL").AddRow("Code")
	fks := sqlmock.NewRows([]string{"ConstraintName", "ReferencingColumn", "ReferencedSchema", "ReferencedTable", "ReferencedColumn"}).
		AddRow("FK_Order_Customer", "CustomerId", "dbo", "Customer", "Id").
		AddRow("FK_Order_Store", "StoreId", "retail", "Store", "Id")
	expectDescribe(mock, "dbo", "Order", cols, pk, unique, fks)

	got, err := a.DescribeTable(context.Background(), "dbo", "Order")
	require.NoError(t, err)

	assert.Equal(t, "dbo", got.Schema)
	assert.Equal(t, "Order", got.Name)
	assert.Equal(t, []string{
		"Id INT(10,0) NOT NULL",
		"CustomerId INT(10,0) NOT NULL",
		"Email NVARCHAR(255) NULL",
		"Notes NVARCHAR(MAX) NULL",
		"Total DECIMAL(18,2) NOT NULL",
		"PlacedAt DATETIME2 NOT NULL",
	}, got.Columns)
	assert.Equal(t, []string{"Id"}, got.PrimaryKey)
	assert.Equal(t, []string{"Email", "Code"}, got.UniqueIndexes)
	assert.Equal(t, []string{
		"FK_Order_Customer: CustomerId → dbo.Customer(Id)",
		"FK_Order_Store: StoreId → retail.Store(Id)",
	}, got.ForeignKeys)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDescribeTable_Missing(t *testing.T) {
	a, mock := newMockAdapter(t)
	expectDescribe(mock, "dbo", "Nope",
		sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE", "IS_NULLABLE", "CHARACTER_MAXIMUM_LENGTH", "NUMERIC_PRECISION", "NUMERIC_SCALE"}),
		sqlmock.NewRows([]string{"COLUMN_NAME"}),
		sqlmock.NewRows([]string{"COLUMN_NAME"}),
		sqlmock.NewRows([]string{"ConstraintName", "ReferencingColumn", "ReferencedSchema", "ReferencedTable", "ReferencedColumn"}),
	)

	got, err := a.DescribeTable(context.Background(), "dbo", "Nope")
	require.NoError(t, err)
	assert.True(t, got.Empty())
	assert.NotNil(t, got.Columns)
	assert.NotNil(t, got.PrimaryKey)
	assert.NotNil(t, got.UniqueIndexes)
	assert.NotNil(t, got.ForeignKeys)
}

func TestDescribeTable_InvalidArguments(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		table  string
		arg    string
	}{
		{name: "blank schema", schema: "", table: "Order", arg: "schema"},
		{name: "whitespace schema", schema: " \t", table: "Order", arg: "schema"},
		{name: "blank table", schema: "dbo", table: "", arg: "table"},
		{name: "whitespace table", schema: "dbo", table: "  ", arg: "table"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, mock := newMockAdapter(t)

			got, err := a.DescribeTable(context.Background(), tt.schema, tt.table)
			require.Error(t, err)
			assert.Nil(t, got)

			var argErr *database.ErrInvalidArgument
			require.ErrorAs(t, err, &argErr)
			assert.Equal(t, tt.arg, argErr.Name)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDescribeTable_FacetErrorPropagates(t *testing.T) {
	a, mock := newMockAdapter(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM INFORMATION_SCHEMA.COLUMNS AS c")).
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE", "IS_NULLABLE", "CHARACTER_MAXIMUM_LENGTH", "NUMERIC_PRECISION", "NUMERIC_SCALE"}))
	mock.ExpectQuery(regexp.QuoteMeta("tc.CONSTRAINT_TYPE = 'PRIMARY KEY'")).
		WillReturnError(errors.New("login failed"))

	_, err := a.DescribeTable(context.Background(), "dbo", "Order")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get primary key")
}

func TestColumnInfoDescribe(t *testing.T) {
	tests := []struct {
		name string
		col  columnInfo
		want string
	}{
		{
			name: "varchar with length",
			col:  columnInfo{Name: "Code", DataType: "varchar", Nullable: "NO", MaxLength: nullInt(12)},
			want: "Code VARCHAR(12) NOT NULL",
		},
		{
			name: "unbounded length renders MAX",
			col:  columnInfo{Name: "Body", DataType: "varbinary", Nullable: "YES", MaxLength: nullInt(-1)},
			want: "Body VARBINARY(MAX) NULL",
		},
		{
			name: "xml reports unbounded length but takes no suffix",
			col:  columnInfo{Name: "Doc", DataType: "xml", Nullable: "YES", MaxLength: nullInt(-1)},
			want: "Doc XML NULL",
		},
		{
			name: "text length is not part of the type",
			col:  columnInfo{Name: "Notes", DataType: "ntext", Nullable: "YES", MaxLength: nullInt(1073741823)},
			want: "Notes NTEXT NULL",
		},
		{
			name: "zero length has no suffix",
			col:  columnInfo{Name: "Weird", DataType: "char", Nullable: "NO", MaxLength: nullInt(0)},
			want: "Weird CHAR NOT NULL",
		},
		{
			name: "length wins over precision",
			col:  columnInfo{Name: "X", DataType: "nchar", Nullable: "NO", MaxLength: nullInt(4), Precision: nullInt(5), Scale: nullInt(0)},
			want: "X NCHAR(4) NOT NULL",
		},
		{
			name: "numeric precision and scale",
			col:  columnInfo{Name: "Price", DataType: "numeric", Nullable: "YES", Precision: nullInt(9), Scale: nullInt(3)},
			want: "Price NUMERIC(9,3) NULL",
		},
		{
			name: "precision without scale has no suffix",
			col:  columnInfo{Name: "Ratio", DataType: "float", Nullable: "YES", Precision: nullInt(53)},
			want: "Ratio FLOAT NULL",
		},
		{
			name: "zero precision has no suffix",
			col:  columnInfo{Name: "Flag", DataType: "bit", Nullable: "NO", Precision: nullInt(0), Scale: nullInt(0)},
			want: "Flag BIT NOT NULL",
		},
		{
			name: "no metadata",
			col:  columnInfo{Name: "At", DataType: "datetime2", Nullable: "NO"},
			want: "At DATETIME2 NOT NULL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.col.describe())
		})
	}
}

func TestDistinctFold(t *testing.T) {
	assert.Equal(t, []string{"Email", "Code"}, distinctFold([]string{"Email", "email", "Code", "EMAIL", "code"}))
	assert.Equal(t, []string{}, distinctFold(nil))
}

func ptr[T any](v T) *T { return &v }

func nullInt(n int64) sql.NullInt64 { return sql.NullInt64{Int64: n, Valid: true} }
