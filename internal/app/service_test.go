package app

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joacominatel/dblab/internal/database"
	"github.com/joacominatel/dblab/internal/database/sqlserver"
)

type fakeAdapter struct {
	mu       sync.Mutex
	schemas  []string
	tables   map[string][]database.TableRef
	listErr  map[string]error
	outcome  database.QueryOutcome
	runErr   error
	pingErr  error
	closed   int
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeAdapter) ListSchemas(context.Context) ([]string, error) { return f.schemas, nil }

func (f *fakeAdapter) ListTables(ctx context.Context, schema string) ([]database.TableRef, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if err := f.listErr[schema]; err != nil {
		return nil, err
	}
	return f.tables[schema], nil
}

func (f *fakeAdapter) DescribeTable(_ context.Context, schema, table string) (*database.TableDetail, error) {
	return &database.TableDetail{Schema: schema, Name: table, Columns: []string{"Id INT NOT NULL"}}, nil
}

func (f *fakeAdapter) Run(context.Context, string) (database.QueryOutcome, error) {
	return f.outcome, f.runErr
}

func (f *fakeAdapter) Seed(context.Context, database.SeedPack) error {
	return &database.ErrUnsupported{Op: "seed"}
}

func (f *fakeAdapter) Reset(context.Context, database.SeedPack) error {
	return &database.ErrUnsupported{Op: "reset"}
}

func (f *fakeAdapter) Ping(context.Context) error { return f.pingErr }
func (f *fakeAdapter) DatabaseName() string       { return "DbLab_Retail" }

func (f *fakeAdapter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func openerFor(a database.Adapter, err error) Opener {
	return func(string, *slog.Logger) (database.Adapter, error) {
		return a, err
	}
}

func TestService_NotConnected(t *testing.T) {
	s := NewService()
	assert.False(t, s.Connected())
	assert.Empty(t, s.DatabaseName())

	_, err := s.LoadSchemaTree(context.Background())
	assert.True(t, IsNotConnected(err))
	_, err = s.Run(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, ErrNotConnected)
	_, err = s.DescribeTable(context.Background(), "dbo", "T")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.NoError(t, s.Disconnect())
}

func TestService_Connect(t *testing.T) {
	t.Run("open failure", func(t *testing.T) {
		s := NewService(WithOpener(openerFor(nil, errors.New("bad dsn"))))
		err := s.Connect(context.Background(), "x")
		var ce *ErrConnection
		require.ErrorAs(t, err, &ce)
		assert.EqualError(t, err, "connection error: bad dsn")
		assert.False(t, s.Connected())
	})

	t.Run("ping failure closes adapter", func(t *testing.T) {
		fa := &fakeAdapter{pingErr: errors.New("login failed")}
		s := NewService(WithOpener(openerFor(fa, nil)))
		err := s.Connect(context.Background(), "x")
		require.Error(t, err)
		assert.Equal(t, 1, fa.closed)
		assert.False(t, s.Connected())
	})

	t.Run("reconnect closes previous", func(t *testing.T) {
		first, second := &fakeAdapter{}, &fakeAdapter{}
		s := NewService(WithAdapter(first), WithOpener(openerFor(second, nil)))
		require.NoError(t, s.Connect(context.Background(), "sqlserver://h?database=DbLab_Retail"))
		assert.Equal(t, 1, first.closed)
		assert.Equal(t, "DbLab_Retail", s.DatabaseName())
		assert.Equal(t, "sqlserver://h?database=DbLab_Retail", s.DSN())

		require.NoError(t, s.Disconnect())
		assert.Equal(t, 1, second.closed)
		assert.False(t, s.Connected())
	})
}

func TestService_LoadSchemaTree(t *testing.T) {
	count := int64(42)
	fa := &fakeAdapter{
		schemas: []string{"dbo", "hr", "sales", "staging", "audit", "ref"},
		tables: map[string][]database.TableRef{
			"dbo":   {{Schema: "dbo", Name: "Customer", ApproxRowCount: &count}},
			"sales": {{Schema: "sales", Name: "Order"}, {Schema: "sales", Name: "OrderLine"}},
		},
	}
	s := NewService(WithAdapter(fa), WithFanOut(2))

	tree, err := s.LoadSchemaTree(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "DbLab_Retail", tree.Database)
	require.Len(t, tree.Schemas, 6)

	for i, name := range fa.schemas {
		assert.Equal(t, name, tree.Schemas[i].Name, "schema order is kept")
	}
	assert.Len(t, tree.Schemas[2].Tables, 2)
	assert.LessOrEqual(t, fa.maxSeen.Load(), int32(2))

	assert.Equal(t,
		[]string{"Customer", "Order", "OrderLine", "dbo.Customer", "sales.Order", "sales.OrderLine"},
		s.AllTableNames(tree),
	)
}

func TestService_LoadSchemaTree_Error(t *testing.T) {
	fa := &fakeAdapter{
		schemas: []string{"dbo", "hr"},
		listErr: map[string]error{"hr": errors.New("permission denied")},
	}
	s := NewService(WithAdapter(fa))

	_, err := s.LoadSchemaTree(context.Background())
	assert.EqualError(t, err, "permission denied")
}

func TestService_Run(t *testing.T) {
	t.Run("failed outcome is not an error", func(t *testing.T) {
		fa := &fakeAdapter{outcome: database.QueryOutcome{Message: database.MsgFailed, Error: "Invalid object name 'x'."}}
		s := NewService(WithAdapter(fa))

		out, err := s.Run(context.Background(), "SELECT * FROM x")
		require.NoError(t, err)
		assert.False(t, out.Succeeded)
		assert.Equal(t, "Invalid object name 'x'.", out.Error)
	})

	t.Run("canceled is wrapped", func(t *testing.T) {
		fa := &fakeAdapter{runErr: &database.ErrCanceled{Op: "run", Cause: context.Canceled}}
		s := NewService(WithAdapter(fa))

		_, err := s.Run(context.Background(), "SELECT 1")
		var qe *ErrQuery
		require.ErrorAs(t, err, &qe)
		assert.Equal(t, "SELECT 1", qe.Query)
		assert.True(t, database.IsCanceled(err))
	})
}

func TestService_SeedResetUnsupported(t *testing.T) {
	s := NewService(WithAdapter(&fakeAdapter{}))
	assert.True(t, database.IsUnsupported(s.Seed(context.Background(), database.SeedPack{Name: "Retail"})))
	assert.True(t, database.IsUnsupported(s.Reset(context.Background(), database.SeedPack{Name: "Retail"})))
}

func TestService_LoadSchemaTree_SQLServer(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sys.schemas AS s")).
		WillReturnRows(sqlmock.NewRows([]string{"SchemaName"}).AddRow("dbo").AddRow("sales"))
	for _, schema := range []string{"dbo", "sales"} {
		mock.ExpectQuery(regexp.QuoteMeta("FROM INFORMATION_SCHEMA.TABLES AS t")).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"TABLE_SCHEMA", "TABLE_NAME", "ApproxRowCount"}).
				AddRow(schema, "T_"+schema, int64(3)))
	}

	s := NewService(WithAdapter(sqlserver.New(db, sqlserver.WithDatabaseName("DbLab_Retail"))))
	tree, err := s.LoadSchemaTree(context.Background())
	require.NoError(t, err)
	require.Len(t, tree.Schemas, 2)

	var names []string
	for _, node := range tree.Schemas {
		require.Len(t, node.Tables, 1)
		names = append(names, node.Tables[0].Name)
	}
	assert.ElementsMatch(t, []string{"T_dbo", "T_sales"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}
