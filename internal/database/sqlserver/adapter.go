// Package sqlserver implements database.Adapter for Microsoft SQL Server.
//
// Every operation borrows its own connection from the database/sql pool and
// returns it before the call ends, so an Adapter can be shared freely.
package sqlserver

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"github.com/joacominatel/dblab/internal/database"
)

// Adapter implements the database.Adapter interface for SQL Server.
// Its fields are fixed at construction.
type Adapter struct {
	db     *sql.DB
	dbName string
	logger *slog.Logger
}

var _ database.Adapter = (*Adapter)(nil)

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for per-operation debug output.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithDatabaseName overrides the name reported by DatabaseName.
func WithDatabaseName(name string) Option {
	return func(a *Adapter) {
		a.dbName = name
	}
}

// Open parses a SQL Server connection string and prepares a pool. No
// connection is made until the first operation.
func Open(dsn string, opts ...Option) (*Adapter, error) {
	cfg, err := msdsn.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	db := sql.OpenDB(mssql.NewConnectorConfig(cfg))
	return New(db, append([]Option{WithDatabaseName(cfg.Database)}, opts...)...), nil
}

// New wraps an existing pool.
func New(db *sql.DB, opts ...Option) *Adapter {
	a := &Adapter{
		db:     db,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Close closes the connection pool.
func (a *Adapter) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Ping checks that the server is reachable.
func (a *Adapter) Ping(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		if ctx.Err() != nil {
			return &database.ErrCanceled{Op: "ping", Cause: ctx.Err()}
		}
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// DatabaseName returns the database named by the connection string.
func (a *Adapter) DatabaseName() string {
	return a.dbName
}

// withConn runs fn on a connection of its own and gives it back afterwards.
func (a *Adapter) withConn(ctx context.Context, op string, fn func(*sql.Conn) error) error {
	conn, err := a.db.Conn(ctx)
	if err != nil {
		return a.classify(ctx, op, fmt.Errorf("open connection: %w", err))
	}
	defer func() { _ = conn.Close() }()

	return a.classify(ctx, op, fn(conn))
}

// classify turns errors caused by ctx into ErrCanceled.
func (a *Adapter) classify(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &database.ErrCanceled{Op: op, Cause: ctxErr}
	}
	return err
}

// ListSchemas returns the user schemas of the current database.
func (a *Adapter) ListSchemas(ctx context.Context) ([]string, error) {
	start := time.Now()
	var schemas []string
	err := a.withConn(ctx, "list schemas", func(conn *sql.Conn) error {
		var err error
		schemas, err = listSchemas(ctx, conn)
		return err
	})
	if err != nil {
		return nil, err
	}
	a.logger.Debug("listed schemas", "op_id", uuid.NewString(), "count", len(schemas), "duration", time.Since(start))
	return schemas, nil
}

// ListTables returns the base tables of schema ordered by name. A blank
// schema means database.DefaultSchema.
func (a *Adapter) ListTables(ctx context.Context, schema string) ([]database.TableRef, error) {
	if strings.TrimSpace(schema) == "" {
		schema = database.DefaultSchema
	}

	start := time.Now()
	var tables []database.TableRef
	err := a.withConn(ctx, "list tables", func(conn *sql.Conn) error {
		var err error
		tables, err = listTables(ctx, conn, schema)
		return err
	})
	if err != nil {
		return nil, err
	}
	a.logger.Debug("listed tables",
		"op_id", uuid.NewString(),
		"schema", schema,
		"count", len(tables),
		"duration", time.Since(start),
	)
	return tables, nil
}

// DescribeTable returns the columns and key constraints of schema.table.
// A table that does not exist yields a detail with every facet empty.
func (a *Adapter) DescribeTable(ctx context.Context, schema, table string) (*database.TableDetail, error) {
	if strings.TrimSpace(schema) == "" {
		return nil, &database.ErrInvalidArgument{Name: "schema"}
	}
	if strings.TrimSpace(table) == "" {
		return nil, &database.ErrInvalidArgument{Name: "table"}
	}

	start := time.Now()
	var detail *database.TableDetail
	err := a.withConn(ctx, "describe table", func(conn *sql.Conn) error {
		var err error
		detail, err = describeTable(ctx, conn, schema, table)
		return err
	})
	if err != nil {
		return nil, err
	}
	a.logger.Debug("described table",
		"op_id", uuid.NewString(),
		"table", schema+"."+table,
		"columns", len(detail.Columns),
		"duration", time.Since(start),
	)
	return detail, nil
}

// Run executes arbitrary SQL. Server errors, including failure to connect,
// come back as an outcome with Succeeded false. The error is non-nil only
// when ctx ends the call, and then no outcome is returned.
func (a *Adapter) Run(ctx context.Context, text string) (database.QueryOutcome, error) {
	if strings.TrimSpace(text) == "" {
		return database.QueryOutcome{
			Rows:    []database.Row{},
			Message: database.MsgFailed,
			Error:   database.MsgEmptySQL,
		}, nil
	}

	opID := uuid.NewString()
	conn, err := a.db.Conn(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return database.QueryOutcome{}, &database.ErrCanceled{Op: "run", Cause: ctxErr}
		}
		a.logger.Debug("run: connection failed", "op_id", opID, "error", err)
		return failedOutcome(err, 0), nil
	}
	defer func() { _ = conn.Close() }()

	return a.run(ctx, opID, conn, text)
}

func (a *Adapter) run(ctx context.Context, opID string, c execQueryer, text string) (database.QueryOutcome, error) {
	out, shape, err := runStatement(ctx, c, text)
	if err != nil {
		return database.QueryOutcome{}, &database.ErrCanceled{Op: "run", Cause: err}
	}
	a.logger.Debug("ran statement",
		"op_id", opID,
		"shape", shape.String(),
		"succeeded", out.Succeeded,
		"rows", len(out.Rows),
		"duration", out.Duration,
	)
	return out, nil
}

// Seed is not implemented.
func (a *Adapter) Seed(_ context.Context, _ database.SeedPack) error {
	return &database.ErrUnsupported{Op: "seed"}
}

// Reset is not implemented.
func (a *Adapter) Reset(_ context.Context, _ database.SeedPack) error {
	return &database.ErrUnsupported{Op: "reset"}
}
