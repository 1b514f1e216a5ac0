package database

import "context"

// Adapter defines the operations the explorer needs from a database server.
// All implementations must be safe for concurrent use.
type Adapter interface {
	// ListSchemas returns the user schemas of the current database.
	ListSchemas(ctx context.Context) ([]string, error)

	// ListTables returns the base tables of a schema ordered by name.
	// A blank schema means DefaultSchema.
	ListTables(ctx context.Context, schema string) ([]TableRef, error)

	// DescribeTable returns columns and key constraints of a table.
	DescribeTable(ctx context.Context, schema, table string) (*TableDetail, error)

	// Run executes arbitrary SQL. Server-side failures are reported in the
	// outcome; the error is non-nil only when ctx ends the call.
	Run(ctx context.Context, sql string) (QueryOutcome, error)

	// Seed populates a database from a seed pack.
	Seed(ctx context.Context, pack SeedPack) error

	// Reset returns a database to the state described by a seed pack.
	Reset(ctx context.Context, pack SeedPack) error

	// Ping checks that the server is reachable.
	Ping(ctx context.Context) error

	// DatabaseName returns the database named by the connection string.
	DatabaseName() string

	// Close releases the underlying connection pool.
	Close() error
}
