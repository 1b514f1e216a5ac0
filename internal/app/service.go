package app

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joacominatel/dblab/internal/database"
	"github.com/joacominatel/dblab/internal/database/sqlserver"
)

// SchemaTree represents the loaded schema hierarchy for the explorer.
type SchemaTree struct {
	Database string
	Schemas  []SchemaNode
}

// SchemaNode holds a schema name and its tables.
type SchemaNode struct {
	Name   string
	Tables []database.TableRef
}

// Opener creates an adapter for a connection string.
type Opener func(dsn string, logger *slog.Logger) (database.Adapter, error)

// OpenSQLServer is the default Opener.
func OpenSQLServer(dsn string, logger *slog.Logger) (database.Adapter, error) {
	return sqlserver.Open(dsn, sqlserver.WithLogger(logger))
}

const defaultFanOut = 4

// Service coordinates application-level operations between the UI and database.
type Service struct {
	open   Opener
	logger *slog.Logger
	fanOut int

	mu      sync.RWMutex
	adapter database.Adapter
	dsn     string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger. It is also handed to adapters.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOpener replaces the function used by Connect to build adapters.
func WithOpener(open Opener) Option {
	return func(s *Service) {
		if open != nil {
			s.open = open
		}
	}
}

// WithAdapter starts the service already connected to a.
func WithAdapter(a database.Adapter) Option {
	return func(s *Service) {
		s.adapter = a
	}
}

// WithFanOut bounds how many schemas LoadSchemaTree lists at once.
func WithFanOut(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fanOut = n
		}
	}
}

// NewService creates a new application service.
func NewService(opts ...Option) *Service {
	s := &Service{
		open:   OpenSQLServer,
		logger: slog.New(slog.DiscardHandler),
		fanOut: defaultFanOut,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect opens an adapter for dsn and checks the server is reachable.
// A previous connection is closed once the new one is up.
func (s *Service) Connect(ctx context.Context, dsn string) error {
	a, err := s.open(dsn, s.logger)
	if err != nil {
		return &ErrConnection{Cause: err}
	}
	if err := a.Ping(ctx); err != nil {
		_ = a.Close()
		return &ErrConnection{Cause: err}
	}

	s.mu.Lock()
	prev := s.adapter
	s.adapter, s.dsn = a, dsn
	s.mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
	s.logger.Info("connected", "database", a.DatabaseName())
	return nil
}

// Disconnect closes the database connection.
func (s *Service) Disconnect() error {
	s.mu.Lock()
	a := s.adapter
	s.adapter, s.dsn = nil, ""
	s.mu.Unlock()

	if a == nil {
		return nil
	}
	return a.Close()
}

// Connected reports whether an adapter is in place.
func (s *Service) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.adapter != nil
}

func (s *Service) current() (database.Adapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.adapter == nil {
		return nil, ErrNotConnected
	}
	return s.adapter, nil
}

// LoadSchemaTree fetches schemas and their tables for the connected database.
// Tables of different schemas are listed in parallel.
func (s *Service) LoadSchemaTree(ctx context.Context) (*SchemaTree, error) {
	a, err := s.current()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	schemas, err := a.ListSchemas(ctx)
	if err != nil {
		return nil, err
	}

	nodes := make([]SchemaNode, len(schemas))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanOut)
	for i, schema := range schemas {
		g.Go(func() error {
			tables, err := a.ListTables(gctx, schema)
			if err != nil {
				return err
			}
			nodes[i] = SchemaNode{Name: schema, Tables: tables}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil && !database.IsCanceled(err) {
			return nil, &database.ErrCanceled{Op: "load schema tree", Cause: ctx.Err()}
		}
		return nil, err
	}

	s.logger.Info("loaded schema tree",
		"op_id", uuid.NewString(),
		"schemas", len(nodes),
		"duration", time.Since(start),
	)
	return &SchemaTree{Database: a.DatabaseName(), Schemas: nodes}, nil
}

// ListTables lists the base tables of one schema.
func (s *Service) ListTables(ctx context.Context, schema string) ([]database.TableRef, error) {
	a, err := s.current()
	if err != nil {
		return nil, err
	}
	return a.ListTables(ctx, schema)
}

// DescribeTable fetches columns and key constraints of a table.
func (s *Service) DescribeTable(ctx context.Context, schema, table string) (*database.TableDetail, error) {
	a, err := s.current()
	if err != nil {
		return nil, err
	}
	return a.DescribeTable(ctx, schema, table)
}

// Run executes SQL. Failures reported by the server are in the outcome;
// the error is set only when not connected or when ctx ended the call.
func (s *Service) Run(ctx context.Context, sql string) (database.QueryOutcome, error) {
	a, err := s.current()
	if err != nil {
		return database.QueryOutcome{}, err
	}

	out, err := a.Run(ctx, sql)
	if err != nil {
		return database.QueryOutcome{}, &ErrQuery{Query: sql, Cause: err}
	}
	if !out.Succeeded {
		s.logger.Warn("query failed", "error", out.Error, "duration", out.Duration)
	}
	return out, nil
}

// Seed populates the connected database from pack.
func (s *Service) Seed(ctx context.Context, pack database.SeedPack) error {
	a, err := s.current()
	if err != nil {
		return err
	}
	return a.Seed(ctx, pack)
}

// Reset returns the connected database to the state described by pack.
func (s *Service) Reset(ctx context.Context, pack database.SeedPack) error {
	a, err := s.current()
	if err != nil {
		return err
	}
	return a.Reset(ctx, pack)
}

// AllTableNames returns every table of tree for completion, both qualified
// and bare, sorted and without duplicates.
func (s *Service) AllTableNames(tree *SchemaTree) []string {
	if tree == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var names []string
	add := func(n string) {
		key := strings.ToLower(n)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		names = append(names, n)
	}
	for _, node := range tree.Schemas {
		for _, t := range node.Tables {
			add(t.QualifiedName())
			add(t.Name)
		}
	}
	sort.Strings(names)
	return names
}

// DatabaseName returns the current database name.
func (s *Service) DatabaseName() string {
	a, err := s.current()
	if err != nil {
		return ""
	}
	return a.DatabaseName()
}

// DSN returns the connection string of the current connection.
func (s *Service) DSN() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dsn
}

// IsNotConnected reports whether err came from using the service before Connect.
func IsNotConnected(err error) bool {
	return errors.Is(err, ErrNotConnected)
}
