package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joacominatel/dblab/internal/app"
	"github.com/joacominatel/dblab/internal/config"
	"github.com/joacominatel/dblab/internal/database"
)

// errQueryFailed is returned after a failed outcome has been printed so the
// process exits non-zero.
var errQueryFailed = errors.New("query failed")

// withService connects, runs fn and disconnects.
func (o *rootOptions) withService(cmd *cobra.Command, fn func(ctx context.Context, svc *app.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, err := o.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Disconnect() }()
	return fn(ctx, svc)
}

func newSchemasCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "List user schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				tree, err := svc.LoadSchemaTree(ctx)
				if err != nil {
					return err
				}
				return renderSchemas(cmd.OutOrStdout(), tree, opts.format)
			})
		},
	}
}

func newTablesCommand(opts *rootOptions) *cobra.Command {
	var schema string
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List base tables of a schema with approximate row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if schema == "" {
				schema = opts.cfg.Preferences.DefaultSchema
			}
			return opts.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				tables, err := svc.ListTables(ctx, schema)
				if err != nil {
					return err
				}
				return renderTables(cmd.OutOrStdout(), tables, opts.format)
			})
		},
	}
	cmd.Flags().StringVarP(&schema, "schema", "s", "", "schema to list (default: preferences.default_schema)")
	return cmd
}

func newDescribeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <schema.table | table>",
		Short: "Show columns, primary key, unique columns and foreign keys of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, table := splitQualified(args[0], opts.cfg.Preferences.DefaultSchema)
			return opts.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				detail, err := svc.DescribeTable(ctx, schema, table)
				if err != nil {
					return err
				}
				if detail.Empty() {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s.%s: no columns or keys found\n", schema, table)
				}
				return renderDetail(cmd.OutOrStdout(), detail, opts.format)
			})
		},
	}
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "run [sql]",
		Short: "Execute SQL and print the outcome",
		Example: `  dblab run "SELECT TOP 10 * FROM dbo.Customer"
  dblab run --file migrate.sql --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if file != "" {
				if len(args) > 0 {
					return errors.New("pass either SQL arguments or --file, not both")
				}
				b, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read sql file: %w", err)
				}
				text = string(b)
			}

			return opts.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				ctx, cancel := context.WithTimeout(ctx, opts.cfg.Preferences.QueryTimeout)
				defer cancel()

				out, err := svc.Run(ctx, text)
				if err != nil {
					return err
				}
				if !out.Succeeded {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s\n%s\n", out.Message, out.Error)
					return errQueryFailed
				}
				return renderOutcome(cmd.OutOrStdout(), cmd.ErrOrStderr(), out, opts.format)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "read SQL from a file")
	return cmd
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <pack>",
		Short: "Populate the database from a configured seed pack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runPack(cmd, args[0], (*app.Service).Seed)
		},
	}
}

func newResetCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <pack>",
		Short: "Reset the database to the state of a configured seed pack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runPack(cmd, args[0], (*app.Service).Reset)
		},
	}
}

func (o *rootOptions) runPack(cmd *cobra.Command, name string, op func(*app.Service, context.Context, database.SeedPack) error) error {
	pack, ok := o.cfg.FindSeedPack(name)
	if !ok {
		return fmt.Errorf("seed pack %q not found in config", name)
	}
	return o.withService(cmd, func(ctx context.Context, svc *app.Service) error {
		if err := op(svc, ctx, pack); err != nil {
			return fmt.Errorf("%s: %w", pack.Name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: done\n", pack.Name)
		return nil
	})
}

func newConnectionsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "connections",
		Short: "List saved connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return renderConnections(cmd.OutOrStdout(), opts.cfg.Connections, config.DefaultConnection(opts.cfg), opts.format)
		},
	}
}

// splitQualified splits "schema.table". A bare name gets defaultSchema.
// Brackets around either part are removed.
func splitQualified(name, defaultSchema string) (string, string) {
	schema, table, ok := strings.Cut(name, ".")
	if !ok {
		schema, table = defaultSchema, name
	}
	return unbracket(schema), unbracket(table)
}

func unbracket(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		return strings.ReplaceAll(s[1:len(s)-1], "]]", "]")
	}
	return s
}
