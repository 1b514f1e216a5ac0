package sqlserver

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/golang-sql/sqlexp"
	mssql "github.com/microsoft/go-mssqldb"

	"github.com/joacominatel/dblab/internal/database"
)

// execQueryer is satisfied by *sql.Conn.
type execQueryer interface {
	queryer
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// resultShape is what the server says a statement will produce.
type resultShape int

const (
	shapeUnknown resultShape = iota
	shapeRows
	shapeNone
)

func (s resultShape) String() string {
	switch s {
	case shapeRows:
		return "rows"
	case shapeNone:
		return "none"
	default:
		return "unknown"
	}
}

// errNoResultSet marks a statement that ran through the row path but
// produced no result set. It is an expected outcome, not a failure.
var errNoResultSet = errors.New("statement produced no result set")

// describeResultShape asks the server to describe the first result set of
// text. Any problem describing it, including a syntax error, yields
// shapeUnknown so the statement itself reports the real error.
func describeResultShape(ctx context.Context, q queryer, text string) resultShape {
	rows, err := q.QueryContext(ctx, queryDescribeResultSet, sql.Named("sql", text))
	if err != nil {
		return shapeUnknown
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return shapeUnknown
	}
	var columns, errs int64
	if err := rows.Scan(&columns, &errs); err != nil {
		return shapeUnknown
	}
	switch {
	case errs > 0:
		return shapeUnknown
	case columns > 0:
		return shapeRows
	default:
		return shapeNone
	}
}

// execution is the raw result of running a statement.
type execution struct {
	rows      []database.Row
	affected  int64
	resultSet bool // false when the statement produced only a row count
}

func execute(ctx context.Context, c execQueryer, text string, shape resultShape) (execution, error) {
	switch shape {
	case shapeNone:
		n, err := execAffected(ctx, c, text)
		if err != nil {
			return execution{}, err
		}
		return execution{affected: n}, nil
	case shapeUnknown:
		return queryMessages(ctx, c, text)
	}

	rows, err := queryResultSet(ctx, c, text)
	if errors.Is(err, errNoResultSet) {
		// The described result set was never produced, as with a
		// conditional branch that skipped it.
		return execution{}, nil
	}
	if err != nil {
		return execution{}, err
	}
	return execution{rows: rows, resultSet: true}, nil
}

// messageSource yields the messages of a query run in message mode.
// *sqlexp.ReturnMessage implements it.
type messageSource interface {
	Message(ctx context.Context) sqlexp.RawMessage
}

// queryMessages runs text in message mode so the server's row counts are
// seen whether or not the statement returns a result set.
func queryMessages(ctx context.Context, q queryer, text string) (execution, error) {
	var msgs sqlexp.ReturnMessage
	rows, err := q.QueryContext(ctx, text, &msgs)
	if err != nil {
		return execution{}, err
	}
	defer func() { _ = rows.Close() }()
	return readMessages(ctx, &msgs, rows)
}

// readMessages keeps the first result set that has columns and sums every
// row count the server reports. The first server error ends the read.
func readMessages(ctx context.Context, src messageSource, rows *sql.Rows) (execution, error) {
	var res execution
	for active := true; active; {
		switch m := src.Message(ctx).(type) {
		case sqlexp.MsgNext:
			if res.resultSet {
				drain(rows)
				break
			}
			types, err := rows.ColumnTypes()
			if err != nil {
				return execution{}, err
			}
			if len(types) == 0 {
				drain(rows)
				break
			}
			got, err := scanRows(rows, types)
			if err != nil {
				return execution{}, err
			}
			res.rows, res.resultSet = got, true
		case sqlexp.MsgRowsAffected:
			res.affected += m.Count
		case sqlexp.MsgError:
			return execution{}, m.Error
		case sqlexp.MsgNextResultSet:
			active = rows.NextResultSet()
		}
	}
	if err := ctx.Err(); err != nil {
		return execution{}, err
	}
	if err := rows.Err(); err != nil {
		return execution{}, err
	}
	return res, nil
}

func drain(rows *sql.Rows) {
	for rows.Next() {
	}
}

func queryResultSet(ctx context.Context, q queryer, text string) ([]database.Row, error) {
	rows, err := q.QueryContext(ctx, text)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		// drain so that errors raised after the first token surface
		drain(rows)
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, errNoResultSet
	}
	return scanRows(rows, types)
}

func execAffected(ctx context.Context, c execQueryer, text string) (int64, error) {
	res, err := c.ExecContext(ctx, text)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil || n < 0 {
		return 0, nil
	}
	return n, nil
}

// runStatement executes text and classifies the result. The returned error
// is non-nil only when ctx ended the call; every other failure is folded
// into the outcome.
func runStatement(ctx context.Context, c execQueryer, text string) (database.QueryOutcome, resultShape, error) {
	shape := describeResultShape(ctx, c, text)
	if err := ctx.Err(); err != nil {
		return database.QueryOutcome{}, shape, err
	}

	start := time.Now()
	res, err := execute(ctx, c, text, shape)
	elapsed := time.Since(start)

	// rows already fetched do not outlive a canceled context
	if ctxErr := ctx.Err(); ctxErr != nil {
		return database.QueryOutcome{}, shape, ctxErr
	}
	if err != nil {
		return failedOutcome(err, elapsed), shape, nil
	}

	if !res.resultSet {
		return database.QueryOutcome{
			Rows:      []database.Row{},
			Message:   database.AffectedMessage(res.affected),
			Duration:  elapsed,
			Succeeded: true,
		}, shape, nil
	}
	return database.QueryOutcome{
		Rows:      res.rows,
		Message:   database.ReturnedMessage(len(res.rows)),
		Duration:  elapsed,
		Succeeded: true,
	}, shape, nil
}

func failedOutcome(err error, elapsed time.Duration) database.QueryOutcome {
	return database.QueryOutcome{
		Rows:      []database.Row{},
		Message:   database.MsgFailed,
		Duration:  elapsed,
		Succeeded: false,
		Error:     errorText(err),
	}
}

// errorText returns the server's message for SQL Server errors and the
// error text otherwise.
func errorText(err error) string {
	var msErr mssql.Error
	if errors.As(err, &msErr) && msErr.Message != "" {
		return msErr.Message
	}
	return err.Error()
}
