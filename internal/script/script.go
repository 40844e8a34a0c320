// Package script splits a multi-batch T-SQL script into batches and executes
// them in order against a single connection, draining every result set each
// batch produces.
package script

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

type OutputMode string

const (
	// OutputDefault materializes every row as an ordered list of column
	// values.
	OutputDefault OutputMode = "default"
	// OutputDict materializes every row as a column-name-to-value map.
	// Every column of every result set must carry a unique, non-empty name.
	OutputDict OutputMode = "dict"
)

func ParseOutputMode(s string) (OutputMode, error) {
	switch OutputMode(strings.TrimSpace(s)) {
	case "", OutputDefault:
		return OutputDefault, nil
	case OutputDict:
		return OutputDict, nil
	}
	return "", errors.New("output must be one of: default, dict")
}

// Row is a single result row: a []any in default output mode, a
// map[string]any in dict output mode.
type Row any

// ResultSet is the ordered row collection produced by one statement.
type ResultSet []Row

// BatchResult holds the result sets produced by one batch, in statement
// order. A batch that produces no rows is an empty, non-nil BatchResult.
type BatchResult []ResultSet

// QueryResults groups result sets by batch and indexes as
// QueryResults[batchIndex][resultSetIndex][rowIndex].
type QueryResults []BatchResult

// Rows is the subset of the database/sql cursor the executor drains.
// *sql.Rows satisfies it.
type Rows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
	NextResultSet() bool
	Close() error
}

// Conn submits one batch for execution and returns its cursor. The cursor
// must expose every result set of the batch through NextResultSet; a driver
// that only surfaces the last result set cannot honor the executor contract.
type Conn interface {
	QueryContext(ctx context.Context, query string, args ...any) (Rows, error)
}

type sqlConn struct {
	db *sql.DB
}

func (c sqlConn) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DB adapts a *sql.DB to the Conn collaborator interface.
func DB(db *sql.DB) Conn {
	return sqlConn{db: db}
}
