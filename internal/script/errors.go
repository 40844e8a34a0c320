package script

import (
	"errors"
	"fmt"
)

// ErrRowLimit is returned (wrapped in a QueryExecutionError) when the total
// number of fetched rows exceeds Executor.MaxRows.
var ErrRowLimit = errors.New("row limit exceeded")

// QueryExecutionError reports the first batch that failed to execute.
// Batches before BatchIndex have already run and taken effect server-side;
// batches after it were never submitted.
type QueryExecutionError struct {
	BatchIndex int
	Batch      string
	Err        error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("batch %d failed: %v", e.BatchIndex, e.Err)
}

func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}

// NamedOutputError reports a result set whose columns cannot serve as unique
// map keys in dict output mode. It is raised before any row of the offending
// result set is materialized.
type NamedOutputError struct {
	BatchIndex int
	Position   int    // zero-based column position
	Column     string // offending name, empty when the column is unnamed
}

func (e *NamedOutputError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("dict output requires named columns: column %d of batch %d has no name", e.Position, e.BatchIndex)
	}
	return fmt.Sprintf("dict output requires unique column names: duplicate column %q in batch %d", e.Column, e.BatchIndex)
}
