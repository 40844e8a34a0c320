package script

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"sort"
	"strings"
)

// Executor runs script batches strictly in order on a single connection.
// Later batches may depend on session state left by earlier ones, so batches
// are never reordered, parallelized, or retried.
type Executor struct {
	conn Conn

	// MaxRows caps the total number of rows fetched across the whole
	// invocation; zero means no cap.
	MaxRows int
}

func NewExecutor(conn Conn) *Executor {
	return &Executor{conn: conn}
}

// Execute runs every batch in order and returns one BatchResult per batch.
// Parameters are bound with the driver's native named-argument mechanism.
//
// The first failing batch aborts the invocation with a *QueryExecutionError
// carrying the batch index and text; subsequent batches never run and no
// partial QueryResults are returned. Dict output mode fails with a
// *NamedOutputError as soon as a result set without unique non-empty column
// names is encountered.
func (e *Executor) Execute(ctx context.Context, batches []string, params map[string]any, mode OutputMode) (QueryResults, error) {
	args := namedArgs(params)

	results := make(QueryResults, 0, len(batches))
	total := 0
	for i, batch := range batches {
		sets, err := e.runBatch(ctx, batch, args, mode, &total)
		if err != nil {
			var namedErr *NamedOutputError
			if errors.As(err, &namedErr) {
				namedErr.BatchIndex = i
				return nil, namedErr
			}
			return nil, &QueryExecutionError{BatchIndex: i, Batch: batch, Err: err}
		}
		results = append(results, sets)
	}

	return results, nil
}

// Run splits script on sep and executes the resulting batches. The batch
// texts are returned alongside the results so callers can echo them.
func (e *Executor) Run(ctx context.Context, scriptText, sep string, params map[string]any, mode OutputMode) ([]string, QueryResults, error) {
	batches := Split(scriptText, sep)
	results, err := e.Execute(ctx, batches, params, mode)
	return batches, results, err
}

func (e *Executor) runBatch(ctx context.Context, batch string, args []any, mode OutputMode, total *int) (BatchResult, error) {
	sets := make(BatchResult, 0)

	// T-SQL rejects an empty batch; a blank segment between separator
	// lines simply contributes zero result sets.
	if strings.TrimSpace(batch) == "" {
		return sets, nil
	}

	rows, err := e.conn.QueryContext(ctx, batch, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for {
		cols, err := rows.Columns()
		if err != nil {
			return nil, err
		}

		if len(cols) > 0 {
			set, err := e.collectSet(rows, cols, mode, total)
			if err != nil {
				return nil, err
			}
			sets = append(sets, set)
		}

		if err := rows.Err(); err != nil {
			return nil, err
		}
		if !rows.NextResultSet() {
			break
		}
	}

	return sets, nil
}

func (e *Executor) collectSet(rows Rows, cols []string, mode OutputMode, total *int) (ResultSet, error) {
	if mode == OutputDict {
		if err := checkNamedColumns(cols); err != nil {
			return nil, err
		}
	}

	set := make(ResultSet, 0)
	for rows.Next() {
		if e.MaxRows > 0 && *total >= e.MaxRows {
			return nil, ErrRowLimit
		}

		values := make([]any, len(cols))
		scanArgs := make([]any, len(cols))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}

		if mode == OutputDict {
			row := make(map[string]any, len(cols))
			for i, col := range cols {
				row[col] = values[i]
			}
			set = append(set, row)
		} else {
			set = append(set, values)
		}
		*total++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return set, nil
}

// checkNamedColumns runs before any row of a result set is materialized so
// dict mode never returns a partial result set.
func checkNamedColumns(cols []string) error {
	seen := make(map[string]struct{}, len(cols))
	for i, col := range cols {
		if col == "" {
			return &NamedOutputError{Position: i}
		}
		if _, dup := seen[col]; dup {
			return &NamedOutputError{Position: i, Column: col}
		}
		seen[col] = struct{}{}
	}
	return nil
}

func namedArgs(params map[string]any) []any {
	if len(params) == 0 {
		return nil
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(keys))
	for _, key := range keys {
		name := strings.TrimPrefix(key, "@")
		args = append(args, sql.Named(name, normalizeParamValue(params[key])))
	}
	return args
}

// normalizeParamValue keeps integral JSON numbers integral; encoding/json
// decodes every number to float64.
func normalizeParamValue(v any) any {
	switch t := v.(type) {
	case float64:
		if math.Trunc(t) == t {
			return int64(t)
		}
		return t
	default:
		return v
	}
}
