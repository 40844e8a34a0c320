package script

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"testing"
)

type fakeSet struct {
	cols []string
	rows [][]any
}

type fakeRows struct {
	sets   []fakeSet
	set    int
	row    int
	closed bool
}

func (r *fakeRows) Columns() ([]string, error) {
	if r.set >= len(r.sets) {
		return nil, nil
	}
	return r.sets[r.set].cols, nil
}

func (r *fakeRows) Next() bool {
	if r.set >= len(r.sets) || r.row >= len(r.sets[r.set].rows) {
		return false
	}
	r.row++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	vals := r.sets[r.set].rows[r.row-1]
	if len(dest) != len(vals) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(vals))
	}
	for i, d := range dest {
		p, ok := d.(*any)
		if !ok {
			return fmt.Errorf("scan: destination %d is %T, not *any", i, d)
		}
		*p = vals[i]
	}
	return nil
}

func (r *fakeRows) Err() error { return nil }

func (r *fakeRows) NextResultSet() bool {
	if r.set+1 >= len(r.sets) {
		return false
	}
	r.set++
	r.row = 0
	return true
}

func (r *fakeRows) Close() error {
	r.closed = true
	return nil
}

type fakeConn struct {
	results  map[string][]fakeSet
	failures map[string]error
	executed []string
	lastArgs []any
	rows     []*fakeRows
}

func (c *fakeConn) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	c.executed = append(c.executed, query)
	c.lastArgs = args
	if err, ok := c.failures[query]; ok {
		return nil, err
	}
	rows := &fakeRows{sets: c.results[query]}
	c.rows = append(c.rows, rows)
	return rows, nil
}

func TestExecuteDefaultOutput(t *testing.T) {
	conn := &fakeConn{results: map[string][]fakeSet{
		"SELECT 'x' AS a, 'y' AS b": {
			{cols: []string{"a", "b"}, rows: [][]any{{"x", "y"}}},
		},
	}}

	results, err := NewExecutor(conn).Execute(context.Background(), []string{"SELECT 'x' AS a, 'y' AS b"}, nil, OutputDefault)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := QueryResults{{ResultSet{[]any{"x", "y"}}}}
	if !reflect.DeepEqual(results, want) {
		t.Fatalf("results = %#v, want %#v", results, want)
	}
}

func TestExecuteDictOutput(t *testing.T) {
	conn := &fakeConn{results: map[string][]fakeSet{
		"SELECT 'x' AS a, 'y' AS b": {
			{cols: []string{"a", "b"}, rows: [][]any{{"x", "y"}}},
		},
	}}

	results, err := NewExecutor(conn).Execute(context.Background(), []string{"SELECT 'x' AS a, 'y' AS b"}, nil, OutputDict)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := QueryResults{{ResultSet{map[string]any{"a": "x", "b": "y"}}}}
	if !reflect.DeepEqual(results, want) {
		t.Fatalf("results = %#v, want %#v", results, want)
	}
}

func TestExecuteMultipleResultSetsPerBatch(t *testing.T) {
	conn := &fakeConn{results: map[string][]fakeSet{
		"batch0": {
			{cols: []string{""}, rows: [][]any{{"Batch 0 - Select 0"}}},
			{cols: []string{""}, rows: [][]any{{"Batch 0 - Select 1"}}},
		},
		"batch1": {
			{cols: []string{""}, rows: [][]any{{"Batch 1 - Select 0"}}},
		},
	}}

	results, err := NewExecutor(conn).Execute(context.Background(), []string{"batch0", "batch1"}, nil, OutputDefault)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 batch entries, got %d", len(results))
	}
	if len(results[0]) != 2 {
		t.Fatalf("expected 2 result sets in first batch, got %d", len(results[0]))
	}
	if len(results[1]) != 1 {
		t.Fatalf("expected 1 result set in second batch, got %d", len(results[1]))
	}
	row, ok := results[0][0][0].([]any)
	if !ok || row[0] != "Batch 0 - Select 0" {
		t.Fatalf("unexpected first row: %#v", results[0][0][0])
	}
}

func TestExecuteEmptyBatch(t *testing.T) {
	conn := &fakeConn{}

	results, err := NewExecutor(conn).Execute(context.Background(), []string{""}, nil, OutputDefault)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 batch entry, got %d", len(results))
	}
	if len(results[0]) != 0 {
		t.Fatalf("expected 0 result sets, got %d", len(results[0]))
	}
	if len(conn.executed) != 0 {
		t.Fatalf("blank batch must not reach the connection, executed %v", conn.executed)
	}
}

func TestExecuteRowlessBatch(t *testing.T) {
	// A statement without a row-producing result (e.g. DDL) surfaces as a
	// cursor with zero columns and contributes no result set.
	conn := &fakeConn{results: map[string][]fakeSet{
		"CREATE TABLE t (id INT)": {{cols: nil}},
	}}

	results, err := NewExecutor(conn).Execute(context.Background(), []string{"CREATE TABLE t (id INT)"}, nil, OutputDefault)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || len(results[0]) != 0 {
		t.Fatalf("expected one empty batch entry, got %#v", results)
	}
}

func TestExecuteFailureAbortsRemainingBatches(t *testing.T) {
	boom := errors.New("incorrect syntax near 'SELEC'")
	conn := &fakeConn{
		results: map[string][]fakeSet{
			"SELECT 1": {{cols: []string{""}, rows: [][]any{{int64(1)}}}},
			"SELECT 2": {{cols: []string{""}, rows: [][]any{{int64(2)}}}},
		},
		failures: map[string]error{"SELEC 0": boom},
	}

	results, err := NewExecutor(conn).Execute(context.Background(), []string{"SELECT 1", "SELEC 0", "SELECT 2"}, nil, OutputDefault)
	if results != nil {
		t.Fatalf("expected no results on failure, got %#v", results)
	}

	var execErr *QueryExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected *QueryExecutionError, got %T: %v", err, err)
	}
	if execErr.BatchIndex != 1 {
		t.Fatalf("expected batch index 1, got %d", execErr.BatchIndex)
	}
	if execErr.Batch != "SELEC 0" {
		t.Fatalf("expected failing batch text, got %q", execErr.Batch)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}

	want := []string{"SELECT 1", "SELEC 0"}
	if !reflect.DeepEqual(conn.executed, want) {
		t.Fatalf("executed %v, want %v", conn.executed, want)
	}
}

func TestExecuteNamedOutputErrors(t *testing.T) {
	tests := []struct {
		name    string
		cols    []string
		wantCol string
		wantPos int
	}{
		{
			name:    "unnamed column",
			cols:    []string{"a", ""},
			wantPos: 1,
		},
		{
			name:    "duplicate column",
			cols:    []string{"a", "a"},
			wantCol: "a",
			wantPos: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &fakeConn{results: map[string][]fakeSet{
				"q": {{cols: tt.cols, rows: [][]any{{"x", "y"}}}},
			}}

			results, err := NewExecutor(conn).Execute(context.Background(), []string{"q"}, nil, OutputDict)
			if results != nil {
				t.Fatalf("expected no results, got %#v", results)
			}

			var namedErr *NamedOutputError
			if !errors.As(err, &namedErr) {
				t.Fatalf("expected *NamedOutputError, got %T: %v", err, err)
			}
			if namedErr.BatchIndex != 0 {
				t.Fatalf("expected batch index 0, got %d", namedErr.BatchIndex)
			}
			if namedErr.Column != tt.wantCol || namedErr.Position != tt.wantPos {
				t.Fatalf("got column %q position %d, want %q %d", namedErr.Column, namedErr.Position, tt.wantCol, tt.wantPos)
			}

			// Validation runs before any row is read.
			if conn.rows[0].row != 0 {
				t.Fatalf("rows were read before column validation")
			}
		})
	}
}

func TestExecuteRowLimit(t *testing.T) {
	conn := &fakeConn{results: map[string][]fakeSet{
		"q": {{cols: []string{"n"}, rows: [][]any{{int64(1)}, {int64(2)}, {int64(3)}}}},
	}}

	exec := NewExecutor(conn)
	exec.MaxRows = 2

	_, err := exec.Execute(context.Background(), []string{"q"}, nil, OutputDefault)
	if !errors.Is(err, ErrRowLimit) {
		t.Fatalf("expected ErrRowLimit, got %v", err)
	}
	var execErr *QueryExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected *QueryExecutionError wrapper, got %T", err)
	}
}

func TestExecuteClosesCursor(t *testing.T) {
	conn := &fakeConn{results: map[string][]fakeSet{
		"q": {{cols: []string{"n"}, rows: [][]any{{int64(1)}}}},
	}}

	if _, err := NewExecutor(conn).Execute(context.Background(), []string{"q"}, nil, OutputDefault); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conn.rows) != 1 || !conn.rows[0].closed {
		t.Fatalf("cursor was not closed")
	}
}

func TestExecuteConvertsBytesToString(t *testing.T) {
	conn := &fakeConn{results: map[string][]fakeSet{
		"q": {{cols: []string{"v"}, rows: [][]any{{[]byte("raw")}}}},
	}}

	results, err := NewExecutor(conn).Execute(context.Background(), []string{"q"}, nil, OutputDefault)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row := results[0][0][0].([]any)
	if row[0] != "raw" {
		t.Fatalf("expected []byte converted to string, got %#v", row[0])
	}
}

func TestExecuteBindsNamedParams(t *testing.T) {
	conn := &fakeConn{results: map[string][]fakeSet{
		"q": {{cols: []string{"name"}, rows: [][]any{{"msdb"}}}},
	}}

	params := map[string]any{"@zeta": "z", "dbname": "msdb", "count": float64(3)}
	if _, err := NewExecutor(conn).Execute(context.Background(), []string{"q"}, params, OutputDefault); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []any{
		sql.Named("zeta", "z"),
		sql.Named("count", int64(3)),
		sql.Named("dbname", "msdb"),
	}
	if !reflect.DeepEqual(conn.lastArgs, want) {
		t.Fatalf("args = %#v, want %#v", conn.lastArgs, want)
	}
}

func TestRunSplitsAndExecutes(t *testing.T) {
	conn := &fakeConn{results: map[string][]fakeSet{
		"SELECT 1": {{cols: []string{""}, rows: [][]any{{int64(1)}}}},
		"SELECT 2": {{cols: []string{""}, rows: [][]any{{int64(2)}}}},
	}}

	queries, results, err := NewExecutor(conn).Run(context.Background(), "SELECT 1\nGO\nSELECT 2", "GO", nil, OutputDefault)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(queries, []string{"SELECT 1", "SELECT 2"}) {
		t.Fatalf("queries = %#v", queries)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 batch entries, got %d", len(results))
	}
}

func TestParseOutputMode(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputMode
		wantErr bool
	}{
		{in: "", want: OutputDefault},
		{in: "default", want: OutputDefault},
		{in: "dict", want: OutputDict},
		{in: " dict ", want: OutputDict},
		{in: "json", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseOutputMode(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseOutputMode(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseOutputMode(%q) = %q, %v", tt.in, got, err)
		}
	}
}
