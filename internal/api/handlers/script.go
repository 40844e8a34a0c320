package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"mssql-script/internal/api/dto"
	"mssql-script/internal/api/utils"
	"mssql-script/internal/config"
	"mssql-script/internal/script"
)

const (
	scriptMaxBodyBytes   = 1 << 20
	scriptDefaultTimeout = 30 * time.Second
)

// NewScriptHandler serves POST /api/script: split the script into batches,
// execute them in order, and return every result set of every batch.
func NewScriptHandler(conn script.Conn, scriptCfg config.ScriptConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if conn == nil {
			utils.WriteError(w, http.StatusServiceUnavailable, "Database connection unavailable", "DB_UNAVAILABLE", nil)
			return
		}
		if r.Method != http.MethodPost {
			utils.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", "METHOD_NOT_ALLOWED", nil)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, scriptMaxBodyBytes)
		defer r.Body.Close()

		var req dto.ScriptRequest
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&req); err != nil {
			utils.WriteError(w, http.StatusBadRequest, "Invalid JSON body", "INVALID_JSON", nil)
			return
		}
		if err := ensureEOF(dec); err != nil {
			utils.WriteError(w, http.StatusBadRequest, "Invalid JSON body", "INVALID_JSON", nil)
			return
		}

		if strings.TrimSpace(req.Script) == "" {
			utils.WriteError(w, http.StatusBadRequest, "Script is required", "SCRIPT_REQUIRED", nil)
			return
		}

		mode, err := script.ParseOutputMode(req.Output)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "Invalid output mode", "INVALID_OUTPUT", map[string]any{
				"output": req.Output,
			})
			return
		}

		sep := req.Separator
		if sep == "" {
			sep = scriptCfg.Separator
		}

		queries := script.Split(req.Script, sep)

		if req.CheckMode {
			utils.WriteJSON(w, http.StatusOK, dto.ScriptResponse{
				Queries: queries,
				Changed: true,
			})
			return
		}

		timeout := scriptDefaultTimeout
		if scriptCfg.TimeoutSeconds > 0 {
			timeout = time.Duration(scriptCfg.TimeoutSeconds) * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		exec := script.NewExecutor(conn)
		exec.MaxRows = scriptCfg.MaxRows

		results, err := exec.Execute(ctx, queries, req.Params, mode)
		if err != nil {
			writeExecuteError(w, err, queries)
			return
		}

		utils.WriteJSON(w, http.StatusOK, dto.ScriptResponse{
			Queries:      queries,
			QueryResults: results,
			Changed:      true,
		})
	}
}

// writeExecuteError maps the executor's typed errors onto the response
// envelope, attaching the failing batch so callers can locate it.
func writeExecuteError(w http.ResponseWriter, err error, queries []string) {
	var namedErr *script.NamedOutputError
	if errors.As(err, &namedErr) {
		utils.WriteError(w, http.StatusBadRequest, "Dict output requires unique column names", "NAMED_OUTPUT_REQUIRED", map[string]any{
			"batchIndex": namedErr.BatchIndex,
			"position":   namedErr.Position,
			"column":     namedErr.Column,
		})
		return
	}

	if errors.Is(err, script.ErrRowLimit) {
		utils.WriteError(w, http.StatusRequestEntityTooLarge, "Row limit exceeded", "SQL_ROW_LIMIT", nil)
		return
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		utils.WriteError(w, http.StatusGatewayTimeout, "Script timeout", "SQL_TIMEOUT", nil)
		return
	}

	var execErr *script.QueryExecutionError
	if errors.As(err, &execErr) {
		utils.WriteError(w, http.StatusBadRequest, "Query failed", "QUERY_FAILED", map[string]any{
			"batchIndex": execErr.BatchIndex,
			"query":      execErr.Batch,
			"error":      execErr.Err.Error(),
			"queries":    queries,
		})
		return
	}

	utils.WriteError(w, http.StatusInternalServerError, "Script execution failed", "DB_ERROR", nil)
}

func ensureEOF(dec *json.Decoder) error {
	var extra any
	if err := dec.Decode(&extra); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return errors.New("extra data")
}
