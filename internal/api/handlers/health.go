package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"mssql-script/internal/api/utils"
)

func NewHealthHandler(dbConn *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			utils.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", "METHOD_NOT_ALLOWED", nil)
			return
		}

		if dbConn == nil {
			utils.WriteError(w, http.StatusServiceUnavailable, "Database connection unavailable", "DB_UNAVAILABLE", nil)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := dbConn.PingContext(ctx); err != nil {
			utils.WriteError(w, http.StatusServiceUnavailable, "Database connection failed", "DB_UNAVAILABLE", nil)
			return
		}

		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
