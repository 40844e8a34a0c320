package api

import (
	"database/sql"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mssql-script/internal/api/handlers"
	"mssql-script/internal/api/middleware"
	"mssql-script/internal/api/utils"
	"mssql-script/internal/config"
	"mssql-script/internal/logger"
	"mssql-script/internal/script"
)

type ServerDeps struct {
	DB     *sql.DB
	Logger logger.LoggerService
}

func NewServer(cfg config.Config, deps ServerDeps) (*http.Server, error) {
	addr := strings.TrimSpace(cfg.APIListen)
	if err := validateListenAddr(addr); err != nil {
		return nil, err
	}

	token := strings.TrimSpace(cfg.BearerToken)
	if token == "" {
		return nil, errors.New("bearerToken is required")
	}

	var conn script.Conn
	if deps.DB != nil {
		conn = script.DB(deps.DB)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/health", middleware.Auth(token, handlers.NewHealthHandler(deps.DB)))
	mux.Handle("/api/script", middleware.Auth(token, handlers.NewScriptHandler(conn, cfg.Script)))
	mux.Handle("/api/", middleware.Auth(token, http.HandlerFunc(notFoundHandler)))

	handler := middleware.Logging(deps.Logger, cfg.LogRequests, mux)

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}, nil
}

func validateListenAddr(addr string) error {
	if addr == "" {
		return errors.New("apiListen is required")
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return errors.New("apiListen must be in host:port format")
	}
	if host == "" {
		return errors.New("apiListen host is required")
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return errors.New("apiListen port is invalid")
	}

	return nil
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteError(w, http.StatusNotFound, "Not found", "NOT_FOUND", nil)
}
