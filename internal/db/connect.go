package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	// Registers the "sqlserver" driver.
	_ "github.com/microsoft/go-mssqldb"

	"mssql-script/internal/config"
)

type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxOpenConns:    10,
		MaxIdleConns:    10,
		ConnMaxLifetime: 30 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
}

func Open(cfg config.Config, password string, opt Options) (*sql.DB, error) {
	driverName, dsn, err := buildDSN(cfg, password)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	if opt.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opt.MaxOpenConns)
	}
	if opt.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opt.MaxIdleConns)
	}
	if opt.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opt.ConnMaxLifetime)
	}

	if opt.PingTimeout <= 0 {
		opt.PingTimeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), opt.PingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, Classify(err)
	}

	return db, nil
}

func buildDSN(cfg config.Config, password string) (driverName string, dsn string, err error) {
	host := cfg.DB.Host
	port := cfg.DB.Port
	user := cfg.DB.User
	dbName := cfg.DB.Database

	if host == "" {
		return "", "", errors.New("db.host is required")
	}
	if port <= 0 || port > 65535 {
		return "", "", errors.New("db.port is invalid")
	}
	if user == "" {
		return "", "", errors.New("db.user is required")
	}

	switch cfg.DB.Driver {
	case config.DBDriverMSSQL:
		u := &url.URL{
			Scheme: "sqlserver",
			User:   url.UserPassword(user, password),
			Host:   fmt.Sprintf("%s:%d", host, port),
		}
		q := url.Values{}
		if dbName != "" {
			q.Set("database", dbName)
		}
		u.RawQuery = q.Encode()

		return "sqlserver", u.String(), nil

	default:
		return "", "", fmt.Errorf("unsupported driver: %q", cfg.DB.Driver)
	}
}

func TestConnection(ctx context.Context, cfg config.Config, password string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	opt := DefaultOptions()
	db, err := Open(cfg, password, opt)
	if err != nil {
		return err
	}
	return db.Close()
}

// DatabaseExists probes master.sys.databases for name.
func DatabaseExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var found string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM master.sys.databases WHERE name = @dbname",
		sql.Named("dbname", name),
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, Classify(err)
	}
	return true, nil
}
