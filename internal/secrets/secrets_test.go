package secrets

import (
	"errors"
	"testing"

	"mssql-script/internal/platform/paths"
)

func TestGetFromEnv(t *testing.T) {
	t.Setenv(paths.ConfigDirEnv, t.TempDir())
	t.Setenv("MSSQL_SCRIPT_DB_PASSWORD", "hunter2")

	got, err := Get("db_password")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "hunter2" {
		t.Fatalf("got %q", got)
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	t.Setenv(paths.ConfigDirEnv, t.TempDir())

	if err := Set("db_password", []byte("s3cret")); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := Get("db_password")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "s3cret" {
		t.Fatalf("got %q", got)
	}
}

func TestGetMissing(t *testing.T) {
	t.Setenv(paths.ConfigDirEnv, t.TempDir())

	_, err := Get("db_password")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteMissingIsNoop(t *testing.T) {
	t.Setenv(paths.ConfigDirEnv, t.TempDir())

	if err := Delete("db_password"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
