// Package secrets stores the database password outside the config file:
// either in an environment variable or in a 0600 file beside the config.
package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"mssql-script/internal/platform/paths"
)

var ErrNotFound = errors.New("secret not found")

var keyR = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	key = keyR.ReplaceAllString(key, "_")
	if key == "" {
		return "empty"
	}
	return key
}

func envName(key string) string {
	name := strings.ToUpper(sanitizeKey(key))
	name = strings.NewReplacer(".", "_", "-", "_").Replace(name)
	return "MSSQL_SCRIPT_" + name
}

func secretFilePath(key string) (string, error) {
	cfgPath, err := paths.ConfigFilePath()
	if err != nil {
		return "", err
	}
	baseDir := filepath.Dir(cfgPath)
	return filepath.Join(baseDir, "secrets", sanitizeKey(key)+".bin"), nil
}

func Get(key string) ([]byte, error) {
	if v, ok := os.LookupEnv(envName(key)); ok {
		return []byte(v), nil
	}

	p, err := secretFilePath(key)
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func Set(key string, value []byte) error {
	p, err := secretFilePath(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return err
	}

	return os.WriteFile(p, value, 0o600)
}

func Delete(key string) error {
	p, err := secretFilePath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
