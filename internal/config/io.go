package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"mssql-script/internal/platform/paths"
)

var ErrNotFound = errors.New("config not found")

func Load() (Config, error) {
	p, err := paths.ConfigFilePath()
	if err != nil {
		return Config{}, err
	}
	return LoadFile(p)
}

func LoadFile(p string) (Config, error) {
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, ErrNotFound
		}
		return Config{}, err
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func Save(cfg Config) error {
	p, err := paths.ConfigFilePath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	_ = tmp.Chmod(0o600)

	_, writeErr := tmp.Write(out)
	syncErr := tmp.Sync()
	closeErr := tmp.Close()

	if writeErr != nil || syncErr != nil || closeErr != nil {
		_ = os.Remove(tmpName)
		if writeErr != nil {
			return writeErr
		}
		if syncErr != nil {
			return syncErr
		}
		return closeErr
	}

	// Rename over an existing file fails on Windows.
	_ = os.Remove(p)

	if err := os.Rename(tmpName, p); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	return nil
}
