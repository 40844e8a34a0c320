package paths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const AppName = "mssql-script"

// ConfigDirEnv overrides the machine-wide config directory, mainly for
// running the CLI without root.
const ConfigDirEnv = "MSSQL_SCRIPT_CONFIG_DIR"

func configDir() (string, error) {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return dir, nil
	}

	switch runtime.GOOS {
	case "windows":
		programData := os.Getenv("PROGRAMDATA")
		if programData == "" {
			programData = `C:\ProgramData`
		}
		return filepath.Join(programData, AppName), nil
	case "linux":
		return filepath.Join("/etc", AppName), nil
	default:
		return "", errors.New("unsupported OS for machine-wide config")
	}
}

func ConfigFilePath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}
