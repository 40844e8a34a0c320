package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

func LoggerFilePath() (string, error) {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return filepath.Join(dir, "server.log"), nil
	}

	switch runtime.GOOS {
	case "windows":
		programData := os.Getenv("PROGRAMDATA")
		if programData == "" {
			programData = `C:\ProgramData`
		}
		return filepath.Join(programData, AppName, "server.log"), nil
	default:
		return filepath.Join("/var/log", AppName, "server.log"), nil
	}
}
