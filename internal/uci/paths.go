package uci

import (
	"os"
	"path/filepath"
	"runtime"
)

// EnvEngine names the environment variable that overrides the engine path.
const EnvEngine = "CHESSPLAY_ENGINE"

// DefaultEnginePath returns the engine binary to use when none is given:
// $CHESSPLAY_ENGINE if set, else <root>/engine/<os>/iro-chess[.exe].
func DefaultEnginePath(root string) string {
	if p := os.Getenv(EnvEngine); p != "" {
		return p
	}

	osDir, ext := "linux", ""
	switch runtime.GOOS {
	case "darwin":
		osDir = "mac"
	case "windows":
		osDir, ext = "windows", ".exe"
	}
	return filepath.Join(root, "engine", osDir, "iro-chess"+ext)
}
