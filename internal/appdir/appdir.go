// Package appdir resolves where a Folio database file lives on disk,
// generalizing the teacher's NewStore(dataDir string) convention (a
// caller-supplied directory string) into full platform "application
// support" directory resolution plus the shared-container and
// in-memory variants the specification calls out.
package appdir

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	appName = "Folio"
	dbName  = "folio.sqlite"

	// Memory is the sentinel path selecting an in-memory database.
	Memory = ":memory:"
)

// DefaultPath returns the default database path under the current
// platform's application-support directory, in a "Folio/" subdirectory.
func DefaultPath() (string, error) {
	base, err := supportDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appName, dbName), nil
}

// SharedContainerPath returns the database path within a shared
// container identified by containerID, for deployments where multiple
// processes or app extensions address the same Folio instance by a
// caller-chosen identifier rather than the default location.
func SharedContainerPath(containerID string) (string, error) {
	base, err := supportDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appName, "containers", containerID, dbName), nil
}

// Resolve normalizes a caller-supplied path preference into a concrete
// database path: Memory and non-empty paths pass through unchanged;
// an empty string resolves to DefaultPath.
func Resolve(preferred string) (string, error) {
	if preferred == Memory || preferred != "" {
		return preferred, nil
	}
	return DefaultPath()
}

func supportDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	case "windows":
		if dir := os.Getenv("APPDATA"); dir != "" {
			return dir, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "AppData", "Roaming"), nil
	default:
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return dir, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share"), nil
	}
}
