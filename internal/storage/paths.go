// Package storage persists engine settings, match statistics and cached
// analyses in BadgerDB.
package storage

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog/log"
)

const appName = "othelloplay"

// GetDataDir returns the per-user data directory, creating it if needed:
// Application Support on macOS, %APPDATA% on Windows and $XDG_DATA_HOME
// (default ~/.local/share) elsewhere.
func GetDataDir() (string, error) {
	base, err := dataBase()
	if err != nil {
		return "", err
	}
	return ensureDir(filepath.Join(base, appName))
}

func dataBase() (string, error) {
	env := "XDG_DATA_HOME"
	fallback := []string{".local", "share"}
	switch runtime.GOOS {
	case "darwin":
		env, fallback = "", []string{"Library", "Application Support"}
	case "windows":
		env, fallback = "APPDATA", []string{"AppData", "Roaming"}
	}

	if env != "" {
		if dir := os.Getenv(env); dir != "" {
			return dir, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{home}, fallback...)...), nil
}

// GetBookDir returns the directory searched for opening book files.
func GetBookDir() (string, error) {
	return subDir("books")
}

// GetDatabaseDir returns the BadgerDB directory.
func GetDatabaseDir() (string, error) {
	dir, err := subDir("db")
	if err == nil {
		log.Debug().Str("dir", dir).Msg("database-directory")
	}
	return dir, err
}

func subDir(name string) (string, error) {
	data, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return ensureDir(filepath.Join(data, name))
}

func ensureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
