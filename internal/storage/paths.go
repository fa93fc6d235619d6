// Package storage persists engine state in BadgerDB: options, a journal of
// move decisions and transposition table snapshots.
package storage

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
)

const appName = "chessthink"

// userDataRoot resolves the per-user application data root for goos:
// ~/Library/Application Support on macOS, %APPDATA% on Windows and
// $XDG_DATA_HOME (or ~/.local/share) elsewhere.
func userDataRoot(goos string, getenv func(string) string, home func() (string, error)) (string, error) {
	var envVar string
	var fallback []string
	switch goos {
	case "darwin":
		fallback = []string{"Library", "Application Support"}
	case "windows":
		envVar, fallback = "APPDATA", []string{"AppData", "Roaming"}
	default:
		envVar, fallback = "XDG_DATA_HOME", []string{".local", "share"}
	}

	if envVar != "" {
		if dir := getenv(envVar); dir != "" {
			return dir, nil
		}
	}
	homeDir, err := home()
	if err != nil {
		return "", errors.Wrap(err, "home directory")
	}
	return filepath.Join(append([]string{homeDir}, fallback...)...), nil
}

// DatabaseDir returns the directory holding the BadgerDB files, creating it
// if needed.
func DatabaseDir() (string, error) {
	root, err := userDataRoot(runtime.GOOS, os.Getenv, os.UserHomeDir)
	if err != nil {
		return "", err
	}

	dbDir := filepath.Join(root, appName, "db")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return "", errors.Wrapf(err, "create %s", dbDir)
	}
	return dbDir, nil
}
