// Package paths resolves jellybridge's on-disk locations.
//
// The daemon is often installed as a systemd service invoked via sudo;
// these helpers resolve against SUDO_USER so state does not end up in
// root's home directory.
package paths

import (
	"os"
	"os/user"
	"path/filepath"
)

// UserHomeDir returns the home directory of the invoking user,
// preferring SUDO_USER over root when running under sudo.
func UserHomeDir() (string, error) {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" && sudoUser != "root" {
		if u, err := user.Lookup(sudoUser); err == nil {
			return u.HomeDir, nil
		}
	}
	return os.UserHomeDir()
}

// BridgeDir returns the jellybridge config directory (~/.config/jellybridge).
func BridgeDir() (string, error) {
	home, err := UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "jellybridge"), nil
}

// ConfigPath returns the path to the config file
// (~/.config/jellybridge/config.toml).
func ConfigPath() (string, error) {
	dir, err := BridgeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// HistoryPath returns the path to the playback history database
// (~/.config/jellybridge/history.db).
func HistoryPath() (string, error) {
	dir, err := BridgeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// LogPath returns the default log file path
// (~/.config/jellybridge/logs/jellybridge.log).
func LogPath() (string, error) {
	dir, err := BridgeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs", "jellybridge.log"), nil
}
