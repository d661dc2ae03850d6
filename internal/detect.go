package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the config and data directories
const AppName = "xerochat"

// StoragePaths holds the resolved locations for configuration and data
type StoragePaths struct {
	ConfigDir string // holds config.yaml
	DataDir   string // holds the session database or file store
}

// DetectStoragePaths resolves default paths for the current operating system,
// honoring XDG_CONFIG_HOME and XDG_DATA_HOME on Linux
func DetectStoragePaths() (StoragePaths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return StoragePaths{}, fmt.Errorf("failed to get home directory: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		base := filepath.Join(home, "Library/Application Support", AppName)
		return StoragePaths{ConfigDir: base, DataDir: base}, nil
	case "windows":
		base := os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(home, "AppData", "Roaming")
		}
		dir := filepath.Join(base, AppName)
		return StoragePaths{ConfigDir: dir, DataDir: dir}, nil
	default:
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			configHome = filepath.Join(home, ".config")
		}
		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome == "" {
			dataHome = filepath.Join(home, ".local", "share")
		}
		return StoragePaths{
			ConfigDir: filepath.Join(configHome, AppName),
			DataDir:   filepath.Join(dataHome, AppName),
		}, nil
	}
}

// ConfigPath returns the default config file path
func (sp StoragePaths) ConfigPath() string {
	return filepath.Join(sp.ConfigDir, "config.yaml")
}

// DatabasePath returns the SQLite database path
func (sp StoragePaths) DatabasePath() string {
	return filepath.Join(sp.DataDir, "xerochat.db")
}

// FileStoreDir returns the directory used by the file store
func (sp StoragePaths) FileStoreDir() string {
	return filepath.Join(sp.DataDir, "store")
}

// DatabaseExists checks if the session database exists
func (sp StoragePaths) DatabaseExists() bool {
	_, err := os.Stat(sp.DatabasePath())
	return err == nil
}
