// Package paths resolves where kennel keeps its configuration and data.
//
// Precedence, highest first:
//
//	config dir: --config-dir, KENNEL_CONFIG_DIR, platform config dir
//	data dir:   --data-dir, data_dir in config.yaml, KENNEL_DATA_DIR, $(CWD)/.kennel-db
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user platform directories.
const AppName = "kennel"

// CWD-relative directory names.
const (
	DefaultConfigDirName = ".kennel"
	DefaultDataDirName   = ".kennel-db"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "KENNEL_CONFIG_DIR"
	EnvDataDir   = "KENNEL_DATA_DIR"
)

// platformDir holds platform lookups so tests can replace them.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// xdgDir is an XDG base directory: its variable and the home-relative
// fallback.
type xdgDir struct {
	env      string
	fallback []string
}

var (
	xdgConfig = xdgDir{env: "XDG_CONFIG_HOME", fallback: []string{".config"}}
	xdgData   = xdgDir{env: "XDG_DATA_HOME", fallback: []string{".local", "share"}}
)

// DefaultConfigDir returns the platform configuration directory:
// $XDG_CONFIG_HOME/kennel (or ~/.config/kennel) on Linux, and
// os.UserConfigDir()/kennel elsewhere.
func DefaultConfigDir() (string, error) {
	return platformPath(xdgConfig)
}

// DefaultDataDir returns the platform data directory:
// $XDG_DATA_HOME/kennel (or ~/.local/share/kennel) on Linux, and the same
// directory as DefaultConfigDir elsewhere.
func DefaultDataDir() (string, error) {
	return platformPath(xdgData)
}

func platformPath(x xdgDir) (string, error) {
	if platformDir.goos != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if base := os.Getenv(x.env); base != "" {
		return filepath.Join(base, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, x.fallback...), AppName)...), nil
}

// ResolveConfigDir returns the configuration directory as an absolute path.
func ResolveConfigDir(flag string) (string, error) {
	if dir := firstSet(flag, os.Getenv(EnvConfigDir)); dir != "" {
		return filepath.Abs(dir)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory as an absolute path.
// configValue is data_dir from config.yaml, empty when unset.
func ResolveDataDir(flag, configValue string) (string, error) {
	if dir := firstSet(flag, configValue, os.Getenv(EnvDataDir)); dir != "" {
		return filepath.Abs(dir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
