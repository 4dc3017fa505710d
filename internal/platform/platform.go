package platform

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
)

// Platform represents the operating system platform
type Platform string

const (
	MacOS   Platform = "darwin"
	Linux   Platform = "linux"
	Windows Platform = "windows"
	Unknown Platform = "unknown"
)

// ConfigDirName is the per-user directory holding config, history and logs
const ConfigDirName = ".cacheclean"

// Info contains platform-specific information and paths
type Info struct {
	OS       Platform
	HomeDir  string
	Username string
}

// Detect returns the current platform
func Detect() Platform {
	switch runtime.GOOS {
	case "darwin":
		return MacOS
	case "linux":
		return Linux
	case "windows":
		return Windows
	default:
		return Unknown
	}
}

// GetInfo returns platform-specific information for the current user
func GetInfo() (*Info, error) {
	info := &Info{OS: Detect()}

	if currentUser, err := user.Current(); err == nil {
		info.HomeDir = currentUser.HomeDir
		info.Username = currentUser.Username
	}

	// $HOME wins so that sandboxed runs and tests can relocate the home dir
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		info.HomeDir = home
	}

	if info.HomeDir == "" {
		return nil, fmt.Errorf("failed to determine home directory")
	}

	return info, nil
}

// NewInfo builds an Info for an explicit platform and home directory
func NewInfo(p Platform, homeDir string) *Info {
	return &Info{OS: p, HomeDir: homeDir}
}

// ConfigDir returns the directory holding config.yaml, history.json and the log
func (i *Info) ConfigDir() string {
	return filepath.Join(i.HomeDir, ConfigDirName)
}
