// Package security guards destructive operations on cache paths.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// PathValidator refuses deletion targets that are system directories or
// the user's home and configuration directories
type PathValidator struct {
	protectedPaths []string
}

// NewPathValidator creates a PathValidator with the default protected paths
func NewPathValidator() *PathValidator {
	pv := &PathValidator{}

	if runtime.GOOS == "windows" {
		for _, p := range []string{`C:\`, `C:\Windows`, `C:\Program Files`, `C:\Program Files (x86)`, `C:\Users`} {
			pv.AddProtectedPath(p)
		}
	} else {
		for _, p := range []string{
			// Unix system directories
			"/", "/bin", "/boot", "/dev", "/etc", "/lib", "/lib64",
			"/proc", "/root", "/sbin", "/sys", "/usr", "/var",
			// macOS system directories
			"/System", "/Applications", "/Library", "/Users",
		} {
			pv.AddProtectedPath(p)
		}
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		pv.AddProtectedPath(home)
	}

	return pv
}

// ValidatePathForDeletion checks a match path right before it is removed.
// The path must be absolute and clean, and neither it nor its resolved
// target may be protected or a direct child of a protected system path.
func (pv *PathValidator) ValidatePathForDeletion(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute: %s", path)
	}
	if filepath.Clean(path) != path {
		return fmt.Errorf("path contains suspicious elements: %s", path)
	}
	if strings.ContainsAny(path, "\x00\n\r") {
		return fmt.Errorf("path contains invalid characters: %q", path)
	}

	if err := pv.checkProtectedPaths(path); err != nil {
		return err
	}

	// The link itself is what gets removed, but a link pointing into a
	// protected location is still refused.
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if resolved != path {
		return pv.checkProtectedPaths(filepath.Clean(resolved))
	}

	return nil
}

// checkProtectedPaths rejects protected paths and their direct children.
// Direct children of the home directory are allowed (~/.npm is a cache).
func (pv *PathValidator) checkProtectedPaths(cleanPath string) error {
	for _, protected := range pv.protectedPaths {
		if samePath(cleanPath, protected) {
			return fmt.Errorf("refusing to delete protected path: %s", cleanPath)
		}
	}

	parent := filepath.Dir(cleanPath)
	for _, protected := range pv.protectedPaths {
		if samePath(parent, protected) && isSystemPath(protected) {
			return fmt.Errorf("refusing to delete critical system path: %s", cleanPath)
		}
	}

	return nil
}

// AddProtectedPath adds a custom protected path
func (pv *PathValidator) AddProtectedPath(path string) {
	cleanPath := filepath.Clean(path)
	for _, existing := range pv.protectedPaths {
		if existing == cleanPath {
			return
		}
	}
	pv.protectedPaths = append(pv.protectedPaths, cleanPath)
}

// ProtectedPaths returns a copy of the protected path list
func (pv *PathValidator) ProtectedPaths() []string {
	return append([]string(nil), pv.protectedPaths...)
}

// ValidateExcludePattern checks a user-supplied exclude glob. Patterns are
// matched against absolute paths, so traversal segments never make sense.
func ValidateExcludePattern(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return fmt.Errorf("exclude pattern is empty")
	}
	if strings.Contains(pattern, "..") {
		return fmt.Errorf("exclude pattern contains directory traversal: %s", pattern)
	}
	if strings.ContainsAny(pattern, "\x00\n\r") {
		return fmt.Errorf("exclude pattern contains invalid characters: %q", pattern)
	}
	return nil
}

// isSystemPath reports whether protected is a system location whose direct
// children are also off limits. Home directories do not qualify.
func isSystemPath(protected string) bool {
	home, err := os.UserHomeDir()
	if err == nil && samePath(protected, filepath.Clean(home)) {
		return false
	}
	return protected != "/Users" && !strings.EqualFold(protected, `C:\Users`)
}

func samePath(a, b string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}
