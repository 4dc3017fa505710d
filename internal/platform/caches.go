package platform

import "path/filepath"

// GlobalCache is a package-manager cache living outside any project tree
type GlobalCache struct {
	Name string
	Path string
}

// GlobalCaches returns the well-known global caches for the platform, in a
// fixed order. Paths are resolved relative to the home directory.
func GlobalCaches(info *Info) []GlobalCache {
	home := info.HomeDir
	windows := info.OS == Windows

	pick := func(win, other string) string {
		if windows {
			return filepath.Join(home, filepath.FromSlash(win))
		}
		return filepath.Join(home, filepath.FromSlash(other))
	}

	return []GlobalCache{
		{Name: "npm", Path: pick("AppData/Local/npm-cache", ".npm")},
		{Name: "yarn", Path: pick("AppData/Local/Yarn/Cache", ".cache/yarn")},
		{Name: "pip", Path: pick("AppData/Local/pip/cache", ".cache/pip")},
		{Name: "cargo", Path: filepath.Join(home, filepath.FromSlash(".cargo/registry/cache"))},
		{Name: "go", Path: pick("AppData/Local/go-build", ".cache/go-build")},
	}
}
