package scanner

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/IGLOU-EU/go-wildcard"
	"github.com/fenilsonani/devcache/internal/catalog"
	"github.com/fenilsonani/devcache/internal/logging"
	"github.com/fenilsonani/devcache/pkg/utils"
)

// skipDirs are never descended into: source control metadata and OS system
// or recycle directories.
var skipDirs = map[string]bool{
	".git":          true,
	".hg":           true,
	".svn":          true,
	"$RECYCLE.BIN":  true,
	"Windows":       true,
	"Program Files": true,
}

// Options controls a tree scan
type Options struct {
	// Categories restricts matching to these catalog categories (all if empty)
	Categories []string
	// MaxDepth limits how deep directories are visited, relative to the root.
	// Zero means unlimited.
	MaxDepth int
	// MinSize drops matches smaller than this many bytes
	MinSize int64
	// Exclude holds wildcard patterns matched against absolute paths
	Exclude []string
}

// DefaultOptions returns options with the 1 MB threshold and no filters
func DefaultOptions() Options {
	return Options{MinSize: utils.DefaultMinSize}
}

// Scanner finds cache artifacts in directory trees and global caches
type Scanner struct {
	catalog *catalog.Catalog
	logger  *logging.Logger
}

// New creates a new Scanner. A nil catalog means catalog.Default().
func New(cat *catalog.Catalog, logger *logging.Logger) *Scanner {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Scanner{catalog: cat, logger: logger}
}

// treeWalk is the state of a single Scan call
type treeWalk struct {
	s         *Scanner
	opts      Options
	baseDepth int
	seen      map[string]bool
	matches   []Match
}

// Scan walks root and returns every matching entry, largest first. Matched
// directories are never descended into. A missing root yields no matches.
func (s *Scanner) Scan(root string, opts Options) ([]Match, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scan root: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("scan root does not exist: %s", abs)
			return []Match{}, nil
		}
		return nil, fmt.Errorf("failed to resolve scan root: %w", err)
	}

	w := &treeWalk{
		s:         s,
		opts:      opts,
		baseDepth: pathDepth(resolved),
		seen:      make(map[string]bool),
		matches:   []Match{},
	}

	s.logger.Debug("scanning %s (max depth %d, min size %d)", resolved, opts.MaxDepth, opts.MinSize)
	w.visit(resolved)

	SortBySize(w.matches)
	return w.matches, nil
}

// visit lists one directory and handles its children
func (w *treeWalk) visit(dir string) {
	if w.seen[dir] || skipDirs[filepath.Base(dir)] {
		return
	}
	if w.opts.MaxDepth > 0 && pathDepth(dir)-w.baseDepth > w.opts.MaxDepth {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Unreadable directory - abandon the subtree, keep scanning
		w.s.logger.Debug("skipping %s: %v", dir, err)
		return
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if w.seen[path] || w.excluded(path) {
			continue
		}

		// Symlinks are neither matched nor followed
		if entry.Type()&os.ModeSymlink != 0 {
			continue
		}

		category, cacheType, ok := w.s.catalog.MatchIn(entry.Name(), w.opts.Categories)
		if !ok {
			if entry.IsDir() {
				w.visit(path)
			}
			continue
		}

		w.record(path, category, cacheType)
	}
}

// record sizes a matched entry and keeps it when it reaches the threshold
func (w *treeWalk) record(path, category, cacheType string) {
	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		w.s.logger.Debug("skipping %s: %v", path, err)
		return
	}
	if w.seen[canonical] {
		return
	}

	size, err := DirSize(path)
	if err != nil {
		w.s.logger.Debug("%v", err)
	}
	if size < w.opts.MinSize {
		return
	}

	w.seen[canonical] = true
	w.matches = append(w.matches, Match{
		Path:      path,
		Category:  category,
		CacheType: cacheType,
		Size:      size,
	})
}

// excluded reports whether path matches a user exclude pattern
func (w *treeWalk) excluded(path string) bool {
	for _, pattern := range w.opts.Exclude {
		if wildcard.Match(pattern, filepath.ToSlash(path)) {
			return true
		}
	}
	return false
}

// pathDepth counts the segments of a clean absolute path
func pathDepth(path string) int {
	depth := 0
	for p := filepath.Clean(path); ; {
		parent := filepath.Dir(p)
		if parent == p {
			return depth
		}
		depth++
		p = parent
	}
}
