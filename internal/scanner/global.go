package scanner

import (
	"fmt"
	"os"

	"github.com/fenilsonani/devcache/internal/platform"
)

// LocateGlobal evaluates each well-known package-manager cache as a single
// candidate. Caches that are missing, unreadable or below minSize are left
// out; a failure on one cache never stops the others.
func (s *Scanner) LocateGlobal(info *platform.Info, minSize int64) []Match {
	matches := []Match{}

	for _, cache := range platform.GlobalCaches(info) {
		match, err := s.probeGlobal(cache, minSize)
		if err != nil {
			s.logger.Warn("global cache %s: %v", cache.Name, err)
			continue
		}
		if match != nil {
			matches = append(matches, *match)
		}
	}

	SortBySize(matches)
	return matches
}

// probeGlobal returns a match for cache, or nil when it does not qualify
func (s *Scanner) probeGlobal(cache platform.GlobalCache, minSize int64) (*Match, error) {
	if _, err := os.Stat(cache.Path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", cache.Path, err)
	}

	size, err := DirSize(cache.Path)
	if err != nil {
		// Partial totals are still usable
		s.logger.Debug("%v", err)
	}
	if size < minSize {
		return nil, nil
	}

	return &Match{
		Path:      cache.Path,
		Category:  GlobalCategory,
		CacheType: cache.Name,
		Size:      size,
	}, nil
}
