// Package pathcanon canonicalizes filesystem paths (absolute, symlinks
// resolved) and memoizes the result, since the same conftest.py or test
// file is canonicalized repeatedly as the index is queried and the
// syscalls add up on a large workspace.
package pathcanon

import (
	"path/filepath"
	"time"

	cache "github.com/patrickmn/go-cache"
)

// Canonicalizer resolves paths to their canonical form and caches the
// result for the process lifetime (paths do not change identity once the
// server has started resolving them).
type Canonicalizer struct {
	cache *cache.Cache
}

// New constructs a Canonicalizer with no expiration: entries live for the
// process lifetime, matching the fixture index's own no-eviction policy.
func New() *Canonicalizer {
	return &Canonicalizer{cache: cache.New(cache.NoExpiration, time.Hour)}
}

// Canonical returns the absolute, symlink-resolved form of path. On
// resolution failure (e.g. the path does not exist yet) it falls back to
// filepath.Abs so callers always get a stable, comparable key.
func (c *Canonicalizer) Canonical(path string) string {
	if v, ok := c.cache.Get(path); ok {
		return v.(string)
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved, err = filepath.Abs(path)
		if err != nil {
			resolved = path
		}
	} else if !filepath.IsAbs(resolved) {
		if abs, err := filepath.Abs(resolved); err == nil {
			resolved = abs
		}
	}

	c.cache.Set(path, resolved, cache.NoExpiration)
	return resolved
}
