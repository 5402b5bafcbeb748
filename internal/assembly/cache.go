// SPDX-License-Identifier: MPL-2.0

package assembly

import (
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pyflat/pyflat/internal/segment"
)

// DefaultCacheSize is the number of files a watch session keeps segmented.
const DefaultCacheSize = 1024

type (
	// Cache keeps the segments of recently ingested files. An entry is reused
	// only while the file's size and modification time are unchanged.
	Cache struct {
		entries *lru.Cache[cacheKey, []segment.Segment]
	}

	cacheKey struct {
		path    string
		size    int64
		modTime int64
	}
)

// NewCache returns a cache holding at most size files.
func NewCache(size int) (*Cache, error) {
	entries, err := lru.New[cacheKey, []segment.Segment](size)
	if err != nil {
		return nil, fmt.Errorf("creating segment cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Len returns the number of cached files.
func (c *Cache) Len() int { return c.entries.Len() }

// Forget drops every cached version of the files at paths and returns how
// many entries went. Edited files leave their old versions behind until
// evicted otherwise.
func (c *Cache) Forget(paths ...string) int {
	if c == nil || len(paths) == 0 {
		return 0
	}
	drop := make(map[string]bool, len(paths))
	for _, p := range paths {
		drop[filepath.Clean(p)] = true
	}
	n := 0
	for _, key := range c.entries.Keys() {
		if drop[filepath.Clean(key.path)] && c.entries.Remove(key) {
			n++
		}
	}
	return n
}

func keyFor(path string, info os.FileInfo) cacheKey {
	return cacheKey{path: path, size: info.Size(), modTime: info.ModTime().UnixNano()}
}

func (c *Cache) get(key cacheKey) ([]segment.Segment, bool) {
	if c == nil {
		return nil, false
	}
	return c.entries.Get(key)
}

func (c *Cache) add(key cacheKey, segs []segment.Segment) {
	if c == nil {
		return
	}
	c.entries.Add(key, segs)
}
