// Package cache implements the on-disk tile cache (C7): an LRU-bounded
// store keyed by tile identity, with a versioned JSON index persisted
// alongside the tile files themselves.
package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	indexFileName  = "index"
	labelsFileName = "labels"
	indexVersion   = 1
)

// TileCache is a directory-backed LRU store. The MRU order lives in an
// in-memory hashicorp/golang-lru mirror so repeated Has/key-order checks
// never re-read the persisted index; the index itself is rewritten after
// every mutation so a crash never leaves stale files unaccounted for.
type TileCache struct {
	baseDir string
	limit   int

	mu     sync.Mutex
	mirror *lru.Cache[string, struct{}]
}

type indexEnvelope struct {
	Version int      `json:"version"`
	Keys    []string `json:"keys"` // MRU order, front = most recently used
}

// NewTileCache opens (or creates) a tile cache rooted at baseDir, holding
// at most limit entries. A missing or version-mismatched index is treated
// as a cold cache rather than an error.
func NewTileCache(baseDir string, limit int) (*TileCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("cache: create base dir: %w", err)
	}

	tc := &TileCache{baseDir: baseDir, limit: limit}
	mirror, err := lru.NewWithEvict[string, struct{}](limit, tc.onEvict)
	if err != nil {
		return nil, fmt.Errorf("cache: init lru: %w", err)
	}
	tc.mirror = mirror

	tc.loadIndex()
	return tc, nil
}

func (tc *TileCache) onEvict(key string, _ struct{}) {
	_ = os.Remove(tc.pathFor(key))
}

// pathFor returns the file a key's tile lives in: the key itself (e.g.
// "14-8600-5900.xyz"), directly under baseDir.
func (tc *TileCache) pathFor(key string) string {
	return filepath.Join(tc.baseDir, key)
}

// Has reports whether key is present, without affecting recency.
func (tc *TileCache) Has(key string) bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.mirror.Contains(key)
}

// Read opens key's tile for reading and moves it to the front of the MRU
// order, persisting the index. The second return value is false if key
// is absent or its file has gone missing underneath the index.
func (tc *TileCache) Read(key string) (io.ReadCloser, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if _, ok := tc.mirror.Get(key); !ok {
		return nil, false
	}
	tc.saveIndexLocked()

	f, err := os.Open(tc.pathFor(key))
	if err != nil {
		tc.mirror.Remove(key)
		tc.saveIndexLocked()
		return nil, false
	}
	return f, true
}

// Write inserts key at the front of the MRU order and returns a stream to
// write its tile payload. If the cache now exceeds its limit, the
// least-recently-used entry's file is deleted automatically.
func (tc *TileCache) Write(key string) (io.WriteCloser, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	path := tc.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("cache: create tile dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("cache: create tile file: %w", err)
	}

	tc.mirror.Add(key, struct{}{})
	tc.saveIndexLocked()
	return f, nil
}

// ReadLabels opens the fixed labels blob, if one has been written.
func (tc *TileCache) ReadLabels() (io.ReadCloser, bool) {
	f, err := os.Open(filepath.Join(tc.baseDir, labelsFileName))
	if err != nil {
		return nil, false
	}
	return f, true
}

// WriteLabels returns a stream to (re)write the fixed labels blob.
func (tc *TileCache) WriteLabels() (io.WriteCloser, error) {
	f, err := os.Create(filepath.Join(tc.baseDir, labelsFileName))
	if err != nil {
		return nil, fmt.Errorf("cache: create labels file: %w", err)
	}
	return f, nil
}

// Keys returns the current MRU order, front = most recently used.
func (tc *TileCache) Keys() []string {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.mruKeysLocked()
}

func (tc *TileCache) mruKeysLocked() []string {
	// lru.Cache.Keys returns oldest-to-newest; reverse for MRU-front order.
	oldestFirst := tc.mirror.Keys()
	out := make([]string, len(oldestFirst))
	for i, k := range oldestFirst {
		out[len(oldestFirst)-1-i] = k
	}
	return out
}

func (tc *TileCache) saveIndexLocked() {
	env := indexEnvelope{Version: indexVersion, Keys: tc.mruKeysLocked()}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return
	}

	indexPath := filepath.Join(tc.baseDir, indexFileName)
	tempPath := indexPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return
	}
	_ = os.Rename(tempPath, indexPath)
}

func (tc *TileCache) loadIndex() {
	indexPath := filepath.Join(tc.baseDir, indexFileName)
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return
	}

	var env indexEnvelope
	if err := json.Unmarshal(data, &env); err != nil || env.Version != indexVersion {
		return // treat as a cold cache
	}

	// Add oldest-first so the final Add leaves the true most-recent key
	// at the front of the underlying LRU list.
	for i := len(env.Keys) - 1; i >= 0; i-- {
		tc.mirror.Add(env.Keys[i], struct{}{})
	}
}
