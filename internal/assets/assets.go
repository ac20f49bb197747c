// Package assets handles model asset resolution and caching.
package assets

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Asset resolution errors.
var (
	ErrNotFound = errors.New("asset not found")
	ErrDecode   = errors.New("asset decode failed")
)

// Ref is an opaque handle to a resolved asset. The zero Ref is invalid.
type Ref uint64

// Valid reports whether the ref points at a resolved asset.
func (r Ref) Valid() bool {
	return r != 0
}

// Model holds the decoded metadata of a model asset. Geometry stays with
// the renderer; the engine only tracks identity and playback-relevant
// metadata.
type Model struct {
	Path       string
	Meshes     int
	Animations []string
}

// Loader resolves an asset path into model metadata. Implementations
// live at the rendering boundary.
type Loader interface {
	LoadModel(path string) (*Model, error)
}

// Library caches resolved models so each distinct path decodes at most
// once. Refs are stable across the library's lifetime.
type Library struct {
	loader Loader

	mu     sync.Mutex
	models map[Ref]*Model

	hits   int
	misses int
}

// NewLibrary creates a library backed by the given loader.
func NewLibrary(loader Loader) *Library {
	return &Library{
		loader: loader,
		models: make(map[Ref]*Model),
	}
}

// Resolve loads the asset at path, or returns the cached ref when the
// path resolved before. Load failures are returned to the caller and
// not cached.
func (l *Library) Resolve(p string) (Ref, error) {
	if p == "" {
		return 0, fmt.Errorf("%w: empty path", ErrNotFound)
	}

	ref := refFor(p)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.models[ref]; ok {
		l.hits++
		return ref, nil
	}
	l.misses++

	model, err := l.loader.LoadModel(p)
	if err != nil {
		return 0, err
	}
	l.models[ref] = model

	return ref, nil
}

// Model returns the cached model for a ref.
func (l *Library) Model(ref Ref) (*Model, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.models[ref]
	return m, ok
}

// Count returns the number of cached models.
func (l *Library) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.models)
}

// Stats returns cache statistics.
func (l *Library) Stats() (hits, misses int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hits, l.misses
}

// Clear drops all cached models and resets statistics.
func (l *Library) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.models = make(map[Ref]*Model)
	l.hits = 0
	l.misses = 0
}

// refFor derives the stable ref for an asset path.
func refFor(p string) Ref {
	return Ref(xxhash.Sum64String(normalize(p)))
}

// normalize canonicalizes an asset path to forward slashes.
func normalize(p string) string {
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}

// Stem returns the file name of an asset path without its extension.
// "assets/models/duck.glb" becomes "duck".
func Stem(p string) string {
	base := path.Base(normalize(p))
	return strings.TrimSuffix(base, path.Ext(base))
}
