package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenekit/pkg/formats"
)

// stubLoader counts LoadModel calls and serves canned models.
type stubLoader struct {
	calls  int
	models map[string]*Model
	err    error
}

func (s *stubLoader) LoadModel(p string) (*Model, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if m, ok := s.models[p]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
}

func newStubLoader(paths ...string) *stubLoader {
	models := make(map[string]*Model, len(paths))
	for _, p := range paths {
		models[p] = &Model{Path: p, Meshes: 1}
	}
	return &stubLoader{models: models}
}

func TestLibraryResolveOnce(t *testing.T) {
	loader := newStubLoader("models/duck.glb")
	lib := NewLibrary(loader)

	ref1, err := lib.Resolve("models/duck.glb")
	require.NoError(t, err)
	require.True(t, ref1.Valid())

	ref2, err := lib.Resolve("models/duck.glb")
	require.NoError(t, err)

	assert.Equal(t, ref1, ref2, "same path must resolve to the same ref")
	assert.Equal(t, 1, loader.calls, "second resolve must hit the cache")

	hits, misses := lib.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}

func TestLibraryDistinctPaths(t *testing.T) {
	loader := newStubLoader("models/duck.glb", "models/avocado.glb")
	lib := NewLibrary(loader)

	duck, err := lib.Resolve("models/duck.glb")
	require.NoError(t, err)
	avocado, err := lib.Resolve("models/avocado.glb")
	require.NoError(t, err)

	assert.NotEqual(t, duck, avocado)
	assert.Equal(t, 2, lib.Count())

	m, ok := lib.Model(duck)
	require.True(t, ok)
	assert.Equal(t, "models/duck.glb", m.Path)
}

func TestLibraryEmptyPath(t *testing.T) {
	lib := NewLibrary(newStubLoader())

	_, err := lib.Resolve("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLibraryLoadErrorNotCached(t *testing.T) {
	loader := newStubLoader()
	loader.err = fmt.Errorf("%w: disk on fire", ErrDecode)
	lib := NewLibrary(loader)

	_, err := lib.Resolve("models/duck.glb")
	require.ErrorIs(t, err, ErrDecode)

	_, err = lib.Resolve("models/duck.glb")
	require.ErrorIs(t, err, ErrDecode)

	assert.Equal(t, 2, loader.calls, "failed loads must not be cached")
	assert.Equal(t, 0, lib.Count())
}

func TestLibraryModelUnknownRef(t *testing.T) {
	lib := NewLibrary(newStubLoader())

	_, ok := lib.Model(Ref(12345))
	assert.False(t, ok)
}

func TestLibraryClear(t *testing.T) {
	loader := newStubLoader("models/duck.glb")
	lib := NewLibrary(loader)

	_, err := lib.Resolve("models/duck.glb")
	require.NoError(t, err)
	require.Equal(t, 1, lib.Count())

	lib.Clear()

	assert.Equal(t, 0, lib.Count())
	hits, misses := lib.Stats()
	assert.Zero(t, hits)
	assert.Zero(t, misses)

	_, err = lib.Resolve("models/duck.glb")
	require.NoError(t, err)
	assert.Equal(t, 2, loader.calls, "clear must force a reload")
}

func TestLibraryPathNormalization(t *testing.T) {
	loader := newStubLoader()
	loader.models["models/duck.glb"] = &Model{Path: "models/duck.glb"}
	lib := NewLibrary(loader)

	ref1, err := lib.Resolve("models/duck.glb")
	require.NoError(t, err)
	ref2, err := lib.Resolve(`models\duck.glb`)
	require.NoError(t, err)
	ref3, err := lib.Resolve("models/./duck.glb")
	require.NoError(t, err)

	assert.Equal(t, ref1, ref2)
	assert.Equal(t, ref1, ref3)
	assert.Equal(t, 1, lib.Count())
}

func TestStem(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"assets/models/duck.glb", "duck"},
		{"duck.glb", "duck"},
		{"models/avocado", "avocado"},
		{`assets\models\duck.glb`, "duck"},
		{"a/b/c.tar.gz", "c.tar"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Stem(c.path), "Stem(%q)", c.path)
	}
}

func writeTestGLB(t *testing.T, dir, rel string) {
	t.Helper()
	doc := `{"asset":{"version":"2.0"},"meshes":[{"name":"body"}],` +
		`"animations":[{"name":"Idle"},{"name":"Walk"}]}`
	full := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, formats.EncodeGLB([]byte(doc), nil), 0644))
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	writeTestGLB(t, dir, "models/duck.glb")

	loader := NewFileLoader(dir)
	model, err := loader.LoadModel("models/duck.glb")
	require.NoError(t, err)

	assert.Equal(t, "models/duck.glb", model.Path)
	assert.Equal(t, 1, model.Meshes)
	assert.Equal(t, []string{"Idle", "Walk"}, model.Animations)
}

func TestFileLoaderMissing(t *testing.T) {
	loader := NewFileLoader(t.TempDir())

	_, err := loader.LoadModel("models/duck.glb")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileLoaderGarbage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.glb"), []byte("not a container"), 0644))

	loader := NewFileLoader(dir)
	_, err := loader.LoadModel("bad.glb")

	assert.ErrorIs(t, err, ErrDecode)
	assert.True(t, errors.Is(err, formats.ErrInvalidGLBMagic), "parser sentinel must stay in the chain")
}

func TestLibraryWithFileLoader(t *testing.T) {
	dir := t.TempDir()
	writeTestGLB(t, dir, "models/avocado.glb")

	lib := NewLibrary(NewFileLoader(dir))

	ref, err := lib.Resolve("models/avocado.glb")
	require.NoError(t, err)

	m, ok := lib.Model(ref)
	require.True(t, ok)
	assert.Equal(t, 1, m.Meshes)

	again, err := lib.Resolve("models/avocado.glb")
	require.NoError(t, err)
	assert.Equal(t, ref, again)

	hits, _ := lib.Stats()
	assert.Equal(t, 1, hits)
}
