package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/Faultbox/scenekit/pkg/formats"
)

// FileLoader loads GLB models from a directory on disk.
type FileLoader struct {
	dir string
}

// NewFileLoader creates a loader rooted at dir. Asset paths resolve
// relative to it.
func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{dir: dir}
}

// LoadModel parses the GLB container at the given asset path and
// extracts the metadata the engine tracks.
func (f *FileLoader) LoadModel(p string) (*Model, error) {
	full := filepath.Join(f.dir, filepath.FromSlash(normalize(p)))

	glb, err := formats.ParseGLBFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, p, err)
	}

	doc, err := glb.Document()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, p, err)
	}

	return &Model{
		Path:       normalize(p),
		Meshes:     len(doc.Meshes),
		Animations: doc.AnimationNames(),
	}, nil
}
