// Package formats provides parsers for 3D asset container formats.
package formats

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// GLB format errors.
var (
	ErrInvalidGLBMagic       = errors.New("invalid GLB magic: expected 'glTF'")
	ErrUnsupportedGLBVersion = errors.New("unsupported GLB version")
	ErrTruncatedGLBData      = errors.New("truncated GLB data")
	ErrMissingGLBJSON        = errors.New("GLB container has no JSON chunk")
)

// glbMagic is the little-endian uint32 spelling of "glTF".
const glbMagic uint32 = 0x46546C67

// glbHeaderSize is the fixed container header: magic, version, length.
const glbHeaderSize = 12

// GLBChunkType identifies the payload kind of a GLB chunk.
type GLBChunkType uint32

// Chunk type constants.
const (
	GLBChunkJSON GLBChunkType = 0x4E4F534A // "JSON", the scene description
	GLBChunkBIN  GLBChunkType = 0x004E4942 // "BIN\0", geometry and texture payload
)

// String returns a human-readable chunk type name.
func (t GLBChunkType) String() string {
	switch t {
	case GLBChunkJSON:
		return "JSON"
	case GLBChunkBIN:
		return "BIN"
	default:
		return fmt.Sprintf("Unknown(0x%08X)", uint32(t))
	}
}

// GLBChunk is a single length-prefixed chunk of a GLB container.
type GLBChunk struct {
	Type GLBChunkType
	Data []byte
}

// GLB represents a parsed binary glTF container.
type GLB struct {
	Version uint32
	Length  uint32
	Chunks  []GLBChunk
}

// JSON returns the scene description chunk data, or nil if absent.
func (g *GLB) JSON() []byte {
	for _, c := range g.Chunks {
		if c.Type == GLBChunkJSON {
			return c.Data
		}
	}
	return nil
}

// Binary returns the binary payload chunk data, or nil if the
// container carries no geometry payload.
func (g *GLB) Binary() []byte {
	for _, c := range g.Chunks {
		if c.Type == GLBChunkBIN {
			return c.Data
		}
	}
	return nil
}

// GLTFDocument is the subset of the glTF scene description the engine
// inspects. Geometry buffers are left to the renderer and not decoded.
type GLTFDocument struct {
	Asset struct {
		Version   string `json:"version"`
		Generator string `json:"generator,omitempty"`
	} `json:"asset"`
	Scenes []struct {
		Name  string `json:"name,omitempty"`
		Nodes []int  `json:"nodes,omitempty"`
	} `json:"scenes,omitempty"`
	Nodes []struct {
		Name     string `json:"name,omitempty"`
		Mesh     *int   `json:"mesh,omitempty"`
		Children []int  `json:"children,omitempty"`
	} `json:"nodes,omitempty"`
	Meshes []struct {
		Name string `json:"name,omitempty"`
	} `json:"meshes,omitempty"`
	Animations []struct {
		Name string `json:"name,omitempty"`
	} `json:"animations,omitempty"`
}

// AnimationNames returns the names of the animation clips in the
// document. Unnamed clips get a positional fallback name.
func (d *GLTFDocument) AnimationNames() []string {
	if len(d.Animations) == 0 {
		return nil
	}
	names := make([]string, len(d.Animations))
	for i, a := range d.Animations {
		if a.Name != "" {
			names[i] = a.Name
		} else {
			names[i] = fmt.Sprintf("animation_%d", i)
		}
	}
	return names
}

// Document decodes the JSON chunk into a GLTFDocument.
func (g *GLB) Document() (*GLTFDocument, error) {
	raw := g.JSON()
	if raw == nil {
		return nil, ErrMissingGLBJSON
	}
	var doc GLTFDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding glTF document: %w", err)
	}
	return &doc, nil
}

// ParseGLB parses a GLB container from raw bytes.
func ParseGLB(data []byte) (*GLB, error) {
	if len(data) < glbHeaderSize {
		return nil, ErrTruncatedGLBData
	}

	if binary.LittleEndian.Uint32(data[0:4]) != glbMagic {
		return nil, ErrInvalidGLBMagic
	}

	version := binary.LittleEndian.Uint32(data[4:8])
	if version != 2 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedGLBVersion, version)
	}

	length := binary.LittleEndian.Uint32(data[8:12])
	if length < glbHeaderSize || int(length) > len(data) {
		return nil, fmt.Errorf("%w: header declares %d bytes, have %d", ErrTruncatedGLBData, length, len(data))
	}

	glb := &GLB{
		Version: version,
		Length:  length,
	}

	// Chunks run back to back until the declared container length.
	r := bytes.NewReader(data[glbHeaderSize:length])
	for r.Len() > 0 {
		chunk, err := parseGLBChunk(r)
		if err != nil {
			return nil, fmt.Errorf("parsing chunk %d: %w", len(glb.Chunks), err)
		}
		glb.Chunks = append(glb.Chunks, chunk)
	}

	if glb.JSON() == nil {
		return nil, ErrMissingGLBJSON
	}

	return glb, nil
}

// parseGLBChunk parses a single chunk header and payload.
func parseGLBChunk(r *bytes.Reader) (GLBChunk, error) {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return GLBChunk{}, fmt.Errorf("%w: reading chunk length", ErrTruncatedGLBData)
	}

	var chunk GLBChunk
	if err := binary.Read(r, binary.LittleEndian, &chunk.Type); err != nil {
		return GLBChunk{}, fmt.Errorf("%w: reading chunk type", ErrTruncatedGLBData)
	}

	chunk.Data = make([]byte, length)
	if _, err := io.ReadFull(r, chunk.Data); err != nil {
		return GLBChunk{}, fmt.Errorf("%w: reading %d byte %s chunk", ErrTruncatedGLBData, length, chunk.Type)
	}

	return chunk, nil
}

// ParseGLBFile parses a GLB container from disk.
func ParseGLBFile(path string) (*GLB, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading GLB file: %w", err)
	}
	return ParseGLB(data)
}

// EncodeGLB assembles a GLB container from a glTF JSON document and an
// optional binary payload. Chunks are padded to 4-byte alignment as the
// format requires: JSON with spaces, BIN with zeros.
func EncodeGLB(jsonDoc []byte, bin []byte) []byte {
	jsonChunk := padChunk(jsonDoc, ' ')

	size := glbHeaderSize + 8 + len(jsonChunk)
	var binChunk []byte
	if bin != nil {
		binChunk = padChunk(bin, 0)
		size += 8 + len(binChunk)
	}

	out := make([]byte, 0, size)
	out = binary.LittleEndian.AppendUint32(out, glbMagic)
	out = binary.LittleEndian.AppendUint32(out, 2)
	out = binary.LittleEndian.AppendUint32(out, uint32(size))

	out = binary.LittleEndian.AppendUint32(out, uint32(len(jsonChunk)))
	out = binary.LittleEndian.AppendUint32(out, uint32(GLBChunkJSON))
	out = append(out, jsonChunk...)

	if bin != nil {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(binChunk)))
		out = binary.LittleEndian.AppendUint32(out, uint32(GLBChunkBIN))
		out = append(out, binChunk...)
	}

	return out
}

func padChunk(data []byte, padByte byte) []byte {
	rem := len(data) % 4
	if rem == 0 {
		return data
	}
	padded := make([]byte, len(data), len(data)+4-rem)
	copy(padded, data)
	for i := 0; i < 4-rem; i++ {
		padded = append(padded, padByte)
	}
	return padded
}
