// Package asset persists the normalized node and tetrahedron arrays of a
// mesh as a flat JSON record: {"pos": [x0, y0, z0, ...], "tet": [a0, b0, c0, d0, ...]}.
package asset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chewxy/math32"
)

// MeshAsset is the persisted form of a tetrahedral mesh.
type MeshAsset struct {
	Pos []float32 `json:"pos"`
	Tet []int32   `json:"tet"`
}

// FormatError reports an asset whose arrays violate the length or index
// invariants.
type FormatError struct {
	Field  string
	Length int
	Msg    string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("asset format error: %s (len %d): %s", e.Field, e.Length, e.Msg)
}

// IoError reports a failure to read or write an asset.
type IoError struct {
	Op   string
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("asset %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// New copies pos and tet into a new asset.
func New(pos []float32, tet []int32) *MeshAsset {
	a := &MeshAsset{
		Pos: make([]float32, len(pos)),
		Tet: make([]int32, len(tet)),
	}
	copy(a.Pos, pos)
	copy(a.Tet, tet)
	return a
}

// NodeCount returns the number of nodes.
func (a *MeshAsset) NodeCount() int { return len(a.Pos) / 3 }

// TetCount returns the number of tetrahedra.
func (a *MeshAsset) TetCount() int { return len(a.Tet) / 4 }

// Validate checks the array length invariants, that every coordinate is
// finite and that every tet index refers to an existing node.
func (a *MeshAsset) Validate() error {
	if len(a.Pos)%3 != 0 {
		return &FormatError{Field: "pos", Length: len(a.Pos), Msg: "length is not a multiple of 3"}
	}
	if len(a.Tet)%4 != 0 {
		return &FormatError{Field: "tet", Length: len(a.Tet), Msg: "length is not a multiple of 4"}
	}
	for i, v := range a.Pos {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return &FormatError{Field: "pos", Length: len(a.Pos),
				Msg: fmt.Sprintf("non-finite coordinate %v at position %d", v, i)}
		}
	}
	n := int32(a.NodeCount())
	for i, v := range a.Tet {
		if v < 0 || v >= n {
			return &FormatError{Field: "tet", Length: len(a.Tet),
				Msg: fmt.Sprintf("index %d at position %d outside [0, %d)", v, i, n)}
		}
	}
	return nil
}

// Encode writes a as JSON. Invalid assets are not written.
func Encode(w io.Writer, a *MeshAsset) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return json.NewEncoder(w).Encode(a)
}

// Decode reads and validates a JSON asset.
func Decode(r io.Reader) (*MeshAsset, error) {
	a := &MeshAsset{}
	if err := json.NewDecoder(r).Decode(a); err != nil {
		return nil, &FormatError{Field: "json", Msg: err.Error()}
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Save writes a to path, creating parent directories as needed.
func Save(path string, a *MeshAsset) (err error) {
	if err = a.Validate(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err = os.MkdirAll(dir, 0o755); err != nil {
			return &IoError{Op: "mkdir", Path: dir, Err: err}
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return &IoError{Op: "create", Path: path, Err: err}
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = &IoError{Op: "close", Path: path, Err: cerr}
		}
	}()
	bw := bufio.NewWriter(file)
	if err = Encode(bw, a); err != nil {
		return &IoError{Op: "write", Path: path, Err: err}
	}
	if err = bw.Flush(); err != nil {
		return &IoError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Load reads the asset stored at path.
func Load(path string) (*MeshAsset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &IoError{Op: "open", Path: path, Err: err}
	}
	defer file.Close()
	return Decode(bufio.NewReader(file))
}
