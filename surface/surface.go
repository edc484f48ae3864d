// Package surface derives the boundary triangle mesh of a tetrahedral solid
// from its connectivity by counting how many tetrahedra share each face.
package surface

import (
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/tetmesh/logger"
	"github.com/notargets/tetmesh/mesh"
)

// FaceKey identifies a face independent of winding: its node indices sorted
// ascending.
type FaceKey [3]int

// NewFaceKey sorts the three node indices of a face.
func NewFaceKey(a, b, c int) FaceKey {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return FaceKey{a, b, c}
}

// TopologyWarning reports a face shared by more than two tetrahedra. The
// face is treated as interior.
type TopologyWarning struct {
	Face  FaceKey
	Count int
}

func (w TopologyWarning) Error() string {
	return fmt.Sprintf("non-manifold face %v shared by %d tetrahedra", w.Face, w.Count)
}

// Surface is the compacted boundary mesh. Triangles index Vertices and
// NodeIndex maps each compact vertex back to its mesh node.
type Surface struct {
	NodeIndex    []int
	Triangles    []int
	Vertices     []r3.Vec
	Multiplicity map[FaceKey]int
}

// FaceCount returns the number of boundary triangles.
func (s *Surface) FaceCount() int { return len(s.Triangles) / 3 }

// VertexCount returns the number of compacted vertices.
func (s *Surface) VertexCount() int { return len(s.NodeIndex) }

// BoundaryKeys returns the keys of multiplicity 1, sorted.
func (s *Surface) BoundaryKeys() []FaceKey {
	var keys []FaceKey
	for k, c := range s.Multiplicity {
		if c == 1 {
			keys = append(keys, k)
		}
	}
	sortKeys(keys)
	return keys
}

func sortKeys(keys []FaceKey) {
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[2] < b[2]
	})
}

// ExtractTopology computes the boundary faces of tets. Faces keep the
// winding of the tetrahedron that owns them. Compact vertex numbering
// follows first appearance over the retained faces in tetrahedron then face
// order. Vertices is left empty; see Extract and Refresh.
func ExtractTopology(tets [][4]int, nodeCount int) (*Surface, []TopologyWarning) {
	var (
		count = make(map[FaceKey]int, 2*len(tets))
		order = make([][3]int, 0, 4*len(tets))
		keys  = make([]FaceKey, 0, 4*len(tets))
	)
	for _, t := range tets {
		for _, f := range mesh.GetTetFaces(t) {
			key := NewFaceKey(f[0], f[1], f[2])
			if count[key] == 0 {
				order = append(order, f)
				keys = append(keys, key)
			}
			count[key]++
		}
	}

	var warnings []TopologyWarning
	for _, key := range keys {
		if c := count[key]; c > 2 {
			warnings = append(warnings, TopologyWarning{Face: key, Count: c})
		}
	}

	s := &Surface{Multiplicity: count}
	compact := make(map[int]int)
	for i, f := range order {
		if count[keys[i]] != 1 {
			continue
		}
		for _, n := range f {
			ci, ok := compact[n]
			if !ok {
				ci = len(s.NodeIndex)
				compact[n] = ci
				s.NodeIndex = append(s.NodeIndex, n)
			}
			s.Triangles = append(s.Triangles, ci)
		}
	}

	for _, w := range warnings {
		logger.Log.Warn("non-manifold face",
			zap.Ints("face", w.Face[:]),
			zap.Int("count", w.Count))
	}
	logger.Log.Debug("extracted surface",
		zap.Int("nodes", nodeCount),
		zap.Int("tets", len(tets)),
		zap.Int("faces", s.FaceCount()),
		zap.Int("vertices", s.VertexCount()))
	return s, warnings
}

// Extract computes the boundary surface of m and gathers the current node
// positions.
func Extract(m *mesh.TetMesh) (*Surface, []TopologyWarning) {
	s, warnings := ExtractTopology(m.Tets, m.NodeCount())
	s.Refresh(m.Positions())
	return s, warnings
}

// Refresh re-gathers vertex positions from node positions. The boundary
// topology is static so only positions change.
func (s *Surface) Refresh(positions []r3.Vec) {
	if len(s.Vertices) != len(s.NodeIndex) {
		s.Vertices = make([]r3.Vec, len(s.NodeIndex))
	}
	for ci, n := range s.NodeIndex {
		s.Vertices[ci] = positions[n]
	}
}

// Normals returns the unit normal of every triangle. Degenerate triangles
// get a zero normal.
func (s *Surface) Normals() []r3.Vec {
	normals := make([]r3.Vec, s.FaceCount())
	for f := range normals {
		a := s.Vertices[s.Triangles[3*f]]
		b := s.Vertices[s.Triangles[3*f+1]]
		c := s.Vertices[s.Triangles[3*f+2]]
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		if l := r3.Norm(n); l > 0 {
			normals[f] = r3.Scale(1/l, n)
		}
	}
	return normals
}

// WriteSTL writes the boundary mesh as binary STL.
func (s *Surface) WriteSTL(w io.Writer, name string) error {
	return s.toSolid(name).WriteAll(w)
}
