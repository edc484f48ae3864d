package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// TetFaces lists the local vertices of each face of a tetrahedron
// (v0, v1, v2, v3). For a tetrahedron with positive signed volume every
// face is wound counter-clockwise seen from outside.
var TetFaces = [4][3]int{
	{0, 2, 1}, // Face 0
	{0, 1, 3}, // Face 1
	{1, 2, 3}, // Face 2
	{0, 3, 2}, // Face 3
}

// TetEdges lists the local vertex pairs of the six edges of a tetrahedron.
var TetEdges = [6][2]int{
	{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3},
}

// GetTetFaces returns the node indices of the four faces of t.
func GetTetFaces(t [4]int) [4][3]int {
	var faces [4][3]int
	for f, lv := range TetFaces {
		faces[f] = [3]int{t[lv[0]], t[lv[1]], t[lv[2]]}
	}
	return faces
}

// SignedVolume returns the signed volume of tetrahedron k at the current
// node positions.
func (m *TetMesh) SignedVolume(k int) float64 {
	t := m.Tets[k]
	v0 := m.Nodes[t[0]].Position
	a := r3.Sub(m.Nodes[t[1]].Position, v0)
	b := r3.Sub(m.Nodes[t[2]].Position, v0)
	c := r3.Sub(m.Nodes[t[3]].Position, v0)
	return r3.Dot(a, r3.Cross(b, c)) / 6
}

// ComputeTetraRenderVertices contracts the corners of every tetrahedron
// toward its centroid by scale and returns 12 vertices per tetrahedron: the
// four faces of TetFaces, three unshared vertices each. scale must be in
// (0, 1].
func (m *TetMesh) ComputeTetraRenderVertices(scale float64) ([]r3.Vec, error) {
	if !(scale > 0 && scale <= 1) {
		return nil, fmt.Errorf("tetra render scale %v outside (0, 1]", scale)
	}
	vertices := make([]r3.Vec, 12*len(m.Tets))
	for k, t := range m.Tets {
		var (
			v [4]r3.Vec
			c r3.Vec
		)
		for j := 0; j < 4; j++ {
			v[j] = m.Nodes[t[j]].Position
			c = r3.Add(c, v[j])
		}
		c = r3.Scale(0.25, c)
		var w [4]r3.Vec
		for j := 0; j < 4; j++ {
			w[j] = r3.Add(c, r3.Scale(scale, r3.Sub(v[j], c)))
		}
		for f, lv := range TetFaces {
			for i := 0; i < 3; i++ {
				vertices[12*k+3*f+i] = w[lv[i]]
			}
		}
	}
	return vertices, nil
}

// TetraRenderIndices returns the triangle list matching
// ComputeTetraRenderVertices: vertices are not shared, so it is 0..12*TetCount-1.
func (m *TetMesh) TetraRenderIndices() []int {
	indices := make([]int, 12*len(m.Tets))
	for i := range indices {
		indices[i] = i
	}
	return indices
}
