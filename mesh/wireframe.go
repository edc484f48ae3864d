package mesh

import (
	"sort"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/spatial/r3"
)

// MoveTolerance is the node displacement below which a cached wireframe is
// not rebuilt
const MoveTolerance = 0.001

// adjacency returns the symmetric node-to-node incidence matrix of the tet
// edges.
func (m *TetMesh) adjacency() *sparse.CSR {
	nn := len(m.Nodes)
	dok := sparse.NewDOK(nn, nn)
	for _, t := range m.Tets {
		for _, e := range TetEdges {
			a, b := t[e[0]], t[e[1]]
			dok.Set(a, b, 1)
			dok.Set(b, a, 1)
		}
	}
	return dok.ToCSR()
}

// WireframeEdges returns every unique edge once, as (low, high) node pairs
// ordered by low then high.
func (m *TetMesh) WireframeEdges() [][2]int {
	if len(m.Nodes) == 0 {
		return nil
	}
	var edges [][2]int
	m.adjacency().DoNonZero(func(i, j int, _ float64) {
		if i < j {
			edges = append(edges, [2]int{i, j})
		}
	})
	// column order within a row follows the DOK map iteration
	sort.Slice(edges, func(a, b int) bool {
		if edges[a][0] != edges[b][0] {
			return edges[a][0] < edges[b][0]
		}
		return edges[a][1] < edges[b][1]
	})
	return edges
}

// NodeValence returns the number of edges incident to each node.
func (m *TetMesh) NodeValence() []int {
	valence := make([]int, len(m.Nodes))
	if len(m.Nodes) == 0 {
		return valence
	}
	adj := m.adjacency()
	for i := range valence {
		valence[i] = adj.RowNNZ(i)
	}
	return valence
}

// WireframeCache holds line vertices for the unique edges of a mesh and
// rebuilds them only after some node moved more than MoveTolerance.
type WireframeCache struct {
	mesh     *TetMesh
	edges    [][2]int
	last     []r3.Vec
	vertices []r3.Vec
}

// NewWireframeCache builds the edge list and the initial line vertices.
func NewWireframeCache(m *TetMesh) *WireframeCache {
	wc := &WireframeCache{mesh: m, edges: m.WireframeEdges()}
	wc.rebuild()
	return wc
}

// Edges returns the cached unique edges.
func (wc *WireframeCache) Edges() [][2]int { return wc.edges }

// Vertices returns two line vertices per edge, refreshed if needed. The
// boolean reports whether a rebuild happened.
func (wc *WireframeCache) Vertices() ([]r3.Vec, bool) {
	if !wc.moved() {
		return wc.vertices, false
	}
	wc.rebuild()
	return wc.vertices, true
}

func (wc *WireframeCache) moved() bool {
	if len(wc.last) != len(wc.mesh.Nodes) {
		return true
	}
	for i := range wc.mesh.Nodes {
		if r3.Norm(r3.Sub(wc.mesh.Nodes[i].Position, wc.last[i])) > MoveTolerance {
			return true
		}
	}
	return false
}

func (wc *WireframeCache) rebuild() {
	wc.last = wc.mesh.Positions()
	wc.vertices = make([]r3.Vec, 2*len(wc.edges))
	for i, e := range wc.edges {
		wc.vertices[2*i] = wc.last[e[0]]
		wc.vertices[2*i+1] = wc.last[e[1]]
	}
}
