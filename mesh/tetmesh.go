package mesh

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultNodeRadius is the radius of the visual proxy of a node
const DefaultNodeRadius = 0.005

// ErrIndexOutOfRange is returned for node indices outside [0, NodeCount).
var ErrIndexOutOfRange = errors.New("node index out of range")

// TopologyError reports an invalid tetrahedron at build time.
type TopologyError struct {
	Tet   int
	Nodes [4]int
	Msg   string
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("tetrahedron %d %v: %s", e.Tet, e.Nodes, e.Msg)
}

// Node is a plain record in the node arena. Index and topology never change
// after Build; Position, IsFixed and Displacement are mutated per frame.
type Node struct {
	Index    int
	Position r3.Vec
	IsFixed  bool
	// Displacement is the prescribed displacement of a fixed node, or an
	// informational initial offset of a free node.
	Displacement r3.Vec

	reference r3.Vec // position captured by BeginTracking
}

// Proxy is the per-node visual handle used for interactive editing. It is
// the only state a render adapter needs to read.
type Proxy struct {
	Position r3.Vec
	Radius   float64
}

// TetMesh owns the node arena, the tetrahedron connectivity and the live
// positions of every node. Node and tetrahedron counts are fixed at Build.
type TetMesh struct {
	Nodes   []Node
	Tets    [][4]int
	proxies []Proxy

	canonicalPos []float32
	canonicalTet []int32
	tracking     bool
}

// Build creates a mesh from flat arrays: pos holds xyz per node, tet holds
// four node indices per tetrahedron. Each tetrahedron must reference four
// distinct nodes in range.
func Build(pos []float32, tet []int32) (*TetMesh, error) {
	if len(pos)%3 != 0 {
		return nil, fmt.Errorf("build: pos length %d is not a multiple of 3", len(pos))
	}
	if len(tet)%4 != 0 {
		return nil, fmt.Errorf("build: tet length %d is not a multiple of 4", len(tet))
	}
	var (
		nn = len(pos) / 3
		nt = len(tet) / 4
		m  = &TetMesh{
			Nodes:        make([]Node, nn),
			Tets:         make([][4]int, nt),
			proxies:      make([]Proxy, nn),
			canonicalPos: append([]float32(nil), pos...),
			canonicalTet: append([]int32(nil), tet...),
		}
	)
	for i := 0; i < nn; i++ {
		p := r3.Vec{X: float64(pos[3*i]), Y: float64(pos[3*i+1]), Z: float64(pos[3*i+2])}
		m.Nodes[i] = Node{Index: i, Position: p, reference: p}
		m.proxies[i] = Proxy{Position: p, Radius: DefaultNodeRadius}
	}
	for k := 0; k < nt; k++ {
		var t [4]int
		for j := 0; j < 4; j++ {
			t[j] = int(tet[4*k+j])
		}
		if err := checkTet(k, t, nn); err != nil {
			return nil, err
		}
		m.Tets[k] = t
	}
	return m, nil
}

func checkTet(k int, t [4]int, nodeCount int) error {
	for j := 0; j < 4; j++ {
		if t[j] < 0 || t[j] >= nodeCount {
			return &TopologyError{Tet: k, Nodes: t,
				Msg: fmt.Sprintf("node %d outside [0, %d)", t[j], nodeCount)}
		}
		for i := 0; i < j; i++ {
			if t[i] == t[j] {
				return &TopologyError{Tet: k, Nodes: t, Msg: "repeated node"}
			}
		}
	}
	return nil
}

// NodeCount returns the number of nodes.
func (m *TetMesh) NodeCount() int { return len(m.Nodes) }

// TetCount returns the number of tetrahedra.
func (m *TetMesh) TetCount() int { return len(m.Tets) }

// Asset returns copies of the arrays the mesh was built from.
func (m *TetMesh) Asset() (pos []float32, tet []int32) {
	return append([]float32(nil), m.canonicalPos...), append([]int32(nil), m.canonicalTet...)
}

// Positions returns a copy of the current node positions.
func (m *TetMesh) Positions() []r3.Vec {
	out := make([]r3.Vec, len(m.Nodes))
	for i := range m.Nodes {
		out[i] = m.Nodes[i].Position
	}
	return out
}

// GetNodePositions returns the current positions as interleaved xyz.
func (m *TetMesh) GetNodePositions() []float32 {
	out := make([]float32, 3*len(m.Nodes))
	m.PackPositions(out)
	return out
}

// PackPositions writes the current positions as interleaved xyz into dst,
// which must hold at least 3*NodeCount values.
func (m *TetMesh) PackPositions(dst []float32) {
	for i := range m.Nodes {
		p := m.Nodes[i].Position
		dst[3*i], dst[3*i+1], dst[3*i+2] = float32(p.X), float32(p.Y), float32(p.Z)
	}
}

// SetNodePosition moves node i and its proxy to p.
func (m *TetMesh) SetNodePosition(i int, p r3.Vec) error {
	if i < 0 || i >= len(m.Nodes) {
		return fmt.Errorf("set position of node %d: %w", i, ErrIndexOutOfRange)
	}
	m.Nodes[i].Position = p
	m.proxies[i].Position = p
	return nil
}

// SetNodePositions overwrites every node position from interleaved xyz, as
// delivered by an external driver.
func (m *TetMesh) SetNodePositions(flat []float32) error {
	if len(flat) != 3*len(m.Nodes) {
		return fmt.Errorf("set positions: got %d values, want %d", len(flat), 3*len(m.Nodes))
	}
	for i := range m.Nodes {
		p := r3.Vec{X: float64(flat[3*i]), Y: float64(flat[3*i+1]), Z: float64(flat[3*i+2])}
		m.Nodes[i].Position = p
		m.proxies[i].Position = p
	}
	return nil
}

// Proxies returns the visual proxies, one per node. Moving a proxy is an
// interactive edit that takes effect at the next SyncFromProxies.
func (m *TetMesh) Proxies() []Proxy { return m.proxies }

// SetProxyRadius sets the radius of every proxy.
func (m *TetMesh) SetProxyRadius(r float64) {
	for i := range m.proxies {
		m.proxies[i].Radius = r
	}
}

// SyncFromProxies copies proxy positions into the node arena.
func (m *TetMesh) SyncFromProxies() {
	for i := range m.Nodes {
		m.Nodes[i].Position = m.proxies[i].Position
	}
}
