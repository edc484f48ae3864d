package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// BeginTracking records the current position of every node as its
// reference. From then on a fixed node's displacement is its drift from the
// reference, see UpdateDisplacements.
func (m *TetMesh) BeginTracking() {
	for i := range m.Nodes {
		m.Nodes[i].reference = m.Nodes[i].Position
	}
	m.tracking = true
}

// Tracking reports whether BeginTracking was called.
func (m *TetMesh) Tracking() bool { return m.tracking }

// UpdateDisplacements sets the displacement of every fixed node to its
// current position minus its reference. It does nothing before
// BeginTracking.
func (m *TetMesh) UpdateDisplacements() {
	if !m.tracking {
		return
	}
	for i := range m.Nodes {
		if m.Nodes[i].IsFixed {
			m.Nodes[i].Displacement = r3.Sub(m.Nodes[i].Position, m.Nodes[i].reference)
		}
	}
}

// SetBoundaryCondition sets the fixed flag and displacement of node i.
// Fixing a node moves its reference to Position - disp, so tracked drift
// starts from disp.
func (m *TetMesh) SetBoundaryCondition(i int, fixed bool, disp r3.Vec) error {
	if i < 0 || i >= len(m.Nodes) {
		return fmt.Errorf("boundary condition of node %d: %w", i, ErrIndexOutOfRange)
	}
	n := &m.Nodes[i]
	n.IsFixed = fixed
	n.Displacement = disp
	if fixed {
		n.reference = r3.Sub(n.Position, disp)
	}
	return nil
}

// BoundaryCondition returns the fixed flag and displacement of node i.
func (m *TetMesh) BoundaryCondition(i int) (fixed bool, disp r3.Vec, err error) {
	if i < 0 || i >= len(m.Nodes) {
		return false, r3.Vec{}, fmt.Errorf("boundary condition of node %d: %w", i, ErrIndexOutOfRange)
	}
	return m.Nodes[i].IsFixed, m.Nodes[i].Displacement, nil
}

// FixedNodes returns the ids of fixed nodes in ascending order and their
// displacements as interleaved xyz.
func (m *TetMesh) FixedNodes() (ids []int32, disp []float32) {
	for i := range m.Nodes {
		if !m.Nodes[i].IsFixed {
			continue
		}
		d := m.Nodes[i].Displacement
		ids = append(ids, int32(i))
		disp = append(disp, float32(d.X), float32(d.Y), float32(d.Z))
	}
	return ids, disp
}
