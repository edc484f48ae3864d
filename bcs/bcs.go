// Package bcs selects the fixed nodes of a mesh from the extreme band of
// node positions along one axis.
package bcs

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/tetmesh/logger"
	"github.com/notargets/tetmesh/mesh"
)

// DefaultFraction is the share of the axis range that is fixed
const DefaultFraction = 0.1

// Mode selects the side of the mesh that is fixed.
type Mode uint8

const (
	Clear  Mode = iota // no node fixed
	Bottom             // lowest Y
	Top                // highest Y
	Left               // lowest X
	Right              // highest X
)

var modeNames = map[Mode]string{
	Clear:  "clear",
	Bottom: "bottom",
	Top:    "top",
	Left:   "left",
	Right:  "right",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown"
}

// Axis returns the coordinate axis the mode ranks nodes on: 0 for X, 1 for
// Y, -1 for Clear.
func (m Mode) Axis() int {
	switch m {
	case Bottom, Top:
		return 1
	case Left, Right:
		return 0
	default:
		return -1
	}
}

// ParseMode converts a mode name to a Mode, ignoring case and surrounding
// space.
func ParseMode(name string) (Mode, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for m, n := range modeNames {
		if n == lower {
			return m, nil
		}
	}
	return Clear, fmt.Errorf("unknown boundary condition mode %q", name)
}

// DegenerateInputWarning reports an axis with zero range. Every node then
// satisfies the threshold and is selected.
type DegenerateInputWarning struct {
	Axis  int
	Value float64
}

func (w *DegenerateInputWarning) Error() string {
	return fmt.Sprintf("zero range on axis %c (all nodes at %v): every node selected", "XYZ"[w.Axis], w.Value)
}

func coord(p r3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

// Select flags the nodes whose coordinate lies in the extreme fraction of
// the axis range on the side given by mode. fraction is clamped to [0, 1].
func Select(positions []r3.Vec, mode Mode, fraction float64) ([]bool, *DegenerateInputWarning) {
	selected := make([]bool, len(positions))
	axis := mode.Axis()
	if axis < 0 || len(positions) == 0 {
		return selected, nil
	}
	fraction = max(0, min(1, fraction))

	x := make([]float64, len(positions))
	for i, p := range positions {
		x[i] = coord(p, axis)
	}
	var (
		lo, hi = floats.Min(x), floats.Max(x)
		span   = hi - lo
		warn   *DegenerateInputWarning
	)
	if span == 0 {
		warn = &DegenerateInputWarning{Axis: axis, Value: lo}
	}
	switch mode {
	case Bottom, Left:
		limit := lo + fraction*span
		for i, v := range x {
			selected[i] = v <= limit
		}
	case Top, Right:
		limit := hi - fraction*span
		for i, v := range x {
			selected[i] = v >= limit
		}
	}
	return selected, warn
}

// Assign fixes the selected nodes of m with zero displacement and frees all
// others. It returns the fixed node indices in ascending order.
func Assign(m *mesh.TetMesh, mode Mode, fraction float64) ([]int, *DegenerateInputWarning) {
	selected, warn := Select(m.Positions(), mode, fraction)
	if warn != nil {
		logger.Log.Warn("degenerate boundary condition axis",
			zap.Stringer("mode", mode),
			zap.Int("axis", warn.Axis),
			zap.Float64("value", warn.Value))
	}
	var fixed []int
	for i, sel := range selected {
		if sel {
			fixed = append(fixed, i)
			// index is in range by construction
			_ = m.SetBoundaryCondition(i, true, r3.Vec{})
			continue
		}
		m.Nodes[i].IsFixed = false
	}
	logger.Log.Debug("assigned boundary condition",
		zap.Stringer("mode", mode),
		zap.Float64("fraction", fraction),
		zap.Int("fixed", len(fixed)),
		zap.Int("nodes", m.NodeCount()))
	return fixed, warn
}
