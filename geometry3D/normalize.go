package geometry3D

import (
	"fmt"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/notargets/tetmesh/logger"
)

// DefaultBoxSize is the largest extent of a mesh after FitToBox, in meters
const DefaultBoxSize float32 = 0.2

// AxisMap remaps coordinates as out[i] = Sign[i] * in[Perm[i]].
type AxisMap struct {
	Perm [3]int
	Sign [3]float32
}

var (
	// Identity leaves coordinates untouched.
	Identity = AxisMap{Perm: [3]int{0, 1, 2}, Sign: [3]float32{1, 1, 1}}
	// InvertX converts a right-handed source frame into the left-handed,
	// Y-up frame of the host by negating X.
	InvertX = AxisMap{Perm: [3]int{0, 1, 2}, Sign: [3]float32{-1, 1, 1}}
	// ZUpToYUp maps a right-handed Z-up frame to a left-handed Y-up frame
	// (x, y, z) -> (x, z, y). It is a pure permutation with odd parity.
	ZUpToYUp = AxisMap{Perm: [3]int{0, 2, 1}, Sign: [3]float32{1, 1, 1}}
)

// Validate checks that Perm is a permutation of {0,1,2} and every Sign is ±1.
func (am AxisMap) Validate() error {
	var seen [3]bool
	for i, p := range am.Perm {
		if p < 0 || p > 2 || seen[p] {
			return fmt.Errorf("axis map: %v is not a permutation of the axes", am.Perm)
		}
		seen[p] = true
		if am.Sign[i] != 1 && am.Sign[i] != -1 {
			return fmt.Errorf("axis map: sign %v of axis %d is not ±1", am.Sign[i], i)
		}
	}
	return nil
}

// Determinant of the remap matrix, ±1. A negative value means the map is a
// reflection and flips the orientation of every tetrahedron.
func (am AxisMap) Determinant() float32 {
	det := am.Sign[0] * am.Sign[1] * am.Sign[2]
	// parity of the permutation by counting inversions
	inversions := 0
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			if am.Perm[i] > am.Perm[j] {
				inversions++
			}
		}
	}
	if inversions%2 == 1 {
		det = -det
	}
	return det
}

// Apply remaps every node of pos in place. When the map reverses
// orientation, vertices 1 and 2 of every tetrahedron are swapped so that
// signed volumes, and with them the outward face winding, are preserved.
func (am AxisMap) Apply(pos []float32, tet []int32) error {
	if err := am.Validate(); err != nil {
		return err
	}
	for j := 0; j+2 < len(pos); j += 3 {
		in := [3]float32{pos[j], pos[j+1], pos[j+2]}
		for i := 0; i < 3; i++ {
			pos[j+i] = am.Sign[i] * in[am.Perm[i]]
		}
	}
	if am.Determinant() < 0 {
		for k := 0; k+3 < len(tet); k += 4 {
			tet[k+1], tet[k+2] = tet[k+2], tet[k+1]
		}
	}
	return nil
}

// Bounds returns the per-axis minimum and maximum over all nodes. ok is
// false for an empty array.
func Bounds(pos []float32) (lo, hi [3]float32, ok bool) {
	if len(pos) < 3 {
		return lo, hi, false
	}
	for i := 0; i < 3; i++ {
		lo[i], hi[i] = math32.Inf(1), math32.Inf(-1)
	}
	for j := 0; j+2 < len(pos); j += 3 {
		for i := 0; i < 3; i++ {
			lo[i] = math32.Min(lo[i], pos[j+i])
			hi[i] = math32.Max(hi[i], pos[j+i])
		}
	}
	return lo, hi, true
}

// MaxExtent returns the largest bounding box side of pos.
func MaxExtent(pos []float32) float32 {
	lo, hi, ok := Bounds(pos)
	if !ok {
		return 0
	}
	return math32.Max(hi[0]-lo[0], math32.Max(hi[1]-lo[1], hi[2]-lo[2]))
}

// FitToBox uniformly scales pos in place so the largest bounding box extent
// equals size. X and Z are centered on the origin; Y is shifted so the box
// center sits half the box height above the origin, which places the lowest
// node on the ground plane. Empty input and coincident nodes are left as is.
func FitToBox(pos []float32, size float32) {
	lo, hi, ok := Bounds(pos)
	if !ok {
		return
	}
	width := [3]float32{hi[0] - lo[0], hi[1] - lo[1], hi[2] - lo[2]}
	maxw := math32.Max(width[0], math32.Max(width[1], width[2]))
	if maxw == 0 {
		return
	}
	center := [3]float32{(hi[0] + lo[0]) * 0.5, (hi[1] + lo[1]) * 0.5, (hi[2] + lo[2]) * 0.5}
	scale := size / maxw
	for j := 0; j+2 < len(pos); j += 3 {
		pos[j] = (pos[j] - center[0]) * scale
		pos[j+1] = (pos[j+1] - center[1] + width[1]*0.5) * scale
		pos[j+2] = (pos[j+2] - center[2]) * scale
	}
}

// Options selects the normalization steps.
type Options struct {
	Remap    *AxisMap // nil skips the axis remap
	FitToBox bool
	BoxSize  float32 // DefaultBoxSize when zero
}

// DefaultOptions inverts X and fits the mesh into the default box.
func DefaultOptions() Options {
	remap := InvertX
	return Options{Remap: &remap, FitToBox: true, BoxSize: DefaultBoxSize}
}

// Normalize applies the axis remap then the box fit to pos and tet in place.
// It is a one-shot construction step: applying it twice applies the remap
// twice.
func Normalize(pos []float32, tet []int32, opts Options) error {
	if len(pos)%3 != 0 {
		return fmt.Errorf("normalize: pos length %d is not a multiple of 3", len(pos))
	}
	if len(pos) == 0 {
		return nil
	}
	if opts.Remap != nil {
		if err := opts.Remap.Apply(pos, tet); err != nil {
			return err
		}
	}
	if opts.FitToBox {
		size := opts.BoxSize
		if size == 0 {
			size = DefaultBoxSize
		}
		FitToBox(pos, size)
	}
	lo, hi, _ := Bounds(pos)
	logger.Log.Debug("normalized mesh",
		zap.Int("nodes", len(pos)/3),
		zap.Bool("remap", opts.Remap != nil),
		zap.Bool("fitToBox", opts.FitToBox),
		zap.Float32s("min", lo[:]),
		zap.Float32s("max", hi[:]))
	return nil
}
