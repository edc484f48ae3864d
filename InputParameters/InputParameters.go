package InputParameters

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ghodss/yaml"

	"github.com/notargets/tetmesh/bcs"
	"github.com/notargets/tetmesh/geometry3D"
	"github.com/notargets/tetmesh/solver"
)

// MaterialParameters of the FEM body
type MaterialParameters struct {
	HIPRadius        float32 `json:"HIPRadius"`
	YoungsModulusKPa float32 `json:"YoungsModulusKPa"`
	Poisson          float32 `json:"Poisson"`
	Density          float32 `json:"Density"`
	DampingAlpha     float32 `json:"DampingAlpha"`
	DampingBeta      float32 `json:"DampingBeta"`
}

// Parameters obtained from the YAML input file
type MeshParameters struct {
	Title               string             `json:"Title"`
	AxisMap             string             `json:"AxisMap"` // identity, invertX, zUpToYUp
	FitToBox            bool               `json:"FitToBox"`
	BoxSize             float32            `json:"BoxSize"`
	TetraScale          float64            `json:"TetraScale"`
	NodeRadius          float64            `json:"NodeRadius"`
	BCMode              string             `json:"BCMode"` // clear, bottom, top, left, right
	BCFraction          float64            `json:"BCFraction"`
	Material            MaterialParameters `json:"Material"`
	CollisionMode       string             `json:"CollisionMode"` // hip, rigidbody
	Friction            float32            `json:"Friction"`
	VCStiffness         float32            `json:"VCStiffness"`
	GlobalDamping       float32            `json:"GlobalDamping"`
	GravityFEM          [3]float32         `json:"GravityFEM"`
	GravityRB           [3]float32         `json:"GravityRB"`
	HapticEnabled       bool               `json:"HapticEnabled"`
	FloorHapticsEnabled bool               `json:"FloorHapticsEnabled"`
	FloorCollision      bool               `json:"FloorCollision"`
	WaitTime            float64            `json:"WaitTime"`
}

// Defaults returns the parameters used for keys absent from the input file.
func Defaults() *MeshParameters {
	sp := solver.DefaultParams()
	return &MeshParameters{
		Title:      "tetmesh",
		AxisMap:    "invertX",
		FitToBox:   true,
		BoxSize:    geometry3D.DefaultBoxSize,
		TetraScale: 0.9,
		NodeRadius: 0.005,
		BCMode:     bcs.Bottom.String(),
		BCFraction: bcs.DefaultFraction,
		Material: MaterialParameters{
			HIPRadius:        sp.Material.HIPRadius,
			YoungsModulusKPa: sp.Material.YoungsModulusKPa,
			Poisson:          sp.Material.Poisson,
			Density:          sp.Material.Density,
			DampingAlpha:     sp.Material.DampingAlpha,
			DampingBeta:      sp.Material.DampingBeta,
		},
		CollisionMode:       sp.CollisionMode.String(),
		Friction:            sp.Friction,
		VCStiffness:         sp.VCStiffness,
		GlobalDamping:       sp.GlobalDamping,
		HapticEnabled:       sp.HapticEnabled,
		FloorHapticsEnabled: sp.FloorHapticsEnabled,
		FloorCollision:      sp.FloorCollisionEnabled,
		WaitTime:            sp.WaitTime,
	}
}

func (ip *MeshParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, ip); err != nil {
		return err
	}
	return ip.Validate()
}

// ReadFile parses a YAML parameter file on top of Defaults.
func ReadFile(fileName string) (*MeshParameters, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	ip := Defaults()
	if err = ip.Parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return ip, nil
}

// Validate checks the enumerated and bounded fields.
func (ip *MeshParameters) Validate() error {
	if _, err := ip.NormalizeOptions(); err != nil {
		return err
	}
	if _, err := bcs.ParseMode(ip.BCMode); err != nil {
		return err
	}
	if _, err := ip.SolverParams(); err != nil {
		return err
	}
	switch {
	case !(ip.TetraScale > 0 && ip.TetraScale <= 1):
		return fmt.Errorf("TetraScale %v outside (0, 1]", ip.TetraScale)
	case ip.BCFraction < 0 || ip.BCFraction > 1:
		return fmt.Errorf("BCFraction %v outside [0, 1]", ip.BCFraction)
	case ip.BoxSize < 0:
		return fmt.Errorf("BoxSize %v is negative", ip.BoxSize)
	case ip.NodeRadius <= 0:
		return fmt.Errorf("NodeRadius %v must be positive", ip.NodeRadius)
	}
	return nil
}

// NormalizeOptions converts the placement parameters.
func (ip *MeshParameters) NormalizeOptions() (geometry3D.Options, error) {
	opts := geometry3D.Options{FitToBox: ip.FitToBox, BoxSize: ip.BoxSize}
	var remap geometry3D.AxisMap
	switch strings.ToLower(ip.AxisMap) {
	case "", "none":
		return opts, nil
	case "identity":
		remap = geometry3D.Identity
	case "invertx":
		remap = geometry3D.InvertX
	case "zuptoyup":
		remap = geometry3D.ZUpToYUp
	default:
		return opts, fmt.Errorf("unknown AxisMap %q", ip.AxisMap)
	}
	opts.Remap = &remap
	return opts, nil
}

// BoundaryMode returns the parsed BCMode.
func (ip *MeshParameters) BoundaryMode() (bcs.Mode, error) {
	return bcs.ParseMode(ip.BCMode)
}

// SolverParams converts the engine parameters.
func (ip *MeshParameters) SolverParams() (solver.Params, error) {
	p := solver.Params{
		Material: solver.Material{
			HIPRadius:        ip.Material.HIPRadius,
			YoungsModulusKPa: ip.Material.YoungsModulusKPa,
			Poisson:          ip.Material.Poisson,
			Density:          ip.Material.Density,
			DampingAlpha:     ip.Material.DampingAlpha,
			DampingBeta:      ip.Material.DampingBeta,
		},
		Friction:              ip.Friction,
		VCStiffness:           ip.VCStiffness,
		GlobalDamping:         ip.GlobalDamping,
		GravityFEM:            ip.GravityFEM,
		GravityRB:             ip.GravityRB,
		HapticEnabled:         ip.HapticEnabled,
		FloorHapticsEnabled:   ip.FloorHapticsEnabled,
		FloorCollisionEnabled: ip.FloorCollision,
		WaitTime:              ip.WaitTime,
	}
	switch strings.ToLower(ip.CollisionMode) {
	case "hip", "":
		p.CollisionMode = solver.CollisionHIP
	case "rigidbody":
		p.CollisionMode = solver.CollisionRigidBody
	default:
		return p, fmt.Errorf("unknown CollisionMode %q", ip.CollisionMode)
	}
	return p, nil
}

func (ip *MeshParameters) Print() {
	ip.Fprint(os.Stdout)
}

func (ip *MeshParameters) Fprint(w io.Writer) {
	fmt.Fprintf(w, "\"%s\"\t\t= Title\n", ip.Title)
	fmt.Fprintf(w, "[%s]\t\t= Axis Map\n", ip.AxisMap)
	fmt.Fprintf(w, "%v %8.5f\t= Fit To Box, Box Size\n", ip.FitToBox, ip.BoxSize)
	fmt.Fprintf(w, "%8.5f\t\t= Tetra Scale\n", ip.TetraScale)
	fmt.Fprintf(w, "[%s] %8.5f\t= BC Mode, Fraction\n", ip.BCMode, ip.BCFraction)
	fmt.Fprintf(w, "%8.5f\t\t= Young's Modulus (kPa)\n", ip.Material.YoungsModulusKPa)
	fmt.Fprintf(w, "%8.5f\t\t= Poisson\n", ip.Material.Poisson)
	fmt.Fprintf(w, "%8.2f\t\t= Density\n", ip.Material.Density)
	fmt.Fprintf(w, "%8.5f %8.5f\t= Damping Alpha, Beta\n", ip.Material.DampingAlpha, ip.Material.DampingBeta)
	fmt.Fprintf(w, "[%s]\t\t\t= Collision Mode\n", ip.CollisionMode)
	fmt.Fprintf(w, "%v\t\t= Gravity FEM\n", ip.GravityFEM)
	fmt.Fprintf(w, "%8.5f\t\t= Wait Time\n", ip.WaitTime)
}
