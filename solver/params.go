package solver

// Params holds everything the bridge pushes to the engine at setup and on
// every step.
type Params struct {
	Material      Material
	CollisionMode CollisionMode

	Friction      float32
	VCStiffness   float32 // virtual coupling stiffness
	GlobalDamping float32
	GravityFEM    [3]float32
	GravityRB     [3]float32

	HapticEnabled         bool
	FloorHapticsEnabled   bool
	FloorCollisionEnabled bool
	// WaitTime is the simulated time in seconds during which haptics stay
	// disabled after start.
	WaitTime float64
}

// DefaultParams returns a soft, lightly damped body with haptics enabled
// after half a second.
func DefaultParams() Params {
	return Params{
		Material: Material{
			HIPRadius:        0.05,
			YoungsModulusKPa: 0.6,
			Poisson:          0.4,
			Density:          1000,
			DampingAlpha:     0,
			DampingBeta:      0.1,
		},
		CollisionMode:         CollisionHIP,
		Friction:              0.2,
		VCStiffness:           300,
		HapticEnabled:         true,
		FloorHapticsEnabled:   true,
		FloorCollisionEnabled: true,
		WaitTime:              0.5,
	}
}
