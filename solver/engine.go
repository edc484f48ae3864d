// Package solver drives an external FEM and haptics engine through a
// synchronous call contract. The engine is opaque: this package only packs
// and unpacks the flat buffers that cross the boundary.
package solver

import "fmt"

// CollisionMode selects the engine's collision detection against the FEM
// mesh.
type CollisionMode int32

const (
	CollisionHIP       CollisionMode = iota // haptic interface point
	CollisionRigidBody                      // registered rigid bodies
)

func (c CollisionMode) String() string {
	switch c {
	case CollisionHIP:
		return "hip"
	case CollisionRigidBody:
		return "rigidbody"
	}
	return fmt.Sprintf("CollisionMode(%d)", int32(c))
}

// Material holds the setup parameters of the FEM body.
type Material struct {
	HIPRadius        float32 // radius of the haptic interface point
	YoungsModulusKPa float32
	Poisson          float32
	Density          float32
	DampingAlpha     float32 // Rayleigh mass coefficient
	DampingBeta      float32 // Rayleigh stiffness coefficient
}

// Engine is the core call contract. Every buffer argument is owned by the
// caller and is only valid for the duration of the call; implementations
// copy, never alias. Getters fill dst, which the caller sizes.
type Engine interface {
	SetupFEM(mat Material, pos []float32, tet []int32, mode CollisionMode)
	StartSimulation()
	Terminate()
	// Update advances the simulation by dt seconds.
	Update(dt float32)

	NumNodes() int
	NumElems() int
	NodePositions(dst []float32)
	RigidBodyPosition(dst []float32) // xyz
	RigidBodyRotation(dst []float32) // quaternion xyzw

	ScaleStiffness(scale float32)
	SetFriction(friction float32)
	SetVCStiffness(kc float32)
	SetGlobalDamping(damping float32)
	SetHandleOffset(x, y, z float32)
	SetGravity(gx, gy, gz float32)
	SetGravityRb(gx, gy, gz float32)
	SetBoundaryConditions(ids []int32, disp []float32)

	SetHapticEnabled(enabled bool)
	SetFloorHapticsEnabled(enabled bool)
	SetFloorCollisionEnabled(enabled bool)
}

// VisualMeshEngine deforms a render mesh that is independent of the FEM
// nodes.
type VisualMeshEngine interface {
	SetupVisMesh(pos []float32, faces []int32)
	VisMeshPositions(dst []float32)
}

// StressEngine reports stress for coloring.
type StressEngine interface {
	VisMeshStress(dst []float32)       // one value per visual mesh vertex
	NodePrincipalStress(dst []float32) // one value per tetrahedron
}

// ContactEngine reports the haptic contact state.
type ContactEngine interface {
	IsContact() bool
	DisplayingForce(dst []float32) // xyz
	ContactNormal(dst []float32)   // xyz
}

// RigidBodyEngine manages named contact rigid bodies.
type RigidBodyEngine interface {
	AddContactRigidBody(name string, pos []float32, faces []int32)
	UpdateContactRigidBodyPos(name string, pos []float32)
	// ContactForces fills xyz per rigid body vertex and returns a nonzero
	// value on success.
	ContactForces(name string, dst []float32) int
}
