package solver

import (
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/tetmesh/logger"
	"github.com/notargets/tetmesh/mesh"
)

var (
	// ErrBusy is returned when a call arrives while another engine call is
	// outstanding.
	ErrBusy = errors.New("solver: engine call already in progress")
	// ErrNotSetup is returned for calls that need Setup (or Start) first.
	ErrNotSetup = errors.New("solver: engine not set up")
	// ErrUnsupported is returned when the engine lacks an optional capability.
	ErrUnsupported = errors.New("solver: capability not supported by engine")
)

// Pose is the rigid body pose pulled from the engine on every step.
type Pose struct {
	Position r3.Vec
	Rotation [4]float64 // quaternion xyzw
}

// Contact is the haptic contact state.
type Contact struct {
	InContact bool
	Force     r3.Vec
	Normal    r3.Vec
}

// Bridge is the handle through which a host drives one engine instance for
// one mesh. It is not safe for concurrent use: overlapping calls fail with
// ErrBusy instead of reaching the engine.
type Bridge struct {
	engine  Engine
	vis     VisualMeshEngine
	stress  StressEngine
	contact ContactEngine
	rigid   RigidBodyEngine

	mesh   *mesh.TetMesh
	params Params
	log    *zap.Logger

	busy    atomic.Bool
	stage   staging
	setup   bool
	started bool
	elapsed float64
	handle  r3.Vec
	pose    Pose

	visVertices int
}

// NewBridge wraps engine for m. Optional capabilities are resolved once
// here.
func NewBridge(engine Engine, m *mesh.TetMesh, params Params) *Bridge {
	b := &Bridge{
		engine: engine,
		mesh:   m,
		params: params,
		log:    logger.Named("solver"),
		pose:   Pose{Rotation: [4]float64{0, 0, 0, 1}},
	}
	b.vis, _ = engine.(VisualMeshEngine)
	b.stress, _ = engine.(StressEngine)
	b.contact, _ = engine.(ContactEngine)
	b.rigid, _ = engine.(RigidBodyEngine)
	return b
}

// VisualMesh returns the visual mesh capability or nil.
func (b *Bridge) VisualMesh() VisualMeshEngine { return b.vis }

// Stress returns the stress capability or nil.
func (b *Bridge) Stress() StressEngine { return b.stress }

// ContactState returns the contact capability or nil.
func (b *Bridge) ContactState() ContactEngine { return b.contact }

// RigidBodies returns the rigid body capability or nil.
func (b *Bridge) RigidBodies() RigidBodyEngine { return b.rigid }

func (b *Bridge) enter() error {
	if !b.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (b *Bridge) leave() { b.busy.Store(false) }

// Params returns the current parameters.
func (b *Bridge) Params() Params { return b.params }

// SetParams replaces the parameters pushed on the next step.
func (b *Bridge) SetParams(p Params) error {
	if err := b.enter(); err != nil {
		return err
	}
	defer b.leave()
	b.params = p
	return nil
}

// SetHandleOffset sets the haptic handle offset pushed on the next step.
func (b *Bridge) SetHandleOffset(p r3.Vec) error {
	if err := b.enter(); err != nil {
		return err
	}
	defer b.leave()
	b.handle = p
	return nil
}

// Setup packs the current node positions and the tetrahedra and hands them
// to the engine. Node tracking starts here: fixed-node displacements are
// measured from the positions at setup.
func (b *Bridge) Setup() error {
	if err := b.enter(); err != nil {
		return err
	}
	defer b.leave()
	if b.setup {
		return errors.New("solver: already set up")
	}

	pos := b.stage.acquireFloats(3 * b.mesh.NodeCount())
	defer b.stage.releaseFloats(pos)
	tet := b.stage.acquireInts(4 * b.mesh.TetCount())
	defer b.stage.releaseInts(tet)

	b.mesh.PackPositions(*pos)
	for k, t := range b.mesh.Tets {
		for j := 0; j < 4; j++ {
			(*tet)[4*k+j] = int32(t[j])
		}
	}
	b.engine.SetupFEM(b.params.Material, *pos, *tet, b.params.CollisionMode)
	b.engine.SetFloorCollisionEnabled(b.params.FloorCollisionEnabled)
	b.engine.SetHapticEnabled(false)
	b.mesh.BeginTracking()
	b.setup = true

	b.log.Info("engine set up",
		zap.Int("nodes", b.mesh.NodeCount()),
		zap.Int("tets", b.mesh.TetCount()),
		zap.Int("engineNodes", b.engine.NumNodes()),
		zap.Int("engineElems", b.engine.NumElems()),
		zap.Stringer("collision", b.params.CollisionMode))
	return nil
}

// SetupVisualMesh registers a render mesh deformed by the engine: xyz per
// vertex and three vertex indices per face.
func (b *Bridge) SetupVisualMesh(pos []float32, faces []int32) error {
	if err := b.enter(); err != nil {
		return err
	}
	defer b.leave()
	if b.vis == nil {
		return ErrUnsupported
	}
	if len(pos)%3 != 0 || len(faces)%3 != 0 {
		return fmt.Errorf("solver: visual mesh lengths %d / %d not multiples of 3", len(pos), len(faces))
	}
	nv := len(pos) / 3
	for _, f := range faces {
		if f < 0 || int(f) >= nv {
			return fmt.Errorf("solver: visual mesh face index %d outside [0, %d)", f, nv)
		}
	}
	b.vis.SetupVisMesh(pos, faces)
	b.visVertices = nv
	return nil
}

// Start starts the simulation.
func (b *Bridge) Start() error {
	if err := b.enter(); err != nil {
		return err
	}
	defer b.leave()
	if !b.setup {
		return ErrNotSetup
	}
	b.engine.StartSimulation()
	b.started = true
	b.elapsed = 0
	return nil
}

// Step runs one frame: haptics are gated by WaitTime, parameters and
// boundary conditions are pushed, the engine advances by dt and the node
// positions are pulled back into the mesh.
func (b *Bridge) Step(dt float64) error {
	if err := b.enter(); err != nil {
		return err
	}
	defer b.leave()
	if !b.started {
		return ErrNotSetup
	}
	if !(dt > 0) {
		return fmt.Errorf("solver: step size %v must be positive", dt)
	}
	var (
		e = b.engine
		p = b.params
	)
	b.elapsed += dt
	e.SetHapticEnabled(p.HapticEnabled && b.elapsed >= p.WaitTime)
	e.SetHandleOffset(float32(b.handle.X), float32(b.handle.Y), float32(b.handle.Z))

	b.pullPose()
	e.SetGravityRb(p.GravityRB[0], p.GravityRB[1], p.GravityRB[2])

	e.ScaleStiffness(p.Material.YoungsModulusKPa)
	e.SetFriction(p.Friction)
	e.SetVCStiffness(p.VCStiffness)
	e.SetGlobalDamping(p.GlobalDamping)
	e.SetFloorHapticsEnabled(p.FloorHapticsEnabled)

	b.mesh.UpdateDisplacements()
	ids, disp := b.mesh.FixedNodes()
	e.SetBoundaryConditions(ids, disp)
	e.SetGravity(p.GravityFEM[0], p.GravityFEM[1], p.GravityFEM[2])

	e.Update(float32(dt))

	pos := b.stage.acquireFloats(3 * b.mesh.NodeCount())
	defer b.stage.releaseFloats(pos)
	e.NodePositions(*pos)
	return b.mesh.SetNodePositions(*pos)
}

func (b *Bridge) pullPose() {
	buf := b.stage.acquireFloats(4)
	defer b.stage.releaseFloats(buf)
	v := *buf

	b.engine.RigidBodyPosition(v[:3])
	b.pose.Position = r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
	b.engine.RigidBodyRotation(v)
	for i := range b.pose.Rotation {
		b.pose.Rotation[i] = float64(v[i])
	}
}

// Pose returns the rigid body pose pulled on the last step.
func (b *Bridge) Pose() Pose { return b.pose }

// Elapsed returns the simulated time since Start.
func (b *Bridge) Elapsed() float64 { return b.elapsed }

// VisualPositions returns the deformed visual mesh positions.
func (b *Bridge) VisualPositions() ([]float32, error) {
	if err := b.enter(); err != nil {
		return nil, err
	}
	defer b.leave()
	if b.vis == nil {
		return nil, ErrUnsupported
	}
	if b.visVertices == 0 {
		return nil, ErrNotSetup
	}
	dst := make([]float32, 3*b.visVertices)
	b.vis.VisMeshPositions(dst)
	return dst, nil
}

// NodeStress returns the principal stress of every tetrahedron.
func (b *Bridge) NodeStress() ([]float32, error) {
	if err := b.enter(); err != nil {
		return nil, err
	}
	defer b.leave()
	if b.stress == nil {
		return nil, ErrUnsupported
	}
	if !b.setup {
		return nil, ErrNotSetup
	}
	dst := make([]float32, b.mesh.TetCount())
	b.stress.NodePrincipalStress(dst)
	return dst, nil
}

// VisualStress returns the stress at every visual mesh vertex.
func (b *Bridge) VisualStress() ([]float32, error) {
	if err := b.enter(); err != nil {
		return nil, err
	}
	defer b.leave()
	if b.stress == nil {
		return nil, ErrUnsupported
	}
	if b.visVertices == 0 {
		return nil, ErrNotSetup
	}
	dst := make([]float32, b.visVertices)
	b.stress.VisMeshStress(dst)
	return dst, nil
}

// Contact returns the haptic contact state.
func (b *Bridge) Contact() (Contact, error) {
	if err := b.enter(); err != nil {
		return Contact{}, err
	}
	defer b.leave()
	if b.contact == nil {
		return Contact{}, ErrUnsupported
	}
	buf := b.stage.acquireFloats(6)
	defer b.stage.releaseFloats(buf)
	v := *buf
	b.contact.DisplayingForce(v[:3])
	b.contact.ContactNormal(v[3:6])
	return Contact{
		InContact: b.contact.IsContact(),
		Force:     r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])},
		Normal:    r3.Vec{X: float64(v[3]), Y: float64(v[4]), Z: float64(v[5])},
	}, nil
}

// AddRigidBody registers a named contact rigid body with xyz per vertex and
// three vertex indices per face.
func (b *Bridge) AddRigidBody(name string, pos []float32, faces []int32) error {
	if err := b.enter(); err != nil {
		return err
	}
	defer b.leave()
	if b.rigid == nil {
		return ErrUnsupported
	}
	if len(pos)%3 != 0 || len(faces)%3 != 0 {
		return fmt.Errorf("solver: rigid body %q lengths %d / %d not multiples of 3", name, len(pos), len(faces))
	}
	b.rigid.AddContactRigidBody(name, pos, faces)
	return nil
}

// UpdateRigidBody moves the vertices of a registered rigid body.
func (b *Bridge) UpdateRigidBody(name string, pos []float32) error {
	if err := b.enter(); err != nil {
		return err
	}
	defer b.leave()
	if b.rigid == nil {
		return ErrUnsupported
	}
	b.rigid.UpdateContactRigidBodyPos(name, pos)
	return nil
}

// RigidBodyForces returns the contact force on every vertex of a rigid
// body.
func (b *Bridge) RigidBodyForces(name string, vertexCount int) ([]r3.Vec, error) {
	if err := b.enter(); err != nil {
		return nil, err
	}
	defer b.leave()
	if b.rigid == nil {
		return nil, ErrUnsupported
	}
	if vertexCount < 0 {
		return nil, fmt.Errorf("solver: rigid body %q vertex count %d is negative", name, vertexCount)
	}
	buf := b.stage.acquireFloats(3 * vertexCount)
	defer b.stage.releaseFloats(buf)
	v := *buf
	if b.rigid.ContactForces(name, v) == 0 {
		return nil, fmt.Errorf("solver: no contact forces for rigid body %q", name)
	}
	forces := make([]r3.Vec, vertexCount)
	for i := range forces {
		forces[i] = r3.Vec{X: float64(v[3*i]), Y: float64(v[3*i+1]), Z: float64(v[3*i+2])}
	}
	return forces, nil
}

// Close terminates the engine. It is safe to call more than once.
func (b *Bridge) Close() error {
	if err := b.enter(); err != nil {
		return err
	}
	defer b.leave()
	if !b.setup {
		return nil
	}
	b.engine.Terminate()
	b.setup, b.started = false, false
	b.log.Info("engine terminated", zap.Float64("elapsed", b.elapsed))
	return nil
}
