package solver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/tetmesh/mesh"
)

// fakeEngine records calls and moves every node up by lift on Update
type fakeEngine struct {
	calls    []string
	mat      Material
	mode     CollisionMode
	pos      []float32
	tet      []int32
	haptic   []bool
	bcIDs    [][]int32
	bcDisp   [][]float32
	dt       []float32
	stiff    float32
	lift     float32
	onUpdate func()
}

func (e *fakeEngine) record(name string) { e.calls = append(e.calls, name) }

func (e *fakeEngine) SetupFEM(mat Material, pos []float32, tet []int32, mode CollisionMode) {
	e.record("SetupFEM")
	e.mat, e.mode = mat, mode
	e.pos = append([]float32(nil), pos...)
	e.tet = append([]int32(nil), tet...)
}
func (e *fakeEngine) StartSimulation() { e.record("StartSimulation") }
func (e *fakeEngine) Terminate() { e.record("Terminate") }
func (e *fakeEngine) Update(dt float32) {
	e.record("Update")
	e.dt = append(e.dt, dt)
	for i := 1; i < len(e.pos); i += 3 {
		e.pos[i] += e.lift
	}
	if e.onUpdate != nil {
		e.onUpdate()
	}
}
func (e *fakeEngine) NumNodes() int { return len(e.pos) / 3 }
func (e *fakeEngine) NumElems() int { return len(e.tet) / 4 }
func (e *fakeEngine) NodePositions(dst []float32) {
	e.record("NodePositions")
	copy(dst, e.pos)
}
func (e *fakeEngine) RigidBodyPosition(dst []float32) {
	e.record("RigidBodyPosition")
	copy(dst, []float32{1, 2, 3})
}
func (e *fakeEngine) RigidBodyRotation(dst []float32) {
	e.record("RigidBodyRotation")
	copy(dst, []float32{0, 0, 0.5, 0.5})
}
func (e *fakeEngine) ScaleStiffness(scale float32) {
	e.record("ScaleStiffness")
	e.stiff = scale
}
func (e *fakeEngine) SetFriction(float32) { e.record("SetFriction") }
func (e *fakeEngine) SetVCStiffness(float32) { e.record("SetVCStiffness") }
func (e *fakeEngine) SetGlobalDamping(float32) { e.record("SetGlobalDamping") }
func (e *fakeEngine) SetHandleOffset(_, _, _ float32) { e.record("SetHandleOffset") }
func (e *fakeEngine) SetGravity(_, _, _ float32) { e.record("SetGravity") }
func (e *fakeEngine) SetGravityRb(_, _, _ float32) { e.record("SetGravityRb") }
func (e *fakeEngine) SetFloorHapticsEnabled(bool) { e.record("SetFloorHapticsEnabled") }
func (e *fakeEngine) SetFloorCollisionEnabled(bool) { e.record("SetFloorCollisionEnabled") }
func (e *fakeEngine) SetHapticEnabled(enabled bool) {
	e.record("SetHapticEnabled")
	e.haptic = append(e.haptic, enabled)
}
func (e *fakeEngine) SetBoundaryConditions(ids []int32, disp []float32) {
	e.record("SetBoundaryConditions")
	e.bcIDs = append(e.bcIDs, append([]int32(nil), ids...))
	e.bcDisp = append(e.bcDisp, append([]float32(nil), disp...))
}

// fullEngine adds every optional capability
type fullEngine struct {
	fakeEngine
	visPos   []float32
	visFaces []int32
	bodies   map[string][]float32
}

func (e *fullEngine) SetupVisMesh(pos []float32, faces []int32) {
	e.visPos = append([]float32(nil), pos...)
	e.visFaces = append([]int32(nil), faces...)
}
func (e *fullEngine) VisMeshPositions(dst []float32) { copy(dst, e.visPos) }
func (e *fullEngine) VisMeshStress(dst []float32) {
	for i := range dst {
		dst[i] = 2
	}
}
func (e *fullEngine) NodePrincipalStress(dst []float32) {
	for i := range dst {
		dst[i] = float32(i)
	}
}
func (e *fullEngine) IsContact() bool { return true }
func (e *fullEngine) DisplayingForce(dst []float32) { copy(dst, []float32{0, -1, 0}) }
func (e *fullEngine) ContactNormal(dst []float32) { copy(dst, []float32{0, 1, 0}) }
func (e *fullEngine) AddContactRigidBody(name string, pos []float32, _ []int32) {
	if e.bodies == nil {
		e.bodies = make(map[string][]float32)
	}
	e.bodies[name] = append([]float32(nil), pos...)
}
func (e *fullEngine) UpdateContactRigidBodyPos(name string, pos []float32) {
	e.bodies[name] = append([]float32(nil), pos...)
}
func (e *fullEngine) ContactForces(name string, dst []float32) int {
	pos, ok := e.bodies[name]
	if !ok {
		return 0
	}
	for i := range dst {
		dst[i] = pos[i] * 10
	}
	return 1
}

func testMesh(t *testing.T) *mesh.TetMesh {
	t.Helper()
	m, err := mesh.Build(
		[]float32{0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 1, 1, 1},
		[]int32{0, 1, 2, 3, 1, 2, 3, 4})
	require.NoError(t, err)
	return m
}

func TestOptionalCapabilities(t *testing.T) {
	b := NewBridge(&fakeEngine{}, testMesh(t), DefaultParams())
	assert.Nil(t, b.VisualMesh())
	assert.Nil(t, b.Stress())
	assert.Nil(t, b.ContactState())
	assert.Nil(t, b.RigidBodies())
	assert.ErrorIs(t, b.SetupVisualMesh(nil, nil), ErrUnsupported)
	_, err := b.Contact()
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = b.NodeStress()
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.ErrorIs(t, b.AddRigidBody("tool", nil, nil), ErrUnsupported)

	full := NewBridge(&fullEngine{}, testMesh(t), DefaultParams())
	assert.NotNil(t, full.VisualMesh())
	assert.NotNil(t, full.Stress())
	assert.NotNil(t, full.ContactState())
	assert.NotNil(t, full.RigidBodies())
}

func TestSetupPacksMesh(t *testing.T) {
	e := &fakeEngine{}
	m := testMesh(t)
	params := DefaultParams()
	params.CollisionMode = CollisionRigidBody
	b := NewBridge(e, m, params)

	require.NoError(t, b.Setup())
	assert.Equal(t, m.GetNodePositions(), e.pos)
	assert.Equal(t, []int32{0, 1, 2, 3, 1, 2, 3, 4}, e.tet)
	assert.Equal(t, params.Material, e.mat)
	assert.Equal(t, CollisionRigidBody, e.mode)
	assert.Equal(t, []bool{false}, e.haptic)
	assert.True(t, m.Tracking())
	assert.Zero(t, b.stage.outstanding.Load())

	assert.Error(t, b.Setup())
}

func TestCallOrder(t *testing.T) {
	b := NewBridge(&fakeEngine{}, testMesh(t), DefaultParams())
	assert.ErrorIs(t, b.Start(), ErrNotSetup)
	assert.ErrorIs(t, b.Step(0.03), ErrNotSetup)
	require.NoError(t, b.Setup())
	assert.ErrorIs(t, b.Step(0.03), ErrNotSetup)
	require.NoError(t, b.Start())
	assert.Error(t, b.Step(0))
	assert.Error(t, b.Step(-1))
	require.NoError(t, b.Step(0.03))
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.ErrorIs(t, b.Step(0.03), ErrNotSetup)
}

func TestStepSequence(t *testing.T) {
	e := &fakeEngine{lift: 0.01}
	m := testMesh(t)
	b := NewBridge(e, m, DefaultParams())
	require.NoError(t, b.Setup())
	require.NoError(t, b.Start())
	e.calls = nil

	require.NoError(t, b.Step(0.03))
	assert.Equal(t, []string{
		"SetHapticEnabled",
		"SetHandleOffset",
		"RigidBodyPosition",
		"RigidBodyRotation",
		"SetGravityRb",
		"ScaleStiffness",
		"SetFriction",
		"SetVCStiffness",
		"SetGlobalDamping",
		"SetFloorHapticsEnabled",
		"SetBoundaryConditions",
		"SetGravity",
		"Update",
		"NodePositions",
	}, e.calls)
	assert.Equal(t, []float32{0.03}, e.dt)
	assert.Equal(t, float32(0.6), e.stiff)

	// positions come back from the engine
	assert.InDelta(t, 0.01, m.Nodes[0].Position.Y, 1e-7)
	assert.InDelta(t, 1.01, m.Nodes[4].Position.Y, 1e-6)

	pose := b.Pose()
	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, pose.Position)
	assert.Equal(t, [4]float64{0, 0, 0.5, 0.5}, pose.Rotation)
	assert.Zero(t, b.stage.outstanding.Load())
}

func TestHapticsWaitTime(t *testing.T) {
	e := &fakeEngine{}
	b := NewBridge(e, testMesh(t), DefaultParams())
	require.NoError(t, b.Setup())
	require.NoError(t, b.Start())
	e.haptic = nil
	for i := 0; i < 4; i++ {
		require.NoError(t, b.Step(0.2))
	}
	assert.Equal(t, []bool{false, false, true, true}, e.haptic)
	assert.InDelta(t, 0.8, b.Elapsed(), 1e-12)

	p := b.Params()
	p.HapticEnabled = false
	require.NoError(t, b.SetParams(p))
	require.NoError(t, b.Step(0.2))
	assert.False(t, e.haptic[len(e.haptic)-1])
}

func TestBoundaryConditionsFollowDrift(t *testing.T) {
	e := &fakeEngine{lift: 0.01}
	m := testMesh(t)
	b := NewBridge(e, m, DefaultParams())
	require.NoError(t, b.Setup())
	require.NoError(t, m.SetBoundaryCondition(0, true, r3.Vec{}))
	require.NoError(t, m.SetBoundaryCondition(3, true, r3.Vec{}))
	require.NoError(t, b.Start())

	require.NoError(t, b.Step(0.03))
	require.NoError(t, b.Step(0.03))
	require.Len(t, e.bcIDs, 2)
	assert.Equal(t, []int32{0, 3}, e.bcIDs[0])
	assert.Equal(t, make([]float32, 6), e.bcDisp[0])
	// the engine lifted both nodes during the first step
	require.Len(t, e.bcDisp[1], 6)
	for i, want := range []float32{0, 0.01, 0, 0, 0.01, 0} {
		assert.InDelta(t, want, e.bcDisp[1][i], 1e-7)
	}
}

func TestReentryIsRejected(t *testing.T) {
	e := &fakeEngine{}
	b := NewBridge(e, testMesh(t), DefaultParams())
	require.NoError(t, b.Setup())
	require.NoError(t, b.Start())

	var inner []error
	e.onUpdate = func() {
		inner = append(inner, b.Step(0.01))
		inner = append(inner, b.SetHandleOffset(r3.Vec{X: 1}))
		inner = append(inner, b.Close())
	}
	require.NoError(t, b.Step(0.03))
	require.Len(t, inner, 3)
	for _, err := range inner {
		assert.True(t, errors.Is(err, ErrBusy))
	}
	assert.Len(t, e.dt, 1)
	assert.Zero(t, b.stage.outstanding.Load())

	// the guard is released after the call
	e.onUpdate = nil
	require.NoError(t, b.Step(0.03))
}

func TestVisualMeshAndStress(t *testing.T) {
	e := &fullEngine{}
	b := NewBridge(e, testMesh(t), DefaultParams())

	_, err := b.VisualPositions()
	assert.ErrorIs(t, err, ErrNotSetup)
	_, err = b.NodeStress()
	assert.ErrorIs(t, err, ErrNotSetup)

	pos := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	assert.Error(t, b.SetupVisualMesh(pos, []int32{0, 1, 3}))
	assert.Error(t, b.SetupVisualMesh(pos[:4], []int32{0, 1, 2}))
	require.NoError(t, b.SetupVisualMesh(pos, []int32{0, 1, 2}))

	got, err := b.VisualPositions()
	require.NoError(t, err)
	assert.Equal(t, pos, got)
	stress, err := b.VisualStress()
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 2, 2}, stress)

	require.NoError(t, b.Setup())
	stress, err = b.NodeStress()
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, stress)
}

func TestContactAndRigidBodies(t *testing.T) {
	e := &fullEngine{}
	b := NewBridge(e, testMesh(t), DefaultParams())

	c, err := b.Contact()
	require.NoError(t, err)
	assert.True(t, c.InContact)
	assert.Equal(t, r3.Vec{Y: -1}, c.Force)
	assert.Equal(t, r3.Vec{Y: 1}, c.Normal)

	assert.Error(t, b.AddRigidBody("tool", []float32{0, 0}, nil))
	require.NoError(t, b.AddRigidBody("tool", []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, []int32{0, 1, 2}))
	require.NoError(t, b.UpdateRigidBody("tool", []float32{0, 0, 1, 1, 0, 1, 0, 1, 1}))

	forces, err := b.RigidBodyForces("tool", 3)
	require.NoError(t, err)
	assert.Equal(t, []r3.Vec{{Z: 10}, {X: 10, Z: 10}, {Y: 10, Z: 10}}, forces)

	_, err = b.RigidBodyForces("missing", 3)
	assert.Error(t, err)
	assert.NotPanics(t, func() {
		_, err = b.RigidBodyForces("tool", -1)
	})
	assert.ErrorContains(t, err, "negative")
	assert.Zero(t, b.stage.outstanding.Load())
}
