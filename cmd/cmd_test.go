package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/tetmesh/InputParameters"
	"github.com/notargets/tetmesh/asset"
	"github.com/notargets/tetmesh/mesh/readers"
)

// unit cube split into six tetrahedra, Z up
func writeCubeMsh(t *testing.T) string {
	t.Helper()
	pos := []float32{
		0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0,
		0, 0, 1, 1, 0, 1, 1, 1, 1, 0, 1, 1,
	}
	tet := []int32{
		0, 1, 2, 6,
		0, 5, 1, 6,
		0, 2, 3, 6,
		0, 3, 7, 6,
		0, 4, 5, 6,
		0, 7, 4, 6,
	}
	fileName := filepath.Join(t.TempDir(), "cube.msh")
	require.NoError(t, readers.WriteGmsh22File(fileName, pos, tet))
	return fileName
}

func TestPipeline(t *testing.T) {
	var (
		dir       = t.TempDir()
		mshFile   = writeCubeMsh(t)
		assetFile = filepath.Join(dir, "assets", "cube.json")
		stlFile   = filepath.Join(dir, "cube.stl")
		outMsh    = filepath.Join(dir, "cube_out.msh")
		ip        = InputParameters.Defaults()
		out       bytes.Buffer
	)

	require.NoError(t, RunLoad(&out, mshFile, assetFile, ip))
	assert.Contains(t, out.String(), "[8]\t\t\t= Nodes")
	assert.Contains(t, out.String(), "[6]\t\t\t= Tetrahedra")
	assert.Contains(t, out.String(), "[19]\t\t\t= Wireframe Edges")
	assert.Contains(t, out.String(), "[72]\t\t\t= Tetra Render Vertices")

	a, err := asset.Load(assetFile)
	require.NoError(t, err)
	assert.Equal(t, 8, a.NodeCount())
	assert.Equal(t, 6, a.TetCount())

	out.Reset()
	require.NoError(t, RunSurface(&out, assetFile, stlFile, ip))
	assert.Contains(t, out.String(), "[12]\t\t\t= Boundary Faces")
	assert.NotContains(t, out.String(), "warning")
	info, err := os.Stat(stlFile)
	require.NoError(t, err)
	assert.Equal(t, int64(84+50*12), info.Size())

	out.Reset()
	ip.BCMode = "bottom"
	require.NoError(t, RunBC(&out, assetFile, ip))
	// the bottom face of the cube holds four nodes
	assert.Contains(t, out.String(), "[4/8]")

	out.Reset()
	require.NoError(t, RunExport(&out, assetFile, outMsh))
	pos, tet, err := readers.ReadGmsh(outMsh)
	require.NoError(t, err)
	assert.Equal(t, a.Pos, pos)
	assert.Equal(t, a.Tet, tet)
}

func TestBCDegenerateWarning(t *testing.T) {
	// a single flat layer of nodes cannot be split along Y
	fileName := filepath.Join(t.TempDir(), "flat.json")
	pos := []float32{0, 0, 0, 1, 0, 0, 0, 0, 1, 1, 0, 1}
	require.NoError(t, asset.Save(fileName, asset.New(pos, nil)))

	var out bytes.Buffer
	ip := InputParameters.Defaults()
	require.NoError(t, RunBC(&out, fileName, ip))
	assert.Contains(t, out.String(), "warning")
	assert.Contains(t, out.String(), "[4/4]")
}

func TestLoadErrors(t *testing.T) {
	var out bytes.Buffer
	ip := InputParameters.Defaults()
	missing := filepath.Join(t.TempDir(), "missing.msh")
	assert.Error(t, RunLoad(&out, missing, "", ip))

	bad := filepath.Join(t.TempDir(), "bad.msh")
	require.NoError(t, os.WriteFile(bad, []byte("$Nodes\n1\n1 0 0 0\n$EndNodes\n"), 0644))
	var pe *readers.ParseError
	assert.ErrorAs(t, RunLoad(&out, bad, "", ip), &pe)

	ip.BCMode = "sideways"
	assert.Error(t, RunBC(&out, bad, ip))
}
