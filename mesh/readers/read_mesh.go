package readers

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/notargets/tetmesh/asset"
	"github.com/notargets/tetmesh/geometry3D"
	"github.com/notargets/tetmesh/logger"
	"github.com/notargets/tetmesh/mesh"
)

// ReadMeshArrays reads flat node and tetrahedron arrays based on extension.
// Gmsh files are normalized with opts; assets are stored normalized and are
// returned as is.
func ReadMeshArrays(filename string, opts geometry3D.Options) (pos []float32, tet []int32, err error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".msh":
		if pos, tet, err = ReadGmsh(filename); err != nil {
			return nil, nil, err
		}
		if err = geometry3D.Normalize(pos, tet, opts); err != nil {
			return nil, nil, err
		}
	case ".json":
		var a *asset.MeshAsset
		if a, err = asset.Load(filename); err != nil {
			return nil, nil, err
		}
		pos, tet = a.Pos, a.Tet
	default:
		return nil, nil, fmt.Errorf("unsupported mesh format: %s", ext)
	}
	logger.Log.Info("read mesh",
		zap.String("file", filename),
		zap.Int("nodes", len(pos)/3),
		zap.Int("tets", len(tet)/4))
	return pos, tet, nil
}

// LoadTetMesh reads filename and builds the live mesh model.
func LoadTetMesh(filename string, opts geometry3D.Options) (*mesh.TetMesh, error) {
	pos, tet, err := ReadMeshArrays(filename, opts)
	if err != nil {
		return nil, err
	}
	return mesh.Build(pos, tet)
}
