package surface

import (
	"github.com/hschendel/stl"
	"gonum.org/v1/gonum/spatial/r3"
)

func toVec3(v r3.Vec) stl.Vec3 {
	return stl.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

func (s *Surface) toSolid(name string) *stl.Solid {
	solid := &stl.Solid{
		Name:      name,
		Triangles: make([]stl.Triangle, s.FaceCount()),
	}
	for f, n := range s.Normals() {
		tri := &solid.Triangles[f]
		tri.Normal = toVec3(n)
		for i := 0; i < 3; i++ {
			tri.Vertices[i] = toVec3(s.Vertices[s.Triangles[3*f+i]])
		}
	}
	return solid
}

// WriteSTLFile writes the boundary mesh as binary STL at filename.
func (s *Surface) WriteSTLFile(filename, name string) error {
	return s.toSolid(name).WriteFile(filename)
}
