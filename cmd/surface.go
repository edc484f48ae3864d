/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/notargets/tetmesh/InputParameters"
	"github.com/notargets/tetmesh/mesh/readers"
	"github.com/notargets/tetmesh/surface"
)

// SurfaceCmd represents the surface command
var SurfaceCmd = &cobra.Command{
	Use:   "surface",
	Short: "Extract the boundary surface of a tetrahedral mesh",
	Long: `Extract the boundary triangles of a tetrahedral mesh by face multiplicity and
optionally write them as a binary STL file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		meshFile, _ := cmd.Flags().GetString("meshFile")
		outFile, _ := cmd.Flags().GetString("output")
		if meshFile == "" {
			return fmt.Errorf("must supply a mesh file (-A, --meshFile) in asset (.json) or Gmsh (.msh) format")
		}
		ip, err := readParameters(cmd)
		if err != nil {
			return err
		}
		return RunSurface(cmd.OutOrStdout(), meshFile, outFile, ip)
	},
}

func init() {
	rootCmd.AddCommand(SurfaceCmd)
	SurfaceCmd.Flags().StringP("meshFile", "A", "", "Mesh asset (.json) or Gmsh (.msh) file")
	SurfaceCmd.Flags().StringP("output", "o", "", "STL file to write")
	addParametersFlag(SurfaceCmd)
}

// RunSurface extracts the boundary surface of meshFile and writes it to
// outFile when set. Non-manifold faces are reported, not fatal.
func RunSurface(w io.Writer, meshFile, outFile string, ip *InputParameters.MeshParameters) error {
	opts, err := ip.NormalizeOptions()
	if err != nil {
		return err
	}
	m, err := readers.LoadTetMesh(meshFile, opts)
	if err != nil {
		return err
	}
	s, warnings := surface.Extract(m)
	for _, warn := range warnings {
		fmt.Fprintf(w, "warning: %s\n", warn.Error())
	}
	fmt.Fprintf(w, "[%d]\t\t\t= Boundary Faces\n", s.FaceCount())
	fmt.Fprintf(w, "[%d]\t\t\t= Surface Vertices\n", s.VertexCount())
	if outFile == "" {
		return nil
	}
	name := strings.TrimSuffix(filepath.Base(meshFile), filepath.Ext(meshFile))
	if err = s.WriteSTLFile(outFile, name); err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote %s\n", outFile)
	return nil
}
