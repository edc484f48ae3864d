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

	"github.com/spf13/cobra"

	"github.com/notargets/tetmesh/InputParameters"
	"github.com/notargets/tetmesh/asset"
	"github.com/notargets/tetmesh/geometry3D"
	"github.com/notargets/tetmesh/mesh"
	"github.com/notargets/tetmesh/mesh/readers"
)

// LoadCmd represents the load command
var LoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Read and normalize a Gmsh tetrahedral mesh, then save it as a mesh asset",
	Long: `Read a Gmsh 2.2 ASCII (.msh) tetrahedral mesh, remap its axes and fit it into the
canonical box, then save the normalized arrays as a JSON mesh asset.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		meshFile, _ := cmd.Flags().GetString("meshFile")
		outFile, _ := cmd.Flags().GetString("output")
		if meshFile == "" {
			return fmt.Errorf("must supply a mesh file (-F, --meshFile) in Gmsh 2.2 (.msh) format")
		}
		ip, err := readParameters(cmd)
		if err != nil {
			return err
		}
		return RunLoad(cmd.OutOrStdout(), meshFile, outFile, ip)
	},
}

func init() {
	rootCmd.AddCommand(LoadCmd)
	LoadCmd.Flags().StringP("meshFile", "F", "", "Mesh file to read in Gmsh 2.2 (.msh) or asset (.json) format")
	LoadCmd.Flags().StringP("output", "o", "", "Mesh asset (.json) to write")
	addParametersFlag(LoadCmd)
}

// RunLoad reads meshFile, builds the mesh model, prints a summary and, when
// outFile is set, saves the asset.
func RunLoad(w io.Writer, meshFile, outFile string, ip *InputParameters.MeshParameters) error {
	opts, err := ip.NormalizeOptions()
	if err != nil {
		return err
	}
	m, err := readers.LoadTetMesh(meshFile, opts)
	if err != nil {
		return err
	}
	m.SetProxyRadius(ip.NodeRadius)
	if err = printSummary(w, m, ip); err != nil {
		return err
	}
	if outFile == "" {
		return nil
	}
	pos, tet := m.Asset()
	if err = asset.Save(outFile, asset.New(pos, tet)); err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote %s\n", outFile)
	return nil
}

func printSummary(w io.Writer, m *mesh.TetMesh, ip *InputParameters.MeshParameters) error {
	pos := m.GetNodePositions()
	lo, hi, _ := geometry3D.Bounds(pos)
	render, err := m.ComputeTetraRenderVertices(ip.TetraScale)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "[%d]\t\t\t= Nodes\n", m.NodeCount())
	fmt.Fprintf(w, "[%d]\t\t\t= Tetrahedra\n", m.TetCount())
	fmt.Fprintf(w, "%v\t= Min\n", lo)
	fmt.Fprintf(w, "%v\t= Max\n", hi)
	fmt.Fprintf(w, "[%d]\t\t\t= Wireframe Edges\n", len(m.WireframeEdges()))
	fmt.Fprintf(w, "[%d]\t\t\t= Tetra Render Vertices\n", len(render))
	return nil
}
