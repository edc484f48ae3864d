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

	"github.com/notargets/tetmesh/asset"
	"github.com/notargets/tetmesh/mesh/readers"
)

// ExportCmd represents the export command
var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a mesh asset back out as a Gmsh 2.2 file",
	RunE: func(cmd *cobra.Command, args []string) error {
		assetFile, _ := cmd.Flags().GetString("assetFile")
		outFile, _ := cmd.Flags().GetString("output")
		if assetFile == "" || outFile == "" {
			return fmt.Errorf("must supply an asset file (-A, --assetFile) and an output file (-o, --output)")
		}
		return RunExport(cmd.OutOrStdout(), assetFile, outFile)
	},
}

func init() {
	rootCmd.AddCommand(ExportCmd)
	ExportCmd.Flags().StringP("assetFile", "A", "", "Mesh asset (.json) to read")
	ExportCmd.Flags().StringP("output", "o", "", "Gmsh 2.2 (.msh) file to write")
}

// RunExport converts a mesh asset to Gmsh 2.2 ASCII.
func RunExport(w io.Writer, assetFile, outFile string) error {
	a, err := asset.Load(assetFile)
	if err != nil {
		return err
	}
	if err = readers.WriteGmsh22File(outFile, a.Pos, a.Tet); err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote %s (%d nodes, %d tetrahedra)\n", outFile, a.NodeCount(), a.TetCount())
	return nil
}
