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
	"github.com/notargets/tetmesh/bcs"
	"github.com/notargets/tetmesh/mesh/readers"
)

// BCCmd represents the bc command
var BCCmd = &cobra.Command{
	Use:   "bc",
	Short: "Select the fixed nodes of a mesh",
	Long: `Fix the nodes lying in the extreme fraction of the mesh extent on one side
(bottom, top, left, right) and list them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		meshFile, _ := cmd.Flags().GetString("meshFile")
		if meshFile == "" {
			return fmt.Errorf("must supply a mesh file (-A, --meshFile) in asset (.json) or Gmsh (.msh) format")
		}
		ip, err := readParameters(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("mode") {
			ip.BCMode, _ = cmd.Flags().GetString("mode")
		}
		if cmd.Flags().Changed("fraction") {
			ip.BCFraction, _ = cmd.Flags().GetFloat64("fraction")
		}
		return RunBC(cmd.OutOrStdout(), meshFile, ip)
	},
}

func init() {
	rootCmd.AddCommand(BCCmd)
	BCCmd.Flags().StringP("meshFile", "A", "", "Mesh asset (.json) or Gmsh (.msh) file")
	BCCmd.Flags().StringP("mode", "m", bcs.Bottom.String(), "side to fix: clear, bottom, top, left, right")
	BCCmd.Flags().Float64P("fraction", "f", bcs.DefaultFraction, "fraction of the axis range to fix")
	addParametersFlag(BCCmd)
}

// RunBC assigns the boundary condition selected by ip and prints the fixed
// nodes. A zero-range axis is reported, not fatal.
func RunBC(w io.Writer, meshFile string, ip *InputParameters.MeshParameters) error {
	mode, err := ip.BoundaryMode()
	if err != nil {
		return err
	}
	opts, err := ip.NormalizeOptions()
	if err != nil {
		return err
	}
	m, err := readers.LoadTetMesh(meshFile, opts)
	if err != nil {
		return err
	}
	fixed, warn := bcs.Assign(m, mode, ip.BCFraction)
	if warn != nil {
		fmt.Fprintf(w, "warning: %s\n", warn.Error())
	}
	fmt.Fprintf(w, "[%s] %8.5f\t= BC Mode, Fraction\n", mode, ip.BCFraction)
	fmt.Fprintf(w, "[%d/%d]\t\t= Fixed Nodes\n", len(fixed), m.NodeCount())
	fmt.Fprintf(w, "%v\n", fixed)
	return nil
}
