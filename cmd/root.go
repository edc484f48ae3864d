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
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/tetmesh/InputParameters"
	"github.com/notargets/tetmesh/logger"
)

var (
	cfgFile  string
	profiler interface{ Stop() }
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tetmesh",
	Short: "Tetrahedral mesh preparation for soft body simulation",
	Long: `Reads Gmsh tetrahedral meshes, normalizes them into the canonical frame,
extracts the boundary surface, assigns fixed nodes and stores the mesh asset.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Init(viper.GetString("logLevel"), viper.GetString("logFile")); err != nil {
			return err
		}
		logger.Sugar.Debugf("command %s, config %q", cmd.Name(), viper.ConfigFileUsed())
		switch mode := viper.GetString("profile"); mode {
		case "":
		case "cpu":
			profiler = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet)
		case "mem":
			profiler = profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet)
		default:
			return fmt.Errorf("unknown profile mode %q, want cpu or mem", mode)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if profiler != nil {
			profiler.Stop()
		}
		logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tetmesh.yaml)")
	rootCmd.PersistentFlags().String("logLevel", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("logFile", "", "also log to this file, rotated")
	rootCmd.PersistentFlags().String("profile", "", "write a cpu or mem profile to the working directory")
	for _, name := range []string{"logLevel", "logFile", "profile"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in home directory with name ".tetmesh" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".tetmesh")
	}

	viper.SetEnvPrefix("tetmesh")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// readParameters parses the YAML parameter file named by the
// inputParametersFile flag, or returns the defaults.
func readParameters(cmd *cobra.Command) (*InputParameters.MeshParameters, error) {
	fileName, err := cmd.Flags().GetString("inputParametersFile")
	if err != nil {
		return nil, err
	}
	if fileName == "" {
		return InputParameters.Defaults(), nil
	}
	ip, err := InputParameters.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	logger.Sugar.Debugf("parameters from %s: %+v", fileName, *ip)
	return ip, nil
}

func addParametersFlag(c *cobra.Command) {
	c.Flags().StringP("inputParametersFile", "I", "",
		"YAML file for run parameters like:\n\t- AxisMap, FitToBox, BoxSize\n\t- BCMode, BCFraction\n\t- Material")
}
