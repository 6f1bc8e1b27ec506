package main

import (
	"github.com/spf13/cobra"
)

var (
	buildPath   string
	llvmTargets string
	llvmOutput  string
)

var instrumentCmd = &cobra.Command{
	Use:   "instrument",
	Short: "Build a project with the instrumenting compiler",
	Long: `Scans the project for targets, writes them to a temporary targets file and
runs the configured build with TARGETS_FILE, CC and CXX pointing at the
instrumenting toolchain. The temporary file is removed afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return newPipeline(nil).Instrument(cmd.Context(), buildPath)
	},
}

var llvmCmd = &cobra.Command{
	Use:   "llvm",
	Short: "Build a project against an existing targets file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return newPipeline(nil).Compile(cmd.Context(), buildPath, llvmTargets, llvmOutput)
	},
}

func init() {
	instrumentCmd.Flags().StringVarP(&buildPath, "path", "p", "", "Project directory (required)")
	_ = instrumentCmd.MarkFlagRequired("path")

	llvmCmd.Flags().StringVarP(&buildPath, "path", "p", "", "Project directory (required)")
	llvmCmd.Flags().StringVar(&llvmTargets, "targets-path", "", "Targets file (required)")
	llvmCmd.Flags().StringVarP(&llvmOutput, "output", "o", "", "Build output directory (required)")
	_ = llvmCmd.MarkFlagRequired("path")
	_ = llvmCmd.MarkFlagRequired("targets-path")
	_ = llvmCmd.MarkFlagRequired("output")
}
