package main

import (
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Prepare the fuzzing environment",
}

var setupDockerCmd = &cobra.Command{
	Use:   "docker",
	Short: "Build the Mallory docker images",
	RunE: func(cmd *cobra.Command, args []string) error {
		return newPipeline(nil).SetupDocker(cmd.Context())
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a fuzzing component",
}

var runMalloryCmd = &cobra.Command{
	Use:   "mallory",
	Short: "Start the Mallory cluster",
	RunE: func(cmd *cobra.Command, args []string) error {
		return newPipeline(nil).RunMallory(cmd.Context())
	},
}

var runMediatorCmd = &cobra.Command{
	Use:   "mediator",
	Short: "Start the mediator with the configured learning algorithm",
	RunE: func(cmd *cobra.Command, args []string) error {
		return newPipeline(nil).RunMediator(cmd.Context())
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove all docker containers and volumes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return newPipeline(nil).Clean(cmd.Context())
	},
}

func init() {
	setupCmd.AddCommand(setupDockerCmd)
	runCmd.AddCommand(runMalloryCmd)
	runCmd.AddCommand(runMediatorCmd)
}
