package cmd

import (
	"github.com/spf13/cobra"
)

const listLongDescription = `List every mutation darwin would evaluate for the Rust project at PROJECT
(default: current directory) without building or testing anything.

Candidates are printed in evaluation order with their id, location and
operator replacement. Use --diff to show the unified diff of each mutant.`

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [project]",
		Short: "List candidate mutations",
		Long:  listLongDescription,
		Args:  cobra.MaximumNArgs(1),
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindAnalysisFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			diff, err := cmd.Flags().GetBool(diffFlagName)
			if err != nil {
				return err
			}

			runArgs := runArgsFromConfig(projectPath(args))
			runArgs.ShowDiff = diff

			_, err = workflow.List(cmd.Context(), runArgs)

			return err
		},
	}

	configureAnalysisFlags(cmd)
	cmd.Flags().Bool(diffFlagName, false, "print the diff of every mutation")

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}
