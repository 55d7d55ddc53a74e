package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/darwin/internal/domain"
	m "gooze.dev/pkg/darwin/internal/model"
)

// cleanCmd represents the clean command.
var cleanCmd = newCleanCmd()

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove mutant workspaces and reports",
		Long: `Remove the numbered mutant workspaces and the reports directory left under
the mutation path. Files darwin did not create are left in place.`,
		Args: cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			mutationPath := m.Path(viper.GetString(mutationPathConfigKey))

			return workflow.Clean(cmd.Context(), domain.CleanArgs{MutationPath: mutationPath})
		},
	}
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
