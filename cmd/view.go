package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/darwin/internal/domain"
	m "gooze.dev/pkg/darwin/internal/model"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "View the results of the last run",
		Long:  "View the results stored under <mutation-path>/reports by the last run.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			mutationPath := m.Path(viper.GetString(mutationPathConfigKey))
			_, err := workflow.View(cmd.Context(), domain.ViewArgs{MutationPath: mutationPath})

			return err
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
