package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/darwin/internal/domain"
	m "gooze.dev/pkg/darwin/internal/model"
)

// ErrMissingMutations is returned by run --fail-on-missing when a mutant survived.
var ErrMissingMutations = errors.New("mutations not caught by the tests")

const runLongDescription = `Run mutation testing on the Rust project at PROJECT (default: current directory).

Every candidate mutant is copied to <mutation-path>/<id>, built and tested.
Results are written to <mutation-path>/reports: one mutation_<id>.log per
candidate, the ordered summary and a machine readable results.yaml.`

var parallelFlag int
var dryRunFlag bool
var showDiffFlag bool

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [project]",
		Short: "Run mutation testing",
		Long:  runLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runArgs := runArgsFromConfig(projectPath(args))
			runArgs.DryRun = dryRunFlag
			runArgs.ShowDiff = showDiffFlag

			report, err := workflow.Run(cmd.Context(), runArgs)
			if err != nil {
				return err
			}

			return checkMissing(report, viper.GetBool(failOnMissingConfigKey))
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	configureAnalysisFlags(cmd)

	cmd.Flags().IntVarP(&parallelFlag, parallelFlagName, "p", viper.GetInt(parallelConfigKey), "number of parallel workers (0 uses every CPU)")
	cmd.Flags().DurationP(testTimeoutFlagName, "t", viper.GetDuration(testTimeoutConfigKey), "time budget of one test run")
	cmd.Flags().Duration(buildTimeoutFlagName, viper.GetDuration(buildTimeoutConfigKey), "time budget of one build (0 leaves builds unbounded)")
	cmd.Flags().Bool(keepFlagName, viper.GetBool(keepConfigKey), "keep mutant workspaces for inspection")
	cmd.Flags().Bool(failOnMissingFlagName, viper.GetBool(failOnMissingConfigKey), "exit with an error when a mutation is not caught")
	cmd.Flags().String(buildCommandFlagName, "", "build command run in every workspace (default \"cargo build\")")
	cmd.Flags().String(testCommandFlagName, "", "test command run in every workspace (default \"cargo test\")")
	cmd.Flags().StringArrayP(envFlagName, "e", viper.GetStringSlice(envConfigKey), "KEY=VALUE added to the build and test environment (can be repeated)")
	cmd.Flags().BoolVar(&dryRunFlag, dryRunFlagName, false, "only list the mutations")
	cmd.Flags().BoolVar(&showDiffFlag, diffFlagName, false, "print the diff of every mutation in dry-run mode")

	// run and list share config keys, so flags are bound only for the
	// command that actually executes.
	cmd.PreRun = func(cmd *cobra.Command, _ []string) {
		bindAnalysisFlags(cmd)
		bindFlagToConfig(cmd.Flags().Lookup(parallelFlagName), parallelConfigKey)
		bindFlagToConfig(cmd.Flags().Lookup(testTimeoutFlagName), testTimeoutConfigKey)
		bindFlagToConfig(cmd.Flags().Lookup(buildTimeoutFlagName), buildTimeoutConfigKey)
		bindFlagToConfig(cmd.Flags().Lookup(keepFlagName), keepConfigKey)
		bindFlagToConfig(cmd.Flags().Lookup(failOnMissingFlagName), failOnMissingConfigKey)
		bindFlagToConfig(cmd.Flags().Lookup(buildCommandFlagName), buildCommandConfigKey)
		bindFlagToConfig(cmd.Flags().Lookup(testCommandFlagName), testCommandConfigKey)
		bindFlagToConfig(cmd.Flags().Lookup(envFlagName), envConfigKey)
	}
}

// configureAnalysisFlags adds the flags shared by run and list.
func configureAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().StringArray(extensionFlagName, viper.GetStringSlice(extensionsConfigKey), "source file extension to scan (can be repeated)")
	cmd.Flags().StringArray(markerFlagName, viper.GetStringSlice(markersConfigKey), "attribute exempting a function from mutation, globs allowed (can be repeated)")
}

func bindAnalysisFlags(cmd *cobra.Command) {
	bindFlagToConfig(cmd.Flags().Lookup(extensionFlagName), extensionsConfigKey)
	bindFlagToConfig(cmd.Flags().Lookup(markerFlagName), markersConfigKey)
}

func runArgsFromConfig(project m.Path) domain.RunArgs {
	return domain.RunArgs{
		Project:      project,
		MutationPath: m.Path(viper.GetString(mutationPathConfigKey)),
		Workers:      viper.GetInt(parallelConfigKey),
		TestTimeout:  viper.GetDuration(testTimeoutConfigKey),
		BuildTimeout: viper.GetDuration(buildTimeoutConfigKey),
		Keep:         viper.GetBool(keepConfigKey),
		BuildCommand: viper.GetStringSlice(buildCommandConfigKey),
		TestCommand:  viper.GetStringSlice(testCommandConfigKey),
		Env:          viper.GetStringSlice(envConfigKey),
		Extensions:   viper.GetStringSlice(extensionsConfigKey),
		Markers:      viper.GetStringSlice(markersConfigKey),
		ExcludeDirs:  viper.GetStringSlice(excludeConfigKey),
	}
}

func checkMissing(report m.Report, failOnMissing bool) error {
	missing := report.Count(m.Missing)
	if !failOnMissing || missing == 0 {
		return nil
	}

	return fmt.Errorf("%w: %d of %d", ErrMissingMutations, missing, len(report.Results))
}
