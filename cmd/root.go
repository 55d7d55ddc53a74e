// Package cmd provides the root command and CLI setup for darwin.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gooze.dev/pkg/darwin/internal/adapter"
	"gooze.dev/pkg/darwin/internal/controller"
	"gooze.dev/pkg/darwin/internal/domain"
	m "gooze.dev/pkg/darwin/internal/model"
)

var fsAdapter adapter.SourceFSAdapter
var rustFileAdapter adapter.SourceFileAdapter
var commandRunner adapter.CommandRunnerAdapter
var reportStore adapter.ReportStore
var workflow domain.Workflow
var ui controller.UI

// mutationPathFlag is a root-level flag shared by commands that read/write the mutation path.
var mutationPathFlag string

// excludePatterns is a root-level flag naming directories that are never copied or scanned.
var excludePatterns []string

var verboseFlag bool
var logFileFlag string

func init() {
	// Initialize shared dependencies.
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	fsAdapter = adapter.NewLocalSourceFSAdapter()
	rustFileAdapter = adapter.NewLocalRustFileAdapter()
	commandRunner = adapter.NewLocalCommandRunnerAdapter()
	reportStore = adapter.NewLocalReportStore()
	workflow = domain.NewWorkflow(
		fsAdapter,
		rustFileAdapter,
		commandRunner,
		reportStore,
		ui,
		domain.DefaultCatalog(),
	)
}

const rootLongDescription = `Darwin is a mutation testing tool for Rust projects. It copies the project,
replaces one arithmetic or logical operator at a time and runs the build and
the test suite against every mutant.

  [OK]      Tests failed, the mutation has been caught
  [Missing] Tests pass, the mutation hasn't been caught, suspicion of missing test
  [Timeout] Mutation introduces an infinite loop, inconclusive
  [Killed]  Mutation introduces a non buildable modification`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "darwin",
		Short:         "Rust mutation testing tool",
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&mutationPathFlag, mutationPathFlagName, "m",
			viper.GetString(mutationPathConfigKey),
			"directory holding mutant workspaces and reports",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(mutationPathFlagName), mutationPathConfigKey)

	cmd.PersistentFlags().StringArrayVarP(&excludePatterns, excludeFlagName, "x", viper.GetStringSlice(excludeConfigKey), "directory name never scanned or copied (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(excludeFlagName), excludeConfigKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, viper.GetString(logFilenameKey), "log file path")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(logFileFlagName), logFilenameKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// SIGINT and SIGTERM cancel the command context, which kills in-flight mutants.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}

func projectPath(args []string) m.Path {
	if len(args) == 0 || args[0] == "" {
		return "."
	}

	return m.Path(args[0])
}
