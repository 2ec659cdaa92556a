package command

import (
	errs "errors"
	"fmt"
	"os"

	"github.com/DataDog/datadog-agent/pkg/util/fxutil"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/trialmatch/workspace/app"
	"github.com/trialmatch/workspace/config"
	"github.com/trialmatch/workspace/errors"
	"github.com/trialmatch/workspace/gateway"
)

var logLevel string

// Run executes a given function with dependencies supplied by the workspace DI graph
// `f` must return an error or nothing
// `opts` can be used to supply additional arguments that are not provided by the graph
func Run(f interface{}, opts ...fx.Option) error {
	deps := append(opts, app.Dependencies()...)
	return fxutil.OneShot(f, deps...)
}

var rootCmd = &cobra.Command{
	Use:           "trialmatch",
	Short:         "Clinical trial matching workspace",
	Long:          "The trialmatch command uploads patients and trials, runs matching and retrieves reports",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Overwrite zap's log level
		return os.Setenv("LOG_LEVEL", logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "v", "error", "Log Level")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// failure converts an error to the message shown to the operator
func failure(err error) error {
	if err == nil {
		return nil
	}
	return errs.New(errors.Message(err))
}

// modeOrDefault returns the mode given on the command line or the configured default
func modeOrDefault(value string, cfg *config.Config) (gateway.Mode, error) {
	if value == "" {
		value = cfg.DefaultMode
	}
	return gateway.ParseMode(value)
}

// setNumTrials overrides the configured number of trials of random runs
func setNumTrials(cmd *cobra.Command, numTrials int) error {
	if !cmd.Flags().Changed("num-trials") {
		return nil
	}
	if numTrials <= 0 {
		return fmt.Errorf("%w: number of trials must be positive", errors.InvalidInput)
	}
	return os.Setenv("TRIALMATCH_NUM_TRIALS", fmt.Sprint(numTrials))
}
