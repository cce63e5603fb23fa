// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is the qbench version, set at build time.
var Version = "development"

func init() {
	viper.SetEnvPrefix("QBENCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// Prepare builds the root command with every subcommand registered.
func Prepare() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "qbench",
		Short:         "Benchmark revisions of SQL queries against each other",
		Long:          "qbench runs every revision of each query group against a live database, times the query and flags revisions that are slower than the first one.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile == "" {
				return nil
			}
			if err := godotenv.Load(envFile); err != nil {
				return ExitError{Code: ExitConfig, Err: fmt.Errorf("loading env file %q: %w", envFile, err)}
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load QBENCH_* settings from a dotenv file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log state transitions and iterations at debug level")

	bindFlags(rootCmd.PersistentFlags(), map[string]string{"VERBOSE": "verbose"})

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(chartCmd())

	return rootCmd
}

// Execute executes the root command. An interrupt cancels the run the same
// way the run timeout does.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := Prepare().ExecuteContext(ctx)
	if msg := errorMessage(err); msg != "" {
		fmt.Fprintln(os.Stderr, "Error:", msg)
	}
	return err
}
