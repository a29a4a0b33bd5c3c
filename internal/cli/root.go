// Package cli implements the fbas command line tool.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/relab/fbas/logging"
	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fbas",
		Short: "A command-line utility for analyzing federated Byzantine agreement systems.",
		Long: `fbas is a command-line utility for analyzing the quorum structure of
federated Byzantine agreement systems (FBAS), such as the Stellar network.

It decides whether every two quorums intersect, and reports the minimal
blocking sets, the minimal splitting sets and the top tier of a topology,
optionally grouped by organization, ISP or country, and with a set of
participants excluded as faulty.

To analyze a topology, use the 'fbas analyze' command.
Use 'fbas help analyze' to view all possible parameters for this command.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.fbas.yaml)")

	cmd.PersistentFlags().String("log-level", "info", "sets the log level (debug, info, warn, error)")
	cobra.CheckErr(viper.BindPFlag("log-level", cmd.PersistentFlags().Lookup("log-level")))
	cmd.PersistentFlags().StringSlice("log-pkgs", []string{}, "set the log level on a per-package basis.")
	cobra.CheckErr(viper.BindPFlag("log-pkgs", cmd.PersistentFlags().Lookup("log-pkgs")))

	cmd.AddCommand(newAnalyzeCmd(), newCanonicalizeCmd())
	return cmd
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".fbas" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".fbas")
	}

	viper.SetEnvPrefix("fbas")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	cobra.CheckErr(logging.SetLogLevel(viper.GetString("log-level")))
	cobra.CheckErr(logging.SetPackageLogLevels(viper.GetStringSlice("log-pkgs")))
}
