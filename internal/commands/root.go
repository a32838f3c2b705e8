// Package commands implements the falcon CLI.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/simonhull/firebird-suite/falcon"
	"github.com/simonhull/firebird-suite/falcon/pkg/config"
	"github.com/simonhull/firebird-suite/falcon/pkg/logger"
	"github.com/simonhull/firebird-suite/falcon/pkg/output"
)

// app is the state shared by every command of one invocation
type app struct {
	v          *viper.Viper
	fs         afero.Fs
	configFile string
	verbose    bool

	cfg *config.Config
	log logger.Logger
}

// config loads falcon.yml, environment overrides and bound flags once
func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return nil, err
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if a.verbose {
		level = logger.LevelDebug
	}
	a.log = logger.NewLogger(level, os.Stderr)
	logger.SetDefault(a.log)

	a.cfg = cfg
	return cfg, nil
}

// bind ties a flag to a configuration key
func (a *app) bind(cmd *cobra.Command, key, flag string) {
	if err := a.v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag, err))
	}
}

// RootCmd creates and returns the root command for the falcon CLI
func RootCmd() *cobra.Command {
	a := &app{v: config.New(), fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "falcon",
		Short: "FortiOS module generator and version checker",
		Long: `Falcon generates FortiOS configuration modules from the CMDB schema and
checks configuration requests against firmware revisions.

• Generate one module per CMDB endpoint, with examples and tests
• Check which options of a request a firmware version supports
• Serve module specs and checks over HTTP

Configuration is read from falcon.yml and FALCON_* environment variables.`,
		Version:       falcon.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.SetVerbose(a.verbose)
			output.SetWriter(cmd.OutOrStdout())
		},
	}

	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output for debugging")
	cmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "Path to configuration file (default ./falcon.yml)")
	cmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error, silent")
	if err := a.v.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level")); err != nil {
		panic(err)
	}

	cmd.AddCommand(a.generateCmd())
	cmd.AddCommand(a.validateCmd())
	cmd.AddCommand(a.serveCmd())
	cmd.AddCommand(a.configCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return RootCmd().Execute()
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Falcon v%s\n", falcon.Version)
		},
	}
}
