// Package cmd implements the isoreplay CLI commands
package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wrale/isoreplay/internal/isoreplay/config"
	"github.com/wrale/isoreplay/internal/isoreplay/logging"
)

// options is the state shared by every subcommand of one invocation
type options struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
	logger  zerolog.Logger
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	o := &options{v: viper.New(), logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "isoreplay",
		Short: "Replay interleaved transactions against a database",
		Long: `isoreplay runs scripted interleavings of SQL statements across several
concurrently open transactions and records what the database did with each
statement, so the behavior of an isolation level can be checked empirically.

Each test-case file lists the statements of one or more interleavings. Every
transaction gets its own connection, is begun before its first statement and
committed right after its last one.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.init()
		},
	}

	root.PersistentFlags().StringVar(&o.cfgFile, "config", "", "config file (YAML)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	root.PersistentFlags().String("server", "", "replay server URL for submit and results")
	_ = o.v.BindPFlag("log.level", root.PersistentFlags().Lookup("log-level"))
	_ = o.v.BindPFlag("client.server", root.PersistentFlags().Lookup("server"))

	root.AddCommand(
		newRunCmd(o),
		newServeCmd(o),
		newSubmitCmd(o),
		newResultsCmd(o),
		newVersionCmd(),
	)

	return root
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// init loads configuration from file, environment and flags, in rising
// precedence, and builds the logger from it
func (o *options) init() error {
	cfg, err := config.LoadWith(o.v, o.cfgFile)
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.logger = logging.New(cfg.Log.Level, logging.Format(cfg.Log.Format))
	return nil
}
