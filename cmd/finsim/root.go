package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jmtruffa/finsim/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:               "finsim",
		Short:             "Financial calculations: NPV, IRR, loans, retirement, compounding and dated cash flows",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a config file (yaml, json or toml)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level, overrides log.level")

	cmd.AddCommand(
		a.newNPVCmd(),
		a.newIRRCmd(),
		a.newLoanCmd(),
		a.newRetirementCmd(),
		a.newCompoundCmd(),
		a.newXNPVCmd(),
		a.newServeCmd(),
		a.newSeedCmd(),
	)
	return cmd
}

// setup loads the configuration and puts the logger into the command context.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.Log.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	logger, err := newLogger(cmd.ErrOrStderr(), level, cfg.Log.Pretty)
	if err != nil {
		return err
	}
	a.logger = logger
	cmd.SetContext(logger.WithContext(cmd.Context()))
	return nil
}

func newLogger(w io.Writer, level string, pretty bool) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if w == nil {
		w = os.Stderr
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}
