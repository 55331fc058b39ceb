package main

import (
	"errors"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var globalUsage = `Usage: cupt command

A dependency resolver and action planner for Debian-family package
universes.
`

type settings struct {
	ConfigPath  string
	IndexPath   string
	CachePath   string
	PinFile     string
	NoColors    bool
	AutoRemove  bool
}

var cfg settings

func newRootCmd(args []string) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:          "cupt",
		Short:        "A dependency resolver for Debian-family package universes",
		Long:         globalUsage,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfg.ConfigPath, "config", "", "path to a cupt.toml configuration file")
	flags.StringVar(&cfg.IndexPath, "index", "", "path to a package index snapshot")
	flags.StringVar(&cfg.CachePath, "cache", "", "path to a persistent index cache file")
	flags.StringVar(&cfg.PinFile, "pin-file", "", "path to an apt-preferences-style pin preferences file")
	flags.BoolVar(&cfg.NoColors, "no-colors", false, "disable colorized output")
	flags.BoolVar(&cfg.AutoRemove, "auto-remove", false, "remove packages left unreachable after resolving")

	cmd.AddCommand(
		newInstallCmd(),
		newRemoveCmd(),
		newSatisfyCmd(),
		newUpgradeCmd(),
		newPlanCmd(),
	)

	flags.ParseErrorsWhitelist.UnknownFlags = true
	if err := flags.Parse(args); err != nil && !errors.Is(err, pflag.ErrHelp) {
		return nil, err
	}

	if cfg.NoColors {
		color.NoColor = true
	}

	return cmd, nil
}
