package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var log = logrus.New()

func main() {
	cmd, err := newRootCmd(os.Args[1:])
	if err != nil {
		log.WithError(err).Error("failed to build command tree")
		os.Exit(1)
	}

	cobra.OnInitialize(func() {})

	if err := cmd.Execute(); err != nil {
		log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

var (
	red    = color.New(color.FgRed).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)
