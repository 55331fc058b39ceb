package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/gosuri/uitable"
	"github.com/sdboyer/constext"
	"github.com/spf13/cobra"

	"github.com/cvalka4/cupt/internal/config"
	"github.com/cvalka4/cupt/cupt"
)

// signalContext combines the command's own context with one cancelled on
// SIGINT (os.Interrupt), the way deducers.go combines an inbound and an
// outbound-call context before handing it to a collaborator.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	sigCtx, stop := signal.NotifyContext(parent, os.Interrupt)
	cctx, cancel := constext.Cons(parent, sigCtx)
	return cctx, func() { stop(); cancel() }
}

func newSession() (*cupt.Session, error) {
	if cfg.IndexPath == "" {
		return nil, fmt.Errorf("--index is required")
	}
	u, err := loadUniverse(cfg.IndexPath)
	if err != nil {
		return nil, err
	}

	var c *config.Config
	if cfg.ConfigPath != "" {
		f, err := os.Open(cfg.ConfigPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		c, err = config.Parse(f)
		if err != nil {
			return nil, err
		}
	} else {
		c = defaultConfig()
	}
	c.AutoRemove = c.AutoRemove || cfg.AutoRemove
	c.Engine.AutoRemove = c.Engine.AutoRemove || cfg.AutoRemove

	return cupt.NewSession(u, c, nil)
}

func defaultConfig() *config.Config {
	// built from an empty TOML document so every value comes from the
	// parser's own documented defaults rather than being duplicated here.
	c, _ := config.Parse(emptyReader{})
	return c
}

type emptyReader struct{}

func (emptyReader) Read(p []byte) (int, error) { return 0, io.EOF }

func runResolve(requests []cupt.Request) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	offer, err := s.Resolve(ctx, requests)
	if err != nil {
		return err
	}
	printOffer(offer)
	return nil
}

func printOffer(offer *cupt.Offer) {
	table := uitable.New()
	table.AddRow("PACKAGE", "VERSION", "NOTE")

	names := make([]string, 0, len(offer.Entries))
	for name := range offer.Entries {
		names = append(names, name)
	}
	for _, name := range names {
		entry := offer.Entries[name]
		version := "<removed>"
		if entry.Version != nil {
			version = entry.Version.VersionStr
		}
		note := ""
		if entry.Autoremoved {
			note = yellow("auto-removed")
		} else if entry.Version != nil {
			note = green("kept/installed")
		} else {
			note = red("removed")
		}
		table.AddRow(name, version, note)
	}
	fmt.Println(table)
}

func newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install <package>...",
		Short: "install one or more packages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var requests []cupt.Request
			for _, pkg := range args {
				requests = append(requests, cupt.Request{Kind: cupt.Install, PackageName: pkg})
			}
			return runResolve(requests)
		},
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <package>...",
		Short: "remove one or more packages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var requests []cupt.Request
			for _, pkg := range args {
				requests = append(requests, cupt.Request{Kind: cupt.Remove, PackageName: pkg})
			}
			return runResolve(requests)
		},
	}
}

func newUpgradeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade <package>...",
		Short: "upgrade one or more packages to their best candidate",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var requests []cupt.Request
			for _, pkg := range args {
				requests = append(requests, cupt.Request{Kind: cupt.Upgrade, PackageName: pkg})
			}
			return runResolve(requests)
		},
	}
}

func newSatisfyCmd() *cobra.Command {
	unsatisfy := false
	cmd := &cobra.Command{
		Use:   "satisfy <relation>",
		Short: "require (or, with --remove, forbid) a relation expression to end up satisfied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := cupt.Satisfy
			if unsatisfy {
				kind = cupt.Unsatisfy
			}
			rel, err := parseRelationExpression(args[0])
			if err != nil {
				return err
			}
			return runResolve([]cupt.Request{{Kind: kind, Relation: rel}})
		},
	}
	cmd.Flags().BoolVar(&unsatisfy, "remove", false, "forbid the relation instead of requiring it")
	return cmd
}
