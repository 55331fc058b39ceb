package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cvalka4/cupt/cupt"
	"github.com/cvalka4/cupt/internal/resolver"
)

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <package>...",
		Short: "resolve an install request and print the ordered action plan",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			var requests []cupt.Request
			for _, pkg := range args {
				requests = append(requests, cupt.Request{Kind: cupt.Install, PackageName: pkg})
			}

			ctx, cancel := signalContext(context.Background())
			defer cancel()

			offer, err := s.Resolve(ctx, requests)
			if err != nil {
				return err
			}

			fmt.Println(cupt.RenderDiff(s.Universe, offer))

			plan, err := s.BuildPlan(offer)
			if err != nil {
				return err
			}
			for i, group := range plan.Groups {
				fmt.Printf("group %d:\n", i)
				for _, node := range group {
					fmt.Printf("  %s %s\n", node.Action, node.PackageName)
				}
			}
			return nil
		},
	}
}

// parseRelationExpression parses a single "name (op version)" clause, with
// no "|" alternative support — good enough for the CLI's own demo/testing
// use, matching the same scope as the JSON universe loader.
func parseRelationExpression(s string) (resolver.RelationExpression, error) {
	s = strings.TrimSpace(s)
	name := s
	var op resolver.Op
	var version string

	if i := strings.IndexByte(s, '('); i >= 0 {
		name = strings.TrimSpace(s[:i])
		constraint := strings.TrimSuffix(strings.TrimSpace(s[i+1:]), ")")
		parts := strings.Fields(constraint)
		if len(parts) != 2 {
			return resolver.RelationExpression{}, errors.Errorf("malformed version constraint %q", constraint)
		}
		var err error
		op, err = resolver.ParseOp(parts[0])
		if err != nil {
			return resolver.RelationExpression{}, err
		}
		version = parts[1]
	}

	return resolver.RelationExpression{Alternatives: []resolver.Relation{{PackageName: name, Op: op, Version: version}}}, nil
}
