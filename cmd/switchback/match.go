package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/collection"
)

func matchCmd(src *source) *cobra.Command {
	return &cobra.Command{
		Use:   "match METHOD PATH [MANIFEST...]",
		Short: "Match a request to a route",
		Long: `Match a request to a route of the given manifests or,
when none are given, of the stored snapshot.

Exits non-zero when no route matches.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := src.collection(cmd.Context(), args[2:])
			if err != nil {
				return err
			}

			o := c.Match(args[0], args[1])
			w := cmd.OutOrStdout()
			switch o.Kind {
			case collection.Matched:
				fmt.Fprintf(w, "%s %s\n", color.GreenString(o.Kind.String()), o.Route.Path)
				fmt.Fprintf(w, "  name:   %s\n", o.Route.Name)
				fmt.Fprintf(w, "  target: %s\n", o.Route.Target)
				for _, capture := range o.Captures {
					if capture.Present {
						fmt.Fprintf(w, "  %s = %q\n", capture.Param.Name, capture.Raw)
					}
				}

				return nil
			case collection.MethodNotAllowed:
				fmt.Fprintf(w, "%s allowed: %s\n", color.YellowString(o.Kind.String()), strings.Join(o.Allowed, ", "))
			default:
				fmt.Fprintln(w, color.RedString(o.Kind.String()))
			}

			return fmt.Errorf("%w: %s %s", switchback.ErrNotExist, strings.ToUpper(args[0]), args[1])
		},
	}
}
