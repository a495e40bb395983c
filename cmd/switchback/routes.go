package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func routesCmd(src *source) *cobra.Command {
	return &cobra.Command{
		Use:   "routes [MANIFEST...]",
		Short: "List routes",
		Long: `List the routes of the given manifests or,
when none are given, of the stored snapshot.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := src.collection(cmd.Context(), args)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "METHODS\tPATH\tNAME\tTARGET")
			for _, d := range c.Routes() {
				path := d.Path
				if d.Secure {
					path += " (secure)"
				}

				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", strings.Join(d.Methods, ","), path, d.Name, d.Target)
			}

			if ids := c.Deferred(); len(ids) > 0 {
				fmt.Fprintln(w)
				fmt.Fprintln(w, "DEFERRED")
				for _, id := range ids {
					fmt.Fprintln(w, id)
				}
			}

			return w.Flush()
		},
	}
}
