package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xy-planning-network/switchback/store"
)

func compileCmd(src *source) *cobra.Command {
	return &cobra.Command{
		Use:   "compile MANIFEST...",
		Short: "Compile manifests into a snapshot",
		Long: `Compile the routes of every manifest into one snapshot
and save it to the snapshot store.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := compile(args)
			if err != nil {
				return err
			}

			st, done, err := src.store()
			if err != nil {
				return err
			}
			defer done()

			if err := store.Save(cmd.Context(), st, src.key, c); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s compiled %d routes into %s\n", color.GreenString("✓"), len(c.Routes()), src.key)
			return nil
		},
	}
}
