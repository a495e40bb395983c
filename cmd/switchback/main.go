// Command switchback compiles route manifests into snapshots and inspects them.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var src source

	root := &cobra.Command{
		Use:   "switchback",
		Short: "Compile and inspect switchback routes",
		Long: `switchback compiles YAML and TOML route manifests into snapshots
and inspects the routes of a manifest or snapshot.

Snapshots are kept in files under --dir or in Redis at --redis,
under --key.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	src.flags(root)
	root.AddCommand(
		compileCmd(&src),
		routesCmd(&src),
		matchCmd(&src),
		versionCmd(),
	)

	return root
}
