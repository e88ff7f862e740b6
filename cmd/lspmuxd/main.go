package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Version information, overridden at build time via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lspmuxd",
		Short: "LSP multiplexing daemon",
		Long: color.CyanString("lspmuxd") + ` multiplexes one or more Language Server Protocol
child processes behind a single long-lived daemon, so a driving tool can
ask for symbols, references, renames and call hierarchies across many
workspaces without re-speaking the LSP handshake on every call.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}
