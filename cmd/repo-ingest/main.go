// Package main provides the repo-ingest CLI: one-off ingestion runs, the
// HTTP/MCP service and collection status.
package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bull/repo-ingest/internal/config"
)

// Version is injected at build time.
var Version = "dev"

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	if err := Execute(Version, args[1:], os.Stdout); err != nil {
		exit(1)
	}
}

// Execute builds the command tree and runs it with args, extracted for testing.
func Execute(version string, args []string, out io.Writer) error {
	rootCmd := &cobra.Command{
		Use:          "repo-ingest",
		Short:        "Index GitHub repositories into vector collections",
		Long:         "Crawls a GitHub repository, splits its source files into chunks, embeds them and stores the vectors in one collection per repository.",
		Version:      version,
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.SetOut(out)

	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newRunCmd(),
		newServeCmd(version),
		newStatusCmd(),
	)

	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}
