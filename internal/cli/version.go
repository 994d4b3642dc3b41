package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version and build information",
		Long: `Display cakelog version, build date, commit hash, and Go version.

The build metadata is injected via ldflags; plain "go build" shows
default values.`,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("cakelog version %s\n", Version)
			cmd.Printf("  build date: %s\n", BuildDate)
			cmd.Printf("  git commit: %s\n", GitCommit)
			cmd.Printf("  go version: %s\n", runtime.Version())
		},
	}
}
