// Package cli implements the cakelog command-line interface using cobra.
package cli

import (
	"github.com/spf13/cobra"

	// Engine packages register their types on import so configuration
	// files can name them.
	_ "github.com/SplicePHP/cakephp/log/engine"
	_ "github.com/SplicePHP/cakephp/log/engine/otlplog"
	_ "github.com/SplicePHP/cakephp/log/engine/sentrylog"
	_ "github.com/SplicePHP/cakephp/log/engine/sqlitelog"
	_ "github.com/SplicePHP/cakephp/log/engine/wslog"
)

// Build metadata, set at build time via ldflags.
var (
	Version   = "0.1.0-dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Execute runs the root command.
func Execute() error {
	return rootCmd().Execute()
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cakelog",
		Short: "Dispatch log entries to level and scope filtered sinks",
		Long: `Cakelog dispatches structured log entries to named sink engines.
Each sink declares which severity levels and scopes it accepts; entries
fan out to every sink whose filters match.

Quick start:
  cakelog levels
  cakelog check --config log.yaml
  tail -f app.log | cakelog run --config log.yaml --level info`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		runCmd(),
		checkCmd(),
		levelsCmd(),
		versionCmd(),
	)

	return cmd
}
