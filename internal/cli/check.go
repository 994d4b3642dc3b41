package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/SplicePHP/cakephp/log"
	"github.com/SplicePHP/cakephp/log/conf"
)

func checkCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a sink configuration file",
		Long: `Validate a sink configuration file and print the resolved sinks.

Examples:
  cakelog check --config log.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := conf.Load(configFile)
			if err != nil {
				return err
			}
			if err := f.Validate(log.EngineTypes()); err != nil {
				return err
			}

			cmd.Println("Config validation: OK")
			for _, sink := range f.Sinks {
				cmd.Printf("  %-20s type=%-10s levels=%s scopes=%s\n",
					sink.Name, sink.Config.Type,
					formatLevels(sink.Config.Levels),
					formatScopes(sink.Config.Scopes))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "sink configuration file to validate")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func formatLevels(levels []log.Level) string {
	if len(levels) == 0 {
		return "all"
	}
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = l.String()
	}
	return strings.Join(names, ",")
}

func formatScopes(scopes []string) string {
	if len(scopes) == 0 {
		return "all"
	}
	return strings.Join(scopes, ",")
}
