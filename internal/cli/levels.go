package cli

import (
	"github.com/spf13/cobra"

	"github.com/SplicePHP/cakephp/log"
)

func levelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "levels",
		Short: "Print the severity level table",
		Long: `Print the RFC 5424 severity levels in order of urgency, most
severe first. The numeric code is what the syslog engine emits; the
name is what configuration files use.`,
		Run: func(cmd *cobra.Command, _ []string) {
			for code, name := range log.Levels() {
				cmd.Printf("%d  %s\n", code, name)
			}
		},
	}
}
