package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved pipeline settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(settings)
			if err != nil {
				return fmt.Errorf("failed to encode settings: %w", err)
			}

			fmt.Printf("# source: %s\n", settingsSource)
			fmt.Print(string(data))

			if len(settings.ExtraEnvVars) > 0 {
				fmt.Printf("# passthrough vars captured: %d\n", len(settings.ExtraEnvVars))
			}
			return nil
		},
	}
}
