// Package cli implements the dbtkube command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/anhhoangdev/dbtkube/pkg/config"
)

var (
	settings       *config.Settings
	settingsSource string

	envOverride string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "dbtkube",
	Short: "dbtkube - dbt analytics pipelines on Kubernetes",
	Long: "dbtkube builds and runs dbt task graphs as Kubernetes pods, " +
		"wiring each task to a Kyuubi/Spark thrift endpoint.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Version needs no resolved settings.
		if cmd.Name() == "version" {
			return
		}

		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid log level %q\n", logLevel)
			os.Exit(1)
		}
		logrus.SetLevel(level)

		settings, settingsSource, err = config.Resolve(envOverride)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envOverride, "env", "",
		"Environment tag (dev, staging, prod); defaults to DATA_PLATFORM_ENV")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newGraphCmd())
	rootCmd.AddCommand(newRenderCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
}
