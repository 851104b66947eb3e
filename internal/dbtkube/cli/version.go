package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anhhoangdev/dbtkube/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Println(version.GetShortVersion())
				return
			}
			fmt.Print(version.GetLongVersion())
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")
	return cmd
}
