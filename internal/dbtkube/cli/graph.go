package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/anhhoangdev/dbtkube/internal/dbtkube/workflow"
)

func newGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print the analytics pipeline task graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := workflow.AnalyticsPipeline(settings)
			if err != nil {
				return err
			}

			order, err := pipeline.TopologicalOrder()
			if err != nil {
				return err
			}

			header := color.New(color.FgCyan, color.Bold)
			taskName := color.New(color.FgGreen)
			dim := color.New(color.Faint)

			header.Printf("Pipeline: %s\n", pipeline.ID)
			fmt.Printf("Environment: %s\n", settings.Environment)
			fmt.Printf("Schedule: %s  Retries: %d  RetryDelay: %s  MaxActiveRuns: %d\n\n",
				pipeline.Policy.Schedule, pipeline.Policy.Retries,
				pipeline.Policy.RetryDelay, pipeline.Policy.MaxActiveRuns)

			for _, task := range order {
				taskName.Printf("%-22s", task.ID)
				fmt.Printf(" %-16s tier=%-8s", task.Invocation.Command, task.Tier)
				if task.Invocation.Select != "" {
					fmt.Printf(" select=%s", task.Invocation.Select)
				}
				if len(task.Upstream) > 0 {
					dim.Printf("  <- %s", strings.Join(task.Upstream, ", "))
				}
				fmt.Println()
			}
			return nil
		},
	}
}
