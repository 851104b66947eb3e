package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/anhhoangdev/dbtkube/internal/dbtkube/domain"
	"github.com/anhhoangdev/dbtkube/internal/dbtkube/jobspec"
	"github.com/anhhoangdev/dbtkube/internal/dbtkube/workflow"
)

func newRenderCmd() *cobra.Command {
	var showPod bool

	cmd := &cobra.Command{
		Use:   "render <task-id>",
		Short: "Render the job specification for one pipeline task",
		Long: "Builds the full job specification for a task of the analytics " +
			"pipeline and prints the dbt command, the profiles document, the " +
			"execution script, and optionally the pod manifest.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := workflow.AnalyticsPipeline(settings)
			if err != nil {
				return err
			}

			task, err := pipeline.Task(args[0])
			if err != nil {
				return err
			}

			cfg := jobspec.NewConfig(settings, pipeline.ID).
				ForTier(task.Tier, settings.ResourceTier(task.Tier))
			rc := domain.RunContext{
				RunID:         fmt.Sprintf("render__%s", uuid.NewString()),
				TaskID:        task.ID,
				ExecutionDate: time.Now().UTC(),
			}

			req, err := jobspec.Build(&task.Invocation, cfg, rc)
			if err != nil {
				return err
			}

			section := color.New(color.FgCyan, color.Bold)

			section.Println("# Command")
			fmt.Println(strings.Join(req.Command, " "))

			section.Println("\n# profiles.yml")
			fmt.Println(req.Profiles)

			section.Println("# Execution script")
			fmt.Println(req.Script)

			if showPod {
				section.Println("# Pod manifest")
				manifest, err := json.MarshalIndent(req.ToPod(), "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode pod manifest: %w", err)
				}
				fmt.Println(string(manifest))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showPod, "pod", false, "Also print the full pod manifest")
	return cmd
}
