package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/anhhoangdev/dbtkube/internal/dbtkube/cluster"
	"github.com/anhhoangdev/dbtkube/internal/dbtkube/domain"
	"github.com/anhhoangdev/dbtkube/internal/dbtkube/jobspec"
	"github.com/anhhoangdev/dbtkube/internal/dbtkube/workflow"
	"github.com/anhhoangdev/dbtkube/pkg/alert"
)

func newRunCmd() *cobra.Command {
	var kubeconfig string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the analytics pipeline against the cluster",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := workflow.AnalyticsPipeline(settings)
			if err != nil {
				return err
			}

			client, err := newKubernetesClient(kubeconfig)
			if err != nil {
				return err
			}

			var notifier workflow.Notifier
			if settings.EnableSlackAlerts {
				notifier = alert.NewSlackNotifier(settings.SlackWebhookURL)
			}

			executor := workflow.NewExecutor(cluster.NewPodRunner(client), notifier)
			cfg := jobspec.NewConfig(settings, pipeline.ID)
			rc := domain.RunContext{
				RunID:         fmt.Sprintf("manual__%s", uuid.NewString()),
				ExecutionDate: time.Now().UTC(),
			}

			logrus.WithFields(logrus.Fields{
				"pipeline":    pipeline.ID,
				"environment": settings.Environment,
				"run":         rc.RunID,
			}).Info("Starting pipeline run")

			return executor.Execute(cmd.Context(), pipeline, cfg, settings, rc)
		},
	}

	cmd.Flags().StringVar(&kubeconfig, "kubeconfig", "",
		"Path to kubeconfig; in-cluster config is used when empty and available")
	return cmd
}

// newKubernetesClient builds a clientset from, in order: the --kubeconfig
// flag, the in-cluster service account, then the default kubeconfig path.
func newKubernetesClient(kubeconfig string) (kubernetes.Interface, error) {
	var (
		restConfig *rest.Config
		err        error
	)

	switch {
	case kubeconfig != "":
		restConfig, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	default:
		restConfig, err = rest.InClusterConfig()
		if err != nil {
			home, homeErr := os.UserHomeDir()
			if homeErr != nil {
				return nil, fmt.Errorf("failed to locate kubeconfig: %w", homeErr)
			}
			restConfig, err = clientcmd.BuildConfigFromFlags("", filepath.Join(home, ".kube", "config"))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load kubernetes configuration: %w", err)
	}

	return kubernetes.NewForConfig(restConfig)
}
