// Package cluster submits built job requests to Kubernetes and tracks them
// to a terminal phase.
package cluster

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes"

	"github.com/anhhoangdev/dbtkube/internal/dbtkube/jobspec"
	"github.com/anhhoangdev/dbtkube/pkg/errors"
)

const pollInterval = 2 * time.Second

// PodRunner creates pods from job requests and waits for them to finish.
type PodRunner struct {
	client kubernetes.Interface
	logger *logrus.Entry
}

// NewPodRunner creates a runner over the given clientset.
func NewPodRunner(client kubernetes.Interface) *PodRunner {
	return &PodRunner{
		client: client,
		logger: logrus.WithField("component", "pod-runner"),
	}
}

// Run submits the request and blocks until the pod reaches a terminal
// phase. The pod must leave Pending within the request's startup timeout.
// When AutoCleanup is set the pod is deleted afterward regardless of
// outcome. Returns ErrPodFailed when the pod finishes in the Failed phase.
func (r *PodRunner) Run(ctx context.Context, req *jobspec.JobRequest) error {
	log := r.logger.WithFields(logrus.Fields{"pod": req.Name, "namespace": req.Namespace})

	pod := req.ToPod()
	if _, err := r.client.CoreV1().Pods(req.Namespace).Create(ctx, pod, metav1.CreateOptions{}); err != nil {
		return errors.WrapSubmitError(req.Name, "create", err)
	}
	log.Info("Pod submitted")

	if req.AutoCleanup {
		defer r.cleanup(req)
	}

	if err := r.waitForStartup(ctx, req); err != nil {
		return err
	}

	if req.StreamLogs {
		r.streamLogs(ctx, req, log)
	}

	phase, err := r.waitForCompletion(ctx, req)
	if err != nil {
		return err
	}

	if phase == corev1.PodFailed {
		log.Error("Pod finished in failed phase")
		return errors.WrapSubmitError(req.Name, "execute", errors.ErrPodFailed)
	}

	log.Info("Pod completed")
	return nil
}

// waitForStartup waits for the pod to leave Pending within the startup
// timeout.
func (r *PodRunner) waitForStartup(ctx context.Context, req *jobspec.JobRequest) error {
	timeout := time.Duration(req.StartupTimeoutSeconds) * time.Second

	err := wait.PollUntilContextTimeout(ctx, pollInterval, timeout, true,
		func(ctx context.Context) (bool, error) {
			pod, err := r.client.CoreV1().Pods(req.Namespace).Get(ctx, req.Name, metav1.GetOptions{})
			if err != nil {
				return false, err
			}
			return pod.Status.Phase != corev1.PodPending, nil
		})
	if err != nil {
		if ctx.Err() != nil {
			return errors.WrapSubmitError(req.Name, "startup", ctx.Err())
		}
		return errors.WrapSubmitError(req.Name, "startup",
			fmt.Errorf("%w: pod still pending after %s", errors.ErrStartupTimeout, timeout))
	}
	return nil
}

// waitForCompletion waits for a terminal phase. No separate deadline; the
// caller's context bounds the wait.
func (r *PodRunner) waitForCompletion(ctx context.Context, req *jobspec.JobRequest) (corev1.PodPhase, error) {
	var phase corev1.PodPhase

	err := wait.PollUntilContextCancel(ctx, pollInterval, true,
		func(ctx context.Context) (bool, error) {
			pod, err := r.client.CoreV1().Pods(req.Namespace).Get(ctx, req.Name, metav1.GetOptions{})
			if err != nil {
				return false, err
			}
			phase = pod.Status.Phase
			return phase == corev1.PodSucceeded || phase == corev1.PodFailed, nil
		})
	if err != nil {
		return "", errors.WrapSubmitError(req.Name, "await-completion", err)
	}
	return phase, nil
}

// streamLogs follows the container logs and forwards them line by line.
// Log streaming failures do not fail the run; the pod outcome decides that.
func (r *PodRunner) streamLogs(ctx context.Context, req *jobspec.JobRequest, log *logrus.Entry) {
	stream, err := r.client.CoreV1().Pods(req.Namespace).
		GetLogs(req.Name, &corev1.PodLogOptions{Follow: true}).
		Stream(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to stream pod logs")
		return
	}
	defer stream.Close()

	scanner := bufio.NewScanner(stream)
	for scanner.Scan() {
		log.Info(scanner.Text())
	}
}

// cleanup deletes the pod with a fresh context so a canceled run still
// removes it.
func (r *PodRunner) cleanup(req *jobspec.JobRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := r.client.CoreV1().Pods(req.Namespace).Delete(ctx, req.Name, metav1.DeleteOptions{}); err != nil {
		r.logger.WithError(err).WithField("pod", req.Name).Warn("Failed to delete pod")
	}
}
