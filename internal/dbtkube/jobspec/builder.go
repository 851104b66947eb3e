package jobspec

import (
	"sort"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/anhhoangdev/dbtkube/internal/dbtkube/domain"
	"github.com/anhhoangdev/dbtkube/internal/dbtkube/k8s"
	"github.com/anhhoangdev/dbtkube/pkg/errors"
)

// JobRequest is the fully resolved output of the builder: everything the
// cluster needs to run one dbt command. Derived deterministically from
// (Invocation, Config, RunContext) and never persisted.
type JobRequest struct {
	Name      string
	Namespace string

	Image           string
	ImagePullPolicy string

	// Command is the assembled dbt argument vector. The pod runs Script,
	// which embeds the same command; Command is kept for introspection and
	// rendering.
	Command  []string
	Profiles string
	Script   string

	Env          map[string]string
	Volumes      []corev1.Volume
	Mounts       []corev1.VolumeMount
	Resources    corev1.ResourceRequirements
	Labels       map[string]string
	NodeSelector map[string]string
	Tolerations  []corev1.Toleration

	// AutoCleanup deletes the pod after it reaches a terminal phase.
	AutoCleanup bool
	// StreamLogs forwards container logs to the submitting process.
	StreamLogs bool

	StartupTimeoutSeconds int
}

// ExtraVolume pairs a volume with its mount for task-specific additions
// beyond the fixed project volume.
type ExtraVolume struct {
	Volume corev1.Volume
	Mount  corev1.VolumeMount
}

// Build produces the JobRequest for one invocation. It fails only on
// structurally invalid input; runtime failures (connectivity, dbt exit
// codes, scheduling) belong to the cluster layer.
func Build(inv *domain.Invocation, cfg *Config, rc domain.RunContext, extras ...ExtraVolume) (*JobRequest, error) {
	if err := inv.Validate(); err != nil {
		return nil, errors.WrapBuildError(rc.TaskID, "validate", err)
	}

	command := CommandArgs(inv, cfg.ProfilesDir)

	profiles, err := RenderProfiles(inv, cfg, rc)
	if err != nil {
		return nil, errors.WrapBuildError(rc.TaskID, "render-profiles", err)
	}

	script, err := RenderScript(command, profiles, cfg)
	if err != nil {
		return nil, errors.WrapBuildError(rc.TaskID, "render-script", err)
	}

	projectVolume, projectMount := k8s.HostPathVolume(
		cfg.DbtVolumeName, cfg.DbtVolumeHostPath, cfg.ProjectDir,
		false, corev1.HostPathDirectory,
	)
	volumes := []corev1.Volume{projectVolume}
	mounts := []corev1.VolumeMount{projectMount}
	for _, extra := range extras {
		volumes = append(volumes, extra.Volume)
		mounts = append(mounts, extra.Mount)
	}

	return &JobRequest{
		Name:                  PodName(inv.Select, rc.TimestampToken()),
		Namespace:             cfg.Namespace,
		Image:                 cfg.Image,
		ImagePullPolicy:       cfg.ImagePullPolicy,
		Command:               command,
		Profiles:              profiles,
		Script:                script,
		Env:                   BuildEnvironment(inv, cfg, rc),
		Volumes:               volumes,
		Mounts:                mounts,
		Resources:             k8s.Resources(cfg.Resources.CPURequest, cfg.Resources.CPULimit, cfg.Resources.MemoryRequest, cfg.Resources.MemoryLimit),
		Labels:                k8s.MonitoringLabels(cfg.PipelineID, rc.TaskID, cfg.Environment, "dbt"),
		NodeSelector:          k8s.NodeSelector(cfg.Environment, cfg.Tier),
		Tolerations:           k8s.Tolerations(cfg.Environment, cfg.Tier),
		AutoCleanup:           true,
		StreamLogs:            true,
		StartupTimeoutSeconds: StartupTimeoutSeconds,
	}, nil
}

// ToPod converts the request into the corev1.Pod submitted to the cluster.
// The container runs the script through a shell; the dbt command line lives
// inside the script.
func (r *JobRequest) ToPod() *corev1.Pod {
	env := make([]corev1.EnvVar, 0, len(r.Env))
	for _, name := range sortedEnvKeys(r.Env) {
		env = append(env, corev1.EnvVar{Name: name, Value: r.Env[name]})
	}

	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      r.Name,
			Namespace: r.Namespace,
			Labels:    r.Labels,
		},
		Spec: corev1.PodSpec{
			RestartPolicy: corev1.RestartPolicyNever,
			NodeSelector:  r.NodeSelector,
			Tolerations:   r.Tolerations,
			Volumes:       r.Volumes,
			Containers: []corev1.Container{{
				Name:            "dbt",
				Image:           r.Image,
				ImagePullPolicy: corev1.PullPolicy(r.ImagePullPolicy),
				Command:         []string{"bash", "-c"},
				Args:            []string{r.Script},
				Env:             env,
				VolumeMounts:    r.Mounts,
				Resources:       r.Resources,
			}},
		},
	}
}

func sortedEnvKeys(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
