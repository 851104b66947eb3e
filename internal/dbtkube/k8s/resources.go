// Package k8s provides pure constructors for the Kubernetes descriptors the
// job spec builder composes: resource requirements, volume/mount pairs, and
// the standard monitoring labels. Every function is total over its inputs
// and returns structurally identical output for identical arguments.
package k8s

import (
	"sort"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
)

// SecretDefaultMode is the file permission mask applied to secret-backed
// volumes unless the caller overrides it.
const SecretDefaultMode int32 = 0o600

// Resources builds a ResourceRequirements from quantity strings. Inputs are
// expected to be valid k8s quantities ("250m", "2Gi"); invalid strings parse
// as zero rather than failing.
func Resources(cpuRequest, cpuLimit, memoryRequest, memoryLimit string) corev1.ResourceRequirements {
	return corev1.ResourceRequirements{
		Requests: corev1.ResourceList{
			corev1.ResourceCPU:    parseQuantity(cpuRequest),
			corev1.ResourceMemory: parseQuantity(memoryRequest),
		},
		Limits: corev1.ResourceList{
			corev1.ResourceCPU:    parseQuantity(cpuLimit),
			corev1.ResourceMemory: parseQuantity(memoryLimit),
		},
	}
}

func parseQuantity(s string) resource.Quantity {
	q, err := resource.ParseQuantity(s)
	if err != nil {
		return resource.Quantity{}
	}
	return q
}

// HostPathVolume builds a host-path volume and its matching mount.
func HostPathVolume(name, hostPath, mountPath string, readOnly bool, pathType corev1.HostPathType) (corev1.Volume, corev1.VolumeMount) {
	volume := corev1.Volume{
		Name: name,
		VolumeSource: corev1.VolumeSource{
			HostPath: &corev1.HostPathVolumeSource{
				Path: hostPath,
				Type: &pathType,
			},
		},
	}
	mount := corev1.VolumeMount{
		Name:      name,
		MountPath: mountPath,
		ReadOnly:  readOnly,
	}
	return volume, mount
}

// SecretVolume builds a secret-backed volume and mount. The mount is always
// read-only; files default to mode 0600.
func SecretVolume(name, secretName, mountPath string) (corev1.Volume, corev1.VolumeMount) {
	mode := SecretDefaultMode
	volume := corev1.Volume{
		Name: name,
		VolumeSource: corev1.VolumeSource{
			Secret: &corev1.SecretVolumeSource{
				SecretName:  secretName,
				DefaultMode: &mode,
			},
		},
	}
	mount := corev1.VolumeMount{
		Name:      name,
		MountPath: mountPath,
		ReadOnly:  true,
	}
	return volume, mount
}

// ConfigMapVolume builds a configmap-backed volume and mount. When items is
// non-empty, only the named keys are projected, each to its relative path;
// otherwise the whole configmap is mounted. The mount is read-only.
func ConfigMapVolume(name, configMapName, mountPath string, items map[string]string) (corev1.Volume, corev1.VolumeMount) {
	var keyPaths []corev1.KeyToPath
	if len(items) > 0 {
		keyPaths = make([]corev1.KeyToPath, 0, len(items))
		for _, key := range sortedKeys(items) {
			keyPaths = append(keyPaths, corev1.KeyToPath{Key: key, Path: items[key]})
		}
	}

	volume := corev1.Volume{
		Name: name,
		VolumeSource: corev1.VolumeSource{
			ConfigMap: &corev1.ConfigMapVolumeSource{
				LocalObjectReference: corev1.LocalObjectReference{Name: configMapName},
				Items:                keyPaths,
			},
		},
	}
	mount := corev1.VolumeMount{
		Name:      name,
		MountPath: mountPath,
		ReadOnly:  true,
	}
	return volume, mount
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
