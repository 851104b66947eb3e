// Package errors provides standardized error handling for the dbtkube system.
// It implements structured error types with proper wrapping and classification
// following Go 1.20+ error handling best practices.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// Specification errors - fatal at graph-construction time
	ErrUnknownCommand    = errors.New("unknown dbt command")
	ErrInvalidInvocation = errors.New("invalid invocation")
	ErrInvalidJobSpec    = errors.New("invalid job specification")

	// Pipeline errors
	ErrUnknownTask      = errors.New("task not found in pipeline")
	ErrDuplicateTask    = errors.New("task already declared in pipeline")
	ErrDependencyCycle  = errors.New("pipeline dependency cycle")
	ErrRunInProgress    = errors.New("pipeline run already in progress")
	ErrUpstreamNotFound = errors.New("upstream task not found")

	// Cluster errors
	ErrPodFailed      = errors.New("pod execution failed")
	ErrStartupTimeout = errors.New("pod startup timed out")

	// System errors
	ErrInvalidConfig = errors.New("invalid configuration")
)

// BuildError represents an error while building a job specification
type BuildError struct {
	Task      string
	Operation string
	Err       error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("jobspec %s: operation %s: %v", e.Task, e.Operation, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// PipelineError represents an error related to pipeline assembly or execution
type PipelineError struct {
	Pipeline  string
	Operation string
	Err       error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline %s: operation %s: %v", e.Pipeline, e.Operation, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// SubmitError represents an error submitting or running a pod on the cluster
type SubmitError struct {
	Pod       string
	Operation string
	Err       error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("pod %s: operation %s: %v", e.Pod, e.Operation, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// ConfigError represents an error related to configuration
type ConfigError struct {
	Component string
	Field     string
	Err       error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config %s.%s: %v", e.Component, e.Field, e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Component, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Error wrapping constructors
func WrapBuildError(task, operation string, err error) error {
	if err == nil {
		return nil
	}
	return &BuildError{Task: task, Operation: operation, Err: err}
}

func WrapPipelineError(pipeline, operation string, err error) error {
	if err == nil {
		return nil
	}
	return &PipelineError{Pipeline: pipeline, Operation: operation, Err: err}
}

func WrapSubmitError(pod, operation string, err error) error {
	if err == nil {
		return nil
	}
	return &SubmitError{Pod: pod, Operation: operation, Err: err}
}

func WrapConfigError(component, field string, err error) error {
	if err == nil {
		return nil
	}
	return &ConfigError{Component: component, Field: field, Err: err}
}

// Error classification functions
func IsBuildError(err error) bool {
	var be *BuildError
	return errors.As(err, &be)
}

func IsPipelineError(err error) bool {
	var pe *PipelineError
	return errors.As(err, &pe)
}

func IsSubmitError(err error) bool {
	var se *SubmitError
	return errors.As(err, &se)
}

func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsSpecificationError reports whether the error was caused by a structurally
// invalid invocation, as opposed to a runtime failure inside the cluster.
func IsSpecificationError(err error) bool {
	return errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, ErrInvalidInvocation) ||
		errors.Is(err, ErrInvalidJobSpec)
}

// IsClusterError reports whether the error surfaced from pod execution.
func IsClusterError(err error) bool {
	return errors.Is(err, ErrPodFailed) || errors.Is(err, ErrStartupTimeout)
}

// Error extraction helpers
func GetTask(err error) (string, bool) {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Task, true
	}
	return "", false
}

func GetPod(err error) (string, bool) {
	var se *SubmitError
	if errors.As(err, &se) {
		return se.Pod, true
	}
	return "", false
}

// NewConfigError wraps a validation failure so it carries both the
// ConfigError context and the ErrInvalidConfig sentinel.
func NewConfigError(component, field string, err error) error {
	return WrapConfigError(component, field, fmt.Errorf("%w: %v", ErrInvalidConfig, err))
}

// Context-aware error handling
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
