package errors

import (
	"errors"
)

// ErrorCategory groups errors by the kind of problem they represent.
type ErrorCategory string

const (
	CategorySpecification ErrorCategory = "specification"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryCluster       ErrorCategory = "cluster"
	CategoryTimeout       ErrorCategory = "timeout"
	CategoryConflict      ErrorCategory = "conflict"
	CategoryCanceled      ErrorCategory = "canceled"
	CategoryUnknown       ErrorCategory = "unknown"
)

// ErrorSeverity ranks how serious an error is.
type ErrorSeverity string

const (
	SeverityHigh   ErrorSeverity = "high"
	SeverityMedium ErrorSeverity = "medium"
	SeverityLow    ErrorSeverity = "low"
)

// ClassifiedError is an error with its category, severity, and whether a
// retry can possibly succeed.
type ClassifiedError struct {
	Err       error
	Category  ErrorCategory
	Severity  ErrorSeverity
	Retryable bool
	UserMsg   string
}

func (e *ClassifiedError) Error() string {
	return e.Err.Error()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// ClassifyError classifies an error based on its type and sentinels.
// Specification and configuration errors never retry; resubmitting the same
// invalid input cannot succeed. Pod failures and startup timeouts may be
// transient and do.
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	switch {
	case IsContextError(err):
		return &ClassifiedError{
			Err:       err,
			Category:  CategoryCanceled,
			Severity:  SeverityLow,
			Retryable: false,
			UserMsg:   "The run was canceled.",
		}

	case IsSpecificationError(err):
		return &ClassifiedError{
			Err:       err,
			Category:  CategorySpecification,
			Severity:  SeverityHigh,
			Retryable: false,
			UserMsg:   "The task definition is invalid. Fix the invocation and rebuild the graph.",
		}

	case IsConfigError(err) || errors.Is(err, ErrInvalidConfig):
		return &ClassifiedError{
			Err:       err,
			Category:  CategoryConfiguration,
			Severity:  SeverityHigh,
			Retryable: false,
			UserMsg:   "Configuration error. Check the pipeline settings.",
		}

	case errors.Is(err, ErrStartupTimeout):
		return &ClassifiedError{
			Err:       err,
			Category:  CategoryTimeout,
			Severity:  SeverityMedium,
			Retryable: true,
			UserMsg:   "The pod did not start in time. The cluster may be under pressure.",
		}

	case errors.Is(err, ErrRunInProgress):
		return &ClassifiedError{
			Err:       err,
			Category:  CategoryConflict,
			Severity:  SeverityLow,
			Retryable: false,
			UserMsg:   "A pipeline run is already active. Wait for it to finish.",
		}

	case IsClusterError(err) || IsSubmitError(err):
		return &ClassifiedError{
			Err:       err,
			Category:  CategoryCluster,
			Severity:  SeverityMedium,
			Retryable: true,
			UserMsg:   "The job failed in the cluster. Check the pod logs.",
		}

	default:
		return &ClassifiedError{
			Err:       err,
			Category:  CategoryUnknown,
			Severity:  SeverityMedium,
			Retryable: false,
			UserMsg:   "An unexpected error occurred.",
		}
	}
}

// IsRetryable reports whether resubmitting the failed work can possibly
// succeed.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return ClassifyError(err).Retryable
}
