package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/David-Botos/data-transform/pkg/connector"
	"github.com/David-Botos/data-transform/pkg/store"
	"github.com/David-Botos/data-transform/pkg/transform"
)

// ErrVerification marks a clean table that does not match the computed dataset
var ErrVerification = errors.New("verification failed")

// ErrorCategory defines categories of errors during a run
type ErrorCategory int

const (
	ErrorCategoryNone ErrorCategory = iota
	ErrorCategorySourceUnavailable
	ErrorCategorySchema
	ErrorCategorySinkWrite
	ErrorCategoryVerification
	ErrorCategoryCanceled
	ErrorCategoryUnknown
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategorySourceUnavailable:
		return "SourceUnavailable"
	case ErrorCategorySchema:
		return "Schema"
	case ErrorCategorySinkWrite:
		return "SinkWrite"
	case ErrorCategoryVerification:
		return "Verification"
	case ErrorCategoryCanceled:
		return "Canceled"
	case ErrorCategoryUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// CategorizeError determines the category of an error from the sentinels it wraps
func CategorizeError(err error) ErrorCategory {
	switch {
	case err == nil:
		return ErrorCategoryNone
	case errors.Is(err, store.ErrSourceUnavailable):
		return ErrorCategorySourceUnavailable
	case errors.Is(err, transform.ErrSchema):
		return ErrorCategorySchema
	case errors.Is(err, store.ErrSinkWrite):
		return ErrorCategorySinkWrite
	case errors.Is(err, ErrVerification):
		return ErrorCategoryVerification
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorCategoryCanceled
	default:
		return ErrorCategoryUnknown
	}
}

// StageError is the single failure reported for a run. It names the stage
// that failed; no later stage was started.
type StageError struct {
	Stage    string
	Category ErrorCategory
	Err      error
}

// NewStageError categorizes err and attributes it to a stage
func NewStageError(stage string, err error) *StageError {
	return &StageError{
		Stage:    stage,
		Category: CategorizeError(err),
		Err:      err,
	}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed [%s]: %v", e.Stage, e.Category, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewConnectStageError attributes a failure to open the source or sink to
// the stage that needed it: an unreachable source is SourceUnavailable, an
// unusable sink is SinkWrite
func NewConnectStageError(stage string, err error) *StageError {
	sentinel := store.ErrSourceUnavailable
	var connErr *connector.ConnectError
	if errors.As(err, &connErr) && connErr.Role == connector.RoleSink {
		sentinel = store.ErrSinkWrite
	}
	return NewStageError(stage, fmt.Errorf("%w: %w", sentinel, err))
}
