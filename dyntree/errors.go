package dyntree

import (
	"github.com/pkg/errors"

	"go.viam.com/spatialindex/spatialmath"
)

// Mutations and queries do not return errors. Misuse panics with one of these sentinels wrapped
// with context, so callers that recover can match them with errors.Is.
var (
	// ErrInvalidHandle is raised when a handle does not denote a live object of the tree.
	ErrInvalidHandle = errors.New("invalid or stale handle")
	// ErrInvalidBounds is raised for non-finite or inverted object bounds.
	ErrInvalidBounds = spatialmath.ErrInvalidBounds
	// ErrInvalidRegion is raised for non-finite or inverted query regions.
	ErrInvalidRegion = errors.New("invalid query region")
	// ErrCounterExhausted is raised when a cell has handed out every insertion counter.
	ErrCounterExhausted = errors.New("insertion counter exhausted")
)

func newInvalidConfigError(format string, args ...interface{}) error {
	return errors.Errorf("invalid tree configuration: "+format, args...)
}
