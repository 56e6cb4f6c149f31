package bootstrap

import "errors"

var (
	// ErrAlignmentMismatch is returned when true and predicted label
	// vectors (or their crop/week companions) differ in length.
	ErrAlignmentMismatch = errors.New("alignment mismatch")

	// ErrInvalidArgument is returned for a non-positive resample count,
	// an empty stratum or a missing random source.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmptyResultSet reports that no strata were produced. It is a
	// warning condition: callers still receive an empty ResultTable.
	ErrEmptyResultSet = errors.New("empty result set")
)
