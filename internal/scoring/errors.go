// Package scoring implements the statistical scores used to rank rated items:
// min-max rescaling, segment weighted averages, count-confidence ratings,
// Bayesian ordinal lower bounds and Wilson lower bounds.
//
// Every function is pure and safe for concurrent use.
package scoring

import "errors"

var (
	// ErrInvalidRange indicates a target range whose minimum is not below its maximum.
	ErrInvalidRange = errors.New("scoring: invalid target range")
	// ErrInvalidInput indicates malformed input such as negative counts or empty sequences.
	ErrInvalidInput = errors.New("scoring: invalid input")
)
