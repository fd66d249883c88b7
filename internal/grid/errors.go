package grid

import "errors"

// ErrInvalidInput is wrapped by every validation failure at a call boundary:
// malformed breakpoints, bad thresholds, mismatched lengths.
var ErrInvalidInput = errors.New("invalid input")

// ErrDegenerateGeometry is wrapped when a zero-volume cell is passed where a
// non-degenerate one is required.
var ErrDegenerateGeometry = errors.New("degenerate geometry")
