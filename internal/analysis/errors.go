// Package analysis implements the statistical core of the pipeline:
// correlation, cluster assignment, and intensity forecasting over immutable
// observation snapshots.
package analysis

import "errors"

// Engine errors. Callers check these with errors.Is; the orchestrator maps
// them to per-section report statuses instead of failing the whole run.
var (
	ErrInsufficientData    = errors.New("insufficient data")
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrInsufficientHistory = errors.New("insufficient history")
)
