package domain

import "errors"

// Common domain errors
var (
	// ErrEmptySurfaceSet is returned when a classification is requested for
	// a mesh with no boundary surfaces. It aborts the run before any
	// geometry query.
	ErrEmptySurfaceSet = errors.New("empty boundary surface set")

	// ErrGeometryQuery is returned (wrapped) when the geometry collaborator
	// cannot produce a bounding box for a requested entity. A partial
	// classification is never returned in that case.
	ErrGeometryQuery = errors.New("geometry query failed")

	// ErrInvalidOptions is returned when classification options are out of
	// range, e.g. a non-positive epsilon.
	ErrInvalidOptions = errors.New("invalid classification options")

	// ErrCaseInvalid is returned when a generated solver case fails
	// validation before being written.
	ErrCaseInvalid = errors.New("solver case failed validation")
)
