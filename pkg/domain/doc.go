// Package domain defines the core types shared across the pipeline.
//
// This package contains pure domain logic with no dependencies beyond the
// Go standard library and uuid. All types in this package are:
//
// - Independent of infrastructure (no geometry kernel, HTTP, or solver coupling)
// - Stable wire contracts (boundary label codes are read by the solver setup)
// - Testable in isolation without mocks
//
// Other packages (geometry, classifier, boundary, pipeline) implement the
// behaviour and depend on these types, never the other way around.
package domain
