// Package geometry provides the geometry-query side of the pipeline: an
// abstract mesh model interface and concrete implementations for the mesh
// formats the pipeline stages. The interface keeps the classifier decoupled
// from any particular meshing kernel, so backends can be swapped without
// touching the classification policy.
package geometry

import "github.com/fluxmesh/cfdpipe/pkg/domain"

// Model is a meshed 3D domain exposing the two queries the classifier
// needs: enumeration of all boundary-surface entity tags (dimension 2),
// and the axis-aligned bounding box of an arbitrary tag set.
type Model interface {
	// BoundarySurfaces returns the tags of all boundary surfaces, sorted
	// ascending. The returned slice is owned by the caller.
	BoundarySurfaces() []int

	// BoundingBox computes the bounding box of the given surfaces. With no
	// tags it covers the entire entity set at once; the whole-domain box is
	// queried directly rather than accumulated from per-surface boxes, so
	// it carries no float-accumulation drift. It fails with a
	// domain.ErrGeometryQuery-wrapped error when a tag is unknown or the
	// referenced entity has no geometry.
	BoundingBox(tags ...int) (domain.BoundingBox, error)
}

// NormalModel extends Model with an orientation query, for classification
// strategies that label faces by their outward normal instead of their
// extent.
type NormalModel interface {
	Model

	// SurfaceNormal returns the unit outward normal of the surface. A
	// degenerate surface yields the zero vector without error; unknown
	// tags fail with a domain.ErrGeometryQuery-wrapped error.
	SurfaceNormal(tag int) ([3]float64, error)
}
