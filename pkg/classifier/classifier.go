// Package classifier assigns boundary-condition labels to the boundary
// surfaces of a meshed 3D domain. A surface whose bounding box lies flush
// with the domain's minimum extent along the flow axis becomes the Inlet,
// one flush with the maximum extent becomes the Outlet, and everything
// else is a Wall. The comparison uses an absolute tolerance: flush faces
// in engineering CAD models are designed near-exact, so the slack does not
// scale with model size.
package classifier

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/fluxmesh/cfdpipe/pkg/domain"
	"github.com/fluxmesh/cfdpipe/pkg/geometry"
)

// DefaultEpsilon is the absolute extent tolerance, in model length units.
const DefaultEpsilon = 1e-4

// Options configure one classification run.
type Options struct {
	// Axis is the primary flow direction. Default X.
	Axis domain.Axis
	// Epsilon is the absolute tolerance for extent comparison. Must be
	// positive; zero selects DefaultEpsilon.
	Epsilon float64
	// ReverseFlow flips the flow direction: the inlet is then the face at
	// the maximum extent and the outlet the face at the minimum extent.
	ReverseFlow bool
}

// DefaultOptions returns options for flow along +X with the default
// tolerance.
func DefaultOptions() Options {
	return Options{Axis: domain.AxisX, Epsilon: DefaultEpsilon}
}

// Classifier computes boundary classifications. It holds no state between
// runs; every invocation is independent and deterministic for a fixed
// surface iteration order.
type Classifier struct {
	log zerolog.Logger
}

// New returns a Classifier logging through the given logger.
func New(log zerolog.Logger) *Classifier {
	return &Classifier{log: log.With().Str("component", "classifier").Logger()}
}

// Classify partitions every boundary surface of the model into exactly one
// of the Inlet/Outlet/Wall groups.
//
// The inlet test is evaluated strictly before the outlet test: a surface
// satisfying both proximity conditions (degenerate, zero-thickness domain)
// is classified Inlet, never Outlet. Wall is the exhaustive fallback, so
// the result covers every surface in the input set. Any geometry-query
// failure aborts the run with no partial result; a silently missing
// classification would miscount boundary types downstream.
func (c *Classifier) Classify(model geometry.Model, opts Options) (*domain.Classification, error) {
	if opts.Epsilon == 0 {
		opts.Epsilon = DefaultEpsilon
	}
	if opts.Epsilon < 0 {
		return nil, fmt.Errorf("%w: epsilon %g must be positive", domain.ErrInvalidOptions, opts.Epsilon)
	}

	tags := model.BoundarySurfaces()
	if len(tags) == 0 {
		return nil, domain.ErrEmptySurfaceSet
	}

	// The whole-domain box is queried against the full entity set in one
	// call, never accumulated incrementally from per-surface boxes.
	total, err := model.BoundingBox()
	if err != nil {
		return nil, fmt.Errorf("domain bounding box: %w", err)
	}
	minTotal := total.Min(opts.Axis)
	maxTotal := total.Max(opts.Axis)

	result := &domain.Classification{
		Axis:    opts.Axis,
		Epsilon: opts.Epsilon,
		Labels:  make(map[int]domain.Label, len(tags)),
	}

	for _, tag := range tags {
		box, err := model.BoundingBox(tag)
		if err != nil {
			return nil, fmt.Errorf("surface %d bounding box: %w", tag, err)
		}

		// Strict comparison: a surface exactly epsilon away is a Wall.
		nearMin := math.Abs(box.Min(opts.Axis)-minTotal) < opts.Epsilon
		nearMax := math.Abs(box.Max(opts.Axis)-maxTotal) < opts.Epsilon

		inletHit, outletHit := nearMin, nearMax
		if opts.ReverseFlow {
			inletHit, outletHit = nearMax, nearMin
		}

		switch {
		case inletHit:
			if outletHit {
				result.Ambiguous = append(result.Ambiguous, tag)
				c.log.Warn().
					Int("surface", tag).
					Str("axis", opts.Axis.String()).
					Float64("epsilon", opts.Epsilon).
					Msg("surface matches both inlet and outlet extents; inlet wins")
			}
			result.Labels[tag] = domain.Inlet
		case outletHit:
			result.Labels[tag] = domain.Outlet
		default:
			result.Labels[tag] = domain.Wall
		}
	}

	c.log.Debug().
		Int("surfaces", result.SurfaceCount()).
		Int("inlet", result.Count(domain.Inlet)).
		Int("outlet", result.Count(domain.Outlet)).
		Int("wall", result.Count(domain.Wall)).
		Msg("classification complete")

	return result, nil
}
