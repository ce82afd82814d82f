package classifier

import (
	"fmt"
	"math"

	"github.com/fluxmesh/cfdpipe/pkg/domain"
	"github.com/fluxmesh/cfdpipe/pkg/geometry"
)

// DefaultNormalThreshold is the minimum absolute value of the dominant
// normal component for a face to count as axis-aligned.
const DefaultNormalThreshold = 0.95

// NormalOptions configure one normal-based classification run.
type NormalOptions struct {
	// Axis is the primary flow direction. Default X.
	Axis domain.Axis
	// Threshold is the alignment cutoff in (0, 1]; zero selects
	// DefaultNormalThreshold. A face whose dominant normal component falls
	// below it is a Wall regardless of direction.
	Threshold float64
	// ReverseFlow flips the flow direction: the inlet is then the face
	// whose normal points toward the positive axis direction.
	ReverseFlow bool
}

// ClassifyByNormals labels each boundary surface by the orientation of its
// outward normal instead of its extent. A face counts as axis-aligned when
// the dominant component of its unit normal meets the alignment threshold;
// an aligned face on the flow axis pointing toward the negative direction
// is the Inlet and one pointing positive is the Outlet (swapped under
// reverse flow). Faces below the threshold, and aligned faces on the other
// two axes, are Walls.
//
// Like the extent strategy, a geometry-query failure aborts the run with
// no partial result, and the result covers every surface in the input set.
// The applied threshold is recorded in the result's Epsilon field.
func (c *Classifier) ClassifyByNormals(model geometry.NormalModel, opts NormalOptions) (*domain.Classification, error) {
	if opts.Threshold == 0 {
		opts.Threshold = DefaultNormalThreshold
	}
	if opts.Threshold < 0 || opts.Threshold > 1 {
		return nil, fmt.Errorf("%w: normal threshold %g must be in (0, 1]", domain.ErrInvalidOptions, opts.Threshold)
	}

	tags := model.BoundarySurfaces()
	if len(tags) == 0 {
		return nil, domain.ErrEmptySurfaceSet
	}

	result := &domain.Classification{
		Axis:    opts.Axis,
		Epsilon: opts.Threshold,
		Labels:  make(map[int]domain.Label, len(tags)),
	}

	for _, tag := range tags {
		normal, err := model.SurfaceNormal(tag)
		if err != nil {
			return nil, fmt.Errorf("surface %d normal: %w", tag, err)
		}

		dominant := 0
		for i := 1; i < 3; i++ {
			if math.Abs(normal[i]) > math.Abs(normal[dominant]) {
				dominant = i
			}
		}
		component := normal[dominant]

		// Strict comparison: a face exactly at the threshold is aligned.
		switch {
		case math.Abs(component) < opts.Threshold:
			result.Labels[tag] = domain.Wall
		case dominant != int(opts.Axis):
			result.Labels[tag] = domain.Wall
		case (component < 0) != opts.ReverseFlow:
			result.Labels[tag] = domain.Inlet
		default:
			result.Labels[tag] = domain.Outlet
		}
	}

	c.log.Debug().
		Str("strategy", "normals").
		Int("surfaces", result.SurfaceCount()).
		Int("inlet", result.Count(domain.Inlet)).
		Int("outlet", result.Count(domain.Outlet)).
		Int("wall", result.Count(domain.Wall)).
		Msg("classification complete")

	return result, nil
}
