package classifier

import (
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/fluxmesh/cfdpipe/pkg/domain"
	"github.com/fluxmesh/cfdpipe/pkg/geometry"
)

// meshWithBoxes builds a mesh with one single-triangle surface per entry,
// spanning exactly the given extents.
func meshWithBoxes(t require.TestingT, boxes map[int]domain.BoundingBox) *geometry.TriangleMesh {
	m := geometry.NewTriangleMesh()
	for tag, b := range boxes {
		a := m.AddVertex(b.MinX, b.MinY, b.MinZ)
		c := m.AddVertex(b.MaxX, b.MaxY, b.MinZ)
		d := m.AddVertex(b.MinX, b.MaxY, b.MaxZ)
		require.NoError(t, m.AddTriangle(tag, a, c, d))
	}
	return m
}

func newTestClassifier() *Classifier {
	return New(zerolog.Nop())
}

// A straight duct with X extents [0,10]: the flush faces become inlet and
// outlet, everything between is a wall.
func TestClassify_FlushFaces(t *testing.T) {
	mesh := meshWithBoxes(t, map[int]domain.BoundingBox{
		1: {MinX: 0, MaxX: 0, MaxY: 1, MaxZ: 1},   // flush with Xmin
		2: {MinX: 10, MaxX: 10, MaxY: 1, MaxZ: 1}, // flush with Xmax
		3: {MinX: 3, MaxX: 7, MaxY: 1, MaxZ: 1},   // interior side surface
	})

	result, err := newTestClassifier().Classify(mesh, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, domain.Inlet, result.Labels[1])
	assert.Equal(t, domain.Outlet, result.Labels[2])
	assert.Equal(t, domain.Wall, result.Labels[3])
	assert.Empty(t, result.Ambiguous)
}

// A zero-thickness domain makes every flush surface match both extents;
// the inlet test runs first, so Inlet wins.
func TestClassify_InletPrecedenceOnDegenerateDomain(t *testing.T) {
	mesh := meshWithBoxes(t, map[int]domain.BoundingBox{
		4: {MinX: 0, MaxX: 0, MaxY: 1, MaxZ: 1},
	})

	result, err := newTestClassifier().Classify(mesh, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, domain.Inlet, result.Labels[4])
	assert.Equal(t, []int{4}, result.Ambiguous)
}

// The tolerance is strict: exactly epsilon away is a Wall, anything
// closer is an Inlet.
func TestClassify_ToleranceBoundary(t *testing.T) {
	mesh := meshWithBoxes(t, map[int]domain.BoundingBox{
		1: {MinX: 0, MaxX: 0, MaxY: 1, MaxZ: 1},
		2: {MinX: 10, MaxX: 10, MaxY: 1, MaxZ: 1},
		3: {MinX: 1e-4, MaxX: 1e-4, MaxY: 1, MaxZ: 1}, // exactly epsilon from Xmin
		4: {MinX: 9e-5, MaxX: 9e-5, MaxY: 1, MaxZ: 1}, // inside epsilon
	})

	result, err := newTestClassifier().Classify(mesh, Options{Axis: domain.AxisX, Epsilon: 1e-4})
	require.NoError(t, err)

	assert.Equal(t, domain.Wall, result.Labels[3], "surface exactly epsilon away must stay a wall")
	assert.Equal(t, domain.Inlet, result.Labels[4])
}

func TestClassify_ReverseFlowSwapsFaces(t *testing.T) {
	mesh := meshWithBoxes(t, map[int]domain.BoundingBox{
		1: {MinX: 0, MaxX: 0, MaxY: 1, MaxZ: 1},
		2: {MinX: 10, MaxX: 10, MaxY: 1, MaxZ: 1},
	})

	result, err := newTestClassifier().Classify(mesh, Options{Axis: domain.AxisX, Epsilon: 1e-4, ReverseFlow: true})
	require.NoError(t, err)

	assert.Equal(t, domain.Outlet, result.Labels[1])
	assert.Equal(t, domain.Inlet, result.Labels[2])
}

func TestClassify_OtherAxis(t *testing.T) {
	mesh := meshWithBoxes(t, map[int]domain.BoundingBox{
		1: {MinY: 0, MaxY: 0, MaxX: 1, MaxZ: 1},
		2: {MinY: 5, MaxY: 5, MaxX: 1, MaxZ: 1},
		3: {MinY: 1, MaxY: 4, MaxX: 1, MaxZ: 1},
	})

	result, err := newTestClassifier().Classify(mesh, Options{Axis: domain.AxisY, Epsilon: 1e-4})
	require.NoError(t, err)

	assert.Equal(t, domain.Inlet, result.Labels[1])
	assert.Equal(t, domain.Outlet, result.Labels[2])
	assert.Equal(t, domain.Wall, result.Labels[3])
}

// An empty surface set aborts before any geometry query.
func TestClassify_EmptySurfaceSet(t *testing.T) {
	_, err := newTestClassifier().Classify(geometry.NewTriangleMesh(), DefaultOptions())
	assert.ErrorIs(t, err, domain.ErrEmptySurfaceSet)
}

func TestClassify_NegativeEpsilonRejected(t *testing.T) {
	mesh := meshWithBoxes(t, map[int]domain.BoundingBox{1: {MaxX: 1, MaxY: 1, MaxZ: 1}})
	_, err := newTestClassifier().Classify(mesh, Options{Epsilon: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidOptions)
}

// failingModel wraps a Model and fails the per-surface query for one tag.
type failingModel struct {
	geometry.Model
	failTag int
}

func (f *failingModel) BoundingBox(tags ...int) (domain.BoundingBox, error) {
	for _, tag := range tags {
		if tag == f.failTag {
			return domain.BoundingBox{}, domain.ErrGeometryQuery
		}
	}
	return f.Model.BoundingBox(tags...)
}

// A failing geometry query aborts the whole run with no partial mapping.
func TestClassify_GeometryQueryFailureAborts(t *testing.T) {
	mesh := meshWithBoxes(t, map[int]domain.BoundingBox{
		1: {MinX: 0, MaxX: 0, MaxY: 1, MaxZ: 1},
		2: {MinX: 10, MaxX: 10, MaxY: 1, MaxZ: 1},
	})

	result, err := newTestClassifier().Classify(&failingModel{Model: mesh, failTag: 2}, DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrGeometryQuery))
	assert.Nil(t, result)
}

func TestClassify_GroupsOmitEmpty(t *testing.T) {
	mesh := meshWithBoxes(t, map[int]domain.BoundingBox{
		1: {MinX: 0, MaxX: 4, MaxY: 1, MaxZ: 1},
		2: {MinX: 4, MaxX: 8, MaxY: 1, MaxZ: 1},
	})

	// Tight epsilon relative to nothing flush on the min face with an
	// offset: shift the domain so no surface is flush at min.
	result, err := newTestClassifier().Classify(mesh, Options{Axis: domain.AxisY, Epsilon: 1e-4})
	require.NoError(t, err)

	// Along Y every surface spans [0,1], flush at both ends: all Inlet.
	groups := result.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].Code)
	assert.Equal(t, "inlet", groups[0].Name)
	assert.Equal(t, []int{1, 2}, groups[0].Surfaces)
}

// Property checks over randomly generated surface boxes: completeness,
// label validity, determinism, and agreement with an independent
// recomputation of the extent tests (including inlet precedence).
func TestClassify_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 40).Draw(t, "surfaces")
		epsilon := rapid.Float64Range(1e-6, 0.5).Draw(t, "epsilon")

		boxes := make(map[int]domain.BoundingBox, n)
		for tag := 1; tag <= n; tag++ {
			a := rapid.Float64Range(0, 10).Draw(t, "a")
			b := rapid.Float64Range(0, 10).Draw(t, "b")
			lo, hi := math.Min(a, b), math.Max(a, b)
			boxes[tag] = domain.BoundingBox{MinX: lo, MaxX: hi, MaxY: 1, MaxZ: 1}
		}
		mesh := meshWithBoxes(t, boxes)

		opts := Options{Axis: domain.AxisX, Epsilon: epsilon}
		result, err := newTestClassifier().Classify(mesh, opts)
		if err != nil {
			t.Fatalf("classify: %v", err)
		}

		// Completeness: one label per surface, no surface dropped.
		if result.SurfaceCount() != n {
			t.Fatalf("got %d labels for %d surfaces", result.SurfaceCount(), n)
		}

		// Determinism: a second run over identical input is identical.
		again, err := newTestClassifier().Classify(mesh, opts)
		if err != nil {
			t.Fatalf("second classify: %v", err)
		}
		for tag, label := range result.Labels {
			if again.Labels[tag] != label {
				t.Fatalf("surface %d: %v then %v", tag, label, again.Labels[tag])
			}
		}

		// Oracle: recompute the extent tests from the raw boxes.
		minTotal, maxTotal := math.Inf(1), math.Inf(-1)
		for _, b := range boxes {
			minTotal = math.Min(minTotal, b.MinX)
			maxTotal = math.Max(maxTotal, b.MaxX)
		}
		for tag, b := range boxes {
			var want domain.Label
			switch {
			case math.Abs(b.MinX-minTotal) < epsilon:
				want = domain.Inlet
			case math.Abs(b.MaxX-maxTotal) < epsilon:
				want = domain.Outlet
			default:
				want = domain.Wall
			}
			if got := result.Labels[tag]; got != want {
				t.Fatalf("surface %d: got %v want %v", tag, got, want)
			}
		}

		// Exclusivity: derived groups never share a surface.
		seen := make(map[int]bool)
		for _, g := range result.Groups() {
			if len(g.Surfaces) == 0 {
				t.Fatalf("empty group %q emitted", g.Name)
			}
			for _, tag := range g.Surfaces {
				if seen[tag] {
					t.Fatalf("surface %d appears in more than one group", tag)
				}
				seen[tag] = true
			}
		}
		if len(seen) != n {
			t.Fatalf("groups cover %d surfaces, want %d", len(seen), n)
		}
	})
}
