package geometry

import (
	"fmt"
	"math"
	"sort"

	"github.com/fluxmesh/cfdpipe/pkg/domain"
)

// TriangleMesh is an in-memory Model backed by a shared vertex pool and
// per-surface triangle lists. Surfaces are identified by opaque integer
// tags, mirroring how meshing kernels expose dimension-2 entities.
type TriangleMesh struct {
	vertices [][3]float64
	// surfaces maps a tag to a flat list of vertex indices, three per
	// triangle.
	surfaces map[int][]int
	names    map[int]string
}

// NewTriangleMesh returns an empty mesh.
func NewTriangleMesh() *TriangleMesh {
	return &TriangleMesh{
		surfaces: make(map[int][]int),
		names:    make(map[int]string),
	}
}

// AddVertex appends a vertex and returns its index.
func (m *TriangleMesh) AddVertex(x, y, z float64) int {
	m.vertices = append(m.vertices, [3]float64{x, y, z})
	return len(m.vertices) - 1
}

// AddTriangle attaches a triangle to the surface with the given tag,
// creating the surface if needed. Vertex indices must already exist.
func (m *TriangleMesh) AddTriangle(tag, i, j, k int) error {
	n := len(m.vertices)
	for _, idx := range []int{i, j, k} {
		if idx < 0 || idx >= n {
			return fmt.Errorf("triangle on surface %d references missing vertex %d (have %d)", tag, idx, n)
		}
	}
	m.surfaces[tag] = append(m.surfaces[tag], i, j, k)
	return nil
}

// SetSurfaceName records a human-readable name for a surface tag.
func (m *TriangleMesh) SetSurfaceName(tag int, name string) {
	m.names[tag] = name
}

// SurfaceName returns the recorded name for a tag, or "".
func (m *TriangleMesh) SurfaceName(tag int) string {
	return m.names[tag]
}

// BoundarySurfaces implements Model.
func (m *TriangleMesh) BoundarySurfaces() []int {
	tags := make([]int, 0, len(m.surfaces))
	for tag := range m.surfaces {
		tags = append(tags, tag)
	}
	sort.Ints(tags)
	return tags
}

// BoundingBox implements Model. The box is recomputed on every call; boxes
// are never cached across runs.
func (m *TriangleMesh) BoundingBox(tags ...int) (domain.BoundingBox, error) {
	if len(tags) == 0 {
		tags = m.BoundarySurfaces()
	}

	box := domain.BoundingBox{
		MinX: math.Inf(1), MinY: math.Inf(1), MinZ: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1), MaxZ: math.Inf(-1),
	}

	seen := 0
	for _, tag := range tags {
		indices, ok := m.surfaces[tag]
		if !ok {
			return domain.BoundingBox{}, fmt.Errorf("%w: unknown surface %d", domain.ErrGeometryQuery, tag)
		}
		if len(indices) == 0 {
			return domain.BoundingBox{}, fmt.Errorf("%w: surface %d has no geometry", domain.ErrGeometryQuery, tag)
		}
		for _, idx := range indices {
			v := m.vertices[idx]
			box.MinX = math.Min(box.MinX, v[0])
			box.MinY = math.Min(box.MinY, v[1])
			box.MinZ = math.Min(box.MinZ, v[2])
			box.MaxX = math.Max(box.MaxX, v[0])
			box.MaxY = math.Max(box.MaxY, v[1])
			box.MaxZ = math.Max(box.MaxZ, v[2])
			seen++
		}
	}

	if seen == 0 {
		return domain.BoundingBox{}, fmt.Errorf("%w: no entities selected", domain.ErrGeometryQuery)
	}
	return box, nil
}

// SurfaceNormal implements NormalModel. The result is the area-weighted
// average unit normal over the surface's triangles, using the stored
// winding order; a degenerate surface (zero total area) yields the zero
// vector.
func (m *TriangleMesh) SurfaceNormal(tag int) ([3]float64, error) {
	indices, ok := m.surfaces[tag]
	if !ok {
		return [3]float64{}, fmt.Errorf("%w: unknown surface %d", domain.ErrGeometryQuery, tag)
	}
	if len(indices) == 0 {
		return [3]float64{}, fmt.Errorf("%w: surface %d has no geometry", domain.ErrGeometryQuery, tag)
	}

	var sum [3]float64
	for i := 0; i+2 < len(indices); i += 3 {
		a := m.vertices[indices[i]]
		b := m.vertices[indices[i+1]]
		c := m.vertices[indices[i+2]]
		u := [3]float64{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
		v := [3]float64{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
		// The raw cross product has twice the triangle area as its length,
		// so summing it area-weights the average.
		sum[0] += u[1]*v[2] - u[2]*v[1]
		sum[1] += u[2]*v[0] - u[0]*v[2]
		sum[2] += u[0]*v[1] - u[1]*v[0]
	}

	norm := math.Sqrt(sum[0]*sum[0] + sum[1]*sum[1] + sum[2]*sum[2])
	if norm == 0 {
		return [3]float64{}, nil
	}
	return [3]float64{sum[0] / norm, sum[1] / norm, sum[2] / norm}, nil
}
