package domain

import "sort"

// Classification is the result of one boundary-classification run: exactly
// one Label per boundary surface tag. It is computed fresh per invocation
// and never mutated by the classifier after being returned, except through
// explicit override application.
type Classification struct {
	// Axis is the flow axis the classification was computed along.
	Axis Axis
	// Epsilon is the tolerance the strategy applied: the absolute extent
	// tolerance for extent classification, the alignment threshold for
	// normal classification.
	Epsilon float64
	// Labels maps every boundary surface tag to its label. The map always
	// covers the full input surface set (closed-world classification).
	Labels map[int]Label
	// Ambiguous lists surfaces whose bounding box satisfied both the inlet
	// and the outlet proximity test. They are labelled Inlet (precedence
	// contract) and reported here for visibility.
	Ambiguous []int
}

// Group is a named collection of surface tags sharing one label, exposed to
// the downstream solver configuration under the label's wire code.
type Group struct {
	Code     int    `json:"code"`
	Name     string `json:"name"`
	Surfaces []int  `json:"surfaces"`
}

// Groups derives the per-label surface groups in wire-code order. Surface
// tags within a group are sorted ascending. Labels with no member surfaces
// are omitted entirely; the downstream consumer treats an absent code as
// "no surfaces of that type".
func (c *Classification) Groups() []Group {
	byLabel := make(map[Label][]int, 3)
	for tag, label := range c.Labels {
		byLabel[label] = append(byLabel[label], tag)
	}

	groups := make([]Group, 0, len(byLabel))
	for _, label := range Labels() {
		tags := byLabel[label]
		if len(tags) == 0 {
			continue
		}
		sort.Ints(tags)
		groups = append(groups, Group{
			Code:     label.Code(),
			Name:     label.String(),
			Surfaces: tags,
		})
	}
	return groups
}

// Count returns the number of surfaces carrying the given label.
func (c *Classification) Count(label Label) int {
	n := 0
	for _, l := range c.Labels {
		if l == label {
			n++
		}
	}
	return n
}

// SurfaceCount returns the total number of classified surfaces.
func (c *Classification) SurfaceCount() int {
	return len(c.Labels)
}
