package domain

import (
	"fmt"
	"strings"
)

// Axis identifies one of the three model axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// String returns the lower-case axis name ("x", "y", "z").
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return fmt.Sprintf("axis(%d)", int(a))
}

// ParseAxis converts an axis name into an Axis. It accepts "x", "y", "z"
// in any case.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	case "z":
		return AxisZ, nil
	}
	return AxisX, fmt.Errorf("unknown axis %q (want x, y or z)", s)
}

// BoundingBox is the minimal axis-aligned box containing a set of geometric
// entities, in model length units. Invariant: Min <= Max on each axis.
// A BoundingBox is immutable once computed; geometry queries produce a fresh
// value per call.
type BoundingBox struct {
	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
}

// Min returns the lower extent along the given axis.
func (b BoundingBox) Min(a Axis) float64 {
	switch a {
	case AxisY:
		return b.MinY
	case AxisZ:
		return b.MinZ
	}
	return b.MinX
}

// Max returns the upper extent along the given axis.
func (b BoundingBox) Max(a Axis) float64 {
	switch a {
	case AxisY:
		return b.MaxY
	case AxisZ:
		return b.MaxZ
	}
	return b.MaxX
}

// Valid reports whether Min <= Max holds on every axis.
func (b BoundingBox) Valid() bool {
	return b.MinX <= b.MaxX && b.MinY <= b.MaxY && b.MinZ <= b.MaxZ
}
