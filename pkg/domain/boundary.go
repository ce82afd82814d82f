package domain

import "fmt"

// Label is a boundary-condition category assigned to a boundary surface.
//
// The integer values are a stable wire format: the downstream solver setup
// reads these codes from the emitted case file. They must never be
// renumbered.
type Label int

const (
	Inlet  Label = 1 // flow entry face
	Outlet Label = 2 // flow exit face
	Wall   Label = 3 // no-penetration boundary (default)
)

// Labels lists all labels in wire-code order.
func Labels() []Label {
	return []Label{Inlet, Outlet, Wall}
}

// Code returns the stable integer wire code for the label.
func (l Label) Code() int {
	return int(l)
}

// String returns the lower-case label name used in case files and overrides.
func (l Label) String() string {
	switch l {
	case Inlet:
		return "inlet"
	case Outlet:
		return "outlet"
	case Wall:
		return "wall"
	}
	return fmt.Sprintf("label(%d)", int(l))
}

// ParseLabel converts a label name ("inlet", "outlet", "wall") into a Label.
func ParseLabel(s string) (Label, error) {
	switch s {
	case "inlet":
		return Inlet, nil
	case "outlet":
		return Outlet, nil
	case "wall":
		return Wall, nil
	}
	return 0, fmt.Errorf("unknown boundary label %q", s)
}
