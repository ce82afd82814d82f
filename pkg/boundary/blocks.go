// Package boundary turns a boundary classification into solver input: it
// generates boundary-condition blocks, applies manual overrides, validates
// the assembled case document, and writes it for the solver setup.
package boundary

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fluxmesh/cfdpipe/pkg/domain"
)

// FlowData carries the initial-condition and fluid metadata merged into the
// solver case. Shape follows the staged initial_data.json document.
type FlowData struct {
	InitialConditions struct {
		Velocity [3]float64 `json:"initial_velocity"`
		Pressure float64    `json:"initial_pressure"`
	} `json:"initial_conditions"`
	FluidProperties      map[string]any `json:"fluid_properties,omitempty"`
	SimulationParameters map[string]any `json:"simulation_parameters,omitempty"`
	NoSlip               bool           `json:"no_slip,omitempty"`
}

// DefaultFlowData returns quiescent initial conditions with no-slip walls.
func DefaultFlowData() FlowData {
	fd := FlowData{NoSlip: true}
	return fd
}

// ReadFlowData decodes a FlowData document from JSON.
func ReadFlowData(r io.Reader) (FlowData, error) {
	var fd FlowData
	dec := json.NewDecoder(r)
	if err := dec.Decode(&fd); err != nil {
		return FlowData{}, fmt.Errorf("decode flow data: %w", err)
	}
	return fd, nil
}

// Block is one boundary-condition block in the solver case. Inlet blocks
// prescribe velocity and pressure (Dirichlet), outlet blocks prescribe a
// pressure gradient (Neumann), wall blocks prescribe zero velocity with an
// optional no-slip constraint.
type Block struct {
	Role     string      `json:"role"`
	Type     string      `json:"type"`
	Surfaces []int       `json:"surfaces"`
	ApplyTo  []string    `json:"apply_to"`
	Velocity *[3]float64 `json:"velocity,omitempty"`
	Pressure *float64    `json:"pressure,omitempty"`
	NoSlip   *bool       `json:"no_slip,omitempty"`
	Comment  string      `json:"comment,omitempty"`
}

var blockComments = map[domain.Label]string{
	domain.Inlet:  "Defines inlet flow parameters for velocity and pressure",
	domain.Outlet: "Defines outlet flow behavior with pressure gradient",
	domain.Wall:   "Defines near-wall flow parameters with no-slip condition",
}

// GenerateBlocks builds one block per non-empty label group, in wire-code
// order. Surface lists come pre-sorted from the classification groups.
func GenerateBlocks(c *domain.Classification, flow FlowData) []Block {
	var blocks []Block
	for _, g := range c.Groups() {
		label := domain.Label(g.Code)
		block := Block{
			Role:     g.Name,
			Surfaces: g.Surfaces,
			Comment:  blockComments[label],
		}
		switch label {
		case domain.Inlet:
			block.Type = "dirichlet"
			block.ApplyTo = []string{"velocity", "pressure"}
			v := flow.InitialConditions.Velocity
			p := flow.InitialConditions.Pressure
			block.Velocity = &v
			block.Pressure = &p
		case domain.Outlet:
			block.Type = "neumann"
			block.ApplyTo = []string{"pressure"}
			p := flow.InitialConditions.Pressure
			block.Pressure = &p
		case domain.Wall:
			block.Type = "dirichlet"
			block.ApplyTo = []string{"velocity"}
			v := [3]float64{}
			block.Velocity = &v
			noSlip := flow.NoSlip
			block.NoSlip = &noSlip
		}
		blocks = append(blocks, block)
	}
	return blocks
}
