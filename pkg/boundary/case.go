package boundary

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fluxmesh/cfdpipe/pkg/domain"
)

// Case is the solver-input document consumed by the boundary-condition
// setup. Group codes are the stable 1/2/3 wire format; empty groups are
// never emitted.
type Case struct {
	Classification       CaseClassification `json:"classification"`
	PhysicalGroups       []domain.Group     `json:"physical_groups"`
	BoundaryConditions   []Block            `json:"boundary_conditions"`
	FluidProperties      map[string]any     `json:"fluid_properties,omitempty"`
	SimulationParameters map[string]any     `json:"simulation_parameters,omitempty"`
}

// CaseClassification records how the groups were derived.
type CaseClassification struct {
	Axis     string  `json:"axis"`
	Epsilon  float64 `json:"epsilon"`
	Surfaces int     `json:"surfaces"`
}

// BuildCase merges the classification with the staged flow data into the
// final case document.
func BuildCase(c *domain.Classification, flow FlowData) *Case {
	return &Case{
		Classification: CaseClassification{
			Axis:     c.Axis.String(),
			Epsilon:  c.Epsilon,
			Surfaces: c.SurfaceCount(),
		},
		PhysicalGroups:       c.Groups(),
		BoundaryConditions:   GenerateBlocks(c, flow),
		FluidProperties:      flow.FluidProperties,
		SimulationParameters: flow.SimulationParameters,
	}
}

// WriteCase writes the case document as indented JSON, creating parent
// directories as needed.
func WriteCase(path string, c *Case) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create case directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode case: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write case %s: %w", path, err)
	}
	return nil
}

// ReadCase loads a case document written by WriteCase.
func ReadCase(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case %s: %w", path, err)
	}
	var c Case
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode case %s: %w", path, err)
	}
	return &c, nil
}
