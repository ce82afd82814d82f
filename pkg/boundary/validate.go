package boundary

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	//nolint:staticcheck // OPA v1 migration pending
	"github.com/open-policy-agent/opa/ast"
	//nolint:staticcheck // OPA v1 migration pending
	"github.com/open-policy-agent/opa/rego"

	"github.com/fluxmesh/cfdpipe/pkg/domain"
)

// caseRego is the validation policy applied to every case document before
// it is written. The label codes are part of the wire contract with the
// solver setup, so structural mistakes here must be caught before the
// solver consumes them.
const caseRego = `package cfdpipe.case

valid_codes := {1, 2, 3}

valid_roles := {"inlet", "outlet", "wall"}

deny contains msg if {
	some g in input.physical_groups
	not g.code in valid_codes
	msg := sprintf("group %q has invalid code %v", [g.name, g.code])
}

deny contains msg if {
	some g in input.physical_groups
	count(g.surfaces) == 0
	msg := sprintf("group %q is empty; empty groups must be omitted", [g.name])
}

deny contains msg if {
	some i, j
	gi := input.physical_groups[i]
	gj := input.physical_groups[j]
	i < j
	some s in gi.surfaces
	s in gj.surfaces
	msg := sprintf("surface %v assigned to both %q and %q", [s, gi.name, gj.name])
}

deny contains msg if {
	some b in input.boundary_conditions
	not b.role in valid_roles
	msg := sprintf("block role %q is not recognized", [b.role])
}

deny contains msg if {
	some b in input.boundary_conditions
	count(b.surfaces) == 0
	msg := sprintf("block %q has no surfaces", [b.role])
}

deny contains msg if {
	some b in input.boundary_conditions
	b.role == "inlet"
	not b.velocity
	msg := "inlet block is missing velocity"
}

deny contains msg if {
	not input.classification.epsilon > 0
	msg := "classification epsilon must be positive"
}
`

// Validator evaluates the embedded case policy. The query is compiled once
// at construction so per-case validation is a plain evaluation.
type Validator struct {
	query rego.PreparedEvalQuery
}

// NewValidator compiles the case validation policy. The policy is written
// in Rego v1 syntax, so it is parsed explicitly with the v1 parser before
// being handed to the evaluator.
func NewValidator(ctx context.Context) (*Validator, error) {
	module, err := ast.ParseModuleWithOpts("case.rego", caseRego, ast.ParserOptions{RegoVersion: ast.RegoV1})
	if err != nil {
		return nil, fmt.Errorf("parse case policy: %w", err)
	}
	query, err := rego.New(
		rego.Query("data.cfdpipe.case.deny"),
		rego.ParsedModule(module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile case policy: %w", err)
	}
	return &Validator{query: query}, nil
}

// Validate checks the case document and returns domain.ErrCaseInvalid
// (wrapped, listing every violation) when the policy denies it.
func (v *Validator) Validate(ctx context.Context, c *Case) error {
	// Round-trip through JSON so the policy sees the exact wire shape.
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode case for validation: %w", err)
	}
	var input any
	if err := json.Unmarshal(raw, &input); err != nil {
		return fmt.Errorf("decode case for validation: %w", err)
	}

	rs, err := v.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return fmt.Errorf("evaluate case policy: %w", err)
	}

	var violations []string
	for _, result := range rs {
		for _, expr := range result.Expressions {
			values, ok := expr.Value.([]any)
			if !ok {
				continue
			}
			for _, value := range values {
				if msg, ok := value.(string); ok {
					violations = append(violations, msg)
				}
			}
		}
	}
	if len(violations) == 0 {
		return nil
	}
	sort.Strings(violations)
	return fmt.Errorf("%w: %s", domain.ErrCaseInvalid, strings.Join(violations, "; "))
}
