package boundary

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/fluxmesh/cfdpipe/pkg/domain"
)

// Overrides maps a boundary label to the surface tags that should carry it
// regardless of what the classifier decided. Loaded from a YAML document of
// the form:
//
//	inlet: [101, 102]
//	outlet: [203]
type Overrides map[domain.Label][]int

// LoadOverrides reads an override file. A missing file is not an error and
// yields an empty set, so the override path can be configured
// unconditionally.
func LoadOverrides(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Overrides{}, nil
		}
		return nil, fmt.Errorf("read overrides %s: %w", path, err)
	}
	return ParseOverrides(data)
}

// ParseOverrides decodes override YAML. Unknown label names are rejected:
// a typo silently dropping an override would defeat its purpose.
func ParseOverrides(data []byte) (Overrides, error) {
	var raw map[string][]int
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse overrides: %w", err)
	}

	overrides := make(Overrides, len(raw))
	for name, tags := range raw {
		label, err := domain.ParseLabel(name)
		if err != nil {
			return nil, fmt.Errorf("overrides: %w", err)
		}
		overrides[label] = append(overrides[label], tags...)
	}
	return overrides, nil
}

// Apply reassigns the labels of the listed surfaces in place. Surfaces the
// classification does not know are logged and skipped: the classification
// must keep covering exactly the input surface set. Shadowed assignments
// (the surface already carried a different label) are logged for
// visibility.
func (o Overrides) Apply(c *domain.Classification, log zerolog.Logger) {
	for _, label := range domain.Labels() {
		for _, tag := range o[label] {
			prev, ok := c.Labels[tag]
			if !ok {
				log.Warn().Int("surface", tag).Str("label", label.String()).
					Msg("override references unknown surface; skipped")
				continue
			}
			if prev != label {
				log.Info().Int("surface", tag).
					Str("from", prev.String()).Str("to", label.String()).
					Msg("override shadows classified label")
			}
			c.Labels[tag] = label
		}
	}
}
