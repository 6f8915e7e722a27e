package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a scene, a rule file, a
// frame count, and assertions over the resulting world and mutation trace.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Scene is the inline scene file, verbatim JSON.
	Scene string `yaml:"scene"`

	// Rules is the inline rule file, verbatim JSON.
	Rules string `yaml:"rules"`

	// Frames is the number of frames to run. Must be at least 1.
	Frames int `yaml:"frames"`

	// Delta is the per-frame delta time in seconds.
	// Zero defaults to 1/60.
	Delta float64 `yaml:"delta,omitempty"`

	// Assertions validate the final world state and the mutation trace.
	// Supported types: property_equals, has_tag, selector_count, mutation_count
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates final state or the mutation trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "property_equals": an entity's property has an exact value
	// - "has_tag": an entity carries (or with expect=false, lacks) a tag
	// - "selector_count": a selector resolves to exactly N entities
	// - "mutation_count": the trace holds exactly N events, optionally
	//   restricted to one frame
	Type string `yaml:"type"`

	// ID is the entity's stable id (property_equals, has_tag).
	ID string `yaml:"id,omitempty"`

	// Property is the property key (property_equals). Case-insensitive.
	Property string `yaml:"property,omitempty"`

	// Value is the expected property value (property_equals).
	// Numbers, booleans, and strings per the scalar model.
	Value any `yaml:"value,omitempty"`

	// Tag is the tag name (has_tag).
	Tag string `yaml:"tag,omitempty"`

	// Expect inverts has_tag when false. Defaults to true.
	Expect *bool `yaml:"expect,omitempty"`

	// Selector is the selector text, "#tag" or a bare id (selector_count).
	Selector string `yaml:"selector,omitempty"`

	// Count is the expected cardinality (selector_count, mutation_count).
	Count int `yaml:"count"`

	// Frame restricts mutation_count to one frame when non-nil.
	Frame *uint64 `yaml:"frame,omitempty"`
}

// Assertion type constants.
const (
	AssertPropertyEquals = "property_equals"
	AssertHasTag         = "has_tag"
	AssertSelectorCount  = "selector_count"
	AssertMutationCount  = "mutation_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation
// (catches typos like "assertion:" vs "assertions:").
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Scene == "" {
		return fmt.Errorf("scene is required")
	}

	if s.Rules == "" {
		return fmt.Errorf("rules is required")
	}

	if s.Frames < 1 {
		return fmt.Errorf("frames must be at least 1")
	}

	if s.Delta < 0 {
		return fmt.Errorf("delta must not be negative")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertPropertyEquals:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for property_equals", index)
		}
		if a.Property == "" {
			return fmt.Errorf("assertions[%d]: property is required for property_equals", index)
		}
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for property_equals", index)
		}
	case AssertHasTag:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for has_tag", index)
		}
		if a.Tag == "" {
			return fmt.Errorf("assertions[%d]: tag is required for has_tag", index)
		}
	case AssertSelectorCount:
		if a.Selector == "" {
			return fmt.Errorf("assertions[%d]: selector is required for selector_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for selector_count", index)
		}
	case AssertMutationCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for mutation_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
