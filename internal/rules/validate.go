package rules

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// Validate checks raw rule-file JSON against the embedded CUE schema.
//
// Validation runs before Decode in every loading path: the schema catches
// structural problems (unknown operators, malformed targets, empty rule
// lists) with file positions, while Decode handles the semantic checks the
// schema cannot express (selector syntax, operator arity).
func Validate(data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("rules-schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("rules: compile schema: %w", err)
	}
	fileDef := schema.LookupPath(cue.ParsePath("#File"))
	if err := fileDef.Err(); err != nil {
		return fmt.Errorf("rules: schema is missing #File: %w", err)
	}

	doc := ctx.CompileBytes(data, cue.Filename("rules.json"))
	if err := doc.Err(); err != nil {
		return fmt.Errorf("rules: parse rule file: %s", cueerrors.Details(err, nil))
	}

	if err := fileDef.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("rules: rule file rejected by schema:\n%s", cueerrors.Details(err, nil))
	}
	return nil
}

// Load validates and decodes a rule file in one step.
func Load(data []byte) ([]Rule, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	return Decode(data)
}
