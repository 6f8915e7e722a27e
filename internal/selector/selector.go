// Package selector resolves declarative entity predicates - "by tag" or
// "by id" - against reverse indices maintained from component lifecycle
// events.
package selector

import (
	"fmt"
	"strings"
)

// Kind distinguishes the two selector forms.
type Kind int

const (
	// ByID selects the single entity whose Ident equals the name.
	ByID Kind = iota + 1
	// ByTag selects every entity whose Tags contain the name.
	ByTag
)

// Selector is an immutable predicate description. Resolution happens against
// a Registry; the Selector itself holds no entity references.
type Selector struct {
	Kind Kind
	Name string
}

func (s Selector) String() string {
	if s.Kind == ByTag {
		return "#" + s.Name
	}
	return s.Name
}

// ParseError describes selector text the grammar does not accept.
type ParseError struct {
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("selector: cannot parse %q: %s", e.Text, e.Reason)
}

// TryParse parses selector text.
//
// Accepted forms:
//
//	"#name"  - tag lookup
//	"name"   - literal id lookup
//
// Anything else - empty text, a bare "#", embedded whitespace - fails with a
// ParseError. No partial or best-effort selector is produced.
func TryParse(text string) (Selector, error) {
	if text == "" {
		return Selector{}, &ParseError{Text: text, Reason: "empty selector"}
	}
	if strings.ContainsAny(text, " \t\r\n") {
		return Selector{}, &ParseError{Text: text, Reason: "selectors must not contain whitespace"}
	}
	if strings.HasPrefix(text, "#") {
		name := text[1:]
		if name == "" {
			return Selector{}, &ParseError{Text: text, Reason: "tag selector needs a name after '#'"}
		}
		if strings.Contains(name, "#") {
			return Selector{}, &ParseError{Text: text, Reason: "'#' is only valid as a prefix"}
		}
		return Selector{Kind: ByTag, Name: name}, nil
	}
	return Selector{Kind: ByID, Name: text}, nil
}
