package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	werrors "github.com/toyz/weaver/internal/errors"
	"gopkg.in/yaml.v3"
)

// Document is a parsed rules file
type Document struct {
	Name             string  `yaml:"name"`
	Instrumentations []Entry `yaml:"instrumentations"`
}

// Entry declares one selector and what to attach to the selected types
type Entry struct {
	SubtypeOf StringList    `yaml:"subtype_of"`
	Target    StringList    `yaml:"target"`
	Advisors  []AdvisorRule `yaml:"advisors"`
	Mixins    StringList    `yaml:"mixins"`

	Line int `yaml:"-"`
}

// AdvisorRule binds a matcher expression to an advisor name
type AdvisorRule struct {
	Match   string `yaml:"match"`
	Advisor string `yaml:"advisor"`

	Line int `yaml:"-"`
}

// StringList accepts either a single scalar or a sequence of scalars
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = StringList{node.Value}
		return nil
	case yaml.SequenceNode:
		var values []string
		if err := node.Decode(&values); err != nil {
			return err
		}
		*l = values
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", node.Line)
	}
}

// UnmarshalYAML implements yaml.Unmarshaler, recording the entry's line
func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	if err := checkKeys(node, "subtype_of", "target", "advisors", "mixins"); err != nil {
		return err
	}
	type plain Entry
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*e = Entry(p)
	e.Line = node.Line
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler, recording the rule's line
func (r *AdvisorRule) UnmarshalYAML(node *yaml.Node) error {
	if err := checkKeys(node, "match", "advisor"); err != nil {
		return err
	}
	type plain AdvisorRule
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*r = AdvisorRule(p)
	r.Line = node.Line
	return nil
}

// checkKeys rejects unknown mapping keys. Nested decoders do not inherit
// KnownFields, so entries check their own keys.
func checkKeys(node *yaml.Node, allowed ...string) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		known := false
		for _, a := range allowed {
			if key.Value == a {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("line %d: field %s not found", key.Line, key.Value)
		}
	}
	return nil
}

// ParseDocument decodes a rules document. Unknown fields are rejected.
func ParseDocument(filename string, data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, werrors.New(werrors.ConfigurationErrorCode, "rules file is empty").
				WithLocation(werrors.SourceLocation{File: filename})
		}
		return nil, werrors.Wrap(werrors.ConfigurationErrorCode, "invalid rules file", err).
			WithLocation(werrors.SourceLocation{File: filename})
	}
	return &doc, nil
}
