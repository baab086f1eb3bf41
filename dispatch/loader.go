package dispatch

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ruleEntry is the on-disk shape of a single rule in a rule file.
type ruleEntry struct {
	Pattern string            `yaml:"pattern"`
	URL     string            `yaml:"url"`
	Target  string            `yaml:"target"`
	Params  map[string]any    `yaml:"params"`
	Query   map[string]string `yaml:"query"`
}

// Load parses a YAML rule file from r and returns the specs in document
// order, ready for RegisterAll. The document must be a mapping of rule
// name to rule entry:
//
//	article:
//	  pattern: ^article/(?P<id>[0-9]+)/$
//	  url: article/%s/
//	  target: show_article
//	  query:
//	    format: html
//
// A target naming a key in handlers becomes that callback; any other
// target string is treated as a resource path. Document order is
// preserved so the file's top-to-bottom order is the matching priority
// order.
func Load(r io.Reader, handlers map[string]HandlerFunc) ([]NamedSpec, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("dispatch: parse rule file: %w", err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, &ConfigError{Reason: "rule file must be a mapping of rule names"}
	}

	specs := make([]NamedSpec, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value

		var entry ruleEntry
		if err := root.Content[i+1].Decode(&entry); err != nil {
			return nil, &ConfigError{Rule: name, Reason: "invalid rule entry", Err: err}
		}

		var target any
		switch {
		case entry.Target == "":
			// Left nil so the build reports the missing target.
		case handlers[entry.Target] != nil:
			target = handlers[entry.Target]
		default:
			target = entry.Target
		}

		specs = append(specs, NamedSpec{
			Name: name,
			Spec: Spec{
				Pattern: entry.Pattern,
				URL:     entry.URL,
				Target:  target,
				Params:  entry.Params,
				Query:   entry.Query,
			},
		})
	}

	return specs, nil
}

// LoadFile parses the YAML rule file at path. See Load.
func LoadFile(path string, handlers map[string]HandlerFunc) ([]NamedSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dispatch: open rule file: %w", err)
	}
	defer f.Close()

	return Load(f, handlers)
}
