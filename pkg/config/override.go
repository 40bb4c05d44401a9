package config

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidOverride is returned for malformed or unknown KEY value pairs.
var ErrInvalidOverride = errors.New("invalid config override")

// ApplyOverrides applies free-form "KEY value" pairs to cfg. Keys are dotted
// paths matched case-insensitively against the YAML field names, so both
// "DATASET.SPLIT" and "dataset.split" address Dataset.Split. Values are
// parsed as YAML scalars, or as YAML flow collections for list fields.
func ApplyOverrides(cfg *Config, args []string) error {
	if len(args) == 0 {
		return nil
	}
	if len(args)%2 != 0 {
		return fmt.Errorf("%w: expected KEY value pairs, got %d arguments", ErrInvalidOverride, len(args))
	}

	var root yaml.Node
	if err := root.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	for i := 0; i < len(args); i += 2 {
		if err := setPath(&root, args[i], args[i+1]); err != nil {
			return err
		}
	}

	dir := cfg.Dir
	if err := root.Decode(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOverride, err)
	}
	cfg.Dir = dir
	return nil
}

func setPath(root *yaml.Node, key, value string) error {
	node := root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	for _, part := range strings.Split(key, ".") {
		if node.Kind != yaml.MappingNode {
			return fmt.Errorf("%w: %s is not a section", ErrInvalidOverride, key)
		}
		next := lookup(node, part)
		if next == nil {
			return fmt.Errorf("%w: unknown key %s", ErrInvalidOverride, key)
		}
		node = next
	}

	switch node.Kind {
	case yaml.ScalarNode:
		node.Value = value
		node.Tag = ""
		node.Style = 0
	case yaml.SequenceNode:
		var parsed yaml.Node
		if err := yaml.Unmarshal([]byte(value), &parsed); err != nil || len(parsed.Content) == 0 ||
			parsed.Content[0].Kind != yaml.SequenceNode {
			return fmt.Errorf("%w: %s expects a list like [a, b], got %q", ErrInvalidOverride, key, value)
		}
		*node = *parsed.Content[0]
	default:
		return fmt.Errorf("%w: %s is a section, not a value", ErrInvalidOverride, key)
	}
	return nil
}

func lookup(mapping *yaml.Node, name string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if strings.EqualFold(mapping.Content[i].Value, name) {
			return mapping.Content[i+1]
		}
	}
	return nil
}
