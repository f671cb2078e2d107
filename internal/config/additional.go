package config

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/fulcrumgen/internal/model"
)

// Additional is an ordered set of table options. It decodes from a YAML mapping
// and keeps the document order of its keys.
type Additional []model.Option

// UnmarshalYAML implements yaml.Unmarshaler
func (a *Additional) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*a = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: additional must be a mapping", node.Line)
	}

	pairs := make(Additional, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var key string
		if err := node.Content[i].Decode(&key); err != nil {
			return fmt.Errorf("line %d: %w", node.Content[i].Line, err)
		}
		var value any
		if err := node.Content[i+1].Decode(&value); err != nil {
			return fmt.Errorf("line %d: %w", node.Content[i+1].Line, err)
		}
		pairs = pairs.With(key, value)
	}
	*a = pairs
	return nil
}

// With returns a copy with key set to value. An existing key keeps its position.
func (a Additional) With(key string, value any) Additional {
	out := make(Additional, len(a), len(a)+1)
	copy(out, a)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, model.Option{Key: key, Value: value})
}

// Options returns a copy as model options
func (a Additional) Options() []model.Option {
	if len(a) == 0 {
		return nil
	}
	return append([]model.Option(nil), a...)
}

// FromMap builds an Additional from a map, ordering keys alphabetically
func FromMap(m map[string]any) Additional {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	a := make(Additional, 0, len(keys))
	for _, k := range keys {
		a = append(a, model.Option{Key: k, Value: m[k]})
	}
	return a
}

// ParseAssignment parses a key=value command line argument. The value is read
// as a YAML scalar, so true, false, null and numbers keep their type and
// anything else is a string.
func ParseAssignment(s string) (string, any, error) {
	key, raw, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, fmt.Errorf("%w: expected key=value, got %q", ErrInvalidOptions, s)
	}

	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return key, raw, nil
	}
	switch value.(type) {
	case map[string]any, []any:
		// only scalars are interpreted
		return key, raw, nil
	}
	if value == nil && strings.TrimSpace(raw) == "" {
		return key, "", nil
	}
	return key, value, nil
}
