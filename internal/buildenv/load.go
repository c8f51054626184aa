package buildenv

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a build environment file. The file is a YAML (or JSON)
// mapping of variable names to strings or nested lists of strings.
// Scalars are kept exactly as written, so offsets such as 0x1000 are
// not reinterpreted as numbers.
func Load(path string) (*Env, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read build environment: %w", err)
	}

	vars, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return New(vars), nil
}

// Parse decodes build environment variables from YAML or JSON.
func Parse(data []byte) (map[string]any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	vars := make(map[string]any)
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return vars, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of variables", root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		v, err := nodeValue(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key.Value, err)
		}
		vars[key.Value] = v
	}
	return vars, nil
}

func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, nil
		}
		return n.Value, nil
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeValue(c)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	default:
		return nil, fmt.Errorf("line %d: value must be a string or a list", n.Line)
	}
}
