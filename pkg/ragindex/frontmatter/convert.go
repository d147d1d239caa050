package frontmatter

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
)

// mappingFromYAMLNode converts a decoded *yaml.Node mapping document into a
// model.Mapping, preserving nested mappings and flattening sequences of
// scalars. Non-scalar items inside a sequence are stringified from their
// decoded value so no data is silently dropped.
func mappingFromYAMLNode(node *yaml.Node) (model.Mapping, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("frontmatter: expected mapping at document root, got kind %d", node.Kind)
	}

	out := make(model.Mapping, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valNode := node.Content[i+1]

		out[keyNode.Value] = valueFromYAMLNode(valNode)
	}

	return out, nil
}

func valueFromYAMLNode(node *yaml.Node) model.Value {
	switch node.Kind {
	case yaml.ScalarNode:
		return model.ScalarValue(scalarFromYAMLNode(node))
	case yaml.SequenceNode:
		items := make([]any, 0, len(node.Content))

		for _, item := range node.Content {
			if item.Kind == yaml.ScalarNode {
				items = append(items, scalarFromYAMLNode(item))
			} else {
				// Non-scalar sequence items are out of scope for the
				// "sequence-of-scalar" shape; stringify the decoded value
				// so the data survives rather than vanishing.
				var v any
				if err := item.Decode(&v); err == nil {
					items = append(items, fmt.Sprintf("%v", v))
				} else {
					items = append(items, item.Value)
				}
			}
		}

		return model.SequenceValue(items)
	case yaml.MappingNode:
		nested := make(model.Mapping, len(node.Content)/2)

		for i := 0; i+1 < len(node.Content); i += 2 {
			nested[node.Content[i].Value] = valueFromYAMLNode(node.Content[i+1])
		}

		return model.MappingValue(nested)
	default:
		return model.NullValue()
	}
}

func scalarFromYAMLNode(node *yaml.Node) any {
	if node.Tag == "!!null" {
		return nil
	}

	var v any
	if err := node.Decode(&v); err != nil {
		return node.Value
	}

	switch t := v.(type) {
	case int:
		return int64(t)
	case int64, float64, bool, string:
		return v
	default:
		return node.Value
	}
}

// MappingFromGo converts a generic map[string]any (e.g. a rendered note
// template decoded as YAML/JSON, or an overlay's frontmatter override) into
// a model.Mapping, recursing into nested tables and flattening scalar
// arrays. Exported for the draft store (spec §4.11), which builds
// frontmatter from template output rather than from parsed file bytes.
func MappingFromGo(raw map[string]any) model.Mapping {
	return mappingFromGo(raw)
}

// mappingFromGo converts the generic map[string]any produced by
// toml.Unmarshal into a model.Mapping, recursing into nested tables and
// flattening scalar arrays.
func mappingFromGo(raw map[string]any) model.Mapping {
	out := make(model.Mapping, len(raw))

	for k, v := range raw {
		out[k] = valueFromGo(v)
	}

	return out
}

func valueFromGo(v any) model.Value {
	switch typed := v.(type) {
	case nil:
		return model.NullValue()
	case map[string]any:
		return model.MappingValue(mappingFromGo(typed))
	case []any:
		items := make([]any, 0, len(typed))

		for _, item := range typed {
			items = append(items, normalizeScalar(item))
		}

		return model.SequenceValue(items)
	default:
		return model.ScalarValue(normalizeScalar(v))
	}
}

// normalizeScalar narrows TOML's integer types (int64) and anything
// stringifiable-but-odd down to the four scalar kinds field rules expect:
// string, int64, float64, bool.
func normalizeScalar(v any) any {
	switch typed := v.(type) {
	case int64, float64, bool, string:
		return typed
	case int:
		return int64(typed)
	default:
		return fmt.Sprintf("%v", typed)
	}
}

// ParseInt best-effort parses a scalar value as an integer, accepting both
// int64 and numeric strings (frontmatter may carry either depending on
// format and quoting).
func ParseInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case float64:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// ParseFloat best-effort parses a scalar value as a float64.
func ParseFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case string:
		n, err := strconv.ParseFloat(t, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
