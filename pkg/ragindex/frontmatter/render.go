package frontmatter

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
)

// toGo converts a model.Mapping back into the generic map[string]any shape
// both yaml.Marshal and toml.Marshal understand, the inverse of
// mappingFromYAMLNode/mappingFromGo.
func toGo(m model.Mapping) map[string]any {
	out := make(map[string]any, len(m))

	for k, v := range m {
		out[k] = valueToGo(v)
	}

	return out
}

// ToGo exports toGo for callers outside this package that need to flatten a
// parsed document's frontmatter back into plain Go values — the draft
// store's submit payload merge (spec §4.11) needs this to combine a parsed
// Markdown payload's frontmatter with the draft's seed frontmatter map.
func ToGo(m model.Mapping) map[string]any {
	return toGo(m)
}

func valueToGo(v model.Value) any {
	switch v.Kind {
	case model.KindScalar:
		return v.Scalar
	case model.KindSequence:
		return v.Sequence
	case model.KindMapping:
		return toGo(v.Nested)
	default:
		return nil
	}
}

// Render serializes raw back into a frontmatter block (without delimiters)
// in the given format.
func Render(format Format, raw model.Mapping) (string, error) {
	goMap := toGo(raw)

	switch format {
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(goMap); err != nil {
			return "", fmt.Errorf("frontmatter: render toml: %w", err)
		}

		return buf.String(), nil
	default:
		var buf bytes.Buffer

		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)

		if err := enc.Encode(goMap); err != nil {
			return "", fmt.Errorf("frontmatter: render yaml: %w", err)
		}

		_ = enc.Close()

		return buf.String(), nil
	}
}

// Rewrite reassembles a complete note file from a (possibly mutated) raw
// mapping and the original body, preserving the source format's fence
// delimiters. Used by the AI cluster planner's additive tag/label apply step
// (spec §4.13) so only the frontmatter block changes on disk.
func Rewrite(format Format, raw model.Mapping, body string) ([]byte, error) {
	if format == FormatNone {
		format = FormatYAML
	}

	rendered, err := Render(format, raw)
	if err != nil {
		return nil, err
	}

	delim := yamlDelim
	if format == FormatTOML {
		delim = tomlDelim
	}

	var buf bytes.Buffer

	buf.WriteString(delim)
	buf.WriteString("\n")
	buf.WriteString(rendered)

	if !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
		buf.WriteString("\n")
	}

	buf.WriteString(delim)
	buf.WriteString("\n")
	buf.WriteString(body)

	return buf.Bytes(), nil
}
