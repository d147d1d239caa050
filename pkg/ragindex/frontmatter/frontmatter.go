// Package frontmatter extracts and decodes the leading frontmatter block of
// a Markdown note, in either YAML ("---") or TOML ("+++") form, into both a
// strongly-typed projection and a preserved generic key->value mapping.
//
// Grounded on the original Rust implementation's
// parse_front_matter_and_title (delimiter scanning, dual-format decode,
// title-from-body-or-filename fallback) and on the teacher's
// pkg/mddb/frontmatter package for the line-oriented scanning discipline,
// generalized here from one strict hand-rolled grammar to two real formats via yaml.v3/BurntSushi-toml.
package frontmatter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
)

// Format identifies the frontmatter delimiter/grammar in use.
type Format uint8

const (
	FormatNone Format = iota
	FormatYAML
	FormatTOML
)

const (
	yamlDelim = "---"
	tomlDelim = "+++"
)

var titleRe = regexp.MustCompile(`(?m)^#[ \t]+(.+)$`)

// Projection is the strongly-typed subset of frontmatter fields the core
// understands directly; every other key still survives in Raw.
type Projection struct {
	ID           string
	Tags         []string
	Status       string
	Groups       []string
	DependsOn    []string
	Supersedes   []string
	SupersededBy []string
}

// Parsed is the result of parsing one note's bytes.
type Parsed struct {
	Format      Format
	Projection  Projection
	Raw         model.Mapping
	Body        string
	Title       string
	HadFence    bool
}

// Parse extracts frontmatter and title from a file's bytes and its path
// (used only for the filename-fallback title). Missing or malformed
// frontmatter yields a Parsed with an empty Projection.ID and Raw==nil;
// downstream validation is responsible for emitting the "missing id" error
// (spec §4.2) — Parse itself never fails for that reason.
func Parse(src []byte, path string) (Parsed, error) {
	normalized := normalizeCRLF(string(src))

	format, fmText, body, hadFence := splitFence(normalized)

	parsed := Parsed{Format: format, HadFence: hadFence, Body: body}

	if hadFence && strings.TrimSpace(fmText) != "" {
		raw, err := decodeGeneric(format, fmText)
		if err != nil {
			// Malformed frontmatter degrades to "no frontmatter" rather
			// than aborting the whole parse, per spec §4.2.
			parsed.Title = resolveTitle(body, path)
			return parsed, fmt.Errorf("frontmatter: %w", err)
		}

		parsed.Raw = raw
		parsed.Projection = projectionFromRaw(raw)
	}

	parsed.Title = resolveTitle(body, path)

	return parsed, nil
}

func normalizeCRLF(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// splitFence detects a leading "---\n"..."\n---\n" or "+++\n"..."\n+++\n"
// block and returns its format, raw text, and the remaining body. Parse
// passes in the whole file already CRLF-normalized, so the returned body has
// LF line endings; the file's original CRLF endings are not preserved.
func splitFence(content string) (Format, string, string, bool) {
	var delim string

	var format Format

	switch {
	case strings.HasPrefix(content, yamlDelim+"\n"):
		delim, format = yamlDelim, FormatYAML
	case strings.HasPrefix(content, tomlDelim+"\n"):
		delim, format = tomlDelim, FormatTOML
	default:
		return FormatNone, "", content, false
	}

	start := len(delim) + 1

	needle := "\n" + delim + "\n"

	if idx := strings.Index(content[start:], needle); idx >= 0 {
		end := start + idx
		fmText := content[start:end]
		bodyStart := end + len(needle)

		return format, fmText, content[bodyStart:], true
	}

	// Closing delimiter may be the very last line with no trailing newline.
	tailDelim := "\n" + delim
	if strings.HasSuffix(content, tailDelim) {
		end := len(content) - len(tailDelim)
		fmText := content[start:end]

		return format, fmText, "", true
	}

	// No closing delimiter: treat as no frontmatter at all.
	return FormatNone, "", content, false
}

func decodeGeneric(format Format, text string) (model.Mapping, error) {
	switch format {
	case FormatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal([]byte(text), &node); err != nil {
			return nil, fmt.Errorf("yaml: %w", err)
		}

		if len(node.Content) == 0 {
			return model.Mapping{}, nil
		}

		return mappingFromYAMLNode(node.Content[0])
	case FormatTOML:
		var raw map[string]any
		if err := toml.Unmarshal([]byte(text), &raw); err != nil {
			return nil, fmt.Errorf("toml: %w", err)
		}

		return mappingFromGo(raw), nil
	default:
		return model.Mapping{}, nil
	}
}

func resolveTitle(body string, path string) string {
	if m := titleRe.FindStringSubmatch(body); m != nil {
		return strings.TrimSpace(m[1])
	}

	return filepath.Base(path)
}

func projectionFromRaw(raw model.Mapping) Projection {
	p := Projection{}

	if v, ok := raw["id"]; ok {
		if s, ok := v.Scalar.(string); ok {
			p.ID = s
		}
	}

	if v, ok := raw["status"]; ok {
		if s, ok := v.Scalar.(string); ok {
			p.Status = s
		}
	}

	p.Tags = stringSliceField(raw, "tags")
	p.Groups = stringSliceField(raw, "groups")
	p.DependsOn = stringSliceField(raw, "depends_on")
	p.Supersedes = oneOrManyField(raw, "supersedes")
	p.SupersededBy = oneOrManyField(raw, "superseded_by")

	return p
}

func stringSliceField(raw model.Mapping, key string) []string {
	v, ok := raw[key]
	if !ok {
		return nil
	}

	return v.AsStringSlice()
}

// oneOrManyField collapses a scalar into a one-element list, matching
// supersedes/superseded_by's dual-shape acceptance (spec §4.2).
func oneOrManyField(raw model.Mapping, key string) []string {
	return stringSliceField(raw, key)
}
