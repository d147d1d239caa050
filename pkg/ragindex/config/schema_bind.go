package config

import (
	"fmt"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/schema"
)

// bindInlineSchemas parses the top-level `[[schema]]` array, if present.
func bindInlineSchemas(cfg *Config, tree map[string]any) error {
	raw, ok := tree["schema"]
	if !ok {
		return nil
	}

	items, ok := raw.([]map[string]any)
	if !ok {
		// BurntSushi/toml decodes arrays-of-tables as []map[string]any when
		// the target is map[string]any; fall back to []any of maps.
		if anyItems, ok2 := raw.([]any); ok2 {
			for _, it := range anyItems {
				if m, ok3 := it.(map[string]any); ok3 {
					items = append(items, m)
				}
			}

			ok = true
		}
	}

	if !ok {
		return fmt.Errorf("config: [[schema]] has unexpected shape")
	}

	for _, item := range items {
		s, err := schemaFromTree(item)
		if err != nil {
			return fmt.Errorf("config: schema %v: %w", item["name"], err)
		}

		cfg.Schemas = append(cfg.Schemas, s)
	}

	return nil
}

func schemaFromTree(m map[string]any) (*schema.Schema, error) {
	name, _ := m["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("schema missing name")
	}

	s := &schema.Schema{
		Name:          name,
		Globs:         stringSlice(m["file_patterns"]),
		Required:      stringSlice(m["required"]),
		AllowedKeys:   stringSlice(m["allowed_keys"]),
		UnknownPolicy: schema.UnknownKeyPolicy(stringOr(m["unknown_policy"], string(schema.UnknownIgnore))),
		CyclePolicy:   schema.Severity(stringOr(m["cycle_policy"], string(schema.SeverityWarning))),
		Rules:         map[string]schema.FieldRule{},
		EdgeKinds:     map[string]schema.EdgeKindPolicy{},
	}

	if rules, ok := m["rules"].(map[string]any); ok {
		for key, v := range rules {
			if rm, ok := v.(map[string]any); ok {
				s.Rules[key] = fieldRuleFromTree(key, rm)
			}
		}
	}

	if v, ok := m["filename_template"].(string); ok {
		if s.New == nil {
			s.New = &schema.NewNotePolicy{}
		}

		s.New.FilenameTemplate = v
	}

	if nw, ok := m["new"].(map[string]any); ok {
		bindNewPolicy(s, nw)
	}

	if v, ok := m["validate"].(map[string]any); ok {
		bindValidatePolicy(s, v)
	}

	applyTemplateHeadings(s)

	return s, nil
}

// applyTemplateHeadings derives ExpectedHeadings/PerHeadingMax from the
// schema's toml-inline note template, when declared and no explicit
// heading list was already bound from validate.body.headings. Only the
// toml-inline template is parsed; overlay-provided templates, repo template
// files and the built-in default are not consulted for headings.
func applyTemplateHeadings(s *schema.Schema) {
	if s.New == nil || s.New.NoteTemplate == "" {
		return
	}

	if s.Body == nil {
		s.Body = &schema.BodyPolicy{PerHeadingMax: map[string]int{}}
	}

	if len(s.Body.ExpectedHeadings) > 0 {
		return
	}

	headings, perMax := schema.ParseTemplateHeadings(s.New.NoteTemplate)
	s.Body.ExpectedHeadings = headings

	for k, v := range perMax {
		s.Body.PerHeadingMax[k] = v
	}
}

func bindNewPolicy(s *schema.Schema, nw map[string]any) {
	if s.New == nil {
		s.New = &schema.NewNotePolicy{}
	}

	if idGen, ok := nw["id_generator"].(map[string]any); ok {
		if strat, ok := idGen["strategy"].(string); ok {
			s.New.IDGenerator = schema.IDGeneratorStrategy(strat)
		}

		if prefix, ok := idGen["prefix"].(string); ok {
			s.New.IDPrefix = prefix
		}

		if pad, ok := asInt(idGen["padding"]); ok {
			s.New.IDPadding = pad
		}
	}

	if v, ok := nw["output_path"].(string); ok {
		s.New.DestinationPath = v
	}

	if v, ok := nw["note_template"].(string); ok {
		s.New.NoteTemplate = v
	}

	if v, ok := nw["prompt_template"].(string); ok {
		s.New.PromptTemplate = v
	}

	s.New.TemplateSources = stringSlice(nw["template_sources"])
}

func bindValidatePolicy(s *schema.Schema, v map[string]any) {
	if sev, ok := v["severity"].(string); ok {
		s.DefaultSeverity = schema.Severity(sev)
	}

	if body, ok := v["body"].(map[string]any); ok {
		bindBodyPolicy(s, body)
	}

	if edges, ok := v["edges"].(map[string]any); ok {
		bindEdgePolicy(s, edges)
	}
}

func bindBodyPolicy(s *schema.Schema, body map[string]any) {
	bp := &schema.BodyPolicy{PerHeadingMax: map[string]int{}}

	if headings, ok := body["headings"].(map[string]any); ok {
		if v, ok := headings["heading_check"].(string); ok {
			bp.HeadingCheck = schema.HeadingCheck(v)
		}

		if v, ok := asInt(headings["max_count"]); ok {
			bp.MaxHeadings = v
		}

		if v, ok := headings["severity"].(string); ok {
			bp.Severity = schema.Severity(v)
		}
	}

	if lc, ok := body["line_count"].(map[string]any); ok {
		if v, ok := lc["scan_policy"].(string); ok {
			bp.ScanPolicy = schema.BodyScanPolicy(v)
		}
	}

	s.Body = bp
}

func bindEdgePolicy(s *schema.Schema, edges map[string]any) {
	if cross, ok := edges["cross_schema"].(map[string]any); ok {
		allowed := stringSlice(cross["allowed_targets"])
		for kind := range s.EdgeKinds {
			p := s.EdgeKinds[kind]
			p.CrossSchemaAllowed = allowed
			s.EdgeKinds[kind] = p
		}
	}

	if wl, ok := edges["wikilinks"].(map[string]any); ok {
		wp := &schema.WikilinkPolicy{}

		if v, ok := asInt(wl["min_outgoing"]); ok {
			wp.MinOutgoing = v
		}

		if v, ok := asInt(wl["min_incoming"]); ok {
			wp.MinIncoming = v
		}

		if v, ok := wl["severity"].(string); ok {
			wp.Severity = schema.Severity(v)
		}

		s.Wikilink = wp
	}

	if kinds, ok := edges["kinds"].(map[string]any); ok {
		for kind, v := range kinds {
			if km, ok := v.(map[string]any); ok {
				p := s.EdgeKinds[kind]

				if req, ok := km["required"].(bool); ok {
					p.Required = req
				}

				if sev, ok := km["cycle_detection"].(string); ok {
					p.CycleDetectionSeverity = schema.Severity(sev)
				}

				s.EdgeKinds[kind] = p
			}
		}
	}
}

func fieldRuleFromTree(key string, m map[string]any) schema.FieldRule {
	r := schema.FieldRule{Key: key}

	if v, ok := m["type"].(string); ok {
		r.Type = v
	}

	r.Allowed = stringSlice(m["allowed"])
	if len(r.Allowed) == 0 {
		r.Allowed = stringSlice(m["enum"])
	}

	r.Globs = stringSlice(m["globs"])
	r.RefersToTypes = stringSlice(m["refers_to_types"])

	if v, ok := asInt(m["min_items"]); ok {
		r.MinItems = v
	}

	if v, ok := m["regex"].(string); ok {
		r.Regex = v
	}

	if v, ok := m["severity"].(string); ok {
		r.Severity = schema.Severity(v)
	}

	if v, ok := m["format"].(string); ok {
		r.DateFormat = v
	}

	if integer, ok := m["integer"].(map[string]any); ok {
		if v, ok := asInt(integer["min"]); ok {
			n := int64(v)
			r.IntMin = &n
		}

		if v, ok := asInt(integer["max"]); ok {
			n := int64(v)
			r.IntMax = &n
		}
	}

	if float, ok := m["float"].(map[string]any); ok {
		if v, ok := asFloat(float["min"]); ok {
			r.FloatMin = &v
		}

		if v, ok := asFloat(float["max"]); ok {
			r.FloatMax = &v
		}
	}

	return r
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}

	return fallback
}
