package config

// bindFlat copies the normalized flat keys onto cfg.
func bindFlat(cfg *Config, tree map[string]any) error {
	cfg.Bases = stringSlice(tree["bases"])
	if v, ok := tree["index_relative"].(string); ok && v != "" {
		cfg.IndexRelative = v
	}

	if v, ok := tree["groups_relative"].(string); ok && v != "" {
		cfg.GroupsRelative = v
	}

	cfg.FilePatterns = stringSlice(tree["file_patterns"])
	cfg.IgnoreGlobs = stringSlice(tree["ignore_globs"])
	cfg.AllowedStatuses = stringSlice(tree["allowed_statuses"])

	if defaults, ok := tree["defaults"].(map[string]any); ok {
		bindDefaults(cfg, defaults)
	}

	if v, ok := tree["graph_depth"]; ok {
		if n, ok := asInt(v); ok {
			cfg.Graph.Depth = n
		}
	}

	if v, ok := tree["graph_include_bidirectional"].(bool); ok {
		cfg.Graph.IncludeBidirectional = v
	}

	if dest, ok := tree["authoring_destinations"].(map[string]any); ok {
		for name, v := range dest {
			if s, ok := v.(string); ok {
				cfg.AuthoringDest[name] = s
			}
		}
	}

	if v, ok := tree["follow_symlinks"].(bool); ok {
		cfg.FollowSymlinks = v
	}

	return nil
}

func bindDefaults(cfg *Config, defaults map[string]any) {
	if v, ok := defaults["depth"]; ok {
		if n, ok := asInt(v); ok {
			cfg.Graph.Depth = n
		}
	}

	if v, ok := defaults["include_bidirectional"].(bool); ok {
		cfg.Graph.IncludeBidirectional = v
	}

	if v, ok := defaults["include_content"].(bool); ok {
		cfg.Graph.IncludeContent = v
	}
}

func stringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))

		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}

		return out
	case string:
		return []string{t}
	default:
		return nil
	}
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case int64:
		return int(t), true
	case int:
		return t, true
	case float64:
		return int(t), true
	default:
		return 0, false
	}
}
