package config

// normalizeNested folds an optional [config] table's children onto the flat
// top-level keys, per spec §4.1:
//
//	scan.filepaths        -> bases
//	scan.index_path       -> index_relative
//	scan.ignore_globs     -> ignore_globs
//	scan.groups_path      -> groups_relative
//	scan.file_patterns    -> file_patterns
//	graph.depth           -> graph_depth
//	graph.include_bidirectional -> graph_include_bidirectional
//	templates.import      -> import
//	authoring.destinations.<SCHEMA> -> authoring_destinations.<SCHEMA>
//
// Nested values take precedence over any flat duplicates, so this mutates
// tree in place, overwriting flat keys with their nested equivalents.
func normalizeNested(tree map[string]any) {
	configTable, ok := tree["config"].(map[string]any)
	if !ok {
		return
	}

	if scan, ok := configTable["scan"].(map[string]any); ok {
		foldKey(tree, scan, "filepaths", "bases")
		foldKey(tree, scan, "index_path", "index_relative")
		foldKey(tree, scan, "ignore_globs", "ignore_globs")
		foldKey(tree, scan, "groups_path", "groups_relative")
		foldKey(tree, scan, "file_patterns", "file_patterns")
	}

	if g, ok := configTable["graph"].(map[string]any); ok {
		foldKey(tree, g, "depth", "graph_depth")
		foldKey(tree, g, "include_bidirectional", "graph_include_bidirectional")
	}

	if t, ok := configTable["templates"].(map[string]any); ok {
		foldKey(tree, t, "import", "import")
	}

	if a, ok := configTable["authoring"].(map[string]any); ok {
		if dest, ok := a["destinations"].(map[string]any); ok {
			tree["authoring_destinations"] = dest
		}
	}
}

// foldKey copies src[srcKey] into dst[dstKey] when present, overwriting any
// existing flat value ("nested values take precedence over any flat
// duplicates").
func foldKey(dst map[string]any, src map[string]any, srcKey, dstKey string) {
	if v, ok := src[srcKey]; ok {
		dst[dstKey] = v
	}
}
