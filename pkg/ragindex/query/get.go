package query

import (
	"github.com/animegolem/cli-rag-sub000/pkg/ragerr"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/graph"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
)

// NeighborStyle controls how much of a neighbor document get() embeds
// (spec §4.10).
type NeighborStyle string

const (
	NeighborMetadata NeighborStyle = "metadata"
	NeighborOutline  NeighborStyle = "outline"
	NeighborFull     NeighborStyle = "full"
)

// Neighbor is one depth-1 related document embedded in a Get response.
type Neighbor struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Status  string   `json:"status,omitempty"`
	Groups  []string `json:"groups,omitempty"`
	Outline string   `json:"outline,omitempty"`
	Content string   `json:"content,omitempty"`
}

// GetResponse is the get(id) envelope.
type GetResponse struct {
	ProtocolVersion int        `json:"protocolVersion"`
	OK              bool       `json:"ok"`
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	File            string     `json:"file"`
	Tags            []string   `json:"tags"`
	Status          string     `json:"status,omitempty"`
	DependsOn       []string   `json:"dependsOn"`
	Dependents      []string   `json:"dependents,omitempty"`
	Content         string     `json:"content"`
	Neighbors       []Neighbor `json:"neighbors,omitempty"`
}

// GetOptions configures one get() call.
type GetOptions struct {
	IncludeDependents bool
	NeighborStyle     NeighborStyle // "" disables neighbor embedding
	Depth             int
}

// Get implements get(id, include_dependents?, neighbor_style, depth) (spec
// §4.10): returns the document's metadata and raw file content; optionally
// lists dependents; in JSON mode may embed depth-1 neighbors per
// neighbor_style. Requesting NeighborFull with depth>1 is a policy
// violation (exit code 2) to prevent accidental large exports.
func Get(src *Source, id string, opts GetOptions) (GetResponse, error) {
	d := src.Resolved.Lookup(id)
	if d == nil {
		return GetResponse{}, notFound(id)
	}

	if opts.NeighborStyle == NeighborFull && opts.Depth > 1 {
		return GetResponse{}, &ragerr.Error{
			Code: ragerr.CodeFullDepthPolicy,
			DocID: id,
			Err:  errFullDepth,
		}
	}

	dependsOn := edgeTargets(src.Edges, id, model.EdgeKindDependsOn)

	var dependents []string
	if opts.IncludeDependents {
		dependents = edgeSources(src.Edges, id, model.EdgeKindDependsOn)
	}

	resp := GetResponse{
		ProtocolVersion: ProtocolVersion,
		OK:              true,
		ID:              d.ID,
		Title:           d.Title,
		File:            d.RelPath,
		Tags:            d.Tags,
		Status:          d.Status,
		DependsOn:       dependsOn,
		Dependents:      dependents,
		Content:         readFileContent(src.ConfigDir, d.RelPath),
	}

	if opts.NeighborStyle != "" {
		depth := opts.Depth
		if depth <= 0 {
			depth = 1
		}

		resp.Neighbors = neighbors(src, id, opts.NeighborStyle, depth)
	}

	return resp, nil
}

func neighbors(src *Source, id string, style NeighborStyle, depth int) []Neighbor {
	// ComputeCluster counts the root as one level, so depth hops of
	// neighbors need depth+1.
	cluster := graph.ComputeCluster(src.Resolved, src.Edges, id, depth+1, true)

	ids := make([]string, 0, len(cluster))
	for nid := range cluster {
		if nid != id {
			ids = append(ids, nid)
		}
	}

	out := make([]Neighbor, 0, len(ids))

	for _, nid := range sortedCopy(ids) {
		d := cluster[nid]

		n := Neighbor{ID: d.ID, Title: d.Title, Status: d.Status, Groups: d.Groups}

		switch style {
		case NeighborOutline:
			n.Outline = outlineOf(d.Body)
		case NeighborFull:
			n.Content = readFileContent(src.ConfigDir, d.RelPath)
		}

		out = append(out, n)
	}

	return out
}

// outlineOf returns every markdown heading line from body, the "outline"
// neighbor_style's reduced payload (spec §4.10).
func outlineOf(body string) string {
	var out []string

	for _, line := range splitLines(body) {
		if len(line) > 0 && line[0] == '#' {
			out = append(out, line)
		}
	}

	return joinLines(out)
}

func edgeTargets(edges []model.Edge, from, kind string) []string {
	var out []string

	for _, e := range edges {
		if e.From == from && e.Kind == kind {
			out = append(out, e.To)
		}
	}

	return out
}

func edgeSources(edges []model.Edge, to, kind string) []string {
	var out []string

	for _, e := range edges {
		if e.To == to && e.Kind == kind {
			out = append(out, e.From)
		}
	}

	return out
}
