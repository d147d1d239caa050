package query

import (
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/graph"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
)

// ClusterMember mirrors a resolved document's public fields (spec §4.10,
// ported from original_source/src/protocol.rs's ClusterMember).
type ClusterMember struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Status string   `json:"status,omitempty"`
	Groups []string `json:"groups,omitempty"`
}

// ClusterResponse is the cluster(id) envelope: a thin wrapper over
// graph.ComputeCluster (spec §4.10).
type ClusterResponse struct {
	ProtocolVersion int              `json:"protocolVersion"`
	OK              bool             `json:"ok"`
	Root            string           `json:"root"`
	Size            int              `json:"size"`
	Members         []ClusterMember  `json:"members"`
}

// Cluster implements cluster(root, depth, include_bidirectional).
func Cluster(src *Source, root string, depth int, includeBidirectional bool) (ClusterResponse, error) {
	if src.Resolved.Lookup(root) == nil {
		return ClusterResponse{}, notFound(root)
	}

	cluster := graph.ComputeCluster(src.Resolved, src.Edges, root, depth, includeBidirectional)

	members := make([]ClusterMember, 0, len(cluster))
	for _, id := range sortedCopy(keysOf(cluster)) {
		d := cluster[id]
		members = append(members, ClusterMember{ID: d.ID, Title: d.Title, Status: d.Status, Groups: d.Groups})
	}

	return ClusterResponse{
		ProtocolVersion: ProtocolVersion,
		OK:              true,
		Root:            root,
		Size:            len(members),
		Members:         members,
	}, nil
}

// PathResponse is the path(from, to) envelope.
type PathResponse struct {
	ProtocolVersion int      `json:"protocolVersion"`
	OK              bool     `json:"ok"`
	Found           bool     `json:"found"`
	Path            []string `json:"path,omitempty"`
}

// Path implements bfs_path(from, to, max_depth) (spec §4.9/§4.10).
func Path(src *Source, from, to string, maxDepth int) (PathResponse, error) {
	if src.Resolved.Lookup(from) == nil {
		return PathResponse{}, notFound(from)
	}

	if src.Resolved.Lookup(to) == nil {
		return PathResponse{}, notFound(to)
	}

	p := graph.BFSPath(src.Resolved, src.Edges, from, to, maxDepth)

	return PathResponse{
		ProtocolVersion: ProtocolVersion,
		OK:              true,
		Found:           p != nil,
		Path:            p,
	}, nil
}

// GraphResponse is the graph(root, format, ...) envelope: the rendered
// string plus the same metadata the JSON render format itself carries
// (spec §4.9 tail: "The graph-query envelope adds protocolVersion").
type GraphResponse struct {
	ProtocolVersion int          `json:"protocolVersion"`
	OK              bool         `json:"ok"`
	Format          string       `json:"format"`
	Root            string       `json:"root"`
	Depth           int          `json:"depth"`
	Bidirectional   bool         `json:"bidirectional"`
	Members         []string     `json:"members"`
	Edges           []model.Edge `json:"edges"`
	Rendered        string       `json:"rendered"`
}

// Graph implements graph(root, format, depth, include_bidirectional) (spec
// §4.9/§4.10): a thin wrapper composing ComputeCluster then graph.Render.
func Graph(src *Source, root, format string, depth int, includeBidirectional bool) (GraphResponse, error) {
	if src.Resolved.Lookup(root) == nil {
		return GraphResponse{}, notFound(root)
	}

	cluster := graph.ComputeCluster(src.Resolved, src.Edges, root, depth, includeBidirectional)
	members := sortedCopy(keysOf(cluster))

	rendered, err := graph.Render(src.Resolved, format, root, members, src.Edges, depth, includeBidirectional)
	if err != nil {
		return GraphResponse{}, err
	}

	within := withinMembers(members, src.Edges)

	return GraphResponse{
		ProtocolVersion: ProtocolVersion,
		OK:              true,
		Format:          format,
		Root:            root,
		Depth:           depth,
		Bidirectional:   includeBidirectional,
		Members:         members,
		Edges:           within,
		Rendered:        rendered,
	}, nil
}

func keysOf(m map[string]*model.Document) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	return out
}

func withinMembers(members []string, edges []model.Edge) []model.Edge {
	set := make(map[string]bool, len(members))
	for _, m := range members {
		set[m] = true
	}

	var out []model.Edge

	for _, e := range edges {
		if set[e.From] && set[e.To] {
			out = append(out, e)
		}
	}

	return out
}
