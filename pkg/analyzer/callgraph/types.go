package callgraph

// EdgeKind classifies how a call edge was resolved.
type EdgeKind string

const (
	// EdgeDirectCall is a plain invocation in a method body.
	EdgeDirectCall EdgeKind = "direct-call"

	// EdgeRegistration binds a registration call site to the method it
	// registers, whether named by string, constant, symbol or delegate.
	EdgeRegistration EdgeKind = "registration"
)

// String returns the string representation.
func (e EdgeKind) String() string {
	return string(e)
}

// Node is one plugin method in the call graph.
type Node struct {
	ID      uint32 `json:"id" toon:"id"`
	Method  string `json:"method" toon:"method"`
	Class   string `json:"class" toon:"class"`
	File    string `json:"file" toon:"file"`
	Line    uint32 `json:"line" toon:"line"`
	EndLine uint32 `json:"end_line" toon:"end_line"`
	IsRoot  bool   `json:"is_root" toon:"is_root"`
}

// Edge is one resolved invocation between two methods.
type Edge struct {
	From uint32   `json:"from" toon:"from"`
	To   uint32   `json:"to" toon:"to"`
	Kind EdgeKind `json:"kind" toon:"kind"`
}

// Graph is the directed call graph over plugin methods.
type Graph struct {
	Nodes []Node   `json:"nodes" toon:"nodes"`
	Edges []Edge   `json:"edges" toon:"edges"`
	Roots []uint32 `json:"roots" toon:"roots"`

	edgeIndex map[uint32][]int
}

// NewGraph creates an empty call graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:     make([]Node, 0),
		Edges:     make([]Edge, 0),
		Roots:     make([]uint32, 0),
		edgeIndex: make(map[uint32][]int),
	}
}

// AddNode appends a node; node IDs are assigned densely in append order.
func (g *Graph) AddNode(node Node) uint32 {
	node.ID = uint32(len(g.Nodes))
	g.Nodes = append(g.Nodes, node)
	if node.IsRoot {
		g.Roots = append(g.Roots, node.ID)
	}
	return node.ID
}

// MarkRoot promotes a node to an entry point. Marking twice is a no-op.
func (g *Graph) MarkRoot(id uint32) {
	if int(id) >= len(g.Nodes) || g.Nodes[id].IsRoot {
		return
	}
	g.Nodes[id].IsRoot = true
	g.Roots = append(g.Roots, id)
}

// AddEdge appends an edge and indexes it by source node.
func (g *Graph) AddEdge(edge Edge) {
	g.edgeIndex[edge.From] = append(g.edgeIndex[edge.From], len(g.Edges))
	g.Edges = append(g.Edges, edge)
}

// Outgoing returns all edges originating from a node.
func (g *Graph) Outgoing(id uint32) []Edge {
	indices := g.edgeIndex[id]
	edges := make([]Edge, len(indices))
	for i, idx := range indices {
		edges[i] = g.Edges[idx]
	}
	return edges
}

// DeadMethod is a method no root reaches, even transitively.
type DeadMethod struct {
	Method  string `json:"method" toon:"method"`
	Class   string `json:"class" toon:"class"`
	File    string `json:"file" toon:"file"`
	Line    uint32 `json:"line" toon:"line"`
	EndLine uint32 `json:"end_line" toon:"end_line"`
	Reason  string `json:"reason" toon:"reason"`
	Cluster int    `json:"cluster,omitempty" toon:"cluster,omitempty"`
}

// Cluster groups dead methods that only call each other.
type Cluster struct {
	ID      int      `json:"id" toon:"id"`
	Methods []string `json:"methods" toon:"methods"`
}

// RankedMethod is a live method scored by PageRank centrality.
type RankedMethod struct {
	Method    string  `json:"method" toon:"method"`
	Class     string  `json:"class" toon:"class"`
	File      string  `json:"file" toon:"file"`
	PageRank  float64 `json:"page_rank" toon:"page_rank"`
	InDegree  int     `json:"in_degree" toon:"in_degree"`
	OutDegree int     `json:"out_degree" toon:"out_degree"`
}

// Summary provides aggregate reachability statistics.
type Summary struct {
	TotalMethods     int `json:"total_methods" toon:"total_methods"`
	RootMethods      int `json:"root_methods" toon:"root_methods"`
	ReachableMethods int `json:"reachable_methods" toon:"reachable_methods"`
	DeadMethods      int `json:"dead_methods" toon:"dead_methods"`
	DeadClusters     int `json:"dead_clusters" toon:"dead_clusters"`
	TotalEdges       int `json:"total_edges" toon:"total_edges"`
}

// Analysis is the full reachability result.
type Analysis struct {
	DeadMethods []DeadMethod   `json:"dead_methods" toon:"dead_methods"`
	Clusters    []Cluster      `json:"clusters,omitempty" toon:"clusters,omitempty"`
	Ranked      []RankedMethod `json:"ranked,omitempty" toon:"ranked,omitempty"`
	Summary     Summary        `json:"summary" toon:"summary"`
	Warnings    []string       `json:"warnings,omitempty" toon:"warnings,omitempty"`
	Graph       *Graph         `json:"graph,omitempty" toon:"-"`
}
