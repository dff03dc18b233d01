// Package callgraph supplements the per-method usage scanner with
// whole-program reachability. It builds a directed call graph over plugin
// methods, marks everything reachable from hook entry points, and reports the
// rest as transitive dead code, grouped into clusters of methods that only
// keep each other alive.
package callgraph

import (
	"context"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/publicrust/rust-analyzer-sub000/pkg/analyzer"
	"github.com/publicrust/rust-analyzer-sub000/pkg/analyzer/hookcheck"
	"github.com/publicrust/rust-analyzer-sub000/pkg/analyzer/usage"
	"github.com/publicrust/rust-analyzer-sub000/pkg/hooks"
	"github.com/publicrust/rust-analyzer-sub000/pkg/plugin"
)

// Analyzer detects methods no hook can reach.
type Analyzer struct {
	catalog *hooks.Catalog
	rank    bool
}

// Compile-time check that Analyzer implements the analyzer interface.
var _ analyzer.ModelAnalyzer[*Analysis] = (*Analyzer)(nil)

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithRank enables PageRank centrality scoring of live methods.
func WithRank() Option {
	return func(a *Analyzer) {
		a.rank = true
	}
}

// New creates a reachability analyzer over the given catalog.
func New(catalog *hooks.Catalog, opts ...Option) *Analyzer {
	a := &Analyzer{catalog: catalog}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze builds the call graph, marks reachability from the roots and
// returns dead methods with their clusters.
func (a *Analyzer) Analyze(ctx context.Context, model *plugin.Model) (*Analysis, error) {
	analysis := &Analysis{
		DeadMethods: make([]DeadMethod, 0),
	}
	if model == nil {
		return analysis, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	graph := a.BuildGraph(model)
	analysis.Graph = graph
	analysis.Summary.TotalMethods = len(graph.Nodes)
	analysis.Summary.RootMethods = len(graph.Roots)
	analysis.Summary.TotalEdges = len(graph.Edges)

	reachable := markReachable(graph)
	analysis.Summary.ReachableMethods = int(reachable.GetCardinality())

	deadIDs := make([]uint32, 0)
	for _, node := range graph.Nodes {
		if !reachable.Contains(node.ID) {
			deadIDs = append(deadIDs, node.ID)
		}
	}
	analysis.Summary.DeadMethods = len(deadIDs)

	clusters, assignment := deadClusters(graph, deadIDs)
	analysis.Clusters = clusters
	analysis.Summary.DeadClusters = len(clusters)

	for _, id := range deadIDs {
		node := graph.Nodes[id]
		dm := DeadMethod{
			Method:  node.Method,
			Class:   node.Class,
			File:    node.File,
			Line:    node.Line,
			EndLine: node.EndLine,
			Reason:  "Not reachable from any hook, exempt method or registration",
			Cluster: assignment[id],
		}
		if dm.Cluster > 0 {
			dm.Reason = "Only called by other dead methods"
		}
		analysis.DeadMethods = append(analysis.DeadMethods, dm)
	}

	if a.rank {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		analysis.Ranked = rankLive(graph, reachable)
	}

	return analysis, nil
}

// BuildGraph constructs the call graph: one node per plugin method, an edge
// for every name-resolved invocation, and roots for valid hooks, exempt
// methods and registration targets.
func (a *Analyzer) BuildGraph(model *plugin.Model) *Graph {
	g := NewGraph()

	byName := make(map[string][]uint32)
	for _, member := range model.Members {
		if member.Kind != plugin.KindMethod {
			continue
		}
		id := g.AddNode(Node{
			Method:  member.Name,
			Class:   member.Class,
			File:    member.File,
			Line:    member.Line,
			EndLine: member.EndLine,
			IsRoot:  hookcheck.Exempt(member) || len(a.catalog.Matches(model, member)) > 0,
		})
		byName[member.Name] = append(byName[member.Name], id)
	}

	for _, unit := range model.Files {
		for _, call := range unit.Calls {
			callers := byName[call.Caller]

			for _, calleeID := range byName[call.Callee] {
				for _, callerID := range callers {
					g.AddEdge(Edge{From: callerID, To: calleeID, Kind: EdgeDirectCall})
				}
			}

			// Registered methods stay roots even when the registering call
			// site itself turns out to be dead: the framework invokes them.
			for _, target := range usage.RegistrationTargets(call, model) {
				for _, targetID := range byName[target.Name] {
					g.MarkRoot(targetID)
					for _, callerID := range callers {
						g.AddEdge(Edge{From: callerID, To: targetID, Kind: EdgeRegistration})
					}
				}
			}
		}
	}

	return g
}

// markReachable walks the graph breadth-first from the roots over a roaring
// bitmap.
func markReachable(g *Graph) *roaring.Bitmap {
	reachable := roaring.New()
	reachable.AddMany(g.Roots)

	queue := make([]uint32, len(g.Roots), len(g.Roots)*2)
	copy(queue, g.Roots)
	head := 0

	for head < len(queue) {
		current := queue[head]
		head++
		for _, edge := range g.Outgoing(current) {
			if !reachable.Contains(edge.To) {
				reachable.Add(edge.To)
				queue = append(queue, edge.To)
			}
		}
	}
	return reachable
}

// deadClusters groups unreachable methods into strongly connected components
// of size two or more. Clusters are numbered from one, ordered by their first
// method name; the returned assignment maps node IDs to cluster numbers.
func deadClusters(g *Graph, deadIDs []uint32) ([]Cluster, map[uint32]int) {
	if len(deadIDs) == 0 {
		return nil, nil
	}

	dead := make(map[uint32]bool, len(deadIDs))
	for _, id := range deadIDs {
		dead[id] = true
	}

	dg := simple.NewDirectedGraph()
	for _, id := range deadIDs {
		dg.AddNode(simple.Node(int64(id)))
	}
	// gonum simple graphs reject self-loops; a self-recursive dead method is
	// just dead, not a cluster.
	for _, edge := range g.Edges {
		if edge.From != edge.To && dead[edge.From] && dead[edge.To] {
			dg.SetEdge(simple.Edge{F: simple.Node(int64(edge.From)), T: simple.Node(int64(edge.To))})
		}
	}

	var groups [][]uint32
	for _, scc := range topo.TarjanSCC(dg) {
		if len(scc) < 2 {
			continue
		}
		ids := make([]uint32, 0, len(scc))
		for _, n := range scc {
			ids = append(ids, uint32(n.ID()))
		}
		groups = append(groups, ids)
	}

	for _, ids := range groups {
		sort.Slice(ids, func(i, j int) bool { return g.Nodes[ids[i]].Method < g.Nodes[ids[j]].Method })
	}
	sort.Slice(groups, func(i, j int) bool {
		return g.Nodes[groups[i][0]].Method < g.Nodes[groups[j][0]].Method
	})

	clusters := make([]Cluster, 0, len(groups))
	assignment := make(map[uint32]int, len(deadIDs))
	for i, ids := range groups {
		c := Cluster{ID: i + 1, Methods: make([]string, 0, len(ids))}
		for _, id := range ids {
			assignment[id] = c.ID
			c.Methods = append(c.Methods, g.Nodes[id].Method)
		}
		clusters = append(clusters, c)
	}
	return clusters, assignment
}

// rankLive scores live methods by PageRank centrality over the whole graph,
// highest first.
func rankLive(g *Graph, reachable *roaring.Bitmap) []RankedMethod {
	if len(g.Nodes) == 0 {
		return nil
	}

	dg := simple.NewDirectedGraph()
	for _, node := range g.Nodes {
		dg.AddNode(simple.Node(int64(node.ID)))
	}
	for _, edge := range g.Edges {
		if edge.From != edge.To {
			dg.SetEdge(simple.Edge{F: simple.Node(int64(edge.From)), T: simple.Node(int64(edge.To))})
		}
	}

	scores := network.PageRank(dg, 0.85, 1e-6)

	inDegree := make(map[uint32]int, len(g.Nodes))
	outDegree := make(map[uint32]int, len(g.Nodes))
	for _, edge := range g.Edges {
		inDegree[edge.To]++
		outDegree[edge.From]++
	}

	ranked := make([]RankedMethod, 0, len(g.Nodes))
	for _, node := range g.Nodes {
		if !reachable.Contains(node.ID) {
			continue
		}
		ranked = append(ranked, RankedMethod{
			Method:    node.Method,
			Class:     node.Class,
			File:      node.File,
			PageRank:  scores[int64(node.ID)],
			InDegree:  inDegree[node.ID],
			OutDegree: outDegree[node.ID],
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].PageRank != ranked[j].PageRank {
			return ranked[i].PageRank > ranked[j].PageRank
		}
		return ranked[i].Method < ranked[j].Method
	})
	return ranked
}
