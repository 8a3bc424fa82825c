package service

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/homeinfo/his/internal/core/domain"
)

// ServiceGraph is an immutable adjacency view of service dependency edges.
// An edge service -> dependency means holding service also grants dependency.
type ServiceGraph struct {
	adj map[string][]string
}

// NewServiceGraph builds a graph from dependency edges. Duplicate edges are
// collapsed; self-edges are kept so that Cycles can report them.
func NewServiceGraph(edges []domain.ServiceDependency) *ServiceGraph {
	adj := make(map[string][]string)
	seen := make(map[domain.ServiceDependency]struct{}, len(edges))
	for _, e := range edges {
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		adj[e.ServiceID] = append(adj[e.ServiceID], e.DependencyID)
	}
	return &ServiceGraph{adj: adj}
}

// Dependencies returns the transitive closure of services implied by holding
// root, excluding root itself. Cycles terminate the walk silently.
func (g *ServiceGraph) Dependencies(root string) domain.ServiceSet {
	out := make(domain.ServiceSet)
	visited := map[string]bool{root: true}
	stack := append([]string(nil), g.adj[root]...)

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		out.Add(id)
		stack = append(stack, g.adj[id]...)
	}
	return out
}

// Expand returns roots together with everything they imply.
func (g *ServiceGraph) Expand(roots ...string) domain.ServiceSet {
	out := domain.NewServiceSet(roots...)
	for _, r := range roots {
		out.Union(g.Dependencies(r))
	}
	return out
}

// Cycles reports dependency cycles: self-edges and every strongly connected
// component with more than one service. Each cycle is sorted; the result is
// ordered by first member.
func (g *ServiceGraph) Cycles() [][]string {
	ids := make(map[string]int64)
	names := make(map[int64]string)
	node := func(id string) simple.Node {
		n, ok := ids[id]
		if !ok {
			n = int64(len(ids))
			ids[id] = n
			names[n] = id
		}
		return simple.Node(n)
	}

	var cycles [][]string
	dg := simple.NewDirectedGraph()
	for from, tos := range g.adj {
		f := node(from)
		if dg.Node(f.ID()) == nil {
			dg.AddNode(f)
		}
		for _, to := range tos {
			if to == from {
				cycles = append(cycles, []string{from})
				continue
			}
			t := node(to)
			if dg.Node(t.ID()) == nil {
				dg.AddNode(t)
			}
			dg.SetEdge(dg.NewEdge(f, t))
		}
	}

	if _, err := topo.Sort(dg); err != nil {
		var unorderable topo.Unorderable
		if errors.As(err, &unorderable) {
			for _, component := range unorderable {
				if len(component) < 2 {
					continue
				}
				cycle := make([]string, 0, len(component))
				for _, n := range component {
					cycle = append(cycle, names[n.ID()])
				}
				sort.Strings(cycle)
				cycles = append(cycles, cycle)
			}
		}
	}

	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}
