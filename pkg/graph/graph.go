// Package graph provides a small directed, weighted graph.
// It orders storage tables by ownership and checks character casts.
package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Node is a vertex in the graph.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

// Edge is a directed, weighted connection.
type Edge struct {
	Relation string  `json:"relation"`
	Weight   float64 `json:"weight"`
}

// Link is an edge together with its endpoints.
type Link struct {
	Source *Node
	Target *Node
	Edge   *Edge
}

// Graph is a directed graph keyed by node id.
type Graph struct {
	Nodes map[string]*Node `json:"nodes"`

	// SourceID -> TargetID -> Edge, plus the reverse index.
	Outbound map[string]map[string]*Edge `json:"outbound"`
	Inbound  map[string]map[string]*Edge `json:"inbound"`
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		Nodes:    make(map[string]*Node),
		Outbound: make(map[string]map[string]*Edge),
		Inbound:  make(map[string]map[string]*Edge),
	}
}

// EnsureNode adds a node if it doesn't exist, returns existing node otherwise.
func (g *Graph) EnsureNode(id, label, kind string) *Node {
	if existing, ok := g.Nodes[id]; ok {
		return existing
	}
	node := &Node{ID: id, Label: label, Kind: kind}
	g.Nodes[id] = node
	return node
}

// AddEdge creates a directed edge from source to target. Endpoints that
// were never added become bare nodes.
func (g *Graph) AddEdge(sourceID, targetID, relation string, weight float64) {
	g.EnsureNode(sourceID, sourceID, "")
	g.EnsureNode(targetID, targetID, "")

	edge := &Edge{Relation: strings.ToUpper(relation), Weight: weight}
	if g.Outbound[sourceID] == nil {
		g.Outbound[sourceID] = make(map[string]*Edge)
	}
	g.Outbound[sourceID][targetID] = edge

	if g.Inbound[targetID] == nil {
		g.Inbound[targetID] = make(map[string]*Edge)
	}
	g.Inbound[targetID][sourceID] = edge
}

// GetNode retrieves a node by ID.
func (g *Graph) GetNode(id string) *Node {
	return g.Nodes[id]
}

// Outgoing returns the edges leaving id, sorted by target id.
func (g *Graph) Outgoing(id string) []Link {
	var out []Link
	for _, targetID := range sortedKeys(g.Outbound[id]) {
		out = append(out, Link{Source: g.Nodes[id], Target: g.Nodes[targetID], Edge: g.Outbound[id][targetID]})
	}
	return out
}

// Incoming returns the edges arriving at id, sorted by source id.
func (g *Graph) Incoming(id string) []Link {
	var in []Link
	for _, sourceID := range sortedKeys(g.Inbound[id]) {
		in = append(in, Link{Source: g.Nodes[sourceID], Target: g.Nodes[id], Edge: g.Inbound[id][sourceID]})
	}
	return in
}

// Neighbors returns all nodes connected to id in either direction.
func (g *Graph) Neighbors(id string) []*Node {
	seen := make(map[string]bool)
	var result []*Node
	for _, other := range append(sortedKeys(g.Outbound[id]), sortedKeys(g.Inbound[id])...) {
		if seen[other] {
			continue
		}
		seen[other] = true
		if node := g.Nodes[other]; node != nil {
			result = append(result, node)
		}
	}
	return result
}

func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

func (g *Graph) EdgeCount() int {
	count := 0
	for _, targets := range g.Outbound {
		count += len(targets)
	}
	return count
}

// DegreeCentrality computes (in+out)/(2*(n-1)) for each node.
func (g *Graph) DegreeCentrality() map[string]float64 {
	n := len(g.Nodes)
	result := make(map[string]float64, n)
	if n <= 1 {
		for id := range g.Nodes {
			result[id] = 0
		}
		return result
	}
	normalizer := 2.0 * float64(n-1)
	for id := range g.Nodes {
		result[id] = float64(len(g.Outbound[id])+len(g.Inbound[id])) / normalizer
	}
	return result
}

// OrphanNodes returns nodes with no connections, sorted by id.
func (g *Graph) OrphanNodes() []*Node {
	var orphans []*Node
	for _, id := range sortedKeys(g.Nodes) {
		if len(g.Outbound[id]) == 0 && len(g.Inbound[id]) == 0 {
			orphans = append(orphans, g.Nodes[id])
		}
	}
	return orphans
}

// DanglingTargets returns edges whose target was never registered with a
// kind, i.e. was only created implicitly by AddEdge.
func (g *Graph) DanglingTargets() []Link {
	var out []Link
	for _, sourceID := range sortedKeys(g.Outbound) {
		for _, link := range g.Outgoing(sourceID) {
			if link.Target.Kind == "" {
				out = append(out, link)
			}
		}
	}
	return out
}

// TopoSort orders nodes so that every node comes before the nodes it
// points to. Ties are broken by id so the order is stable.
func (g *Graph) TopoSort() ([]string, error) {
	indegree := make(map[string]int, len(g.Nodes))
	for id := range g.Nodes {
		indegree[id] = len(g.Inbound[id])
	}

	var ready []string
	for id, d := range indegree {
		if d == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.Nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		var released []string
		for _, target := range sortedKeys(g.Outbound[id]) {
			indegree[target]--
			if indegree[target] == 0 {
				released = append(released, target)
			}
		}
		ready = append(ready, released...)
		sort.Strings(ready)
	}

	if len(order) != len(g.Nodes) {
		return nil, fmt.Errorf("graph: cycle among %d nodes", len(g.Nodes)-len(order))
	}
	return order, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
