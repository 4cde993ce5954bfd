package system

import (
	"fmt"

	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// NavigationGraph is the structural map of one system: node positions,
// types, orbital relationships and a precomputed bidirectional edge set.
// Trait data lives in the waypoint cache, not here; graphs are cached
// indefinitely while traits expire.
type NavigationGraph struct {
	SystemSymbol string                `json:"system"`
	Nodes        map[string]*GraphNode `json:"waypoints"`
	Edges        []GraphEdge           `json:"edges"`
}

// GraphNode is a structure-only waypoint: coordinates, type tag and orbital
// children by symbol
type GraphNode struct {
	Symbol   string   `json:"symbol"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Type     string   `json:"type"`
	Orbitals []string `json:"orbitals,omitempty"`
}

// GraphEdge is a directed connection between two nodes. AddEdge stores both
// directions.
type GraphEdge struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Distance float64  `json:"distance"`
	Type     EdgeType `json:"type"`
}

// EdgeType distinguishes free orbital hops from powered travel
type EdgeType string

const (
	EdgeTypeOrbital EdgeType = "orbital"
	EdgeTypeNormal  EdgeType = "normal"
)

// NewNavigationGraph creates an empty graph for a system
func NewNavigationGraph(systemSymbol string) *NavigationGraph {
	return &NavigationGraph{
		SystemSymbol: systemSymbol,
		Nodes:        make(map[string]*GraphNode),
		Edges:        []GraphEdge{},
	}
}

// AddNode registers a waypoint's structure
func (g *NavigationGraph) AddNode(node *GraphNode) {
	g.Nodes[node.Symbol] = node
}

// AddEdge stores a bidirectional connection
func (g *NavigationGraph) AddEdge(from, to string, distance float64, edgeType EdgeType) {
	g.Edges = append(g.Edges,
		GraphEdge{From: from, To: to, Distance: distance, Type: edgeType},
		GraphEdge{From: to, To: from, Distance: distance, Type: edgeType},
	)
}

// Node retrieves a node by symbol
func (g *NavigationGraph) Node(symbol string) (*GraphNode, error) {
	node, exists := g.Nodes[symbol]
	if !exists {
		return nil, fmt.Errorf("waypoint %s not in graph for %s", symbol, g.SystemSymbol)
	}
	return node, nil
}

// HasNode reports whether a symbol is in the graph
func (g *NavigationGraph) HasNode(symbol string) bool {
	_, exists := g.Nodes[symbol]
	return exists
}

// EdgesFrom returns the outbound edges of one node
func (g *NavigationGraph) EdgesFrom(symbol string) []GraphEdge {
	var edges []GraphEdge
	for _, edge := range g.Edges {
		if edge.From == symbol {
			edges = append(edges, edge)
		}
	}
	return edges
}

func (g *NavigationGraph) NodeCount() int { return len(g.Nodes) }
func (g *NavigationGraph) EdgeCount() int { return len(g.Edges) }

// BuildFromWaypoints populates nodes and the complete edge set from full
// waypoint records. Orbital pairs get zero-distance orbital edges; every
// other pair gets a normal edge at Euclidean distance.
func BuildFromWaypoints(systemSymbol string, waypoints []*shared.Waypoint) *NavigationGraph {
	g := NewNavigationGraph(systemSymbol)

	for _, wp := range waypoints {
		g.AddNode(&GraphNode{
			Symbol:   wp.Symbol,
			X:        wp.X,
			Y:        wp.Y,
			Type:     wp.Type,
			Orbitals: wp.Orbitals,
		})
	}

	for i := 0; i < len(waypoints); i++ {
		for j := i + 1; j < len(waypoints); j++ {
			a, b := waypoints[i], waypoints[j]
			if a.IsOrbitalOf(b) {
				g.AddEdge(a.Symbol, b.Symbol, 0, EdgeTypeOrbital)
			} else {
				g.AddEdge(a.Symbol, b.Symbol, a.DistanceTo(b), EdgeTypeNormal)
			}
		}
	}
	return g
}
