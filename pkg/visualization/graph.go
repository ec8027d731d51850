package visualization

import (
	"fmt"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/networktrace"
)

// Graph is the drawable form of a network or an equipment tree.
type Graph struct {
	Nodes []Node
	Edges []Edge

	index    map[string]int
	outgoing map[string][]string
	incoming map[string][]string
}

func NewGraph() *Graph {
	return &Graph{
		index:    make(map[string]int),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// AddNode adds the node unless one with the same ID exists.
func (g *Graph) AddNode(n Node) {
	if _, ok := g.index[n.ID]; ok {
		return
	}
	g.index[n.ID] = len(g.Nodes)
	g.Nodes = append(g.Nodes, n)
}

// AddEdge joins two existing nodes.
func (g *Graph) AddEdge(from, to string) error {
	if _, ok := g.index[from]; !ok {
		return fmt.Errorf("edge from unknown node %s", from)
	}
	if _, ok := g.index[to]; !ok {
		return fmt.Errorf("edge to unknown node %s", to)
	}
	g.Edges = append(g.Edges, Edge{From: from, To: to})
	g.outgoing[from] = append(g.outgoing[from], to)
	g.incoming[to] = append(g.incoming[to], from)
	return nil
}

func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

func (g *Graph) Outgoing(id string) []string { return g.outgoing[id] }
func (g *Graph) Incoming(id string) []string { return g.incoming[id] }

// Neighbours returns the nodes joined to id in either direction.
func (g *Graph) Neighbours(id string) []string {
	out := append([]string(nil), g.outgoing[id]...)
	return append(out, g.incoming[id]...)
}

// IDs returns the node IDs in insertion order.
func (g *Graph) IDs() []string {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// FromTree converts equipment trees into a graph. Equipment can appear more
// than once in a tree, so node IDs are the mRID suffixed with its position
// in a depth first walk.
func FromTree(roots []*networktrace.TreeNode) *Graph {
	g := NewGraph()
	ids := make(map[*networktrace.TreeNode]string)

	var walk func(n *networktrace.TreeNode)
	walk = func(n *networktrace.TreeNode) {
		id := fmt.Sprintf("%s#%d", n.Equipment.MRID(), len(g.Nodes))
		ids[n] = id
		g.AddNode(Node{ID: id, Label: n.Equipment.MRID(), Kind: string(n.Equipment.Kind()), Depth: n.Depth})
		if n.Parent != nil {
			_ = g.AddEdge(ids[n.Parent], id)
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	for _, root := range roots {
		walk(root)
	}
	return g
}

// FromNetwork converts a network into a graph with an edge between each pair
// of equipment sharing a connectivity node.
func FromNetwork(network *cim.Network) *Graph {
	g := NewGraph()
	for _, eq := range network.AllEquipment() {
		g.AddNode(Node{ID: eq.MRID(), Label: eq.MRID(), Kind: string(eq.Kind())})
	}

	type pair struct{ a, b string }
	seen := make(map[pair]bool)
	for _, cn := range network.ConnectivityNodes() {
		terminals := cn.Terminals()
		for i, t1 := range terminals {
			for _, t2 := range terminals[i+1:] {
				a, b := t1.Equipment().MRID(), t2.Equipment().MRID()
				if a == b || seen[pair{a, b}] || seen[pair{b, a}] {
					continue
				}
				seen[pair{a, b}] = true
				_ = g.AddEdge(a, b)
			}
		}
	}
	return g
}
