package visualization

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
)

var kindShapes = map[string]string{
	"EnergySource":     "doublecircle",
	"EnergyConsumer":   "invtriangle",
	"Breaker":          "box",
	"Disconnector":     "box",
	"Fuse":             "box",
	"Jumper":           "box",
	"Cut":              "box",
	"BusbarSection":    "rect",
	"AcLineSegment":    "ellipse",
	"PowerTransformer": "diamond",
	"Junction":         "point",
	"Clamp":            "point",
}

// ExportDOT renders the visualization as a Graphviz graph named name. Tree
// graphs are directed. Positions are pinned so neato draws the layout as
// computed.
func (v *Visualization) ExportDOT(name string, directed bool) (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName(strconv.Quote(name)); err != nil {
		return "", err
	}
	if err := g.SetDir(directed); err != nil {
		return "", err
	}
	graphName := strconv.Quote(name)
	if err := g.AddAttr(graphName, "rankdir", "TB"); err != nil {
		return "", err
	}

	for _, n := range v.Graph.Nodes {
		attrs := map[string]string{
			"label":   strconv.Quote(n.Label),
			"tooltip": strconv.Quote(n.Kind),
		}
		if shape, ok := kindShapes[n.Kind]; ok {
			attrs["shape"] = shape
		}
		if pos, ok := v.Positions[n.ID]; ok {
			attrs["pos"] = strconv.Quote(fmt.Sprintf("%.1f,%.1f!", pos.X, pos.Y))
		}
		if err := g.AddNode(graphName, strconv.Quote(n.ID), attrs); err != nil {
			return "", fmt.Errorf("add node %s: %w", n.ID, err)
		}
	}

	for _, e := range v.Graph.Edges {
		if err := g.AddEdge(strconv.Quote(e.From), strconv.Quote(e.To), directed, nil); err != nil {
			return "", fmt.Errorf("add edge %s-%s: %w", e.From, e.To, err)
		}
	}
	return g.String(), nil
}

// ParseDOT reads back the node and edge names of a DOT graph, unquoted.
func ParseDOT(dot string) (nodes []string, edges []Edge, err error) {
	ast, err := gographviz.ParseString(dot)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse DOT: %w", err)
	}
	g := gographviz.NewGraph()
	if err := gographviz.Analyse(ast, g); err != nil {
		return nil, nil, fmt.Errorf("failed to analyze DOT: %w", err)
	}

	for _, n := range g.Nodes.Nodes {
		nodes = append(nodes, unquote(n.Name))
	}
	for _, e := range g.Edges.Edges {
		edges = append(edges, Edge{From: unquote(e.Src), To: unquote(e.Dst)})
	}
	return nodes, edges, nil
}

func unquote(s string) string {
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return s
}
