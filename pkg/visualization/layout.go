package visualization

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Visualization is a graph with a layout applied
type Visualization struct {
	Graph     *Graph
	Positions map[string]Position
}

// NewLayout returns the layout with the given name: hierarchical, circular
// or force.
func NewLayout(name string, config *LayoutConfig) (Layout, error) {
	switch strings.ToLower(name) {
	case "", "hierarchical":
		return NewHierarchicalLayout(config), nil
	case "circular":
		return NewCircularLayout(config), nil
	case "force":
		return NewForceDirectedLayout(config), nil
	default:
		return nil, fmt.Errorf("unknown layout %q", name)
	}
}

// Visualize lays out the graph.
func Visualize(g *Graph, layout Layout) *Visualization {
	return &Visualization{Graph: g, Positions: layout.ComputeLayout(g)}
}

// ExportJSON exports the visualization to JSON
func (v *Visualization) ExportJSON() ([]byte, error) {
	type nodeViz struct {
		Node
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	type vizData struct {
		Nodes []nodeViz `json:"nodes"`
		Edges []Edge    `json:"edges"`
	}

	data := vizData{
		Nodes: make([]nodeViz, 0, len(v.Graph.Nodes)),
		Edges: append(make([]Edge, 0, len(v.Graph.Edges)), v.Graph.Edges...),
	}
	for _, n := range v.Graph.Nodes {
		pos := v.Positions[n.ID]
		data.Nodes = append(data.Nodes, nodeViz{Node: n, X: pos.X, Y: pos.Y})
	}
	return json.Marshal(data)
}

// fitToCanvas scales positions into the canvas less its padding. An axis on
// which every node has the same coordinate is centred.
func fitToCanvas(positions map[string]Position, width, height, padding float64) map[string]Position {
	if len(positions) == 0 {
		return positions
	}

	lo := Position{X: math.Inf(1), Y: math.Inf(1)}
	hi := Position{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, p := range positions {
		lo.X, hi.X = min(lo.X, p.X), max(hi.X, p.X)
		lo.Y, hi.Y = min(lo.Y, p.Y), max(hi.Y, p.Y)
	}

	scale := func(v, lo, hi, size float64) float64 {
		span := hi - lo
		if span < 0.01 {
			return size / 2
		}
		return padding + (v-lo)/span*(size-2*padding)
	}

	fitted := make(map[string]Position, len(positions))
	for id, p := range positions {
		fitted[id] = Position{
			X: scale(p.X, lo.X, hi.X, width),
			Y: scale(p.Y, lo.Y, hi.Y, height),
		}
	}
	return fitted
}
