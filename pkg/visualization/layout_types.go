// Package visualization lays out networks and equipment trees and renders
// them as JSON or Graphviz DOT.
package visualization

// Position represents a 2D coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LayoutConfig configures layout parameters
type LayoutConfig struct {
	Width      float64 // Canvas width
	Height     float64 // Canvas height
	Iterations int     // Number of iterations for iterative algorithms
	Padding    float64 // Padding from edges
	Seed       int64   // Seed for the initial positions of iterative algorithms
}

// Layout interface for different layout algorithms
type Layout interface {
	ComputeLayout(g *Graph) map[string]Position
}

// Node is a piece of equipment to draw.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
	Depth int    `json:"depth,omitempty"`
}

// Edge joins two nodes. Tree edges run from parent to child.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}
