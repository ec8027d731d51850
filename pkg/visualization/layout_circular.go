package visualization

import "math"

// CircularLayout arranges nodes in a circle
type CircularLayout struct {
	config *LayoutConfig
}

// NewCircularLayout creates a new circular layout
func NewCircularLayout(config *LayoutConfig) *CircularLayout {
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &CircularLayout{config: config}
}

// ComputeLayout places nodes around a circle in insertion order
func (cl *CircularLayout) ComputeLayout(g *Graph) map[string]Position {
	positions := make(map[string]Position)
	if len(g.Nodes) == 0 {
		return positions
	}

	centerX := cl.config.Width / 2
	centerY := cl.config.Height / 2
	radius := math.Min(centerX, centerY) - cl.config.Padding
	angleStep := 2 * math.Pi / float64(len(g.Nodes))

	for i, n := range g.Nodes {
		angle := float64(i) * angleStep
		positions[n.ID] = Position{
			X: centerX + radius*math.Cos(angle),
			Y: centerY + radius*math.Sin(angle),
		}
	}
	return positions
}
