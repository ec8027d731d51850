package visualization

import (
	"math"
	"math/rand"
)

// ForceDirectedLayout implements force-directed graph layout. Runs with the
// same seed produce the same positions.
type ForceDirectedLayout struct {
	config *LayoutConfig
}

// NewForceDirectedLayout creates a new force-directed layout
func NewForceDirectedLayout(config *LayoutConfig) *ForceDirectedLayout {
	if config.Iterations == 0 {
		config.Iterations = 50
	}
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &ForceDirectedLayout{config: config}
}

// ComputeLayout computes positions using force-directed algorithm
func (fdl *ForceDirectedLayout) ComputeLayout(g *Graph) map[string]Position {
	cfg := fdl.config
	ids := g.IDs()
	if len(ids) == 0 {
		return make(map[string]Position)
	}
	if len(ids) == 1 {
		return map[string]Position{ids[0]: {X: cfg.Width / 2, Y: cfg.Height / 2}}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	positions := make(map[string]Position, len(ids))
	for _, id := range ids {
		positions[id] = Position{
			X: rng.Float64()*(cfg.Width-2*cfg.Padding) + cfg.Padding,
			Y: rng.Float64()*(cfg.Height-2*cfg.Padding) + cfg.Padding,
		}
	}

	k := math.Sqrt((cfg.Width * cfg.Height) / float64(len(ids))) // Optimal distance
	temperature := cfg.Width / 10.0

	for iter := 0; iter < cfg.Iterations; iter++ {
		forces := make(map[string]Position, len(ids))

		// Repulsion between all nodes
		for i, id1 := range ids {
			for _, id2 := range ids[i+1:] {
				dx := positions[id1].X - positions[id2].X
				dy := positions[id1].Y - positions[id2].Y
				dist := math.Max(math.Sqrt(dx*dx+dy*dy), 0.01)

				force := (k * k) / dist
				fx, fy := (dx/dist)*force, (dy/dist)*force
				forces[id1] = Position{X: forces[id1].X + fx, Y: forces[id1].Y + fy}
				forces[id2] = Position{X: forces[id2].X - fx, Y: forces[id2].Y - fy}
			}
		}

		// Attraction between connected nodes
		for _, id1 := range ids {
			for _, id2 := range g.Neighbours(id1) {
				dx := positions[id1].X - positions[id2].X
				dy := positions[id1].Y - positions[id2].Y
				dist := math.Sqrt(dx*dx + dy*dy)
				if dist < 0.01 {
					continue
				}

				force := (dist * dist) / k
				forces[id1] = Position{
					X: forces[id1].X - (dx/dist)*force,
					Y: forces[id1].Y - (dy/dist)*force,
				}
			}
		}

		// Apply forces with cooling
		cool := 1.0 - float64(iter)/float64(cfg.Iterations)
		for _, id := range ids {
			fx, fy := forces[id].X, forces[id].Y
			force := math.Sqrt(fx*fx + fy*fy)
			if force > 0 {
				step := math.Min(force, temperature) * cool
				positions[id] = Position{
					X: positions[id].X + (fx/force)*step,
					Y: positions[id].Y + (fy/force)*step,
				}
			}
		}

		temperature *= 0.95
	}

	return fitToCanvas(positions, cfg.Width, cfg.Height, cfg.Padding)
}
