package visualization

// HierarchicalLayout arranges nodes in levels below the nodes that have no
// incoming edges
type HierarchicalLayout struct {
	config *LayoutConfig
}

// NewHierarchicalLayout creates a new hierarchical layout
func NewHierarchicalLayout(config *LayoutConfig) *HierarchicalLayout {
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &HierarchicalLayout{config: config}
}

// Levels groups node IDs by their distance from the roots. Nodes that cannot
// be reached from a root go on the last level.
func (hl *HierarchicalLayout) Levels(g *Graph) [][]string {
	if len(g.Nodes) == 0 {
		return nil
	}

	var roots []string
	for _, id := range g.IDs() {
		if len(g.Incoming(id)) == 0 {
			roots = append(roots, id)
		}
	}
	if len(roots) == 0 {
		roots = []string{g.Nodes[0].ID}
	}

	var levels [][]string
	visited := make(map[string]bool)
	for _, id := range roots {
		visited[id] = true
	}
	current := roots
	for len(current) > 0 {
		levels = append(levels, current)
		var next []string
		for _, id := range current {
			for _, to := range g.Outgoing(id) {
				if !visited[to] {
					visited[to] = true
					next = append(next, to)
				}
			}
		}
		current = next
	}

	for _, id := range g.IDs() {
		if !visited[id] {
			levels[len(levels)-1] = append(levels[len(levels)-1], id)
		}
	}
	return levels
}

// ComputeLayout arranges nodes hierarchically
func (hl *HierarchicalLayout) ComputeLayout(g *Graph) map[string]Position {
	positions := make(map[string]Position)
	levels := hl.Levels(g)
	if len(levels) == 0 {
		return positions
	}

	levelHeight := (hl.config.Height - 2*hl.config.Padding) / float64(len(levels))
	levelWidth := hl.config.Width - 2*hl.config.Padding

	for levelIdx, level := range levels {
		y := hl.config.Padding + float64(levelIdx)*levelHeight + levelHeight/2
		spacing := levelWidth / float64(len(level)+1)
		for nodeIdx, id := range level {
			positions[id] = Position{X: hl.config.Padding + spacing*float64(nodeIdx+1), Y: y}
		}
	}
	return positions
}
