package networktrace

import (
	"github.com/google/uuid"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/traversal"
)

// TreeNode is a piece of equipment in the tree of paths taken by a trace.
type TreeNode struct {
	Equipment cim.ConductingEquipment
	Parent    *TreeNode
	Children  []*TreeNode
	Depth     int
}

func newTreeNode(eq cim.ConductingEquipment, parent *TreeNode) *TreeNode {
	node := &TreeNode{Equipment: eq, Parent: parent}
	if parent != nil {
		node.Depth = parent.Depth + 1
	}
	return node
}

// EquipmentTreeBuilder records the paths taken by a network trace as a tree
// of equipment. Start items become roots and every actioned external step
// adds a child to the node it came from. Add it to a trace with
// AddStepAction.
//
// With a branching trace that goes round loops both ways, equipment on a
// loop appears once per direction.
type EquipmentTreeBuilder struct {
	key     string
	roots   []*TreeNode
	byRoot  map[cim.ConductingEquipment]*TreeNode
	applied map[*TreeNode]bool
	isLeaf  map[*TreeNode]bool
}

func NewEquipmentTreeBuilder() *EquipmentTreeBuilder {
	return &EquipmentTreeBuilder{
		key:     "equipment-tree:" + uuid.NewString(),
		byRoot:  make(map[cim.ConductingEquipment]*TreeNode),
		applied: make(map[*TreeNode]bool),
		isLeaf:  make(map[*TreeNode]bool),
	}
}

func (b *EquipmentTreeBuilder) Key() string { return b.key }

func (b *EquipmentTreeBuilder) ComputeInitialValue(item *StepInfo) any {
	eq := item.Path.ToTerminal.Equipment()
	if node, ok := b.byRoot[eq]; ok {
		return node
	}
	node := newTreeNode(eq, nil)
	b.byRoot[eq] = node
	b.roots = append(b.roots, node)
	return node
}

func (b *EquipmentTreeBuilder) ComputeNextValue(next, _ *StepInfo, currentValue any) any {
	current, _ := currentValue.(*TreeNode)
	if next.Path.TracedInternally() {
		return current
	}
	return newTreeNode(next.Path.ToTerminal.Equipment(), current)
}

func (b *EquipmentTreeBuilder) Apply(_ *StepInfo, ctx *traversal.StepContext) error {
	node, ok := traversal.ContextValue[*TreeNode](ctx, b.key)
	if !ok || b.applied[node] {
		return nil
	}
	b.applied[node] = true
	b.isLeaf[node] = true
	if node.Parent != nil {
		delete(b.isLeaf, node.Parent)
		node.Parent.Children = append(node.Parent.Children, node)
	}
	return nil
}

// Roots returns the root of each start equipment, in the order they were
// first seen.
func (b *EquipmentTreeBuilder) Roots() []*TreeNode { return b.roots }

// Leaves returns the nodes that have no children.
func (b *EquipmentTreeBuilder) Leaves() []*TreeNode {
	var leaves []*TreeNode
	for _, node := range b.Nodes() {
		if b.isLeaf[node] {
			leaves = append(leaves, node)
		}
	}
	return leaves
}

// Nodes returns every node of the tree, depth first from each root.
func (b *EquipmentTreeBuilder) Nodes() []*TreeNode {
	var nodes []*TreeNode
	var walk func(*TreeNode)
	walk = func(n *TreeNode) {
		nodes = append(nodes, n)
		for _, child := range n.Children {
			walk(child)
		}
	}
	for _, root := range b.roots {
		walk(root)
	}
	return nodes
}

// Clear forgets the tree so the builder can be used with another run.
func (b *EquipmentTreeBuilder) Clear() {
	b.roots = nil
	clear(b.byRoot)
	clear(b.applied)
	clear(b.isLeaf)
}
