package traversal

// StepContext carries the per-item state of a traversal.
type StepContext struct {
	IsStartItem       bool
	IsBranchStartItem bool
	StepNumber        int
	BranchDepth       int
	// IsStopping is set before step actions run when the item matched a
	// stop condition.
	IsStopping bool
	// IsActionableItem is false when step actions and stop conditions were
	// skipped for the item.
	IsActionableItem bool

	values map[string]any
}

func newStepContext(isStart, isBranchStart bool, stepNumber, branchDepth int, values map[string]any) *StepContext {
	return &StepContext{
		IsStartItem:       isStart,
		IsBranchStartItem: isBranchStart,
		StepNumber:        stepNumber,
		BranchDepth:       branchDepth,
		values:            values,
	}
}

// Value returns the context value computed for key, or nil.
func (c *StepContext) Value(key string) any {
	if c.values == nil {
		return nil
	}
	return c.values[key]
}

// SetValue overrides a context value.
func (c *StepContext) SetValue(key string, value any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[key] = value
}

// ContextValue returns the value stored under key as a T.
func ContextValue[T any](c *StepContext, key string) (T, bool) {
	v, ok := c.Value(key).(T)
	return v, ok
}
