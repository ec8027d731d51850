package traversal

// StopCondition decides whether the traversal stops expanding past an item.
type StopCondition[T any] interface {
	ShouldStop(item T, ctx *StepContext) bool
}

// QueueCondition decides whether an item may be queued. All registered
// queue conditions must accept an item.
type QueueCondition[T any] interface {
	ShouldQueue(next T, nextCtx *StepContext, current T, currentCtx *StepContext) bool
	ShouldQueueStartItem(item T) bool
}

// StepAction is applied to every visited item.
type StepAction[T any] interface {
	Apply(item T, ctx *StepContext) error
}

// ContextValueComputer maintains a value under Key in each StepContext.
type ContextValueComputer[T any] interface {
	Key() string
	ComputeInitialValue(item T) any
	ComputeNextValue(next T, current T, currentValue any) any
}

// StopConditionFunc adapts a function into a StopCondition.
type StopConditionFunc[T any] func(item T, ctx *StepContext) bool

func (f StopConditionFunc[T]) ShouldStop(item T, ctx *StepContext) bool {
	return f(item, ctx)
}

// QueueConditionFunc adapts a function into a QueueCondition. Start items
// are always accepted.
type QueueConditionFunc[T any] func(next T, nextCtx *StepContext, current T, currentCtx *StepContext) bool

func (f QueueConditionFunc[T]) ShouldQueue(next T, nextCtx *StepContext, current T, currentCtx *StepContext) bool {
	return f(next, nextCtx, current, currentCtx)
}

func (f QueueConditionFunc[T]) ShouldQueueStartItem(T) bool { return true }

// StepActionFunc adapts a function into a StepAction.
type StepActionFunc[T any] func(item T, ctx *StepContext) error

func (f StepActionFunc[T]) Apply(item T, ctx *StepContext) error {
	return f(item, ctx)
}

type conditionalAction[T any] struct {
	action   StepAction[T]
	stopping bool
}

func (a conditionalAction[T]) Apply(item T, ctx *StepContext) error {
	if ctx.IsStopping != a.stopping {
		return nil
	}
	return a.action.Apply(item, ctx)
}

// IfStopping wraps an action so it only runs on items that matched a stop
// condition.
func IfStopping[T any](action StepAction[T]) StepAction[T] {
	return conditionalAction[T]{action: action, stopping: true}
}

// IfNotStopping wraps an action so it only runs on items that did not match a
// stop condition.
func IfNotStopping[T any](action StepAction[T]) StepAction[T] {
	return conditionalAction[T]{action: action, stopping: false}
}
