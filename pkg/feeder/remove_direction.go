package feeder

import (
	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/logging"
	"github.com/dd0wney/cluso-gridtrace/pkg/networktrace"
)

// RemoveDirection resets the direction of every terminal in a network.
type RemoveDirection struct {
	ops  networktrace.NetworkStateOperators
	opts options
}

func NewRemoveDirection(ops networktrace.NetworkStateOperators, opts ...Option) *RemoveDirection {
	return &RemoveDirection{ops: ops, opts: newOptions(opts)}
}

// Run sets every terminal to NONE and returns how many changed.
func (r *RemoveDirection) Run(network *cim.Network) int {
	removed := 0
	for _, t := range network.AllTerminals() {
		if r.ops.SetDirection(t, cim.DirectionNone) {
			removed++
			r.opts.recordChange(r.ops.Description(), "remove")
		}
	}
	r.opts.logger.Info("feeder directions removed",
		logging.String("state", r.ops.Description()),
		logging.Count(removed),
	)
	return removed
}
