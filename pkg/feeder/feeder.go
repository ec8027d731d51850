// Package feeder assigns and clears feeder directions on the terminals of a
// network.
//
// A terminal is DOWNSTREAM when power leaves its equipment through it and
// UPSTREAM when power enters. Terminals on a loop are fed from both sides
// and end up BOTH.
package feeder

import (
	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/logging"
	"github.com/dd0wney/cluso-gridtrace/pkg/metrics"
)

// Option configures the direction tracers.
type Option func(*options)

type options struct {
	logger  logging.Logger
	metrics *metrics.Registry
}

func WithLogger(logger logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithMetrics(registry *metrics.Registry) Option {
	return func(o *options) { o.metrics = registry }
}

func newOptions(opts []Option) options {
	o := options{logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) recordChange(state, operation string) {
	if o.metrics != nil {
		o.metrics.RecordDirectionChange(state, operation)
	}
}

// StartTerminals returns the terminals directions are assigned from: the head
// of every feeder, then every terminal of an energy source that is not part
// of a feeder.
func StartTerminals(network *cim.Network) []*cim.Terminal {
	var terminals []*cim.Terminal
	for _, f := range network.Feeders() {
		if head := f.NormalHeadTerminal(); head != nil {
			terminals = append(terminals, head)
		}
	}
	for _, source := range network.EnergySources() {
		if inFeeder(source) {
			continue
		}
		terminals = append(terminals, source.Terminals()...)
	}
	return terminals
}

// isStartTerminal reports whether StartTerminals would return t.
func isStartTerminal(t *cim.Terminal) bool {
	if t.IsFeederHeadTerminal() {
		return true
	}
	source, ok := t.Equipment().(*cim.EnergySource)
	return ok && !inFeeder(source)
}

func inFeeder(eq cim.ConductingEquipment) bool {
	for _, c := range eq.Containers() {
		if _, ok := c.(*cim.Feeder); ok {
			return true
		}
	}
	return false
}
