// Package phases traces, infers and removes the phases energising each
// terminal of a network.
//
// Phases are traced per state. Every tracer is bound to one set of network
// state operators, so the normal and current phases are worked out by
// running the tracer twice.
package phases

import (
	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/logging"
	"github.com/dd0wney/cluso-gridtrace/pkg/metrics"
	"github.com/dd0wney/cluso-gridtrace/pkg/networktrace"
)

// Option configures the phase tracers.
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
		o.metrics.RecordPhaseChange(state, operation)
	}
}

// tracePhases is the step data of the phase traces: the phase paths of the
// step that changed the to terminal.
type tracePhases = []cim.NominalPhasePath

type phaseStep = networktrace.Step[tracePhases]

// closedPaths drops the phase paths of an internal step that are open on
// its equipment.
func closedPaths(ops networktrace.NetworkStateOperators, path networktrace.Path) []cim.NominalPhasePath {
	if path.TracedExternally() {
		return path.NominalPhasePaths
	}
	eq := path.ToTerminal.Equipment()
	kept := make([]cim.NominalPhasePath, 0, len(path.NominalPhasePaths))
	for _, p := range path.NominalPhasePaths {
		if !ops.IsOpen(eq, p.From) {
			kept = append(kept, p)
		}
	}
	return kept
}

// pathWeight orders phase traces so steps carrying the most phases go
// first.
func pathWeight(s *phaseStep) int {
	return len(s.Path.NominalPhasePaths)
}

// energised reports whether any nominal phase of t has a phase traced in
// status.
func energised(status cim.PhaseStatus, t *cim.Terminal) bool {
	for _, nominal := range t.Phases().SinglePhases() {
		if status.Get(nominal) != cim.PhaseNone {
			return true
		}
	}
	return false
}
