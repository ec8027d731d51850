// Package connectivity works out which nominal phases join two terminals,
// either across a connectivity node or through a piece of equipment.
package connectivity

import (
	"slices"
	"strings"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
)

// Result is the connectivity between two terminals. The nominal phase paths
// are sorted and deduplicated when the result is built, so two results over
// the same terminals compare equal whatever order their paths were given in.
type Result struct {
	from  *cim.Terminal
	to    *cim.Terminal
	paths []cim.NominalPhasePath
}

// NewResult builds a result. The paths slice is copied.
func NewResult(from, to *cim.Terminal, paths []cim.NominalPhasePath) *Result {
	return &Result{from: from, to: to, paths: SortPaths(paths)}
}

// SortPaths returns a sorted copy of paths with duplicates removed.
func SortPaths(paths []cim.NominalPhasePath) []cim.NominalPhasePath {
	sorted := slices.Clone(paths)
	slices.SortFunc(sorted, func(a, b cim.NominalPhasePath) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		default:
			return 0
		}
	})
	return slices.Compact(sorted)
}

func (r *Result) FromTerminal() *cim.Terminal { return r.from }
func (r *Result) ToTerminal() *cim.Terminal   { return r.to }

// NominalPhasePaths returns the sorted paths. The slice must not be modified.
func (r *Result) NominalPhasePaths() []cim.NominalPhasePath { return r.paths }

// HasPaths reports whether any phase connects the two terminals.
func (r *Result) HasPaths() bool { return len(r.paths) > 0 }

func (r *Result) FromEquipment() cim.ConductingEquipment { return r.from.Equipment() }
func (r *Result) ToEquipment() cim.ConductingEquipment   { return r.to.Equipment() }

// FromNominalPhases returns the from side of each path.
func (r *Result) FromNominalPhases() []cim.SinglePhaseKind {
	phases := make([]cim.SinglePhaseKind, len(r.paths))
	for i, p := range r.paths {
		phases[i] = p.From
	}
	return phases
}

// ToNominalPhases returns the to side of each path.
func (r *Result) ToNominalPhases() []cim.SinglePhaseKind {
	phases := make([]cim.SinglePhaseKind, len(r.paths))
	for i, p := range r.paths {
		phases[i] = p.To
	}
	return phases
}

// Equal compares terminal identity and phase paths.
func (r *Result) Equal(other *Result) bool {
	if r == other {
		return true
	}
	if r == nil || other == nil {
		return false
	}
	return r.from == other.from && r.to == other.to && slices.Equal(r.paths, other.paths)
}

// Key returns a string that is equal for equal results, for use as a map key.
func (r *Result) Key() string {
	var sb strings.Builder
	sb.WriteString(r.from.MRID())
	sb.WriteByte('|')
	sb.WriteString(r.to.MRID())
	for i, p := range r.paths {
		if i == 0 {
			sb.WriteByte('|')
		} else {
			sb.WriteByte(',')
		}
		sb.WriteString(p.String())
	}
	return sb.String()
}

func (r *Result) String() string {
	return "ConnectivityResult{" + r.Key() + "}"
}
