// Package operators holds the pair of network state operators an
// application works with.
package operators

import (
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-gridtrace/pkg/networktrace"
)

// Set is the normal and current state operators. Build it once and pass it
// to whatever configures traces.
type Set struct {
	Normal  networktrace.NetworkStateOperators
	Current networktrace.NetworkStateOperators
}

// NewSet returns the standard operators for both states.
func NewSet() Set {
	return Set{
		Normal:  networktrace.NewNormalStateOperators(),
		Current: networktrace.NewCurrentStateOperators(),
	}
}

// Both returns the normal then the current operators.
func (s Set) Both() []networktrace.NetworkStateOperators {
	return []networktrace.NetworkStateOperators{s.Normal, s.Current}
}

// Select returns the operators named "normal" or "current".
func (s Set) Select(name string) (networktrace.NetworkStateOperators, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "normal":
		return s.Normal, nil
	case "current":
		return s.Current, nil
	default:
		return nil, fmt.Errorf("unknown network state %q: want normal or current", name)
	}
}
