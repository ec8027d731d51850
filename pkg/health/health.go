// Package health reports whether a gridtrace process has a usable network
// and traced state.
package health

import (
	"time"
)

// NewChecker creates a checker with no checks registered
func NewChecker() *Checker {
	return &Checker{
		checks: map[Kind]map[string]CheckFunc{
			KindHealth:    {},
			KindReadiness: {},
			KindLiveness:  {},
		},
		startedAt: time.Now(),
	}
}

// Register adds a check of the given kind, replacing any with the same name
func (c *Checker) Register(kind Kind, name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[kind][name] = check
}

// Run performs every check of the given kind. The worst status wins.
func (c *Checker) Run(kind Kind) Response {
	c.mu.RLock()
	defer c.mu.RUnlock()

	response := Response{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Checks:    make(map[string]Check, len(c.checks[kind])),
		Uptime:    time.Since(c.startedAt).Seconds(),
	}

	for name, checkFunc := range c.checks[kind] {
		start := time.Now()
		check := checkFunc()
		check.Duration = time.Since(start)
		check.LastChecked = start
		if check.Name == "" {
			check.Name = name
		}

		response.Checks[name] = check
		if check.Status.worse(response.Status) {
			response.Status = check.Status
		}
	}

	return response
}
