package health

import (
	"sync"
	"time"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// worse reports whether s is a worse status than other
func (s Status) worse(other Status) bool {
	rank := map[Status]int{StatusHealthy: 0, StatusDegraded: 1, StatusUnhealthy: 2}
	return rank[s] > rank[other]
}

// Check is the result of one health check
type Check struct {
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	LastChecked time.Time      `json:"last_checked"`
	Duration    time.Duration  `json:"duration_ms"`
}

// CheckFunc performs a health check
type CheckFunc func() Check

// Kind selects the endpoint a check is reported on
type Kind int

const (
	KindHealth Kind = iota
	KindReadiness
	KindLiveness
)

// Checker runs the registered checks of a gridtrace process
type Checker struct {
	mu        sync.RWMutex
	checks    map[Kind]map[string]CheckFunc
	startedAt time.Time
}

// Response is the combined result of every check of one kind
type Response struct {
	Status    Status           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
	Uptime    float64          `json:"uptime_seconds"`
}
