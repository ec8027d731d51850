package health

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
)

// NetworkCheck reports whether a network is loaded and has something to
// trace from
func NetworkCheck(getNetwork func() *cim.Network) CheckFunc {
	return func() Check {
		check := Check{Name: "network", Details: make(map[string]any)}

		network := getNetwork()
		if network == nil || len(network.AllEquipment()) == 0 {
			check.Status = StatusUnhealthy
			check.Message = "No network loaded"
			return check
		}

		sources := len(network.EnergySources())
		check.Details["equipment"] = len(network.AllEquipment())
		check.Details["terminals"] = len(network.AllTerminals())
		check.Details["energy_sources"] = sources
		check.Details["feeders"] = len(network.Feeders())

		if sources == 0 {
			check.Status = StatusDegraded
			check.Message = "Network has no energy sources"
		} else {
			check.Status = StatusHealthy
			check.Message = "Network loaded"
		}
		return check
	}
}

// PhasesCheck reports how much of the network has traced phases in the
// normal or current state
func PhasesCheck(getNetwork func() *cim.Network, current bool) CheckFunc {
	return func() Check {
		check := Check{Name: "phases", Details: make(map[string]any)}

		network := getNetwork()
		if network == nil {
			check.Status = StatusUnhealthy
			check.Message = "No network loaded"
			return check
		}

		total, energised := 0, 0
		for _, t := range network.AllTerminals() {
			status := t.NormalPhases()
			if current {
				status = t.CurrentPhases()
			}
			total++
			for _, p := range t.Phases().SinglePhases() {
				if status.Get(p) != cim.PhaseNone {
					energised++
					break
				}
			}
		}

		check.Details["terminals"] = total
		check.Details["energised"] = energised
		switch {
		case total > 0 && energised == 0:
			check.Status = StatusUnhealthy
			check.Message = "Network has not been traced"
		case energised < total:
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("%d terminals have no traced phases", total-energised)
		default:
			check.Status = StatusHealthy
			check.Message = "All terminals energised"
		}
		return check
	}
}

// SnapshotCheck reports whether the snapshot at path exists and is recent
func SnapshotCheck(path string, maxAge time.Duration) CheckFunc {
	return func() Check {
		check := Check{Name: "snapshot", Details: map[string]any{"path": path}}

		info, err := os.Stat(path)
		if err != nil {
			check.Status = StatusDegraded
			check.Message = "No snapshot written"
			return check
		}

		age := time.Since(info.ModTime())
		check.Details["size_bytes"] = info.Size()
		check.Details["age_seconds"] = age.Seconds()
		if maxAge > 0 && age > maxAge {
			check.Status = StatusDegraded
			check.Message = "Snapshot is stale"
		} else {
			check.Status = StatusHealthy
			check.Message = "Snapshot is current"
		}
		return check
	}
}

// MemoryCheck reports heap usage against the memory obtained from the OS
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	return func() Check {
		check := Check{Name: "memory", Details: make(map[string]any)}

		alloc, sys := getUsage()
		check.Details["alloc_bytes"] = alloc
		check.Details["sys_bytes"] = sys

		if sys > 0 && float64(alloc)/float64(sys) > 0.9 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}
		return check
	}
}

// RuntimeMemory reads heap usage from the runtime
func RuntimeMemory() (alloc, sys uint64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc, m.Sys
}
