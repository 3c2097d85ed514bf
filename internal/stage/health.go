// Package stage reports the readiness of each pipeline stage.
package stage

import "strings"

// Health summarizes whether a pipeline stage can run.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}

// Overall folds stage readiness into "ok" or "degraded" plus the names of
// the stages that cannot run.
func Overall(health []Health) (string, string) {
	var blocked []string
	for _, h := range health {
		if !h.Ready {
			blocked = append(blocked, h.Name)
		}
	}
	if len(blocked) == 0 {
		return "ok", ""
	}
	return "degraded", strings.Join(blocked, ", ")
}
