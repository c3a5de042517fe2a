package handlers

import (
	"net/http"
	"time"

	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/deps"
	"github.com/sweedalp/smart-bookmark-app/internal/scheduler"
)

type liveStatus struct {
	Mounted    int    `json:"mounted"`
	LastChange string `json:"last_change"`
}

type infraResponse struct {
	Mode       string                      `json:"mode"`
	Components []scheduler.ComponentStatus `json:"components"`
	LiveViews  liveStatus                  `json:"live_views"`
}

// Infra reports cached component status and live view bookkeeping.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var components []scheduler.ComponentStatus
		if d.Health != nil {
			components = d.Health.Snapshot()
		}

		live := liveStatus{LastChange: "never"}
		if d.Registry != nil {
			live.Mounted = d.Registry.Count()
			if lc := d.Registry.LastChange(); !lc.IsZero() {
				live.LastChange = lc.UTC().Format(time.RFC3339)
			}
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
			LiveViews:  live,
		})
	}
}

// criticalComponents cannot be lost without taking the app down: postgres
// holds the bookmarks and redis holds every session.
var criticalComponents = map[string]bool{"postgres": true, "redis": true}

// determineMode is "critical" when a critical component is down, "degraded"
// when any other component is down and "ok" otherwise.
func determineMode(components []scheduler.ComponentStatus) string {
	if len(components) == 0 {
		return "unknown"
	}
	mode := "ok"
	for _, c := range components {
		if c.Up {
			continue
		}
		if criticalComponents[c.Name] {
			return "critical"
		}
		mode = "degraded"
	}
	return mode
}
