package bootstrap

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kbukum/networkable/component"
)

// Summary renders what an application started with.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
}

// NewSummary creates a summary for the named service.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// Write prints the summary with the registry's components and their live
// health to w.
func (s *Summary) Write(ctx context.Context, w io.Writer, registry *component.Registry) {
	fmt.Fprintf(w, "%s %s started in %s\n", s.serviceName, s.version, s.startupDuration.Round(time.Millisecond))

	descs := registry.Describe()
	health := make(map[string]component.Health)
	for _, h := range registry.HealthAll(ctx) {
		health[h.Name] = h
	}

	if len(descs) == 0 {
		fmt.Fprintln(w, "   └── no components registered")
		return
	}
	for i, d := range descs {
		prefix := "├──"
		if i == len(descs)-1 {
			prefix = "└──"
		}
		h := health[d.Name]
		line := fmt.Sprintf("   %s %s %s [%s]", prefix, healthIcon(h.Status), d.Name, d.Type)
		if d.Details != "" {
			line += " " + d.Details
		}
		if h.Message != "" {
			line += " (" + h.Message + ")"
		}
		fmt.Fprintln(w, line)
	}
}

func healthIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
