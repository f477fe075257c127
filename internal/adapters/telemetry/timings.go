package telemetry

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"go.trai.ch/neja/internal/core/ports"
)

type phase struct {
	name  string
	start time.Time
	depth int
}

// PhaseLog implements ports.PhaseReporter by logging each finished phase at debug level.
type PhaseLog struct {
	logger ports.Logger

	mu     sync.Mutex
	phases map[string]phase
}

// NewPhaseLog creates a PhaseLog writing to logger.
func NewPhaseLog(logger ports.Logger) *PhaseLog {
	return &PhaseLog{logger: logger, phases: make(map[string]phase)}
}

// OnPhaseStart records the start of a phase.
func (p *PhaseLog) OnPhaseStart(id, parentID, name string, start time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	depth := 0
	if parent, ok := p.phases[parentID]; ok {
		depth = parent.depth + 1
	}
	p.phases[id] = phase{name: name, start: start, depth: depth}
}

// OnPhaseComplete logs the duration of a phase and its counts, sorted by name.
func (p *PhaseLog) OnPhaseComplete(result ports.PhaseResult) {
	p.mu.Lock()
	ph, ok := p.phases[result.ID]
	delete(p.phases, result.ID)
	p.mu.Unlock()
	if !ok {
		return
	}

	status := "done"
	if result.Err != nil {
		status = "failed"
	}
	line := fmt.Sprintf("%s%s %s in %s", strings.Repeat("  ", ph.depth), ph.name, status,
		result.End.Sub(ph.start).Round(time.Microsecond))
	if len(result.Counts) > 0 {
		parts := make([]string, 0, len(result.Counts))
		for _, key := range slices.Sorted(maps.Keys(result.Counts)) {
			parts = append(parts, fmt.Sprintf("%s=%d", key, result.Counts[key]))
		}
		line += " (" + strings.Join(parts, " ") + ")"
	}
	p.logger.Debug(line)
}
